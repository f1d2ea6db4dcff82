package query

import (
	"context"
	"maps"
	"slices"

	"github.com/example/mixbox-shop/internal/domain/basket"
	"github.com/example/mixbox-shop/internal/domain/catalog"
	"github.com/example/mixbox-shop/internal/domain/pricing"
	"github.com/example/mixbox-shop/internal/domain/session"
	"github.com/example/mixbox-shop/internal/infrastructure/store"
	"github.com/example/mixbox-shop/internal/readmodel"
)

type Handler struct {
	catalog   catalog.Repository
	summaries store.SummaryStore
	currency  string
}

func NewHandler(repo catalog.Repository, summaries store.SummaryStore, currency string) *Handler {
	return &Handler{catalog: repo, summaries: summaries, currency: currency}
}

// Basket
func (h *Handler) GetBasket(sess *session.Session) *BasketDetails {
	b := sess.Basket
	items := b.Items
	if items == nil {
		items = []basket.Item{}
	}
	price, recycling := b.Totals()
	totals := BasketTotals{Items: price, Recycling: recycling, Currency: h.currency}
	if b.DeliveryDetails != nil {
		totals.DeliveryFee = b.DeliveryDetails.DeliveryFee
	}
	totals.Total = totals.Items + totals.Recycling + totals.DeliveryFee

	return &BasketDetails{
		Items:           items,
		CustomerDetails: b.CustomerDetails,
		DeliveryDetails: b.DeliveryDetails,
		Totals:          totals,
	}
}

// GetSummary returns the projected summary. Projections are eventually
// consistent and may lag the session.
func (h *Handler) GetSummary(ctx context.Context, sessionID string) (*readmodel.BasketSummary, bool, error) {
	if h.summaries == nil {
		return nil, false, nil
	}
	return h.summaries.Get(ctx, sessionID)
}

// Pricing
func (h *Handler) Price(ctx context.Context, q PriceQuery) (pricing.Quote, error) {
	pkg, err := h.catalog.GetPackage(ctx, q.PackageSlug)
	if err != nil {
		return pricing.Quote{}, err
	}
	products := pricing.Normalize(q.SelectedProducts)
	drinks, err := h.catalog.GetDrinks(ctx, slices.Sorted(maps.Keys(products)))
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Calculate(pkg, q.Size, products, drinks)
}

// Catalog
func (h *Handler) ListPackages(ctx context.Context) ([]catalog.Package, error) {
	return h.catalog.ListPackages(ctx)
}

func (h *Handler) GetPackage(ctx context.Context, slug string) (*catalog.Package, error) {
	return h.catalog.GetPackage(ctx, slug)
}

func (h *Handler) ListDrinks(ctx context.Context) ([]catalog.Drink, error) {
	return h.catalog.ListDrinks(ctx)
}
