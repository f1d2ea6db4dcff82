package basket

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/example/mixbox-shop/internal/domain/catalog"
	"github.com/example/mixbox-shop/internal/domain/delivery"
	"github.com/example/mixbox-shop/internal/domain/pricing"
	"github.com/example/mixbox-shop/internal/domain/selection"
)

// SelectionSource resolves pending temporary selections by id.
type SelectionSource interface {
	Selection(id string) (*selection.Temporary, error)
}

// Outcome is the result of a successful Apply.
type Outcome struct {
	Basket Basket
	// ConsumedSelectionID is set when an addItem used up a temporary selection.
	ConsumedSelectionID string
}

// Mutator applies actions to baskets.
type Mutator struct {
	catalog        catalog.Repository
	fees           *delivery.Calculator
	currency       string
	defaultCountry string
	now            func() time.Time
}

type MutatorOption func(*Mutator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MutatorOption {
	return func(m *Mutator) { m.now = now }
}

func NewMutator(repo catalog.Repository, fees *delivery.Calculator, currency, defaultCountry string, opts ...MutatorOption) *Mutator {
	m := &Mutator{
		catalog:        repo,
		fees:           fees,
		currency:       currency,
		defaultCountry: defaultCountry,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Apply validates and applies action to a copy of b. b is never modified.
func (m *Mutator) Apply(ctx context.Context, b *Basket, selections SelectionSource, action Action) (*Outcome, error) {
	next := b.Clone()
	out := &Outcome{}

	var err error
	switch a := action.(type) {
	case AddItem:
		err = m.addItem(ctx, &next, selections, a)
		out.ConsumedSelectionID = a.SelectionID
	case RemoveItem:
		err = m.removeItem(ctx, &next, a)
	case UpdateQuantity:
		err = m.updateQuantity(ctx, &next, a)
	case UpdateDeliveryDetails:
		err = m.updateDelivery(ctx, &next, a)
	case UpdateCustomerDetails:
		err = m.updateCustomer(&next, a)
	case ClearBasket:
		next.Items = []Item{}
		err = m.recomputeFee(ctx, &next)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
	if err != nil {
		return nil, err
	}

	out.Basket = next
	return out, nil
}

func (m *Mutator) addItem(ctx context.Context, b *Basket, selections SelectionSource, a AddItem) error {
	if a.SelectionID == "" {
		return missing("selectionId")
	}
	if !validQuantity(a.Quantity) {
		return ErrInvalidQuantity
	}

	sel, err := selections.Selection(a.SelectionID)
	if err != nil {
		return err
	}
	pkg, err := m.catalog.GetPackage(ctx, sel.PackageSlug)
	if err != nil {
		return err
	}
	products := pricing.Normalize(sel.SelectedProducts)
	drinks, err := m.catalog.GetDrinks(ctx, slices.Sorted(maps.Keys(products)))
	if err != nil {
		return err
	}
	quote, err := pricing.Calculate(pkg, sel.SelectedSize, products, drinks)
	if err != nil {
		return err
	}

	line := Item{
		PackageSlug:            pkg.Slug,
		PackageSize:            sel.SelectedSize,
		SelectedProducts:       products,
		PricePerPackage:        quote.PricePerPackage,
		RecyclingFeePerPackage: quote.RecyclingFeePerPackage,
		SugarPreference:        sel.SugarPreference,
		IsCustomSelection:      sel.IsCustomSelection,
		AddedAt:                m.now().UTC(),
	}
	line.setQuantity(a.Quantity)

	merged := false
	for i := range b.Items {
		if b.Items[i].SameLine(&line) {
			q := b.Items[i].Quantity + a.Quantity
			if !validQuantity(q) {
				return fmt.Errorf("%w: line would hold %d", ErrInvalidQuantity, q)
			}
			b.Items[i].setQuantity(q)
			merged = true
			break
		}
	}
	if !merged {
		b.Items = append(b.Items, line)
	}
	return m.recomputeFee(ctx, b)
}

func (m *Mutator) removeItem(ctx context.Context, b *Basket, a RemoveItem) error {
	if a.ItemIndex == nil || *a.ItemIndex < 0 || *a.ItemIndex >= len(b.Items) {
		return ErrInvalidItemIndex
	}
	b.Items = slices.Delete(b.Items, *a.ItemIndex, *a.ItemIndex+1)
	return m.recomputeFee(ctx, b)
}

func (m *Mutator) updateQuantity(ctx context.Context, b *Basket, a UpdateQuantity) error {
	if a.ItemIndex == nil || *a.ItemIndex < 0 || *a.ItemIndex >= len(b.Items) {
		return ErrInvalidItemIndex
	}
	if !validQuantity(a.Quantity) {
		return ErrInvalidQuantity
	}
	b.Items[*a.ItemIndex].setQuantity(a.Quantity)
	return m.recomputeFee(ctx, b)
}

func (m *Mutator) updateDelivery(ctx context.Context, b *Basket, a UpdateDeliveryDetails) error {
	switch {
	case a.DeliveryOption == nil || a.DeliveryOption.Provider == "" || a.DeliveryOption.DeliveryType == "":
		return missing("deliveryOption")
	case len(a.DeliveryAddress) == 0:
		return missing("deliveryAddress")
	case a.ProviderDetails == nil:
		return missing("providerDetails")
	}
	if !m.fees.Supports(a.DeliveryOption.DeliveryType) {
		return fmt.Errorf("%w: %q", delivery.ErrUnknownDeliveryType, a.DeliveryOption.DeliveryType)
	}

	b.DeliveryDetails = &DeliveryDetails{
		Provider:        a.DeliveryOption.Provider,
		DeliveryType:    a.DeliveryOption.DeliveryType,
		Currency:        m.currency,
		DeliveryAddress: maps.Clone(a.DeliveryAddress),
		ProviderDetails: maps.Clone(a.ProviderDetails),
		CreatedAt:       m.now().UTC(),
	}
	return m.recomputeFee(ctx, b)
}

func (m *Mutator) updateCustomer(b *Basket, a UpdateCustomerDetails) error {
	if a.CustomerDetails == nil {
		return missing("customerDetails")
	}
	c, err := ValidateCustomer(*a.CustomerDetails)
	if err != nil {
		return err
	}
	merged := c.merge(b.CustomerDetails, m.defaultCountry)
	b.CustomerDetails = &merged
	return nil
}

// recomputeFee refreshes the delivery fee when a method has been chosen.
func (m *Mutator) recomputeFee(ctx context.Context, b *Basket) error {
	if b.DeliveryDetails == nil {
		return nil
	}
	units := b.Units()
	drinks := map[string]catalog.Drink{}
	if len(units) > 0 {
		var err error
		drinks, err = m.catalog.GetDrinks(ctx, slices.Sorted(maps.Keys(units)))
		if err != nil {
			return err
		}
	}
	fee, err := m.fees.BasketFee(b.DeliveryDetails.DeliveryType, units, drinks)
	if err != nil {
		return err
	}
	b.DeliveryDetails.DeliveryFee = fee
	return nil
}
