package command

import (
	"context"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/domain/basket"
	"github.com/example/mixbox-shop/internal/domain/catalog"
	"github.com/example/mixbox-shop/internal/domain/pricing"
	"github.com/example/mixbox-shop/internal/domain/selection"
	"github.com/example/mixbox-shop/internal/domain/session"
	"github.com/example/mixbox-shop/internal/events"
)

type Handler struct {
	sessions  *session.Service
	catalog   catalog.Repository
	mutator   *basket.Mutator
	generator *selection.Generator
	recorder  *events.Recorder
	currency  string
	logger    *zap.Logger
}

func NewHandler(
	sessions *session.Service,
	repo catalog.Repository,
	mutator *basket.Mutator,
	generator *selection.Generator,
	recorder *events.Recorder,
	currency string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		sessions:  sessions,
		catalog:   repo,
		mutator:   mutator,
		generator: generator,
		recorder:  recorder,
		currency:  currency,
		logger:    logger.With(zap.String("component", "command")),
	}
}

// GenerateSelection stores a random selection for the package, or the caller's
// mapping when a custom selection is supplied.
func (h *Handler) GenerateSelection(ctx context.Context, sess *session.Session, cmd GenerateSelection) (map[string]int, string, error) {
	pref, err := selection.ParsePreference(cmd.SugarPreference)
	if err != nil {
		return nil, "", err
	}
	if cmd.Size < 1 {
		return nil, "", selection.ErrInvalidSize
	}
	pkg, err := h.catalog.GetPackage(ctx, cmd.PackageSlug)
	if err != nil {
		return nil, "", err
	}

	var products map[string]int
	custom := cmd.IsCustomSelection && len(cmd.SelectedProducts) > 0
	if custom {
		products = pricing.Normalize(cmd.SelectedProducts)
		if _, err := h.price(ctx, pkg, cmd.Size, products); err != nil {
			return nil, "", err
		}
	} else {
		if _, ok := pkg.SizeOption(cmd.Size); !ok {
			return nil, "", pricing.ErrInvalidSize
		}
		pool, err := catalog.CandidatePool(ctx, h.catalog, pkg)
		if err != nil {
			return nil, "", err
		}
		products, err = h.generator.Random(pool, cmd.Size, pref)
		if err != nil {
			return nil, "", err
		}
	}

	id := sess.AddSelection(selection.Temporary{
		PackageSlug:       pkg.Slug,
		SelectedSize:      cmd.Size,
		SelectedProducts:  products,
		SugarPreference:   pref,
		IsCustomSelection: custom,
	}, h.sessions.Now())
	if err := h.sessions.Save(ctx, sess); err != nil {
		return nil, "", err
	}
	return products, id, nil
}

// CreateSelection prices a caller-chosen mapping and parks it in the session.
func (h *Handler) CreateSelection(ctx context.Context, sess *session.Session, cmd CreateSelection) (string, pricing.Quote, error) {
	pref, err := selection.ParsePreference(cmd.SugarPreference)
	if err != nil {
		return "", pricing.Quote{}, err
	}
	pkg, err := h.catalog.GetPackage(ctx, cmd.PackageSlug)
	if err != nil {
		return "", pricing.Quote{}, err
	}
	products := pricing.Normalize(cmd.SelectedProducts)
	quote, err := h.price(ctx, pkg, cmd.Size, products)
	if err != nil {
		return "", pricing.Quote{}, err
	}

	id := sess.AddSelection(selection.Temporary{
		PackageSlug:       pkg.Slug,
		SelectedSize:      cmd.Size,
		SelectedProducts:  products,
		SugarPreference:   pref,
		IsCustomSelection: !cmd.IsMysteryBox,
	}, h.sessions.Now())
	if err := h.sessions.Save(ctx, sess); err != nil {
		return "", pricing.Quote{}, err
	}
	return id, quote, nil
}

// UpdateBasket applies the action, saves the session conditioned on its
// version and publishes a BasketChanged event.
func (h *Handler) UpdateBasket(ctx context.Context, sess *session.Session, cmd UpdateBasket) error {
	now := h.sessions.Now()
	out, err := h.mutator.Apply(ctx, &sess.Basket, sess.SelectionSource(now, h.sessions.SelectionTTL()), cmd.Action)
	if err != nil {
		return err
	}
	sess.Commit(out)
	if err := h.sessions.Save(ctx, sess); err != nil {
		return err
	}

	payload := events.NewBasketChanged(sess.ID, cmd.Action.Name(), h.currency, &sess.Basket, now)
	if _, err := h.recorder.Record(ctx, sess.ID, events.EventBasketChanged, sess.Version, payload); err != nil {
		h.logger.Warn("publish basket event failed",
			zap.String("session_id", sess.ID),
			zap.String("action", cmd.Action.Name()),
			zap.Error(err))
	}
	return nil
}

func (h *Handler) SetConsent(ctx context.Context, sess *session.Session, cmd SetConsent) error {
	sess.CookieConsent = cmd.Consent
	return h.sessions.Save(ctx, sess)
}

// DeleteSession removes the session and tells projections to forget it.
func (h *Handler) DeleteSession(ctx context.Context, sessionID string) error {
	if err := h.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	payload := events.SessionDeleted{SessionID: sessionID, OccurredAt: h.sessions.Now()}
	if _, err := h.recorder.Record(ctx, sessionID, events.EventSessionDeleted, 0, payload); err != nil {
		h.logger.Warn("publish session deleted failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return nil
}

func (h *Handler) price(ctx context.Context, pkg *catalog.Package, size int, products map[string]int) (pricing.Quote, error) {
	drinks, err := h.catalog.GetDrinks(ctx, slices.Sorted(maps.Keys(products)))
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Calculate(pkg, size, products, drinks)
}
