package basket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mixbox-shop/internal/domain/catalog"
	"github.com/example/mixbox-shop/internal/domain/delivery"
	"github.com/example/mixbox-shop/internal/domain/selection"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeCatalog struct {
	packages map[string]catalog.Package
	drinks   map[string]catalog.Drink
	err      error
}

func (f *fakeCatalog) GetPackage(_ context.Context, slug string) (*catalog.Package, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.packages[slug]
	if !ok {
		return nil, catalog.ErrPackageNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) ListPackages(context.Context) ([]catalog.Package, error) { return nil, nil }

func (f *fakeCatalog) GetDrinks(_ context.Context, slugs []string) (map[string]catalog.Drink, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]catalog.Drink{}
	for _, s := range slugs {
		if d, ok := f.drinks[s]; ok {
			out[s] = d
		}
	}
	return out, nil
}

func (f *fakeCatalog) ListDrinks(context.Context) ([]catalog.Drink, error) { return nil, nil }

type fakeSelections map[string]*selection.Temporary

func (f fakeSelections) Selection(id string) (*selection.Temporary, error) {
	s, ok := f[id]
	if !ok {
		return nil, selection.ErrInvalidSelection
	}
	return s, nil
}

func newTestCatalog() *fakeCatalog {
	return &fakeCatalog{
		packages: map[string]catalog.Package{
			"mix-8": {Slug: "mix-8", Sizes: []catalog.SizeOption{{Size: 8, Discount: 0.9, RoundUpOrDown: 5}}},
		},
		drinks: map[string]catalog.Drink{
			"drink-a": {Slug: "drink-a", SalePrice: 2000, RecyclingFee: 0, Size: "0.5 L"},
			"drink-b": {Slug: "drink-b", SalePrice: 2500, RecyclingFee: 100, Size: "0.5 L"},
		},
	}
}

func newTestMutator() (*Mutator, *fakeCatalog) {
	cat := newTestCatalog()
	return NewMutator(cat, delivery.NewCalculator(nil), "DKK", "Danmark", WithClock(func() time.Time { return testNow })), cat
}

func newTestSelections() fakeSelections {
	return fakeSelections{
		"sel-even": {ID: "sel-even", PackageSlug: "mix-8", SelectedSize: 8, SelectedProducts: map[string]int{"drink-a": 4, "drink-b": 4}},
		"sel-same": {ID: "sel-same", PackageSlug: "mix-8", SelectedSize: 8, SelectedProducts: map[string]int{"drink-b": 4, "drink-a": 4, "drink-c": 0}},
		"sel-skew": {ID: "sel-skew", PackageSlug: "mix-8", SelectedSize: 8, SelectedProducts: map[string]int{"drink-a": 5, "drink-b": 3}},
		"sel-bad":  {ID: "sel-bad", PackageSlug: "mix-8", SelectedSize: 8, SelectedProducts: map[string]int{"drink-a": 7}},
	}
}

func intPtr(i int) *int { return &i }

func apply(t *testing.T, m *Mutator, b *Basket, a Action) *Basket {
	t.Helper()
	out, err := m.Apply(context.Background(), b, newTestSelections(), a)
	require.NoError(t, err)
	return &out.Basket
}

// ============================================
// AddItem Tests
// ============================================

func TestMutator_AddItem_PricesLine(t *testing.T) {
	m, _ := newTestMutator()

	out, err := m.Apply(context.Background(), &Basket{}, newTestSelections(), AddItem{SelectionID: "sel-even", Quantity: 2})

	require.NoError(t, err)
	assert.Equal(t, "sel-even", out.ConsumedSelectionID)
	require.Len(t, out.Basket.Items, 1)
	item := out.Basket.Items[0]
	assert.Equal(t, 16500, item.PricePerPackage)
	assert.Equal(t, 400, item.RecyclingFeePerPackage)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, 33000, item.TotalPrice)
	assert.Equal(t, 800, item.TotalRecyclingFee)
	assert.Equal(t, testNow, item.AddedAt)
}

func TestMutator_AddItem_MergesIdenticalSelection(t *testing.T) {
	m, _ := newTestMutator()

	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: 2})
	b = apply(t, m, b, AddItem{SelectionID: "sel-same", Quantity: 3})

	require.Len(t, b.Items, 1)
	assert.Equal(t, 5, b.Items[0].Quantity)
	assert.Equal(t, 5*16500, b.Items[0].TotalPrice)
	assert.Equal(t, 5*400, b.Items[0].TotalRecyclingFee)
}

func TestMutator_AddItem_DifferentMappingNotMerged(t *testing.T) {
	m, _ := newTestMutator()

	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: 1})
	b = apply(t, m, b, AddItem{SelectionID: "sel-skew", Quantity: 1})

	require.Len(t, b.Items, 2)
	assert.Equal(t, 1, b.Items[0].Quantity)
	assert.Equal(t, 1, b.Items[1].Quantity)
}

func TestMutator_AddItem_Errors(t *testing.T) {
	m, _ := newTestMutator()

	tests := []struct {
		name    string
		action  AddItem
		wantErr error
	}{
		{"missing selection id", AddItem{Quantity: 1}, ErrMissingField},
		{"zero quantity", AddItem{SelectionID: "sel-even"}, ErrInvalidQuantity},
		{"negative quantity", AddItem{SelectionID: "sel-even", Quantity: -1}, ErrInvalidQuantity},
		{"quantity above cap", AddItem{SelectionID: "sel-even", Quantity: MaxQuantity + 1}, ErrInvalidQuantity},
		{"huge quantity", AddItem{SelectionID: "sel-even", Quantity: 1 << 60}, ErrInvalidQuantity},
		{"unknown selection", AddItem{SelectionID: "nope", Quantity: 1}, selection.ErrInvalidSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Apply(context.Background(), &Basket{}, newTestSelections(), tt.action)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestMutator_AddItem_MergeBeyondCapRejected(t *testing.T) {
	m, _ := newTestMutator()
	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: MaxQuantity})
	b = apply(t, m, b, newTestDelivery(delivery.HomeDelivery))
	fee := b.DeliveryDetails.DeliveryFee

	_, err := m.Apply(context.Background(), b, newTestSelections(), AddItem{SelectionID: "sel-same", Quantity: 1})

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	require.Len(t, b.Items, 1)
	assert.Equal(t, MaxQuantity, b.Items[0].Quantity)
	assert.Equal(t, 16500*MaxQuantity, b.Items[0].TotalPrice)
	assert.Equal(t, 400*MaxQuantity, b.Items[0].TotalRecyclingFee)
	assert.Equal(t, fee, b.DeliveryDetails.DeliveryFee)
}

func TestMutator_AddItem_QuantityMismatchLeavesBasket(t *testing.T) {
	m, _ := newTestMutator()
	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: 1})

	_, err := m.Apply(context.Background(), b, newTestSelections(), AddItem{SelectionID: "sel-bad", Quantity: 1})

	require.Error(t, err)
	assert.Len(t, b.Items, 1)
}

func TestMutator_AddItem_StoreError(t *testing.T) {
	m, cat := newTestMutator()
	cat.err = errors.New("connection refused")

	_, err := m.Apply(context.Background(), &Basket{}, newTestSelections(), AddItem{SelectionID: "sel-even", Quantity: 1})

	assert.EqualError(t, err, "connection refused")
}

// ============================================
// RemoveItem / UpdateQuantity Tests
// ============================================

func TestMutator_RemoveItem(t *testing.T) {
	m, _ := newTestMutator()
	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: 1})
	b = apply(t, m, b, AddItem{SelectionID: "sel-skew", Quantity: 1})

	b = apply(t, m, b, RemoveItem{ItemIndex: intPtr(0)})

	require.Len(t, b.Items, 1)
	assert.Equal(t, map[string]int{"drink-a": 5, "drink-b": 3}, b.Items[0].SelectedProducts)
}

func TestMutator_InvalidIndex(t *testing.T) {
	m, _ := newTestMutator()
	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: 1})

	for _, idx := range []*int{nil, intPtr(-1), intPtr(1), intPtr(5)} {
		_, err := m.Apply(context.Background(), b, nil, RemoveItem{ItemIndex: idx})
		assert.ErrorIs(t, err, ErrInvalidItemIndex)

		_, err = m.Apply(context.Background(), b, nil, UpdateQuantity{ItemIndex: idx, Quantity: 2})
		assert.ErrorIs(t, err, ErrInvalidItemIndex)
	}
}

func TestMutator_UpdateQuantity_UsesFrozenPrice(t *testing.T) {
	m, cat := newTestMutator()
	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: 1})

	// a later catalog price change must not affect the line
	d := cat.drinks["drink-a"]
	d.SalePrice = 9999
	cat.drinks["drink-a"] = d

	b = apply(t, m, b, UpdateQuantity{ItemIndex: intPtr(0), Quantity: 3})

	assert.Equal(t, 3, b.Items[0].Quantity)
	assert.Equal(t, 3*16500, b.Items[0].TotalPrice)
	assert.Equal(t, 3*400, b.Items[0].TotalRecyclingFee)
}

func TestMutator_UpdateQuantity_RejectsOutOfRange(t *testing.T) {
	m, _ := newTestMutator()
	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: 1})

	for _, q := range []int{0, -3, MaxQuantity + 1, 1 << 60} {
		_, err := m.Apply(context.Background(), b, nil, UpdateQuantity{ItemIndex: intPtr(0), Quantity: q})
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", q)
	}

	b = apply(t, m, b, UpdateQuantity{ItemIndex: intPtr(0), Quantity: MaxQuantity})
	assert.Equal(t, 16500*MaxQuantity, b.Items[0].TotalPrice)
}

// ============================================
// Delivery Tests
// ============================================

func newTestDelivery(t delivery.Type) UpdateDeliveryDetails {
	return UpdateDeliveryDetails{
		DeliveryOption:  &DeliveryOption{Provider: "gls", DeliveryType: t},
		DeliveryAddress: map[string]any{"street": "Vestergade 1", "zip": "8000"},
		ProviderDetails: map[string]any{"shopId": "123"},
	}
}

func TestMutator_UpdateDelivery_ComputesFeeFromWeight(t *testing.T) {
	m, _ := newTestMutator()
	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: 1})

	b = apply(t, m, b, newTestDelivery(delivery.PickupPoint))

	require.NotNil(t, b.DeliveryDetails)
	// 8 × 520 g = 4160 g
	assert.Equal(t, 4900, b.DeliveryDetails.DeliveryFee)
	assert.Equal(t, "DKK", b.DeliveryDetails.Currency)
	assert.Equal(t, "gls", b.DeliveryDetails.Provider)
	assert.Equal(t, testNow, b.DeliveryDetails.CreatedAt)
}

func TestMutator_FeeRecomputedOnCompositionChange(t *testing.T) {
	m, _ := newTestMutator()
	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: 1})
	b = apply(t, m, b, newTestDelivery(delivery.HomeDelivery))
	assert.Equal(t, 6900, b.DeliveryDetails.DeliveryFee)

	// 24 × 520 g = 12480 g
	b = apply(t, m, b, UpdateQuantity{ItemIndex: intPtr(0), Quantity: 3})
	assert.Equal(t, 8900, b.DeliveryDetails.DeliveryFee)

	b = apply(t, m, b, RemoveItem{ItemIndex: intPtr(0)})
	assert.Equal(t, 6900, b.DeliveryDetails.DeliveryFee)
}

func TestMutator_UpdateDelivery_MissingFields(t *testing.T) {
	m, _ := newTestMutator()

	tests := []struct {
		name   string
		mutate func(*UpdateDeliveryDetails)
	}{
		{"no option", func(a *UpdateDeliveryDetails) { a.DeliveryOption = nil }},
		{"no provider", func(a *UpdateDeliveryDetails) { a.DeliveryOption.Provider = "" }},
		{"no address", func(a *UpdateDeliveryDetails) { a.DeliveryAddress = nil }},
		{"no provider details", func(a *UpdateDeliveryDetails) { a.ProviderDetails = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestDelivery(delivery.PickupPoint)
			tt.mutate(&a)
			_, err := m.Apply(context.Background(), &Basket{}, nil, a)
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}
}

func TestMutator_UpdateDelivery_UnknownType(t *testing.T) {
	m, _ := newTestMutator()

	_, err := m.Apply(context.Background(), &Basket{}, nil, newTestDelivery("drone"))

	assert.ErrorIs(t, err, delivery.ErrUnknownDeliveryType)
}

func TestMutator_ClearBasket_KeepsMethod(t *testing.T) {
	m, _ := newTestMutator()
	b := apply(t, m, &Basket{}, AddItem{SelectionID: "sel-even", Quantity: 5})
	b = apply(t, m, b, newTestDelivery(delivery.PickupPoint))

	b = apply(t, m, b, ClearBasket{})

	assert.Empty(t, b.Items)
	require.NotNil(t, b.DeliveryDetails)
	assert.Equal(t, 4900, b.DeliveryDetails.DeliveryFee)
}

// ============================================
// Customer Details Tests
// ============================================

func newTestCustomer() *CustomerDetails {
	return &CustomerDetails{
		FullName:     " Anna Jensen ",
		MobileNumber: "12345678",
		Email:        "anna@example.dk",
		Address:      "Vestergade 1",
		PostalCode:   "8000",
		City:         "Aarhus",
	}
}

func TestMutator_UpdateCustomer_TrimsAndDefaultsCountry(t *testing.T) {
	m, _ := newTestMutator()

	b := apply(t, m, &Basket{}, UpdateCustomerDetails{CustomerDetails: newTestCustomer()})

	require.NotNil(t, b.CustomerDetails)
	assert.Equal(t, "Anna Jensen", b.CustomerDetails.FullName)
	assert.Equal(t, "Danmark", b.CustomerDetails.Country)
}

func TestMutator_UpdateCustomer_KeepsExistingCountry(t *testing.T) {
	m, _ := newTestMutator()
	existing := &Basket{CustomerDetails: &CustomerDetails{Country: "Sverige"}}

	b := apply(t, m, existing, UpdateCustomerDetails{CustomerDetails: newTestCustomer()})

	assert.Equal(t, "Sverige", b.CustomerDetails.Country)
}

func TestMutator_UpdateCustomer_ShortMobileLeavesDetails(t *testing.T) {
	m, _ := newTestMutator()
	b := apply(t, m, &Basket{}, UpdateCustomerDetails{CustomerDetails: newTestCustomer()})
	before := *b.CustomerDetails

	bad := newTestCustomer()
	bad.MobileNumber = "12345"
	bad.City = "Odense"
	_, err := m.Apply(context.Background(), b, nil, UpdateCustomerDetails{CustomerDetails: bad})

	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "mobileNumber")
	assert.Len(t, fe, 1)
	assert.Equal(t, before, *b.CustomerDetails)
}

func TestValidateCustomer_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CustomerDetails)
		field  string
	}{
		{"blank name", func(c *CustomerDetails) { c.FullName = "   " }, "fullName"},
		{"letters in mobile", func(c *CustomerDetails) { c.MobileNumber = "1234567a" }, "mobileNumber"},
		{"signed mobile", func(c *CustomerDetails) { c.MobileNumber = "+1234567" }, "mobileNumber"},
		{"bad email", func(c *CustomerDetails) { c.Email = "anna@" }, "email"},
		{"no address", func(c *CustomerDetails) { c.Address = "" }, "address"},
		{"five digit postal code", func(c *CustomerDetails) { c.PostalCode = "80000" }, "postalCode"},
		{"no city", func(c *CustomerDetails) { c.City = "" }, "city"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCustomer()
			tt.mutate(c)

			_, err := ValidateCustomer(*c)

			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe, tt.field)
		})
	}
}

// ============================================
// DecodeAction Tests
// ============================================

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction([]byte(`{"action":"addItem","selectionId":"s1","quantity":2}`))
	require.NoError(t, err)
	assert.Equal(t, AddItem{SelectionID: "s1", Quantity: 2}, a)

	a, err = DecodeAction([]byte(`{"action":"removeItem","itemIndex":0}`))
	require.NoError(t, err)
	assert.Equal(t, 0, *a.(RemoveItem).ItemIndex)

	a, err = DecodeAction([]byte(`{"action":"updateDeliveryDetails","deliveryOption":{"provider":"gls","deliveryType":"pickupPoint"},"deliveryAddress":{"zip":"8000"},"providerDetails":{}}`))
	require.NoError(t, err)
	assert.Equal(t, delivery.PickupPoint, a.(UpdateDeliveryDetails).DeliveryOption.DeliveryType)

	a, err = DecodeAction([]byte(`{"action":"clearBasket"}`))
	require.NoError(t, err)
	assert.Equal(t, ActionClearBasket, a.Name())

	_, err = DecodeAction([]byte(`{"action":"checkout"}`))
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = DecodeAction([]byte(`{"quantity":1}`))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestBasket_CloneIsDeep(t *testing.T) {
	b := Basket{Items: []Item{{SelectedProducts: map[string]int{"a": 1}}}}

	c := b.Clone()
	c.Items[0].SelectedProducts["a"] = 9

	assert.Equal(t, 1, b.Items[0].SelectedProducts["a"])
}
