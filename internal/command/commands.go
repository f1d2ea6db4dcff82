package command

import "github.com/example/mixbox-shop/internal/domain/basket"

// Selection Commands
type GenerateSelection struct {
	PackageSlug       string
	Size              int
	SugarPreference   string
	IsCustomSelection bool
	SelectedProducts  map[string]int
}

type CreateSelection struct {
	PackageSlug      string
	Size             int
	SelectedProducts map[string]int
	IsMysteryBox     bool
	SugarPreference  string
}

// Basket Commands
type UpdateBasket struct {
	Action basket.Action
}

// Session Commands
type SetConsent struct {
	Consent bool
}
