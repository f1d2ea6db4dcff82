package api

import "github.com/example/mixbox-shop/internal/domain/selection"

type randomSelectionRequest struct {
	SessionID         string         `json:"sessionId"`
	Slug              string         `json:"slug"`
	SelectedSize      selection.Size `json:"selectedSize"`
	SugarPreference   string         `json:"sugarPreference"`
	IsCustomSelection bool           `json:"isCustomSelection"`
	SelectedProducts  map[string]int `json:"selectedProducts"`
}

type createSelectionRequest struct {
	SelectedProducts map[string]int `json:"selectedProducts"`
	SelectedSize     selection.Size `json:"selectedSize"`
	PackageSlug      string         `json:"packageSlug"`
	IsMysteryBox     bool           `json:"isMysteryBox"`
	SugarPreference  string         `json:"sugarPreference"`
}

type priceRequest struct {
	SelectedProducts map[string]int `json:"selectedProducts"`
	SelectedSize     selection.Size `json:"selectedSize"`
	Slug             string         `json:"slug"`
	IsMysteryBox     bool           `json:"isMysteryBox"`
	SugarPreference  string         `json:"sugarPreference"`
}

type consentRequest struct {
	Consent *bool `json:"consent"`
}
