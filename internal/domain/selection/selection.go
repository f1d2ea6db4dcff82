// Package selection builds the drink mappings a customer puts into a package.
package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/example/mixbox-shop/internal/domain/catalog"
)

var (
	ErrInvalidPreference = errors.New("invalid sugar preference")
	ErrNoMatchingDrinks  = errors.New("no drinks match preference")
	ErrInvalidSize       = errors.New("size must be at least 1")
	ErrInvalidSelection  = errors.New("invalid or expired selection")
)

// SugarPreference filters the random candidate pool.
type SugarPreference string

const (
	PreferenceAny       SugarPreference = "alle"
	PreferenceWithSugar SugarPreference = "med_sukker"
	PreferenceSugarFree SugarPreference = "uden_sukker"
)

// ParsePreference maps the wire value to a preference. Empty means any.
func ParsePreference(s string) (SugarPreference, error) {
	switch p := SugarPreference(strings.TrimSpace(s)); p {
	case "":
		return PreferenceAny, nil
	case PreferenceAny, PreferenceWithSugar, PreferenceSugarFree:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPreference, s)
	}
}

func (p SugarPreference) matches(d catalog.Drink) bool {
	switch p {
	case PreferenceWithSugar:
		return !d.SugarFree
	case PreferenceSugarFree:
		return d.SugarFree
	default:
		return true
	}
}

// Temporary is a priced-later drink mapping parked in a session until it is
// added to the basket.
type Temporary struct {
	ID                string          `json:"id" bson:"id"`
	PackageSlug       string          `json:"packageSlug" bson:"packageSlug"`
	SelectedSize      int             `json:"selectedSize" bson:"selectedSize"`
	SelectedProducts  map[string]int  `json:"selectedProducts" bson:"selectedProducts"`
	SugarPreference   SugarPreference `json:"sugarPreference,omitempty" bson:"sugarPreference,omitempty"`
	IsCustomSelection bool            `json:"isCustomSelection" bson:"isCustomSelection"`
	CreatedAt         time.Time       `json:"createdAt" bson:"createdAt"`
}

// Expired reports whether the selection is older than ttl at now.
// A non-positive ttl never expires.
func (t *Temporary) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(t.CreatedAt) > ttl
}

// IntN is the random source used by Generator.
type IntN interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Generator produces random selections.
type Generator struct {
	rnd IntN
}

// NewGenerator returns a Generator. A nil source uses the global math/rand/v2 source.
func NewGenerator(src IntN) *Generator {
	if src == nil {
		src = globalSource{}
	}
	return &Generator{rnd: src}
}

// Random draws size units with replacement from the drinks in pool matching pref.
func (g *Generator) Random(pool []catalog.Drink, size int, pref SugarPreference) (map[string]int, error) {
	if size < 1 {
		return nil, ErrInvalidSize
	}
	if pref == "" {
		pref = PreferenceAny
	}

	candidates := make([]string, 0, len(pool))
	for _, d := range pool {
		if pref.matches(d) {
			candidates = append(candidates, d.Slug)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingDrinks, pref)
	}

	out := make(map[string]int)
	for i := 0; i < size; i++ {
		out[candidates[g.rnd.IntN(len(candidates))]]++
	}
	return out, nil
}

// Size accepts a JSON number or a numeric string.
type Size int

func (s *Size) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		raw = strings.TrimSpace(str)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return fmt.Errorf("selectedSize: %q is not an integer", raw)
		}
		n = int(f)
	}
	*s = Size(n)
	return nil
}
