package basket

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomerDetails are the buyer's contact and shipping details.
type CustomerDetails struct {
	FullName     string `json:"fullName" bson:"fullName" validate:"required"`
	MobileNumber string `json:"mobileNumber" bson:"mobileNumber" validate:"required,len=8,number"`
	Email        string `json:"email" bson:"email" validate:"required,email"`
	Address      string `json:"address" bson:"address" validate:"required"`
	PostalCode   string `json:"postalCode" bson:"postalCode" validate:"required,len=4,number"`
	City         string `json:"city" bson:"city" validate:"required"`
	Country      string `json:"country,omitempty" bson:"country,omitempty"`
}

var fieldMessages = map[string]string{
	"fullName":     "Full name is required",
	"mobileNumber": "Mobile number must be exactly 8 digits",
	"email":        "Email address is invalid",
	"address":      "Address is required",
	"postalCode":   "Postal code must be exactly 4 digits",
	"city":         "City is required",
}

// FieldErrors maps a JSON field name to a human readable message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid customer details: " + strings.Join(fields, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (c CustomerDetails) trimmed() CustomerDetails {
	return CustomerDetails{
		FullName:     strings.TrimSpace(c.FullName),
		MobileNumber: strings.TrimSpace(c.MobileNumber),
		Email:        strings.TrimSpace(c.Email),
		Address:      strings.TrimSpace(c.Address),
		PostalCode:   strings.TrimSpace(c.PostalCode),
		City:         strings.TrimSpace(c.City),
		Country:      strings.TrimSpace(c.Country),
	}
}

// ValidateCustomer trims input and checks every field. It returns the trimmed
// details or a FieldErrors.
func ValidateCustomer(in CustomerDetails) (CustomerDetails, error) {
	c := in.trimmed()
	err := validate.Struct(c)
	if err == nil {
		return c, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return CustomerDetails{}, err
	}
	fe := FieldErrors{}
	for _, v := range verrs {
		msg, ok := fieldMessages[v.Field()]
		if !ok {
			msg = v.Error()
		}
		fe[v.Field()] = msg
	}
	return CustomerDetails{}, fe
}

// merge overlays c onto existing. Country falls back to the existing value, then def.
func (c CustomerDetails) merge(existing *CustomerDetails, def string) CustomerDetails {
	out := c
	if out.Country == "" && existing != nil {
		out.Country = existing.Country
	}
	if out.Country == "" {
		out.Country = def
	}
	return out
}
