package addons

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// DefaultMaxCount applies when an offer does not declare its own maximum.
const DefaultMaxCount = 10

// Offer is a selectable add-on supplied by the host.
type Offer struct {
	ID             string           `json:"id" validate:"required"`
	Name           string           `json:"name,omitempty"`
	Code           string           `json:"code,omitempty"`
	Currency       string           `json:"currency,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	AvailableCount *int             `json:"availableCount,omitempty" validate:"omitempty,min=0"`
	MaxCount       *int             `json:"maxCount,omitempty" validate:"omitempty,min=1"`
}

// Label is the display name, falling back to the code and then the id.
func (o Offer) Label() string {
	switch {
	case o.Name != "":
		return o.Name
	case o.Code != "":
		return o.Code
	default:
		return o.ID
	}
}

type referenceData struct {
	SelectedAddOns []Offer `json:"selected_add_ons"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ParseReferenceData reads offers from the host reference data document.
// A missing selected_add_ons key yields no offers. Every invalid offer is
// reported, not just the first.
func ParseReferenceData(raw []byte) ([]Offer, error) {
	var ref referenceData
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	var errs error
	for i, o := range ref.SelectedAddOns {
		if err := validate.Struct(o); err != nil {
			errs = multierr.Append(errs, offerError(i, err))
		}
	}
	if errs != nil {
		return nil, errs
	}
	if ref.SelectedAddOns == nil {
		return []Offer{}, nil
	}
	return ref.SelectedAddOns, nil
}

func offerError(i int, err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("selected_add_ons[%d]: %w", i, err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return fmt.Errorf("selected_add_ons[%d]: %s", i, strings.Join(parts, ", "))
}
