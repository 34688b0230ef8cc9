package booking

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"
)

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

// Payload is the structured result handed to the flow engine.
type Payload struct {
	Provider     string               `json:"provider"`
	Items        []Row                `json:"items"`
	Fulfillments []FulfillmentPayload `json:"fulfillments"`
}

// FulfillmentPayload is a fulfillment trimmed to what the engine needs.
type FulfillmentPayload struct {
	ID    string        `json:"id"`
	Stops []StopPayload `json:"stops"`
}

type StopPayload struct {
	Type string `json:"type"`
	Time any    `json:"time,omitempty"`
}

func (p Payload) FormData() map[string]any {
	return map[string]any{
		"provider":     p.Provider,
		"items":        p.Items,
		"fulfillments": p.Fulfillments,
	}
}

// Payload assembles the submission. The fulfillment is included only when
// the selected id resolves against the loaded catalog; instructions and any
// other stop detail are dropped. Every row is validated.
func (f *Form) Payload() (Payload, error) {
	p := Payload{
		Provider:     f.providerID,
		Items:        f.Rows(),
		Fulfillments: []FulfillmentPayload{},
	}
	if ful, ok := f.options.FulfillmentByID(f.fulfillmentID); ok {
		fp := FulfillmentPayload{ID: ful.ID, Stops: make([]StopPayload, 0, len(ful.Stops))}
		for _, s := range ful.Stops {
			fp.Stops = append(fp.Stops, StopPayload{Type: s.Type, Time: s.Time})
		}
		p.Fulfillments = append(p.Fulfillments, fp)
	}

	var errs error
	for i, r := range p.Items {
		if err := validate.Struct(r); err != nil {
			errs = multierr.Append(errs, rowError(i, err))
		}
	}
	if errs != nil {
		return Payload{}, errs
	}
	return p, nil
}

func rowError(i int, err error) error {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("row %d: %w", i+1, err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return fmt.Errorf("row %d: %s", i+1, strings.Join(parts, ", "))
}
