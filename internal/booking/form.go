// Package booking holds the state of the multi-item selection form: item
// rows, the shared provider and fulfillment, and the catalog options a
// pasted search response provides.
package booking

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/jask/flowforms/internal/catalog"
	"github.com/jask/flowforms/internal/flow"
	"github.com/jask/flowforms/internal/quantity"
)

var (
	ErrNoSuchRow          = errors.New("no such row")
	ErrUnknownItem        = errors.New("item is not in the loaded catalog")
	ErrUnknownAddOn       = errors.New("add-on is not offered for this item")
	ErrUnknownFulfillment = errors.New("fulfillment is not in the loaded catalog")
	ErrOutOfRange         = errors.New("value must be at least 1")
	ErrMultiItemDisabled  = errors.New("this flow does not support multiple items")
)

// Config carries host-provided settings.
type Config struct {
	FlowID   string
	JSONPath map[string]any

	// MultiItemFlows lists the flow ids that may book more than one row.
	MultiItemFlows []string
}

// Row is one item selection.
type Row struct {
	ItemID         string   `json:"itemId"`
	Count          int      `json:"count" validate:"min=1"`
	AddOnIDs       []string `json:"addOns"`
	AddOnsQuantity int      `json:"addOnsQuantity" validate:"min=1"`
	ParentItemID   string   `json:"parentItemId,omitempty"`
}

func newRow() Row {
	return Row{Count: 1, AddOnsQuantity: 1, AddOnIDs: []string{}}
}

func (r Row) clone() Row {
	r.AddOnIDs = slices.Clone(r.AddOnIDs)
	if r.AddOnIDs == nil {
		r.AddOnIDs = []string{}
	}
	return r
}

// Form is the booking widget state. All rows share one provider: selecting
// a catalog item on any row overwrites it. Not safe for concurrent use.
type Form struct {
	cfg           Config
	allowed       map[string]bool
	providerID    string
	rows          []Row
	fulfillmentID string
	options       catalog.Options
	submitting    bool
}

func New(cfg Config) *Form {
	allowed := make(map[string]bool, len(cfg.MultiItemFlows))
	for _, id := range cfg.MultiItemFlows {
		allowed[strings.TrimSpace(id)] = true
	}
	return &Form{
		cfg:     cfg,
		allowed: allowed,
		rows:    []Row{newRow()},
	}
}

func (f *Form) ProviderID() string    { return f.providerID }
func (f *Form) FulfillmentID() string { return f.fulfillmentID }
func (f *Form) Options() catalog.Options {
	return f.options
}

func (f *Form) Rows() []Row {
	out := make([]Row, len(f.rows))
	for i, r := range f.rows {
		out[i] = r.clone()
	}
	return out
}

func (f *Form) row(i int) (*Row, error) {
	if i < 0 || i >= len(f.rows) {
		return nil, ErrNoSuchRow
	}
	return &f.rows[i], nil
}

// HasItemOptions reports whether item fields offer catalog choices instead
// of free text.
func (f *Form) HasItemOptions() bool { return len(f.options.Items) > 0 }

// HasFulfillmentOptions reports whether the fulfillment field offers choices.
func (f *Form) HasFulfillmentOptions() bool { return len(f.options.Fulfillments) > 0 }

// ApplyPaste extracts options from a decoded catalog response. A document
// without message.catalog.providers is ignored. Options are replaced only
// when extraction succeeds in full.
func (f *Form) ApplyPaste(v any) (bool, error) {
	opts, ok, err := catalog.Extract(v)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	f.options = opts
	return true, nil
}

// SelectItem sets the row's item. With catalog options loaded the item must
// exist; its parent id is copied to the row, its provider becomes the form
// provider, and the row's add-ons are cleared.
func (f *Form) SelectItem(i int, itemID string) error {
	r, err := f.row(i)
	if err != nil {
		return err
	}
	itemID = strings.TrimSpace(itemID)
	if !f.HasItemOptions() {
		r.ItemID = itemID
		return nil
	}
	item, ok := f.options.ItemByID(itemID)
	if !ok {
		return ErrUnknownItem
	}
	r.ItemID = item.ID
	r.ParentItemID = item.ParentItemID
	r.AddOnIDs = []string{}
	f.providerID = item.ProviderID
	return nil
}

// SetProvider sets the provider directly; used when no catalog is loaded.
func (f *Form) SetProvider(id string) {
	f.providerID = strings.TrimSpace(id)
}

// AddOnOptions lists the add-on ids the row's catalog item offers.
func (f *Form) AddOnOptions(i int) []string {
	r, err := f.row(i)
	if err != nil || !f.HasItemOptions() {
		return nil
	}
	item, ok := f.options.ItemByID(r.ItemID)
	if !ok {
		return nil
	}
	return slices.Clone(item.AddOnIDs)
}

// AddAddOn appends id to the row's add-ons unless already present. There is
// no way to remove a single add-on; selecting a new item clears them all.
func (f *Form) AddAddOn(i int, id string) error {
	r, err := f.row(i)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrUnknownAddOn
	}
	if f.HasItemOptions() && !slices.Contains(f.AddOnOptions(i), id) {
		return ErrUnknownAddOn
	}
	if !slices.Contains(r.AddOnIDs, id) {
		r.AddOnIDs = append(r.AddOnIDs, id)
	}
	return nil
}

func (f *Form) SetCount(i, n int) error {
	r, err := f.row(i)
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrOutOfRange
	}
	r.Count = n
	return nil
}

// SetCountInput applies raw field text; anything unusable becomes 1.
func (f *Form) SetCountInput(i int, raw string) error {
	return f.SetCount(i, quantity.AtLeastOne(raw))
}

// SetAddOnsQuantity sets the one quantity shared by all of the row's add-ons.
func (f *Form) SetAddOnsQuantity(i, n int) error {
	r, err := f.row(i)
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrOutOfRange
	}
	r.AddOnsQuantity = n
	return nil
}

func (f *Form) SetAddOnsQuantityInput(i int, raw string) error {
	return f.SetAddOnsQuantity(i, quantity.AtLeastOne(raw))
}


// CanAddRow reports whether the current flow books multiple items.
func (f *Form) CanAddRow() bool { return f.allowed[f.cfg.FlowID] }

func (f *Form) AddRow() error {
	if !f.CanAddRow() {
		return ErrMultiItemDisabled
	}
	f.rows = append(f.rows, newRow())
	return nil
}

func (f *Form) CanRemoveRow() bool { return len(f.rows) > 1 }

// RemoveRow drops the last row. The last remaining row is never removed.
func (f *Form) RemoveRow() {
	if !f.CanRemoveRow() {
		return
	}
	f.rows = f.rows[:len(f.rows)-1]
}

// FulfillmentOptions lists the loaded catalog fulfillments.
func (f *Form) FulfillmentOptions() []catalog.Fulfillment {
	return slices.Clone(f.options.Fulfillments)
}

// SetFulfillment selects the shared fulfillment. With catalog fulfillments
// loaded the id must exist.
func (f *Form) SetFulfillment(id string) error {
	id = strings.TrimSpace(id)
	if f.HasFulfillmentOptions() {
		if _, ok := f.options.FulfillmentByID(id); !ok {
			return ErrUnknownFulfillment
		}
	}
	f.fulfillmentID = id
	return nil
}

// MixedProviders reports rows whose catalog items come from different
// providers. The form still submits a single provider.
func (f *Form) MixedProviders() bool {
	seen := ""
	for _, r := range f.rows {
		item, ok := f.options.ItemByID(r.ItemID)
		if !ok {
			continue
		}
		if seen != "" && item.ProviderID != seen {
			return true
		}
		seen = item.ProviderID
	}
	return false
}

func (f *Form) Submitting() bool { return f.submitting }

// BeginSubmit validates the payload and marks a submission in flight.
// It returns flow.ErrInFlight while a previous submission is unresolved.
func (f *Form) BeginSubmit() (flow.Event, error) {
	if f.submitting {
		return flow.Event{}, flow.ErrInFlight
	}
	p, err := f.Payload()
	if err != nil {
		return flow.Event{}, err
	}
	f.submitting = true
	return flow.Event{
		Widget:   flow.WidgetBooking,
		FlowID:   f.cfg.FlowID,
		JSONPath: f.cfg.JSONPath,
		FormData: p.FormData(),
	}, nil
}

func (f *Form) EndSubmit() { f.submitting = false }

// Submit validates and sends the payload through sub.
func (f *Form) Submit(ctx context.Context, sub flow.Submitter) error {
	ev, err := f.BeginSubmit()
	if err != nil {
		return err
	}
	defer f.EndSubmit()
	return sub.SubmitEvent(ctx, ev)
}
