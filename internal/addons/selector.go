// Package addons holds the state of the add-on selector widget: which offers
// are toggled on, their quantities, and the payload handed to the flow engine.
package addons

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/flowforms/internal/flow"
	"github.com/jask/flowforms/internal/quantity"
)

var (
	ErrNotSelected = errors.New("add-on is not selected")
	ErrOutOfRange  = errors.New("quantity must be at least 1")
)

// Selected is one toggled-on offer.
type Selected struct {
	ID       string
	Quantity int
}

// Selector is the add-on widget state. It is owned by a single widget
// instance and is not safe for concurrent use.
type Selector struct {
	offers     []Offer
	byID       map[string]Offer
	selected   []Selected
	jsonPath   map[string]any
	flowID     string
	defaultMax int
	submitting bool
}

type Option func(*Selector)

// WithDefaultMaxCount sets the maximum used for offers without maxCount.
func WithDefaultMaxCount(n int) Option {
	return func(s *Selector) {
		if n >= 1 {
			s.defaultMax = n
		}
	}
}

// WithFlowID tags submitted events with the flow identifier.
func WithFlowID(id string) Option {
	return func(s *Selector) { s.flowID = id }
}

func New(offers []Offer, jsonPath map[string]any, opts ...Option) *Selector {
	s := &Selector{
		offers:     append([]Offer(nil), offers...),
		byID:       make(map[string]Offer, len(offers)),
		jsonPath:   jsonPath,
		defaultMax: DefaultMaxCount,
	}
	for _, o := range offers {
		s.byID[o.ID] = o
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Selector) Offers() []Offer {
	return append([]Offer(nil), s.offers...)
}

func (s *Selector) Selected() []Selected {
	return append([]Selected(nil), s.selected...)
}

func (s *Selector) index(id string) int {
	for i, sel := range s.selected {
		if sel.ID == id {
			return i
		}
	}
	return -1
}

func (s *Selector) IsSelected(id string) bool {
	return s.index(id) >= 0
}

// Quantity returns the selected quantity for id, or 0 when not selected.
func (s *Selector) Quantity(id string) int {
	if i := s.index(id); i >= 0 {
		return s.selected[i].Quantity
	}
	return 0
}

// MaxCount is the offer's own maximum, or the selector default.
func (s *Selector) MaxCount(id string) int {
	if o, ok := s.byID[id]; ok && o.MaxCount != nil && *o.MaxCount >= 1 {
		return *o.MaxCount
	}
	return s.defaultMax
}

// Toggle selects an unselected id with quantity 1, or drops a selected one.
// Ids outside the offer list are selected like any other and use the
// default maximum.
func (s *Selector) Toggle(id string) {
	if i := s.index(id); i >= 0 {
		s.selected = append(s.selected[:i], s.selected[i+1:]...)
		return
	}
	s.selected = append(s.selected, Selected{ID: id, Quantity: 1})
}

// SetQuantity sets a typed quantity. Values above the offer maximum are
// clamped; values below 1 are rejected.
func (s *Selector) SetQuantity(id string, n int) error {
	i := s.index(id)
	if i < 0 {
		return ErrNotSelected
	}
	if n < 1 {
		return ErrOutOfRange
	}
	s.selected[i].Quantity = min(n, s.MaxCount(id))
	return nil
}

// SetQuantityInput applies raw text input the way the quantity field does:
// non-numeric input becomes 1, everything is clamped into [1, max].
func (s *Selector) SetQuantityInput(id, raw string) error {
	i := s.index(id)
	if i < 0 {
		return ErrNotSelected
	}
	s.selected[i].Quantity = Clamp(raw, s.MaxCount(id))
	return nil
}

// Clamp parses raw as a number and clamps it into [1, maxCount].
// Anything that is not a number yields 1.
func Clamp(raw string, maxCount int) int {
	return quantity.Clamp(raw, maxCount)
}

// Payload builds the form data. An empty selection yields no add-on fields,
// which the engine reads as "continue without add-ons".
func (s *Selector) Payload() map[string]any {
	out := map[string]any{}
	if len(s.selected) == 0 {
		return out
	}
	ids := make([]string, len(s.selected))
	qty := make([]string, len(s.selected))
	for i, sel := range s.selected {
		ids[i] = sel.ID
		qty[i] = strconv.Itoa(sel.Quantity)
	}
	out["addon_ids"] = strings.Join(ids, ",")
	out["addon_quantities"] = strings.Join(qty, ",")
	return out
}

// Total sums price times quantity over priced selections.
func (s *Selector) Total() decimal.Decimal {
	total := decimal.Zero
	for _, sel := range s.selected {
		o := s.byID[sel.ID]
		if o.Price == nil {
			continue
		}
		total = total.Add(o.Price.Mul(decimal.NewFromInt(int64(sel.Quantity))))
	}
	return total
}

// Submitting reports whether a submission is in flight.
func (s *Selector) Submitting() bool { return s.submitting }

// BeginSubmit marks a submission in flight and returns the event to send.
// It returns false when one is already in flight.
func (s *Selector) BeginSubmit() (flow.Event, bool) {
	if s.submitting {
		return flow.Event{}, false
	}
	s.submitting = true
	return flow.Event{
		Widget:   flow.WidgetAddons,
		FlowID:   s.flowID,
		JSONPath: s.jsonPath,
		FormData: s.Payload(),
	}, true
}

// EndSubmit clears the in-flight flag.
func (s *Selector) EndSubmit() { s.submitting = false }

// Submit sends the payload through sub, clearing the in-flight flag whatever
// the outcome.
func (s *Selector) Submit(ctx context.Context, sub flow.Submitter) error {
	ev, ok := s.BeginSubmit()
	if !ok {
		return flow.ErrInFlight
	}
	defer s.EndSubmit()
	return sub.SubmitEvent(ctx, ev)
}
