// Package flow carries form submissions to the flow engine.
package flow

import (
	"context"
	"errors"
)

// ErrInFlight is returned when a widget is asked to submit while a previous
// submission has not resolved.
var ErrInFlight = errors.New("submission already in flight")

// Widget names used to tag events in logs, metrics and the journal.
const (
	WidgetAddons  = "addons"
	WidgetBooking = "booking"
)

// Event is the unit handed to the flow engine. JSONPath identifies the flow
// step; FormData carries the widget payload.
type Event struct {
	Widget   string         `json:"-"`
	FlowID   string         `json:"-"`
	JSONPath map[string]any `json:"jsonPath"`
	FormData map[string]any `json:"formData"`
}

// Submitter accepts events. Implementations may block for as long as the
// engine takes; callers must not assume synchronous completion.
type Submitter interface {
	SubmitEvent(ctx context.Context, ev Event) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, ev Event) error

func (f SubmitterFunc) SubmitEvent(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}
