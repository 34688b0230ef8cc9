package addons

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/jask/flowforms/internal/flow"
)

func intPtr(n int) *int { return &n }

func priced(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func testOffers() []Offer {
	return []Offer{
		{ID: "A", Name: "Extra bag", Price: priced("12.50"), MaxCount: intPtr(3)},
		{ID: "B", Name: "Meal"},
		{ID: "C", Code: "SEAT"},
	}
}

func TestToggleParity(t *testing.T) {
	for toggles := 0; toggles <= 5; toggles++ {
		s := New(testOffers(), nil)
		s.Toggle("B")
		before := s.Selected()
		for i := 0; i < toggles; i++ {
			s.Toggle("A")
		}
		if toggles%2 == 0 {
			require.Equal(t, before, s.Selected(), "toggles=%d", toggles)
			continue
		}
		require.True(t, s.IsSelected("A"))
		count := 0
		for _, sel := range s.Selected() {
			if sel.ID == "A" {
				count++
				require.Equal(t, 1, sel.Quantity)
			}
		}
		require.Equal(t, 1, count, "toggles=%d", toggles)
	}
}

func TestToggleIdOutsideOffers(t *testing.T) {
	s := New(nil, nil)
	s.Toggle("A")
	require.Equal(t, []Selected{{ID: "A", Quantity: 1}}, s.Selected())
	require.NoError(t, s.SetQuantityInput("A", "50"))
	require.Equal(t, DefaultMaxCount, s.Quantity("A"))
	require.True(t, s.Total().IsZero())

	s.Toggle("A")
	require.Empty(t, s.Selected())
}

func TestQuantityInputMatchesBookingRule(t *testing.T) {
	s := New(testOffers(), nil)
	s.Toggle("B")
	require.NoError(t, s.SetQuantityInput("B", "2.5"))
	require.Equal(t, 2, s.Quantity("B"))
}

func TestClampBounds(t *testing.T) {
	inputs := []string{"", "abc", "-4", "0", "1", "2", "3", "7", "99999999999999999999", "2.9", "NaN", "+Inf", "-Inf", " 5 "}
	for maxCount := 1; maxCount <= 12; maxCount++ {
		for _, in := range inputs {
			got := Clamp(in, maxCount)
			require.GreaterOrEqual(t, got, 1, "in=%q max=%d", in, maxCount)
			require.LessOrEqual(t, got, maxCount, "in=%q max=%d", in, maxCount)
		}
	}
	require.Equal(t, 1, Clamp("abc", 10))
	require.Equal(t, 2, Clamp("2.9", 10))
	require.Equal(t, 10, Clamp("+Inf", 10))
	require.Equal(t, 5, Clamp(" 5 ", 10))
}

func TestSetQuantity(t *testing.T) {
	s := New(testOffers(), nil)
	require.ErrorIs(t, s.SetQuantity("A", 2), ErrNotSelected)

	s.Toggle("A")
	require.NoError(t, s.SetQuantity("A", 2))
	require.Equal(t, 2, s.Quantity("A"))

	require.NoError(t, s.SetQuantity("A", 9))
	require.Equal(t, 3, s.Quantity("A"), "clamped to offer maxCount")

	require.ErrorIs(t, s.SetQuantity("A", 0), ErrOutOfRange)
	require.Equal(t, 3, s.Quantity("A"))

	s.Toggle("B")
	require.NoError(t, s.SetQuantityInput("B", "42"))
	require.Equal(t, DefaultMaxCount, s.Quantity("B"))
	require.NoError(t, s.SetQuantityInput("B", "many"))
	require.Equal(t, 1, s.Quantity("B"))
}

func TestDefaultMaxCountOption(t *testing.T) {
	s := New(testOffers(), nil, WithDefaultMaxCount(4))
	require.Equal(t, 4, s.MaxCount("B"))
	require.Equal(t, 3, s.MaxCount("A"))
}

func TestPayload(t *testing.T) {
	s := New(testOffers(), nil)
	require.Empty(t, s.Payload())

	s.Toggle("A")
	s.Toggle("B")
	require.NoError(t, s.SetQuantity("A", 2))
	require.Equal(t, map[string]any{"addon_ids": "A,B", "addon_quantities": "2,1"}, s.Payload())
}

func TestTotal(t *testing.T) {
	s := New(testOffers(), nil)
	s.Toggle("A")
	s.Toggle("B")
	require.NoError(t, s.SetQuantity("A", 2))
	require.True(t, decimal.RequireFromString("25").Equal(s.Total()))
}

func TestSubmitClearsFlag(t *testing.T) {
	jsonPath := map[string]any{"step": "addons"}
	s := New(testOffers(), jsonPath, WithFlowID("metro"))

	var got flow.Event
	ok := flow.SubmitterFunc(func(ctx context.Context, ev flow.Event) error {
		got = ev
		return nil
	})
	require.NoError(t, s.Submit(context.Background(), ok))
	require.False(t, s.Submitting())
	require.Empty(t, got.FormData)
	require.Equal(t, "metro", got.FlowID)
	require.Equal(t, jsonPath, got.JSONPath)

	failing := flow.SubmitterFunc(func(ctx context.Context, ev flow.Event) error {
		return errors.New("rejected")
	})
	s.Toggle("C")
	require.EqualError(t, s.Submit(context.Background(), failing), "rejected")
	require.False(t, s.Submitting())
}

func TestSubmitGuardsReentry(t *testing.T) {
	s := New(testOffers(), nil)
	_, ok := s.BeginSubmit()
	require.True(t, ok)
	_, ok = s.BeginSubmit()
	require.False(t, ok)

	called := false
	sub := flow.SubmitterFunc(func(ctx context.Context, ev flow.Event) error {
		called = true
		return nil
	})
	require.ErrorIs(t, s.Submit(context.Background(), sub), flow.ErrInFlight)
	require.False(t, called)

	s.EndSubmit()
	require.NoError(t, s.Submit(context.Background(), sub))
	require.True(t, called)
}

func TestParseReferenceData(t *testing.T) {
	offers, err := ParseReferenceData([]byte(`{"selected_add_ons":[
		{"id":"A","name":"Extra bag","price":"12.50","currency":"INR","maxCount":3,"availableCount":8},
		{"id":"B","price":4}
	]}`))
	require.NoError(t, err)
	require.Len(t, offers, 2)
	require.Equal(t, 3, *offers[0].MaxCount)
	require.Equal(t, 8, *offers[0].AvailableCount)
	require.True(t, decimal.RequireFromString("12.5").Equal(*offers[0].Price))
	require.True(t, decimal.NewFromInt(4).Equal(*offers[1].Price))
	require.Equal(t, "B", offers[1].Label())

	offers, err = ParseReferenceData([]byte(`{}`))
	require.NoError(t, err)
	require.Empty(t, offers)

	_, err = ParseReferenceData([]byte(`{"selected_add_ons":[{"name":"x"}]}`))
	require.Error(t, err)
}

func TestParseReferenceDataReportsEveryBadOffer(t *testing.T) {
	_, err := ParseReferenceData([]byte(`{"selected_add_ons":[
		{"id":"","name":"Nameless"},
		{"id":"B","maxCount":0},
		{"id":"C","maxCount":2},
		{"id":"D","availableCount":-1}
	]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "selected_add_ons[0]: id is required")
	require.Contains(t, err.Error(), "selected_add_ons[1]: maxCount must be at least 1")
	require.Contains(t, err.Error(), "selected_add_ons[3]: availableCount must be at least 0")
	require.NotContains(t, err.Error(), "selected_add_ons[2]")
	require.Len(t, multierr.Errors(err), 3)
}
