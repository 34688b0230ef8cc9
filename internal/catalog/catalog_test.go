package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const onSearch = `{
  "context": {"action": "on_search"},
  "message": {"catalog": {"providers": [
    {
      "id": "P1",
      "items": [
        {"id": "I1", "descriptor": {"name": "Metro pass"}},
        {"id": "I2", "parent_item_id": "I1", "descriptor": {"name": "Adult"}, "add_ons": [{"id": "X"}]}
      ],
      "fulfillments": [
        {"id": "F1", "type": "ROUTE", "stops": [
          {"type": "START", "time": {"label": "DEPART"}, "instructions": {"name": "Gate 2"}},
          {"type": "END"}
        ]},
        {"id": "F2", "type": "ROUTE"}
      ]
    },
    {
      "id": "P2",
      "items": [{"id": "I9", "parent_item_id": "I8"}],
      "fulfillments": [{"id": "F2", "type": "TRIP"}]
    }
  ]}}
}`

func decode(t *testing.T, text string) any {
	t.Helper()
	v, err := Decode(text)
	require.NoError(t, err)
	return v
}

func TestExtractSubItemsOnly(t *testing.T) {
	opts, ok, err := Extract(decode(t, onSearch))
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, []Item{
		{ID: "I2", ParentItemID: "I1", ProviderID: "P1", Name: "Adult", AddOnIDs: []string{"X"}},
		{ID: "I9", ParentItemID: "I8", ProviderID: "P2", AddOnIDs: []string{}},
	}, opts.Items)

	_, found := opts.ItemByID("I1")
	require.False(t, found, "parent items are not selectable")
}

func TestExtractFlattensFulfillments(t *testing.T) {
	opts, _, err := Extract(decode(t, onSearch))
	require.NoError(t, err)
	require.Len(t, opts.Fulfillments, 3)

	f1, ok := opts.FulfillmentByID("F1")
	require.True(t, ok)
	require.Len(t, f1.Stops, 2)
	require.Equal(t, "START", f1.Stops[0].Type)
	require.Equal(t, map[string]any{"label": "DEPART"}, f1.Stops[0].Time)
	require.Nil(t, f1.Stops[1].Time)

	f2, ok := opts.FulfillmentByID("F2")
	require.True(t, ok)
	require.Equal(t, "TRIP", f2.Type, "later provider wins on id collision")
}

func TestExtractMissingProvidersIsSilent(t *testing.T) {
	for _, text := range []string{`{}`, `{"message":{}}`, `{"message":{"catalog":{}}}`, `[1,2]`, `"text"`, `{"message":{"catalog":{"providers":null}}}`} {
		opts, ok, err := Extract(decode(t, text))
		require.NoError(t, err, text)
		require.False(t, ok, text)
		require.True(t, opts.Empty(), text)
	}
}

func TestExtractShapeErrors(t *testing.T) {
	cases := map[string]string{
		"providers not array":    `{"message":{"catalog":{"providers":{}}}}`,
		"provider not object":    `{"message":{"catalog":{"providers":[1]}}}`,
		"provider without id":    `{"message":{"catalog":{"providers":[{"items":[]}]}}}`,
		"items not array":        `{"message":{"catalog":{"providers":[{"id":"P","items":"x"}]}}}`,
		"item without id":        `{"message":{"catalog":{"providers":[{"id":"P","items":[{"parent_item_id":"I"}]}]}}}`,
		"parent id not string":   `{"message":{"catalog":{"providers":[{"id":"P","items":[{"id":"I","parent_item_id":3}]}]}}}`,
		"add_on without id":      `{"message":{"catalog":{"providers":[{"id":"P","items":[{"id":"I","parent_item_id":"Q","add_ons":[{}]}]}]}}}`,
		"fulfillment not object": `{"message":{"catalog":{"providers":[{"id":"P","fulfillments":["F"]}]}}}`,
		"stops not array":        `{"message":{"catalog":{"providers":[{"id":"P","fulfillments":[{"id":"F","stops":{}}]}]}}}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			opts, _, err := Extract(decode(t, text))
			var shapeErr *ShapeError
			require.ErrorAs(t, err, &shapeErr)
			require.True(t, opts.Empty(), "no partial options on error")
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("   ")
	require.Error(t, err)
	_, err = Decode("{not json")
	require.Error(t, err)
}
