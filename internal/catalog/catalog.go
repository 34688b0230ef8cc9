// Package catalog derives selectable options from a pasted catalog search
// response. Only message.catalog.providers[].{items,fulfillments} is read;
// everything else in the document is ignored.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Item is a bookable sub-item: one that declares a parent item.
type Item struct {
	ID           string
	ParentItemID string
	ProviderID   string
	Name         string
	AddOnIDs     []string
}

// Label is the display name, falling back to the id.
func (i Item) Label() string {
	if i.Name != "" {
		return i.Name
	}
	return i.ID
}

// Stop is one leg of a fulfillment.
type Stop struct {
	Type         string
	Instructions any
	Time         any
}

// Fulfillment is a delivery option declared by a provider.
type Fulfillment struct {
	ID    string
	Type  string
	Stops []Stop
}

// Options is the result of one extraction. Fulfillments from all providers
// share one list; when ids collide the later entry wins on lookup.
type Options struct {
	Items        []Item
	Fulfillments []Fulfillment
}

func (o Options) Empty() bool {
	return len(o.Items) == 0 && len(o.Fulfillments) == 0
}

func (o Options) ItemByID(id string) (Item, bool) {
	for _, it := range o.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func (o Options) FulfillmentByID(id string) (Fulfillment, bool) {
	for i := len(o.Fulfillments) - 1; i >= 0; i-- {
		if o.Fulfillments[i].ID == id {
			return o.Fulfillments[i], true
		}
	}
	return Fulfillment{}, false
}

// ShapeError reports a catalog document that does not have the expected shape.
type ShapeError struct {
	Path   string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("catalog %s: %s", e.Path, e.Reason)
}

// Decode parses pasted text as JSON.
func Decode(text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty payload")
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

// Extract walks a decoded catalog response. ok is false when
// message.catalog.providers is absent, which is not an error. On error the
// returned Options is empty; nothing is ever partially extracted.
func Extract(v any) (opts Options, ok bool, err error) {
	raw, found := lookup(v, "message", "catalog", "providers")
	if !found {
		return Options{}, false, nil
	}
	providers, isList := raw.([]any)
	if !isList {
		return Options{}, false, &ShapeError{Path: "message.catalog.providers", Reason: "not an array"}
	}

	var staged Options
	for pi, rawProvider := range providers {
		path := fmt.Sprintf("message.catalog.providers[%d]", pi)
		provider, isObj := rawProvider.(map[string]any)
		if !isObj {
			return Options{}, false, &ShapeError{Path: path, Reason: "not an object"}
		}
		providerID, err := requiredString(provider, "id", path)
		if err != nil {
			return Options{}, false, err
		}

		fulfillments, err := optionalList(provider, "fulfillments", path)
		if err != nil {
			return Options{}, false, err
		}
		for fi, rawF := range fulfillments {
			f, err := parseFulfillment(rawF, fmt.Sprintf("%s.fulfillments[%d]", path, fi))
			if err != nil {
				return Options{}, false, err
			}
			staged.Fulfillments = append(staged.Fulfillments, f)
		}

		items, err := optionalList(provider, "items", path)
		if err != nil {
			return Options{}, false, err
		}
		for ii, rawItem := range items {
			item, sub, err := parseItem(rawItem, providerID, fmt.Sprintf("%s.items[%d]", path, ii))
			if err != nil {
				return Options{}, false, err
			}
			if sub {
				staged.Items = append(staged.Items, item)
			}
		}
	}
	return staged, true, nil
}

func parseItem(raw any, providerID, path string) (Item, bool, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Item{}, false, &ShapeError{Path: path, Reason: "not an object"}
	}
	id, err := requiredString(obj, "id", path)
	if err != nil {
		return Item{}, false, err
	}
	parent, err := optionalString(obj, "parent_item_id", path)
	if err != nil {
		return Item{}, false, err
	}
	if parent == "" {
		return Item{}, false, nil
	}

	item := Item{ID: id, ParentItemID: parent, ProviderID: providerID, AddOnIDs: []string{}}
	if name, found := lookup(obj, "descriptor", "name"); found {
		if s, ok := name.(string); ok {
			item.Name = s
		}
	}
	addOns, err := optionalList(obj, "add_ons", path)
	if err != nil {
		return Item{}, false, err
	}
	for ai, rawAddOn := range addOns {
		addOnPath := fmt.Sprintf("%s.add_ons[%d]", path, ai)
		addOn, ok := rawAddOn.(map[string]any)
		if !ok {
			return Item{}, false, &ShapeError{Path: addOnPath, Reason: "not an object"}
		}
		addOnID, err := requiredString(addOn, "id", addOnPath)
		if err != nil {
			return Item{}, false, err
		}
		item.AddOnIDs = append(item.AddOnIDs, addOnID)
	}
	return item, true, nil
}

func parseFulfillment(raw any, path string) (Fulfillment, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Fulfillment{}, &ShapeError{Path: path, Reason: "not an object"}
	}
	id, err := requiredString(obj, "id", path)
	if err != nil {
		return Fulfillment{}, err
	}
	typ, err := optionalString(obj, "type", path)
	if err != nil {
		return Fulfillment{}, err
	}
	f := Fulfillment{ID: id, Type: typ, Stops: []Stop{}}

	stops, err := optionalList(obj, "stops", path)
	if err != nil {
		return Fulfillment{}, err
	}
	for si, rawStop := range stops {
		stopPath := fmt.Sprintf("%s.stops[%d]", path, si)
		stop, ok := rawStop.(map[string]any)
		if !ok {
			return Fulfillment{}, &ShapeError{Path: stopPath, Reason: "not an object"}
		}
		stopType, err := optionalString(stop, "type", stopPath)
		if err != nil {
			return Fulfillment{}, err
		}
		f.Stops = append(f.Stops, Stop{Type: stopType, Instructions: stop["instructions"], Time: stop["time"]})
	}
	return f, nil
}

func lookup(v any, keys ...string) (any, bool) {
	cur := v
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := obj[k]
		if !ok || next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func requiredString(obj map[string]any, key, path string) (string, error) {
	s, err := optionalString(obj, key, path)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &ShapeError{Path: path + "." + key, Reason: "missing"}
	}
	return s, nil
}

func optionalString(obj map[string]any, key, path string) (string, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &ShapeError{Path: path + "." + key, Reason: "not a string"}
	}
	return strings.TrimSpace(s), nil
}

func optionalList(obj map[string]any, key, path string) ([]any, error) {
	raw, ok := obj[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &ShapeError{Path: path + "." + key, Reason: "not an array"}
	}
	return list, nil
}
