package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/flowforms/internal/booking"
	"github.com/jask/flowforms/internal/catalog"
	"github.com/jask/flowforms/internal/flow"
)

type fieldKind int

const (
	fieldItem fieldKind = iota
	fieldCount
	fieldAddOn
	fieldAddOnsQty
	fieldProvider
	fieldFulfillment
)

type field struct {
	kind fieldKind
	row  int
}

type bookingMode int

const (
	modeBrowse bookingMode = iota
	modeInput
	modePicker
	modePaste
)

type bookingView struct {
	form     *booking.Form
	focus    int
	mode     bookingMode
	editing  field
	input    textinput.Model
	picker   *picker
	paste    textarea.Model
	pasteErr string
}

func newBookingView(form *booking.Form) *bookingView {
	in := textinput.New()
	in.Prompt = "> "

	ta := textarea.New()
	ta.Placeholder = "Paste an on_search response here"
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = false
	ta.SetWidth(80)
	ta.SetHeight(12)

	return &bookingView{form: form, input: in, paste: ta}
}

func (v *bookingView) capturing() bool { return v.mode != modeBrowse }

func (v *bookingView) resize(width, height int) {
	v.paste.SetWidth(max(20, width-6))
	v.paste.SetHeight(max(5, height/2))
}

// fields lists the focusable fields in display order. The add-on quantity
// only appears once the row has an add-on; the provider is only typed in
// when no catalog is loaded.
func (v *bookingView) fields() []field {
	var out []field
	for i, r := range v.form.Rows() {
		out = append(out, field{fieldItem, i}, field{fieldCount, i}, field{fieldAddOn, i})
		if len(r.AddOnIDs) > 0 {
			out = append(out, field{fieldAddOnsQty, i})
		}
	}
	if !v.form.HasItemOptions() {
		out = append(out, field{kind: fieldProvider})
	}
	return append(out, field{kind: fieldFulfillment})
}

func (v *bookingView) focused() field {
	fs := v.fields()
	v.focus = min(max(v.focus, 0), len(fs)-1)
	return fs[v.focus]
}

func (v *bookingView) update(a *App, msg tea.KeyMsg) tea.Cmd {
	key := keyName(msg)
	switch v.mode {
	case modeInput:
		switch key {
		case "enter":
			value := v.input.Value()
			v.closeEditor()
			return v.commit(a, v.editing, value)
		case "esc":
			v.closeEditor()
			return nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return cmd
	case modePicker:
		res := v.picker.HandleKey(key)
		switch res.Action {
		case pickerActionSelected:
			v.closeEditor()
			return v.commit(a, v.editing, res.Item.ID)
		case pickerActionCancelled:
			v.closeEditor()
		}
		return nil
	case modePaste:
		switch key {
		case "ctrl+s":
			return v.applyPaste(a)
		case "esc":
			v.closeEditor()
			return nil
		}
		var cmd tea.Cmd
		v.paste, cmd = v.paste.Update(msg)
		return cmd
	}

	switch key {
	case "up", "k":
		if v.focus > 0 {
			v.focus--
		}
	case "down", "j":
		if v.focus < len(v.fields())-1 {
			v.focus++
		}
	case "enter":
		return v.edit(a, v.focused())
	case "p":
		v.paste.Reset()
		v.mode = modePaste
		return v.paste.Focus()
	case "a":
		if v.form.CanAddRow() {
			_ = v.form.AddRow()
		}
	case "x":
		v.form.RemoveRow()
		v.focused()
	case "s", "ctrl+s":
		return v.submit(a)
	}
	return nil
}

// updateInputs forwards non-key messages (cursor blink) to the open editor.
func (v *bookingView) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch v.mode {
	case modeInput:
		v.input, cmd = v.input.Update(msg)
	case modePaste:
		v.paste, cmd = v.paste.Update(msg)
	}
	return cmd
}

func (v *bookingView) closeEditor() {
	v.mode = modeBrowse
	v.input.Blur()
	v.paste.Blur()
	v.picker = nil
}

func (v *bookingView) openInput(f field, value string) tea.Cmd {
	v.editing = f
	v.mode = modeInput
	v.input.SetValue(value)
	v.input.CursorEnd()
	return v.input.Focus()
}

func (v *bookingView) openPicker(f field, title string, items []pickerItem) {
	v.editing = f
	v.mode = modePicker
	v.picker = newPicker(title, items)
}

func (v *bookingView) edit(a *App, f field) tea.Cmd {
	rows := v.form.Rows()
	switch f.kind {
	case fieldItem:
		if !v.form.HasItemOptions() {
			return v.openInput(f, rows[f.row].ItemID)
		}
		items := make([]pickerItem, 0, len(v.form.Options().Items))
		for _, it := range v.form.Options().Items {
			items = append(items, pickerItem{ID: it.ID, Label: it.Label(), Meta: it.ProviderID})
		}
		v.openPicker(f, fmt.Sprintf("Item %d", f.row+1), items)
	case fieldCount:
		return v.openInput(f, strconv.Itoa(rows[f.row].Count))
	case fieldAddOn:
		if !v.form.HasItemOptions() {
			return v.openInput(f, "")
		}
		ids := v.form.AddOnOptions(f.row)
		if len(ids) == 0 {
			return a.notify("No add-ons for this item", false)
		}
		items := make([]pickerItem, 0, len(ids))
		for _, id := range ids {
			items = append(items, pickerItem{ID: id, Label: id})
		}
		v.openPicker(f, fmt.Sprintf("Add-on for item %d", f.row+1), items)
	case fieldAddOnsQty:
		return v.openInput(f, strconv.Itoa(rows[f.row].AddOnsQuantity))
	case fieldProvider:
		return v.openInput(f, v.form.ProviderID())
	case fieldFulfillment:
		if !v.form.HasFulfillmentOptions() {
			return v.openInput(f, v.form.FulfillmentID())
		}
		fulfillments := v.form.FulfillmentOptions()
		items := make([]pickerItem, 0, len(fulfillments))
		for _, ful := range fulfillments {
			items = append(items, pickerItem{ID: ful.ID, Label: ful.ID, Meta: fulfillmentMeta(ful)})
		}
		v.openPicker(f, "Fulfillment", items)
	}
	return nil
}

func (v *bookingView) commit(a *App, f field, value string) tea.Cmd {
	var err error
	switch f.kind {
	case fieldItem:
		err = v.form.SelectItem(f.row, value)
	case fieldCount:
		err = v.form.SetCountInput(f.row, value)
	case fieldAddOn:
		err = v.form.AddAddOn(f.row, value)
	case fieldAddOnsQty:
		err = v.form.SetAddOnsQuantityInput(f.row, value)
	case fieldProvider:
		v.form.SetProvider(value)
	case fieldFulfillment:
		err = v.form.SetFulfillment(value)
	}
	if err != nil {
		return a.notify(err.Error(), true)
	}
	return nil
}

// applyPaste reads the editor content as a catalog response. The editor is
// dismissed whatever the outcome.
func (v *bookingView) applyPaste(a *App) tea.Cmd {
	text := v.paste.Value()
	v.closeEditor()

	doc, err := catalog.Decode(text)
	if err == nil {
		var applied bool
		applied, err = v.form.ApplyPaste(doc)
		if err == nil {
			v.pasteErr = ""
			if !applied {
				return nil
			}
			opts := v.form.Options()
			return a.notify(fmt.Sprintf("Loaded %d items and %d fulfillments", len(opts.Items), len(opts.Fulfillments)), false)
		}
	}
	v.pasteErr = "Could not read catalog: " + err.Error()
	a.deps.Log.Warn(a.deps.Log.WithField(a.ctx, "error", err.Error()), "catalog paste rejected")
	return a.notify("Invalid catalog payload", true)
}

func (v *bookingView) submit(a *App) tea.Cmd {
	ev, err := v.form.BeginSubmit()
	if errors.Is(err, flow.ErrInFlight) {
		return a.notify("Submission in progress", false)
	}
	if err != nil {
		return a.notify(err.Error(), true)
	}
	if v.form.MixedProviders() {
		ctx := a.deps.Log.WithField(a.ctx, "provider", v.form.ProviderID())
		a.deps.Log.Warn(ctx, "rows span several providers; submitting the last selected one")
	}
	return a.submitCmd(ev)
}

func (v *bookingView) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Booking") + "\n")

	fs := v.fields()
	current := v.focused()
	rows := v.form.Rows()
	lastRow := -1
	for _, f := range fs {
		if f.kind <= fieldAddOnsQty && f.row != lastRow {
			b.WriteString(fmt.Sprintf("\nItem %d\n", f.row+1))
			lastRow = f.row
		}
		if f.kind == fieldProvider || (f.kind == fieldFulfillment && lastRow >= 0) {
			b.WriteString("\n")
			lastRow = -1
		}
		marker := "  "
		if f == current {
			marker = cursorStyle.Render("▶ ")
		}
		label, value := v.describe(f, rows)
		b.WriteString(fmt.Sprintf("%s%-18s %s\n", marker, label, value))
	}

	if v.pasteErr != "" {
		b.WriteString("\n" + errorStyle.Render(v.pasteErr) + "\n")
	}
	if v.form.Submitting() {
		b.WriteString("\n" + mutedStyle.Render("Submitting...") + "\n")
	}

	help := []string{"[enter] Edit", "[p] Paste catalog"}
	if v.form.CanAddRow() {
		help = append(help, "[a] Add item")
	}
	if v.form.CanRemoveRow() {
		help = append(help, "[x] Remove item")
	}
	help = append(help, "[s] Submit", "[tab] Add-ons", "[q] Quit")
	b.WriteString("\n" + helpStyle.Render(strings.Join(help, "  ")))

	switch v.mode {
	case modeInput:
		b.WriteString("\n\n" + modalStyle.Render(v.input.View()+"\n"+helpStyle.Render("[enter] Save  [esc] Cancel")))
	case modePicker:
		b.WriteString("\n\n" + v.picker.View())
	case modePaste:
		b.WriteString("\n\n" + modalStyle.Render(titleStyle.Render("Paste catalog")+"\n"+v.paste.View()+"\n"+helpStyle.Render("[ctrl+s] Load  [esc] Cancel")))
	}
	return b.String()
}

func (v *bookingView) describe(f field, rows []booking.Row) (string, string) {
	freeText := mutedStyle.Render("(free text)")
	switch f.kind {
	case fieldItem:
		r := rows[f.row]
		value := orDash(r.ItemID)
		if r.ParentItemID != "" {
			value += mutedStyle.Render("  parent " + r.ParentItemID)
		}
		if !v.form.HasItemOptions() {
			value += "  " + freeText
		}
		return "Item", value
	case fieldCount:
		return "Count", strconv.Itoa(rows[f.row].Count)
	case fieldAddOn:
		value := orDash(strings.Join(rows[f.row].AddOnIDs, ", "))
		if !v.form.HasItemOptions() {
			value += "  " + freeText
		}
		return "Add-ons", value
	case fieldAddOnsQty:
		return "Add-on quantity", strconv.Itoa(rows[f.row].AddOnsQuantity)
	case fieldProvider:
		return "Provider", orDash(v.form.ProviderID()) + "  " + freeText
	case fieldFulfillment:
		value := orDash(v.form.FulfillmentID())
		if !v.form.HasFulfillmentOptions() {
			value += "  " + freeText
		}
		if v.form.HasItemOptions() {
			value += mutedStyle.Render("  provider " + orDash(v.form.ProviderID()))
		}
		return "Fulfillment", value
	}
	return "", ""
}

func fulfillmentMeta(f catalog.Fulfillment) string {
	parts := make([]string, 0, len(f.Stops)+1)
	if f.Type != "" {
		parts = append(parts, f.Type)
	}
	for _, s := range f.Stops {
		if s.Type != "" {
			parts = append(parts, s.Type)
		}
	}
	return strings.Join(parts, " · ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
