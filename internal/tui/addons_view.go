package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/flowforms/internal/addons"
)

type addonsView struct {
	sel      *addons.Selector
	cursor   int
	currency string
}

func newAddonsView(sel *addons.Selector, currency string) *addonsView {
	return &addonsView{sel: sel, currency: currency}
}

func (v *addonsView) current() (addons.Offer, bool) {
	offers := v.sel.Offers()
	if v.cursor < 0 || v.cursor >= len(offers) {
		return addons.Offer{}, false
	}
	return offers[v.cursor], true
}

func (v *addonsView) update(a *App, key string) tea.Cmd {
	switch key {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
		return nil
	case "down", "j":
		if v.cursor < len(v.sel.Offers())-1 {
			v.cursor++
		}
		return nil
	case "enter":
		ev, ok := v.sel.BeginSubmit()
		if !ok {
			return a.notify("Submission in progress", false)
		}
		return a.submitCmd(ev)
	}

	offer, ok := v.current()
	if !ok {
		return nil
	}
	qty := v.sel.Quantity(offer.ID)
	switch {
	case key == "space":
		v.sel.Toggle(offer.ID)
	case key == "+" || key == "=":
		if qty > 0 {
			_ = v.sel.SetQuantityInput(offer.ID, strconv.Itoa(qty+1))
		}
	case key == "-":
		if qty > 0 {
			_ = v.sel.SetQuantityInput(offer.ID, strconv.Itoa(qty-1))
		}
	case len(key) == 1 && key[0] >= '1' && key[0] <= '9':
		if qty > 0 {
			_ = v.sel.SetQuantityInput(offer.ID, key)
		}
	}
	return nil
}

func (v *addonsView) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Add-ons") + "\n")
	offers := v.sel.Offers()
	if len(offers) == 0 {
		b.WriteString(mutedStyle.Render("No add-ons available for this booking.") + "\n")
	}
	for i, o := range offers {
		marker := "  "
		if i == v.cursor {
			marker = cursorStyle.Render("▶ ")
		}
		check := "[ ]"
		if v.sel.IsSelected(o.ID) {
			check = "[x]"
		}
		line := fmt.Sprintf("%s%s %-28s", marker, check, o.Label())
		if o.Price != nil {
			line += "  " + v.money(o.Price.StringFixed(2), o.Currency)
		}
		if q := v.sel.Quantity(o.ID); q > 0 {
			line += fmt.Sprintf("  qty %d/%d", q, v.sel.MaxCount(o.ID))
		}
		if o.AvailableCount != nil {
			line += mutedStyle.Render(fmt.Sprintf("  (%d left)", *o.AvailableCount))
		}
		b.WriteString(line + "\n")
	}

	if total := v.sel.Total(); !total.IsZero() {
		b.WriteString("\nAdd-on total: " + v.money(total.StringFixed(2), "") + "\n")
	}

	action := "Continue without add-ons"
	if len(v.sel.Selected()) > 0 {
		action = "Submit"
	}
	if v.sel.Submitting() {
		b.WriteString("\n" + mutedStyle.Render("Submitting...") + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("[space] Toggle  [+/-/1-9] Quantity  [enter] "+action+"  [tab] Booking  [q] Quit"))
	return b.String()
}

func (v *addonsView) money(amount, currency string) string {
	if currency != "" {
		return amount + " " + currency
	}
	return v.currency + amount
}
