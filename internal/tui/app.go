package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/flowforms/internal/addons"
	"github.com/jask/flowforms/internal/booking"
	"github.com/jask/flowforms/internal/flow"
	"github.com/jask/flowforms/internal/logging"
)

// Deps are the host collaborators the widgets need.
type Deps struct {
	Submitter       flow.Submitter
	Log             *logging.Logger
	Offers          []addons.Offer
	FlowID          string
	MultiItemFlows  []string
	JSONPath        map[string]any
	DefaultMaxCount int
	ToastDuration   time.Duration
	CurrencySymbol  string
}

type tab int

const (
	tabAddons tab = iota
	tabBooking
)

type submitDoneMsg struct {
	widget string
	err    error
}

type toastExpiredMsg struct {
	seq int
}

type toast struct {
	text  string
	isErr bool
}

// App hosts both widgets as tabs and owns the transient notification line.
type App struct {
	ctx      context.Context
	deps     Deps
	active   tab
	addons   *addonsView
	booking  *bookingView
	toast    toast
	toastSeq int
	width    int
	height   int
}

func New(ctx context.Context, deps Deps) *App {
	if deps.Log == nil {
		deps.Log = logging.Nop()
	}
	if deps.ToastDuration <= 0 {
		deps.ToastDuration = 4 * time.Second
	}
	sel := addons.New(deps.Offers, deps.JSONPath,
		addons.WithDefaultMaxCount(deps.DefaultMaxCount),
		addons.WithFlowID(deps.FlowID),
	)
	form := booking.New(booking.Config{
		FlowID:         deps.FlowID,
		JSONPath:       deps.JSONPath,
		MultiItemFlows: deps.MultiItemFlows,
	})
	return &App{
		ctx:     ctx,
		deps:    deps,
		addons:  newAddonsView(sel, deps.CurrencySymbol),
		booking: newBookingView(form),
		width:   100,
		height:  32,
	}
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.booking.resize(m.Width, m.Height)
		return a, nil
	case tea.KeyMsg:
		key := keyName(m)
		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.capturing() {
			switch key {
			case "q":
				return a, tea.Quit
			case "tab", "shift+tab":
				a.active = (a.active + 1) % 2
				return a, nil
			}
		}
		if a.active == tabAddons {
			return a, a.addons.update(a, key)
		}
		return a, a.booking.update(a, m)
	case submitDoneMsg:
		return a, a.handleSubmitDone(m)
	case toastExpiredMsg:
		if m.seq == a.toastSeq {
			a.toast = toast{}
		}
		return a, nil
	}
	return a, a.booking.updateInputs(msg)
}

func (a *App) capturing() bool {
	return a.active == tabBooking && a.booking.capturing()
}

func (a *App) handleSubmitDone(m submitDoneMsg) tea.Cmd {
	switch m.widget {
	case flow.WidgetAddons:
		a.addons.sel.EndSubmit()
	case flow.WidgetBooking:
		a.booking.form.EndSubmit()
	}
	if m.err != nil {
		ctx := a.deps.Log.WithField(a.ctx, "widget", m.widget)
		a.deps.Log.Error(ctx, "submit event failed", m.err)
		return a.notify("Submission failed: "+m.err.Error(), true)
	}
	return a.notify("Submitted", false)
}

// notify shows a transient message that clears itself after the toast duration.
func (a *App) notify(text string, isErr bool) tea.Cmd {
	a.toastSeq++
	a.toast = toast{text: text, isErr: isErr}
	seq := a.toastSeq
	return tea.Tick(a.deps.ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (a *App) submitCmd(ev flow.Event) tea.Cmd {
	ctx, sub := a.ctx, a.deps.Submitter
	return func() tea.Msg {
		return submitDoneMsg{widget: ev.Widget, err: sub.SubmitEvent(ctx, ev)}
	}
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.renderTabs())
	b.WriteString("\n\n")
	if a.active == tabAddons {
		b.WriteString(a.addons.view())
	} else {
		b.WriteString(a.booking.view())
	}
	if a.toast.text != "" {
		style := toastStyle
		if a.toast.isErr {
			style = toastErrStyle
		}
		b.WriteString("\n\n" + style.Render(a.toast.text))
	}
	return b.String()
}

func (a *App) renderTabs() string {
	names := []string{"Add-ons", "Booking"}
	parts := make([]string, len(names))
	for i, n := range names {
		if tab(i) == a.active {
			parts[i] = activeTabStyle.Render(n)
			continue
		}
		parts[i] = inactiveTabStyle.Render(n)
	}
	line := strings.Join(parts, " ")
	if a.deps.FlowID != "" {
		line += "  " + mutedStyle.Render("flow "+a.deps.FlowID)
	}
	return line
}

func keyName(m tea.KeyMsg) string {
	k := m.String()
	if k == " " {
		return "space"
	}
	return k
}
