package tui

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

type pickerItem struct {
	ID    string
	Label string
	Meta  string
}

type pickerAction int

const (
	pickerActionNone pickerAction = iota
	pickerActionMoved
	pickerActionSelected
	pickerActionCancelled
)

type pickerResult struct {
	Action pickerAction
	Item   pickerItem
}

// picker is a filterable single-choice list. Typing narrows the list by
// fuzzy subsequence match; ties are broken by edit distance to the query.
type picker struct {
	title    string
	items    []pickerItem
	filtered []pickerItem
	query    string
	cursor   int
}

func newPicker(title string, items []pickerItem) *picker {
	p := &picker{title: strings.TrimSpace(title)}
	p.items = append([]pickerItem(nil), items...)
	p.rebuildFiltered()
	return p
}

func (p *picker) Items() []pickerItem {
	return append([]pickerItem(nil), p.filtered...)
}

func (p *picker) setQuery(q string) {
	p.query = q
	p.rebuildFiltered()
}

func (p *picker) current() (pickerItem, bool) {
	if len(p.filtered) == 0 {
		return pickerItem{}, false
	}
	idx := min(max(p.cursor, 0), len(p.filtered)-1)
	return p.filtered[idx], true
}

func (p *picker) HandleKey(keyName string) pickerResult {
	switch keyName {
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
			return pickerResult{Action: pickerActionMoved}
		}
		return pickerResult{Action: pickerActionNone}
	case "down", "ctrl+n":
		if p.cursor < len(p.filtered)-1 {
			p.cursor++
			return pickerResult{Action: pickerActionMoved}
		}
		return pickerResult{Action: pickerActionNone}
	case "enter":
		item, ok := p.current()
		if !ok {
			return pickerResult{Action: pickerActionNone}
		}
		return pickerResult{Action: pickerActionSelected, Item: item}
	case "esc":
		return pickerResult{Action: pickerActionCancelled}
	case "backspace":
		if len(p.query) > 0 {
			p.setQuery(p.query[:len(p.query)-1])
		}
		return pickerResult{Action: pickerActionNone}
	default:
		if isPrintableASCIIKey(keyName) {
			p.setQuery(p.query + keyName)
		}
		return pickerResult{Action: pickerActionNone}
	}
}

func (p *picker) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.title))
	b.WriteString("\n> " + p.query + "\n")
	if len(p.filtered) == 0 {
		b.WriteString(mutedStyle.Render("  no matches") + "\n")
	}
	for i, item := range p.filtered {
		line := item.Label
		if item.Meta != "" {
			line += "  " + mutedStyle.Render(item.Meta)
		}
		if i == p.cursor {
			b.WriteString(cursorStyle.Render("▶ ") + line + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString(helpStyle.Render("[enter] Select  [esc] Cancel"))
	return modalStyle.Render(b.String())
}

type scoredPickerItem struct {
	item     pickerItem
	score    int
	distance int
	index    int
}

func (p *picker) rebuildFiltered() {
	q := strings.ToLower(strings.TrimSpace(p.query))
	scored := make([]scoredPickerItem, 0, len(p.items))
	for idx, item := range p.items {
		search := item.Label + " " + item.ID
		matched, score := fuzzyMatchScore(search, q)
		if !matched {
			continue
		}
		distance := 0
		if q != "" {
			distance = min(
				levenshtein.ComputeDistance(q, strings.ToLower(item.Label)),
				levenshtein.ComputeDistance(q, strings.ToLower(item.ID)),
			)
		}
		scored = append(scored, scoredPickerItem{item: item, score: score, distance: distance, index: idx})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		if scored[i].distance != scored[j].distance {
			return scored[i].distance < scored[j].distance
		}
		return scored[i].index < scored[j].index
	})

	p.filtered = make([]pickerItem, 0, len(scored))
	for _, s := range scored {
		p.filtered = append(p.filtered, s.item)
	}
	if p.cursor > len(p.filtered)-1 {
		p.cursor = len(p.filtered) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func fuzzyMatchScore(label, query string) (bool, int) {
	if query == "" {
		return true, 0
	}
	labelLower := strings.ToLower(label)

	matchIdx := make([]int, 0, len(query))
	searchFrom := 0
	for i := 0; i < len(query); i++ {
		ch := query[i]
		found := false
		for j := searchFrom; j < len(labelLower); j++ {
			if labelLower[j] == ch {
				matchIdx = append(matchIdx, j)
				searchFrom = j + 1
				found = true
				break
			}
		}
		if !found {
			return false, 0
		}
	}

	score := len(query)
	if len(matchIdx) > 0 && matchIdx[0] == 0 {
		score += 10
	}
	for i := 1; i < len(matchIdx); i++ {
		if matchIdx[i] == matchIdx[i-1]+1 {
			score += 3
		}
	}
	return true, score
}

func isPrintableASCIIKey(keyName string) bool {
	return len(keyName) == 1 && keyName[0] >= 32 && keyName[0] < 127
}
