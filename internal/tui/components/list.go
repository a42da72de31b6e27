package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/arrdeck/internal/tui/styles"
)

// List tracks the cursor, scroll offset and filter input of a scrollable list.
// Rows are rendered by the caller; the list only knows how many there are.
type List struct {
	cursor int
	offset int
	count  int
	height int // visible rows

	filterActive bool
	filterInput  textinput.Model
}

// NewList creates an empty list
func NewList() *List {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &List{filterInput: ti, height: 1}
}

// SetHeight sets the number of visible rows
func (l *List) SetHeight(h int) {
	l.height = max(h, 1)
	l.ensureVisible()
}

// SetCount updates the row count and keeps the cursor in range
func (l *List) SetCount(n int) {
	l.count = max(n, 0)
	if l.cursor >= l.count {
		l.cursor = max(l.count-1, 0)
	}
	l.ensureVisible()
}

// Count returns the row count
func (l *List) Count() int { return l.count }

// Cursor returns the selected row
func (l *List) Cursor() int { return l.cursor }

// SetCursor moves the selection to row i
func (l *List) SetCursor(i int) {
	l.cursor = min(max(i, 0), max(l.count-1, 0))
	l.ensureVisible()
}

// Window returns the half-open range of visible rows
func (l *List) Window() (start, end int) {
	return l.offset, min(l.offset+l.height, l.count)
}

// HandleKey moves the cursor. Reports whether the key was a movement key.
func (l *List) HandleKey(key string) bool {
	switch key {
	case "j", "down":
		l.SetCursor(l.cursor + 1)
	case "k", "up":
		l.SetCursor(l.cursor - 1)
	case "g", "home":
		l.SetCursor(0)
	case "G", "end":
		l.SetCursor(l.count - 1)
	case "ctrl+d":
		l.SetCursor(l.cursor + l.height/2)
	case "ctrl+u":
		l.SetCursor(l.cursor - l.height/2)
	case "pgdown":
		l.SetCursor(l.cursor + l.height)
	case "pgup":
		l.SetCursor(l.cursor - l.height)
	default:
		return false
	}
	return true
}

func (l *List) ensureVisible() {
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.height {
		l.offset = l.cursor - l.height + 1
	}
	if maxOffset := max(l.count-l.height, 0); l.offset > maxOffset {
		l.offset = maxOffset
	}
}

// StartFilter opens (or re-focuses) the filter input
func (l *List) StartFilter() tea.Cmd {
	l.filterActive = true
	return l.filterInput.Focus()
}

// ClearFilter closes the filter input and drops the query
func (l *List) ClearFilter() {
	l.filterActive = false
	l.filterInput.SetValue("")
	l.filterInput.Blur()
}

// FilterActive reports whether a filter is shown
func (l *List) FilterActive() bool { return l.filterActive }

// FilterTyping reports whether the filter input has focus
func (l *List) FilterTyping() bool { return l.filterActive && l.filterInput.Focused() }

// FilterQuery returns the current filter text
func (l *List) FilterQuery() string {
	if !l.filterActive {
		return ""
	}
	return l.filterInput.Value()
}

// UpdateFilter routes a message to the filter input while it has focus.
// Enter keeps the filter and returns to navigation; esc clears it.
// Reports whether the query changed.
func (l *List) UpdateFilter(msg tea.Msg) (changed bool, cmd tea.Cmd) {
	before := l.FilterQuery()
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			l.ClearFilter()
			return before != "", nil
		case "enter":
			l.filterInput.Blur()
			return false, nil
		case "backspace":
			if l.filterInput.Value() == "" {
				l.ClearFilter()
				return false, nil
			}
		}
	}
	l.filterInput, cmd = l.filterInput.Update(msg)
	return l.FilterQuery() != before, cmd
}

// FilterView renders the filter line
func (l *List) FilterView() string {
	if !l.filterActive {
		return ""
	}
	return l.filterInput.View()
}
