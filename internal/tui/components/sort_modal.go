package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/arrdeck/internal/library"
	"github.com/mmcdole/arrdeck/internal/tui/styles"
)

// SortModal is a small popup for choosing sort order
type SortModal struct {
	visible bool
	options []library.SortField
	cursor  int
	active  library.SortSpec
}

// NewSortModal creates a new sort modal
func NewSortModal() SortModal {
	return SortModal{}
}

// Show displays the modal with the given options and current sort state
func (m *SortModal) Show(options []library.SortField, active library.SortSpec) {
	m.visible = true
	m.options = options
	m.active = active
	m.cursor = 0
	for i, opt := range options {
		if opt == active.Field {
			m.cursor = i
			break
		}
	}
}

// Hide dismisses the modal
func (m *SortModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m SortModal) IsVisible() bool {
	return m.visible
}

// HandleKey processes a key press, returns (handled, selection).
// If selection is non-nil, the user confirmed a choice. Choosing the active
// field again flips its direction.
func (m *SortModal) HandleKey(key string) (handled bool, selection *library.SortSpec) {
	if !m.visible {
		return false, nil
	}

	switch key {
	case "j", "down":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		if len(m.options) == 0 {
			m.visible = false
			return true, nil
		}
		spec := library.NewSort(m.options[m.cursor])
		if spec.Field == m.active.Field {
			spec.Direction = library.SortAsc
			if m.active.Direction == library.SortAsc {
				spec.Direction = library.SortDesc
			}
		}
		m.visible = false
		return true, &spec
	case "esc", "s":
		m.visible = false
	}
	return true, nil // consume all keys when visible
}

// View renders the sort modal
func (m SortModal) View() string {
	if !m.visible || len(m.options) == 0 {
		return ""
	}

	lines := make([]string, 0, len(m.options))
	for i, opt := range m.options {
		isActive := opt == m.active.Field

		text := "  " + opt.String()
		if isActive {
			arrow := " ↓"
			if m.active.Direction == library.SortAsc {
				arrow = " ↑"
			}
			text = "✓ " + opt.String() + arrow
		}

		style := lipgloss.NewStyle().Foreground(styles.LightGray)
		switch {
		case i == m.cursor:
			style = lipgloss.NewStyle().Foreground(styles.White).Background(styles.SlateLight)
		case isActive:
			style = lipgloss.NewStyle().Foreground(styles.Accent)
		}
		lines = append(lines, style.Render(styles.Pad(text, 24)))
	}

	return styles.ModalStyle.Render(styles.ModalTitleStyle.Render("Sort by") + "\n" + strings.Join(lines, "\n"))
}
