package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// ChannelObserver adapts domain.ChangeObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- domain.Change
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- domain.Change) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnChange sends the change to the channel (non-blocking if full).
func (o *ChannelObserver) OnChange(c domain.Change) {
	select {
	case o.ch <- c:
	default:
	}
}

// waitForChange blocks until the next model change arrives
func waitForChange(ch <-chan domain.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return ChangeMsg{Change: c}
	}
}
