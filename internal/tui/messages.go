package tui

import (
	"github.com/mmcdole/arrdeck/internal/domain"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// ChangeMsg carries a model change notification
type ChangeMsg struct {
	Change domain.Change
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct {
	ID int
}

// AddedMsg signals that a lookup result is now part of the library
type AddedMsg struct {
	Title string
	Kind  domain.EntityKind
}
