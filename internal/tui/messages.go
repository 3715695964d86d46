package tui

import (
	"github.com/mmcdole/holocron/internal/browse"
	"github.com/mmcdole/holocron/internal/domain"
)

// Message types for the TUI. Every async result carries the ticket it was
// requested under; results whose ticket is stale are dropped on arrival.

// PageLoadedMsg signals that a collection page has been loaded
type PageLoadedMsg struct {
	Ticket browse.Ticket
	View   browse.PageView
}

// PageFailedMsg signals that a collection page could not be loaded
type PageFailedMsg struct {
	Ticket  browse.Ticket
	Request browse.PageRequest
	Err     error
}

// DetailLoadedMsg signals that a record and its relations have been loaded
type DetailLoadedMsg struct {
	Ticket browse.Ticket
	View   *browse.DetailView
}

// DetailFailedMsg signals that a record could not be loaded
type DetailFailedMsg struct {
	Ticket browse.Ticket
	Type   domain.EntityType
	ID     string
	Err    error
}

// LoginResultMsg carries the outcome of a sign-in attempt
type LoginResultMsg struct {
	Session domain.Session
	Err     error
}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct {
	Seq int
}
