package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/holocron/internal/app"
	"github.com/mmcdole/holocron/internal/browse"
	"github.com/mmcdole/holocron/internal/domain"
)

// Command factories for async operations

const (
	pageTimeout   = 30 * time.Second
	detailTimeout = 45 * time.Second
	statusTimeout = 3 * time.Second
)

// LoadPageCmd loads one page of a collection
func LoadPageCmd(svc *browse.Service, ticket browse.Ticket, req browse.PageRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pageTimeout)
		defer cancel()

		view, err := svc.Page(ctx, req)
		if err != nil {
			return PageFailedMsg{Ticket: ticket, Request: req, Err: err}
		}
		return PageLoadedMsg{Ticket: ticket, View: view}
	}
}

// LoadDetailCmd loads a record and resolves its relations
func LoadDetailCmd(svc *browse.Service, ticket browse.Ticket, t domain.EntityType, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), detailTimeout)
		defer cancel()

		view, err := svc.Detail(ctx, t, id)
		if err != nil {
			return DetailFailedMsg{Ticket: ticket, Type: t, ID: id, Err: err}
		}
		return DetailLoadedMsg{Ticket: ticket, View: view}
	}
}

// LoginCmd checks credentials off the update loop
func LoginCmd(a *app.App, username, password string) tea.Cmd {
	return func() tea.Msg {
		sess, err := a.Login(username, password)
		return LoginResultMsg{Session: sess, Err: err}
	}
}

// ClearStatusCmd clears the status line after a delay
func ClearStatusCmd(seq int) tea.Cmd {
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
