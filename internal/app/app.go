// Package app wires configuration, persistence, the catalog client and the
// session into the services the presentation layers drive.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmcdole/holocron/internal/browse"
	"github.com/mmcdole/holocron/internal/config"
	"github.com/mmcdole/holocron/internal/domain"
	"github.com/mmcdole/holocron/internal/resolver"
	"github.com/mmcdole/holocron/internal/session"
	"github.com/mmcdole/holocron/internal/store"
	"github.com/mmcdole/holocron/internal/swapi"
	"github.com/mmcdole/holocron/internal/viewstate"
)

// App is the composition root. It owns every long-lived component and
// scopes the reference resolver to the signed-in session.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Client  *swapi.Client
	Store   *store.ViewStore
	Views   *viewstate.Store
	Session *session.Manager

	mu       sync.Mutex
	resolver *resolver.Resolver
	browse   *browse.Service
}

// New builds the application from cfg
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.NewViewStore(cfg.Storage.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open view store: %w", err)
	}

	sess, err := session.NewManager(cfg.Auth, st, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	views := viewstate.New(st, logger, viewstate.WithDefaultViewMode(domain.ViewMode(cfg.UI.DefaultView)))

	return &App{
		Config:  cfg,
		Logger:  logger,
		Client:  swapi.NewClient(cfg.API, logger),
		Store:   st,
		Views:   views,
		Session: sess,
	}, nil
}

// Login signs in and starts a fresh resolver cache
func (a *App) Login(username, password string) (domain.Session, error) {
	sess, err := a.Session.Login(username, password)
	if err != nil {
		return domain.Session{}, err
	}

	a.mu.Lock()
	a.startLocked()
	a.mu.Unlock()
	return sess, nil
}

// Logout signs out and drops the session's resolver cache
func (a *App) Logout() error {
	a.mu.Lock()
	if a.resolver != nil {
		stats := a.resolver.Stats()
		a.Logger.Info("dropping resolver cache", "cached", stats.Cached, "hits", stats.Hits, "fetches", stats.Fetches)
	}
	a.resolver = nil
	a.browse = nil
	a.mu.Unlock()

	return a.Session.Logout()
}

// Browse returns the browse service for the signed-in session.
// A session restored from disk gets its resolver on first use.
func (a *App) Browse() (*browse.Service, error) {
	if !a.Session.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.browse == nil {
		a.startLocked()
	}
	return a.browse, nil
}

func (a *App) startLocked() {
	a.resolver = resolver.New(a.Client, resolver.Options{
		Timeout:     a.Config.Resolver.Timeout,
		Concurrency: a.Config.Resolver.Concurrency,
	}, a.Logger)
	a.browse = browse.NewService(a.Client, a.resolver, a.Views, a.Logger)
}

// ResolverStats reports the current session's resolver counters
func (a *App) ResolverStats() (resolver.Stats, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.resolver == nil {
		return resolver.Stats{}, false
	}
	return a.resolver.Stats(), true
}

// Close flushes pending writes and closes the store
func (a *App) Close() error {
	a.Store.Flush()
	return a.Store.Close()
}
