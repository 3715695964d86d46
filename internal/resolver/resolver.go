// Package resolver turns relation references into display names.
//
// Names are cached for the lifetime of a Resolver, which the application
// scopes to one sign-in session. Concurrent lookups of the same reference
// share a single fetch; failed fetches are never cached.
package resolver

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/holocron/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultConcurrency = 4
)

// Fetcher loads the record behind a reference
type Fetcher interface {
	GetEntityByReference(ctx context.Context, ref domain.Reference) (*domain.Detail, error)
}

// Options tunes a Resolver
type Options struct {
	// Timeout bounds one shared fetch, independent of any caller's context
	Timeout time.Duration
	// Concurrency bounds parallel fetches in ResolveAll
	Concurrency int
}

// Stats counts resolver activity
type Stats struct {
	Hits    int64
	Fetches int64
	Failed  int64
	Cached  int
}

// Resolved is the outcome for one reference in ResolveAll
type Resolved struct {
	Ref  domain.Reference
	Name string
	Err  error
}

// OK reports whether the name was resolved
func (r Resolved) OK() bool { return r.Err == nil }

// Resolver implements domain.NameResolver
type Resolver struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger

	mu    sync.RWMutex // Protects names
	names map[string]string

	group singleflight.Group

	hits    atomic.Int64
	fetches atomic.Int64
	failed  atomic.Int64
}

// New creates a resolver backed by fetcher
func New(fetcher Fetcher, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Resolver{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		names:   make(map[string]string),
	}
}

// ResolveName parses raw and resolves it. Malformed input returns a
// *domain.MalformedReferenceError without touching the network.
func (r *Resolver) ResolveName(ctx context.Context, raw string) (string, error) {
	ref, err := domain.ParseReference(raw)
	if err != nil {
		return "", err
	}
	return r.Resolve(ctx, ref)
}

// Resolve returns the display name for ref
func (r *Resolver) Resolve(ctx context.Context, ref domain.Reference) (string, error) {
	if !ref.Valid() {
		return "", &domain.MalformedReferenceError{Raw: ref.String(), Reason: "unknown entity type or empty id"}
	}

	key := ref.Key()
	if name, ok := r.cached(key); ok {
		r.hits.Add(1)
		return name, nil
	}

	ch := r.group.DoChan(key, func() (interface{}, error) {
		return r.fetch(ref)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		// The shared fetch keeps running for the other callers
		return "", ctx.Err()
	}
}

// fetch performs the single shared lookup for ref. It is detached from the
// caller's context so one cancelled caller cannot fail the rest.
func (r *Resolver) fetch(ref domain.Reference) (string, error) {
	key := ref.Key()

	// A caller may have filled the cache between our miss and this flight
	if name, ok := r.cached(key); ok {
		r.hits.Add(1)
		return name, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout)
	defer cancel()

	r.fetches.Add(1)
	detail, err := r.fetcher.GetEntityByReference(ctx, ref)
	if err != nil {
		r.failed.Add(1)
		r.logger.Warn("failed to resolve reference", "ref", key, "error", err)
		if ctx.Err() != nil && !domain.IsTransient(err) {
			err = &domain.TransientError{Op: "resolve " + key, Err: err}
		}
		return "", err
	}

	name := detail.DisplayName
	if name == "" {
		name = domain.UnknownName
	}

	r.mu.Lock()
	r.names[key] = name
	r.mu.Unlock()

	r.logger.Debug("resolved reference", "ref", key, "name", name)
	return name, nil
}

func (r *Resolver) cached(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[key]
	return name, ok
}

// Cached returns the name for ref if it has already been resolved
func (r *Resolver) Cached(ref domain.Reference) (string, bool) {
	return r.cached(ref.Key())
}

// ResolveAll resolves refs concurrently and returns one outcome per input,
// in input order. Individual failures are reported, never returned as an error.
func (r *Resolver) ResolveAll(ctx context.Context, refs []domain.Reference) []Resolved {
	out := make([]Resolved, len(refs))

	g := new(errgroup.Group)
	g.SetLimit(r.opts.Concurrency)

	for i, ref := range refs {
		out[i].Ref = ref
		if name, ok := r.cached(ref.Key()); ok && ref.Valid() {
			r.hits.Add(1)
			out[i].Name = name
			continue
		}
		i, ref := i, ref
		g.Go(func() error {
			name, err := r.Resolve(ctx, ref)
			out[i].Name = name
			out[i].Err = err
			return nil
		})
	}

	g.Wait()
	return out
}

// Stats returns counters since the resolver was created
func (r *Resolver) Stats() Stats {
	r.mu.RLock()
	cached := len(r.names)
	r.mu.RUnlock()
	return Stats{
		Hits:    r.hits.Load(),
		Fetches: r.fetches.Load(),
		Failed:  r.failed.Load(),
		Cached:  cached,
	}
}
