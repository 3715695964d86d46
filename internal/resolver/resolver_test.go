package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/holocron/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves names from a map and counts calls
type fakeFetcher struct {
	names   map[string]string
	fail    map[string]error
	release chan struct{} // when set, every fetch waits on it
	calls   atomic.Int32

	mu     sync.Mutex
	perKey map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		names: map[string]string{
			"planets/1": "Tatooine",
			"films/1":   "A New Hope",
			"films/2":   "The Empire Strikes Back",
		},
		fail:   map[string]error{},
		perKey: map[string]int{},
	}
}

func (f *fakeFetcher) GetEntityByReference(ctx context.Context, ref domain.Reference) (*domain.Detail, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.perKey[ref.Key()]++
	err := f.fail[ref.Key()]
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, &domain.TransientError{Op: "fake", Err: ctx.Err()}
		}
	}
	if err != nil {
		return nil, err
	}

	name, ok := f.names[ref.Key()]
	if !ok {
		return nil, &domain.NotFoundError{Type: ref.Type, ID: ref.ID}
	}
	return &domain.Detail{ID: ref.ID, Type: ref.Type, DisplayName: name}, nil
}

func (f *fakeFetcher) setFail(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, key)
		return
	}
	f.fail[key] = err
}

func (f *fakeFetcher) callsFor(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perKey[key]
}

func TestResolver_ResolveNameCaches(t *testing.T) {
	fetcher := newFakeFetcher()
	r := New(fetcher, Options{}, nil)

	name, err := r.ResolveName(context.Background(), "https://www.swapi.tech/api/planets/1")
	require.NoError(t, err)
	assert.Equal(t, "Tatooine", name)

	// Same record through a different URL form hits the cache
	name, err = r.ResolveName(context.Background(), "http://mirror.example/api/planets/1/")
	require.NoError(t, err)
	assert.Equal(t, "Tatooine", name)

	assert.Equal(t, int32(1), fetcher.calls.Load())
	stats := r.Stats()
	assert.Equal(t, int64(1), stats.Fetches)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.Cached)

	cached, ok := r.Cached(domain.NewReference(domain.EntityPlanets, "1"))
	assert.True(t, ok)
	assert.Equal(t, "Tatooine", cached)
}

func TestResolver_MalformedMakesNoCalls(t *testing.T) {
	fetcher := newFakeFetcher()
	r := New(fetcher, Options{}, nil)

	for _, raw := range []string{
		"https://www.swapi.tech/api/droids/3",
		"not a url",
		"",
	} {
		_, err := r.ResolveName(context.Background(), raw)
		assert.True(t, domain.IsMalformedReference(err), raw)
	}

	_, err := r.Resolve(context.Background(), domain.Reference{Type: "droids", ID: "3"})
	assert.True(t, domain.IsMalformedReference(err))

	assert.Equal(t, int32(0), fetcher.calls.Load())
}

func TestResolver_ConcurrentCallersShareOneFetch(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.release = make(chan struct{})
	r := New(fetcher, Options{}, nil)

	const callers = 25
	ref := domain.NewReference(domain.EntityFilms, "1")

	var started, done sync.WaitGroup
	names := make([]string, callers)
	errs := make([]error, callers)
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer done.Done()
			started.Done()
			names[i], errs[i] = r.Resolve(context.Background(), ref)
		}()
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(fetcher.release)
	done.Wait()

	assert.Equal(t, 1, fetcher.callsFor("films/1"))
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "A New Hope", names[i])
	}
}

func TestResolver_ConcurrentCallersShareFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.release = make(chan struct{})
	boom := &domain.TransientError{Op: "fake", Err: errors.New("boom")}
	fetcher.setFail("films/2", boom)
	r := New(fetcher, Options{}, nil)

	const callers = 10
	ref := domain.NewReference(domain.EntityFilms, "2")

	var started, done sync.WaitGroup
	errs := make([]error, callers)
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		i := i
		go func() {
			defer done.Done()
			started.Done()
			_, errs[i] = r.Resolve(context.Background(), ref)
		}()
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(fetcher.release)
	done.Wait()

	assert.Equal(t, 1, fetcher.callsFor("films/2"))
	for _, err := range errs {
		assert.True(t, domain.IsTransient(err))
	}
}

func TestResolver_FailureIsNotCached(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.setFail("planets/1", &domain.TransientError{Op: "fake", Err: errors.New("503")})
	r := New(fetcher, Options{}, nil)
	ref := domain.NewReference(domain.EntityPlanets, "1")

	_, err := r.Resolve(context.Background(), ref)
	require.Error(t, err)

	fetcher.setFail("planets/1", nil)
	name, err := r.Resolve(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "Tatooine", name)
	assert.Equal(t, 2, fetcher.callsFor("planets/1"))
	assert.Equal(t, int64(1), r.Stats().Failed)
}

func TestResolver_CallerCancelDoesNotFailOthers(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.release = make(chan struct{})
	r := New(fetcher, Options{}, nil)
	ref := domain.NewReference(domain.EntityFilms, "1")

	impatient, cancel := context.WithCancel(context.Background())
	impatientErr := make(chan error, 1)
	go func() {
		_, err := r.Resolve(impatient, ref)
		impatientErr <- err
	}()

	patient := make(chan string, 1)
	go func() {
		name, _ := r.Resolve(context.Background(), ref)
		patient <- name
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-impatientErr, context.Canceled)

	close(fetcher.release)
	assert.Equal(t, "A New Hope", <-patient)
	assert.Equal(t, 1, fetcher.callsFor("films/1"))
}

func TestResolver_ResolveAll(t *testing.T) {
	fetcher := newFakeFetcher()
	r := New(fetcher, Options{Concurrency: 2}, nil)

	refs := []domain.Reference{
		domain.NewReference(domain.EntityFilms, "1"),
		domain.NewReference(domain.EntityFilms, "404"),
		domain.NewReference(domain.EntityFilms, "2"),
		{Type: "droids", ID: "1"},
		domain.NewReference(domain.EntityFilms, "1"),
	}

	out := r.ResolveAll(context.Background(), refs)
	require.Len(t, out, len(refs))

	assert.True(t, out[0].OK())
	assert.Equal(t, "A New Hope", out[0].Name)
	assert.True(t, domain.IsNotFound(out[1].Err))
	assert.Equal(t, "The Empire Strikes Back", out[2].Name)
	assert.True(t, domain.IsMalformedReference(out[3].Err))
	assert.Equal(t, "A New Hope", out[4].Name)
	assert.Equal(t, refs[2], out[2].Ref)

	assert.Equal(t, 1, fetcher.callsFor("films/1"), "duplicates inside one batch share a fetch")
	assert.Equal(t, 0, fetcher.callsFor("droids/1"))
}
