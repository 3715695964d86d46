package viewstate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/holocron/internal/domain"
)

// Store holds browsing preferences, favorites and recently viewed records.
// Mutations apply to memory under the lock and are visible to the next read;
// the backing domain.Store persists them without blocking the caller, and
// receives them in the order they were applied.
type Store struct {
	persist     domain.Store
	defaultMode domain.ViewMode
	now         func() time.Time
	logger      *slog.Logger

	mu        sync.RWMutex
	prefs     map[domain.EntityType]domain.ViewPreference
	favorites []domain.Favorite
	recent    []domain.RecentView
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDefaultViewMode sets the mode used for collections without a saved preference
func WithDefaultViewMode(mode domain.ViewMode) Option {
	return func(s *Store) {
		if mode.Valid() {
			s.defaultMode = mode
		}
	}
}

// New loads persisted state from persist
func New(persist domain.Store, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		persist:     persist,
		defaultMode: domain.ViewTable,
		now:         time.Now,
		logger:      logger,
		prefs:       make(map[domain.EntityType]domain.ViewPreference),
	}
	for _, opt := range opts {
		opt(s)
	}

	if favs, ok := persist.GetFavorites(); ok {
		s.favorites = dedupe(favs, domain.Favorite.Reference)
	}
	if recent, ok := persist.GetRecent(); ok {
		recent = dedupe(recent, domain.RecentView.Reference)
		if len(recent) > domain.MaxRecentViews {
			recent = recent[:domain.MaxRecentViews]
		}
		s.recent = recent
	}
	for _, t := range domain.EntityTypes {
		if pref, ok := persist.GetViewPreference(t); ok {
			s.prefs[t] = normalize(pref, s.defaultMode)
		}
	}
	return s
}

// dedupe keeps the first entry per record, preserving order
func dedupe[T any](entries []T, ref func(T) domain.Reference) []T {
	seen := make(map[string]bool, len(entries))
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		key := ref(e).Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// normalize repairs a preference that breaks the single-active-column rule
func normalize(p domain.ViewPreference, fallback domain.ViewMode) domain.ViewPreference {
	if !p.ViewMode.Valid() {
		p.ViewMode = fallback
	}
	if p.SortKey == "" || (p.SortDirection != domain.SortAsc && p.SortDirection != domain.SortDesc) {
		p.SortKey = ""
		p.SortDirection = domain.SortNone
	}
	return p
}

// === Preferences ===

// Preference returns the browsing preference for t
func (s *Store) Preference(t domain.EntityType) domain.ViewPreference {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preferenceLocked(t)
}

func (s *Store) preferenceLocked(t domain.EntityType) domain.ViewPreference {
	if pref, ok := s.prefs[t]; ok {
		return pref
	}
	return domain.ViewPreference{ViewMode: s.defaultMode}
}

// SetViewMode switches t between table and grid rendering
func (s *Store) SetViewMode(t domain.EntityType, mode domain.ViewMode) domain.ViewPreference {
	if !mode.Valid() {
		return s.Preference(t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pref := s.preferenceLocked(t)
	pref.ViewMode = mode
	s.setPreferenceLocked(t, pref)
	return pref
}

// ToggleViewMode flips between table and grid
func (s *Store) ToggleViewMode(t domain.EntityType) domain.ViewPreference {
	if s.Preference(t).ViewMode == domain.ViewGrid {
		return s.SetViewMode(t, domain.ViewTable)
	}
	return s.SetViewMode(t, domain.ViewGrid)
}

// ToggleSort advances the sort state of column for t.
// The same column cycles unsorted -> asc -> desc -> unsorted; a different
// column replaces the active one and starts ascending.
func (s *Store) ToggleSort(t domain.EntityType, column string) domain.ViewPreference {
	s.mu.Lock()
	defer s.mu.Unlock()
	pref := nextSort(s.preferenceLocked(t), column)
	s.setPreferenceLocked(t, pref)
	return pref
}

// nextSort is the column sort state machine
func nextSort(p domain.ViewPreference, column string) domain.ViewPreference {
	if column == "" {
		return p
	}
	if p.SortKey != column {
		p.SortKey = column
		p.SortDirection = domain.SortAsc
		return p
	}

	switch p.SortDirection {
	case domain.SortAsc:
		p.SortDirection = domain.SortDesc
	case domain.SortDesc:
		p.SortKey = ""
		p.SortDirection = domain.SortNone
	default:
		p.SortDirection = domain.SortAsc
	}
	return p
}

// ColumnSort reports the sort state of column for t
func (s *Store) ColumnSort(t domain.EntityType, column string) domain.SortDirection {
	pref := s.Preference(t)
	if pref.SortKey != column {
		return domain.SortNone
	}
	return pref.SortDirection
}

// ClearSort returns t to unsorted
func (s *Store) ClearSort(t domain.EntityType) domain.ViewPreference {
	s.mu.Lock()
	defer s.mu.Unlock()
	pref := s.preferenceLocked(t)
	pref.SortKey = ""
	pref.SortDirection = domain.SortNone
	s.setPreferenceLocked(t, pref)
	return pref
}

// setPreferenceLocked updates memory and hands the value to persist while the
// lock is held, so writes reach the store in mutation order.
func (s *Store) setPreferenceLocked(t domain.EntityType, pref domain.ViewPreference) {
	s.prefs[t] = pref
	if err := s.persist.SaveViewPreference(t, pref); err != nil {
		s.logger.Error("failed to save view preference", "type", t, "error", err)
	}
}

// === Favorites ===

// ToggleFavorite removes the favorite for (t, id) if present, otherwise adds it.
// Returns true when the record is a favorite afterwards.
func (s *Store) ToggleFavorite(t domain.EntityType, id, displayName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.favoriteIndexLocked(t, id)
	added := idx < 0

	next := make([]domain.Favorite, 0, len(s.favorites)+1)
	if added {
		next = append(next, s.favorites...)
		next = append(next, domain.Favorite{Type: t, ID: id, DisplayName: displayName, SavedAt: s.now()})
	} else {
		next = append(next, s.favorites[:idx]...)
		next = append(next, s.favorites[idx+1:]...)
	}
	s.favorites = next

	if err := s.persist.SaveFavorites(s.favoritesLocked()); err != nil {
		s.logger.Error("failed to save favorites", "error", err)
	}
	s.logger.Debug("toggled favorite", "type", t, "id", id, "favorite", added)
	return added
}

// IsFavorite reports whether (t, id) is a favorite
func (s *Store) IsFavorite(t domain.EntityType, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favoriteIndexLocked(t, id) >= 0
}

// Favorites returns a copy of the favorites in insertion order
func (s *Store) Favorites() []domain.Favorite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.favoritesLocked()
}

func (s *Store) favoritesLocked() []domain.Favorite {
	out := make([]domain.Favorite, len(s.favorites))
	copy(out, s.favorites)
	return out
}

func (s *Store) favoriteIndexLocked(t domain.EntityType, id string) int {
	for i, f := range s.favorites {
		if f.Type == t && f.ID == id {
			return i
		}
	}
	return -1
}

// === Recently viewed ===

// RecordView moves (t, id) to the front of the recently-viewed list,
// dropping the oldest entries beyond the cap.
func (s *Store) RecordView(t domain.EntityType, id, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]domain.RecentView, 0, domain.MaxRecentViews)
	next = append(next, domain.RecentView{Type: t, ID: id, DisplayName: displayName, ViewedAt: s.now()})
	for _, r := range s.recent {
		if r.Type == t && r.ID == id {
			continue
		}
		if len(next) == domain.MaxRecentViews {
			break
		}
		next = append(next, r)
	}
	s.recent = next

	if err := s.persist.SaveRecent(s.recentLocked()); err != nil {
		s.logger.Error("failed to save recently viewed", "error", err)
	}
}

// Recent returns a copy of the recently-viewed list, most recent first
func (s *Store) Recent() []domain.RecentView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recentLocked()
}

func (s *Store) recentLocked() []domain.RecentView {
	out := make([]domain.RecentView, len(s.recent))
	copy(out, s.recent)
	return out
}
