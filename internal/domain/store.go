package domain

// Store persists view state and the session across runs.
// Reads come from memory; writes are visible immediately and reach disk asynchronously.
type Store interface {
	// === View state ===
	GetFavorites() ([]Favorite, bool)
	SaveFavorites(favs []Favorite) error

	GetRecent() ([]RecentView, bool)
	SaveRecent(recent []RecentView) error

	GetViewPreference(t EntityType) (ViewPreference, bool)
	SaveViewPreference(t EntityType, pref ViewPreference) error

	// === Session ===
	GetSession() (Session, bool)
	SaveSession(s Session) error
	ClearSession()

	// === Lifecycle ===
	Flush()
	Close() error
}
