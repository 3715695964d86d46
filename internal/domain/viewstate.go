package domain

import "time"

// MaxRecentViews caps the recently-viewed list
const MaxRecentViews = 10

// ViewMode selects how a collection is rendered
type ViewMode string

const (
	ViewTable ViewMode = "table"
	ViewGrid  ViewMode = "grid"
)

// Valid reports whether m is a known view mode
func (m ViewMode) Valid() bool {
	return m == ViewTable || m == ViewGrid
}

// SortDirection is the direction of the active sort column
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sortable columns of a collection listing
const (
	SortKeyName = "name"
	SortKeyID   = "id"
)

// ViewPreference is the per-collection browsing configuration
type ViewPreference struct {
	ViewMode      ViewMode      `json:"viewMode"`
	SortKey       string        `json:"sortKey,omitempty"`
	SortDirection SortDirection `json:"sortDirection,omitempty"`
}

// Sorted reports whether a sort column is active
func (p ViewPreference) Sorted() bool {
	return p.SortKey != "" && p.SortDirection != SortNone
}

// Favorite is a user-pinned record
type Favorite struct {
	Type        EntityType `json:"type"`
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	SavedAt     time.Time  `json:"savedAt"`
}

// Reference returns the record the favorite points at
func (f Favorite) Reference() Reference { return NewReference(f.Type, f.ID) }

// RecentView is an entry in the recently-viewed list
type RecentView struct {
	Type        EntityType `json:"type"`
	ID          string     `json:"id"`
	DisplayName string     `json:"displayName"`
	ViewedAt    time.Time  `json:"viewedAt"`
}

// Reference returns the record that was viewed
func (r RecentView) Reference() Reference { return NewReference(r.Type, r.ID) }
