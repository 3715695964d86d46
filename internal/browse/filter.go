package browse

import (
	"sort"
	"strconv"
	"strings"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/holocron/internal/domain"
	"github.com/sahilm/fuzzy"
)

// PageItem is a catalog item with the character positions a filter matched
type PageItem struct {
	domain.CatalogItem
	MatchedIndexes []int `json:"matchedIndexes,omitempty"`
}

// itemIndex implements fuzzy.Source over display names
type itemIndex struct {
	items []domain.CatalogItem
	lower []string
}

func newItemIndex(items []domain.CatalogItem) *itemIndex {
	lower := make([]string, len(items))
	for i, it := range items {
		lower[i] = strings.ToLower(it.DisplayName)
	}
	return &itemIndex{items: items, lower: lower}
}

// String returns the lowercase name at index i (implements fuzzy.Source)
func (idx *itemIndex) String(i int) string { return idx.lower[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *itemIndex) Len() int { return len(idx.items) }

// FilterItems narrows items to those whose display name fuzzy-matches query,
// best match first. An empty query keeps every item in its original order.
func FilterItems(query string, items []domain.CatalogItem) []PageItem {
	query = strings.TrimSpace(query)
	if query == "" {
		out := make([]PageItem, len(items))
		for i, it := range items {
			out[i] = PageItem{CatalogItem: it}
		}
		return out
	}

	idx := newItemIndex(items)
	matches := fuzzy.FindFrom(strings.ToLower(query), idx)

	out := make([]PageItem, len(matches))
	for i, m := range matches {
		out[i] = PageItem{CatalogItem: items[m.Index], MatchedIndexes: m.MatchedIndexes}
	}
	return out
}

// SortItems orders items in place by the preference's active column.
// Unsorted preferences leave the order untouched.
func SortItems(items []PageItem, pref domain.ViewPreference) {
	if !pref.Sorted() {
		return
	}

	var less func(a, b PageItem) bool
	switch pref.SortKey {
	case domain.SortKeyID:
		less = func(a, b PageItem) bool { return lessID(a.ID, b.ID) }
	default:
		less = func(a, b PageItem) bool {
			an, bn := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)
			if an != bn {
				return an < bn
			}
			return lessID(a.ID, b.ID)
		}
	}

	desc := pref.SortDirection == domain.SortDesc
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// lessID compares numerically when both ids are numbers; numbers sort first
func lessID(a, b string) bool {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return an < bn
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	default:
		return a < b
	}
}

// matchesLoose reports whether query appears in name as an in-order
// subsequence, ignoring case. Used for the short saved lists.
func matchesLoose(query, name string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return lfuzzy.MatchFold(query, name)
}

// FilterFavorites keeps favorites whose name or collection matches query
func FilterFavorites(query string, favs []domain.Favorite) []domain.Favorite {
	out := make([]domain.Favorite, 0, len(favs))
	for _, f := range favs {
		if matchesLoose(query, f.DisplayName) || matchesLoose(query, string(f.Type)) {
			out = append(out, f)
		}
	}
	return out
}

// FilterRecent keeps recently viewed entries whose name or collection matches query
func FilterRecent(query string, recent []domain.RecentView) []domain.RecentView {
	out := make([]domain.RecentView, 0, len(recent))
	for _, r := range recent {
		if matchesLoose(query, r.DisplayName) || matchesLoose(query, string(r.Type)) {
			out = append(out, r)
		}
	}
	return out
}

// RankNames orders names by edit distance to query, dropping non-matches
func RankNames(query string, names []string) []string {
	ranks := lfuzzy.RankFindFold(query, names)
	sort.Sort(ranks)
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
