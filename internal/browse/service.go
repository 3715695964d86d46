package browse

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/holocron/internal/domain"
	"github.com/mmcdole/holocron/internal/resolver"
	"github.com/mmcdole/holocron/internal/viewstate"
)

// BatchResolver resolves many references at once
type BatchResolver interface {
	ResolveAll(ctx context.Context, refs []domain.Reference) []resolver.Resolved
}

// PageRequest selects one page of a collection
type PageRequest struct {
	Type   domain.EntityType `json:"type"`
	Page   int               `json:"page"`
	Search string            `json:"search,omitempty"` // server-side search; bypasses pagination
	Filter string            `json:"filter,omitempty"` // client-side fuzzy filter over the returned items
}

// PageView is a fetched page after filtering and sorting
type PageView struct {
	Request    PageRequest           `json:"request"`
	Result     domain.ListResult     `json:"result"`
	Items      []PageItem            `json:"items"`
	Preference domain.ViewPreference `json:"preference"`
}

// HasNext reports whether a later page exists
func (p PageView) HasNext() bool {
	return p.Result.Shape == domain.ShapeList && p.Result.Page < p.Result.TotalPages
}

// HasPrev reports whether an earlier page exists
func (p PageView) HasPrev() bool {
	return p.Result.Shape == domain.ShapeList && p.Result.Page > 1
}

// ResolvedName is one resolved reference of a relation
type ResolvedName struct {
	Ref  domain.Reference `json:"ref"`
	Name string           `json:"name"`
}

// RelationView is a relation with its references turned into names
type RelationView struct {
	Key   string         `json:"key"`
	Label string         `json:"label"`
	Many  bool           `json:"many"`
	Names []ResolvedName `json:"names"`
}

// DetailView is a record ready to render
type DetailView struct {
	Detail    *domain.Detail `json:"detail"`
	Relations []RelationView `json:"relations"`
	Omitted   int            `json:"omitted"` // references that failed to resolve
	Favorite  bool           `json:"favorite"`
}

// Service composes the catalog client, the resolver and view state into the
// operations the presentation layer needs.
type Service struct {
	client   domain.CatalogClient
	resolver BatchResolver
	views    *viewstate.Store
	logger   *slog.Logger
}

// NewService creates a browse service
func NewService(client domain.CatalogClient, res BatchResolver, views *viewstate.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		resolver: res,
		views:    views,
		logger:   logger,
	}
}

// Views returns the view-state store
func (s *Service) Views() *viewstate.Store { return s.views }

// Page fetches a page (or search results) and applies the client-side
// filter and the stored sort preference.
func (s *Service) Page(ctx context.Context, req PageRequest) (PageView, error) {
	if !req.Type.Valid() {
		return PageView{}, fmt.Errorf("unknown entity type %q", req.Type)
	}
	if req.Page < 1 {
		req.Page = 1
	}

	res, err := s.client.ListEntities(ctx, req.Type, req.Page, req.Search)
	if err != nil {
		s.logger.Error("failed to load page", "type", req.Type, "page", req.Page, "search", req.Search, "error", err)
		return PageView{}, err
	}

	pref := s.views.Preference(req.Type)
	items := FilterItems(req.Filter, res.Items)
	SortItems(items, pref)

	s.logger.Debug("loaded page",
		"type", req.Type, "page", res.Page, "shape", res.Shape,
		"items", len(res.Items), "shown", len(items))

	return PageView{
		Request:    req,
		Result:     res,
		Items:      items,
		Preference: pref,
	}, nil
}

// Resort applies the current preference to an already loaded page
func (s *Service) Resort(view PageView) PageView {
	view.Preference = s.views.Preference(view.Request.Type)
	view.Items = FilterItems(view.Request.Filter, view.Result.Items)
	SortItems(view.Items, view.Preference)
	return view
}

// Detail fetches a record and resolves every relation. References that fail
// to resolve are omitted and counted. The record is not marked as viewed;
// callers do that with MarkViewed once they accept the result.
func (s *Service) Detail(ctx context.Context, t domain.EntityType, id string) (*DetailView, error) {
	d, err := s.client.GetEntity(ctx, t, id)
	if err != nil {
		s.logger.Error("failed to load record", "type", t, "id", id, "error", err)
		return nil, err
	}

	view := &DetailView{
		Detail:   d,
		Favorite: s.views.IsFavorite(d.Type, d.ID),
	}

	keys := d.RelationKeys()
	var refs []domain.Reference
	for _, key := range keys {
		refs = append(refs, d.Relations[key].Refs...)
	}

	var resolved []resolver.Resolved
	if len(refs) > 0 {
		resolved = s.resolver.ResolveAll(ctx, refs)
	}

	i := 0
	for _, key := range keys {
		rel := d.Relations[key]
		rv := RelationView{Key: key, Label: domain.HumanizeKey(key), Many: rel.Many}
		for range rel.Refs {
			r := resolved[i]
			i++
			if !r.OK() {
				view.Omitted++
				continue
			}
			rv.Names = append(rv.Names, ResolvedName{Ref: r.Ref, Name: r.Name})
		}
		view.Relations = append(view.Relations, rv)
	}

	if view.Omitted > 0 {
		s.logger.Warn("omitted unresolved references", "type", t, "id", id, "omitted", view.Omitted)
	}
	return view, nil
}

// MarkViewed records an accepted detail view as recently viewed
func (s *Service) MarkViewed(view *DetailView) {
	if view == nil || view.Detail == nil {
		return
	}
	d := view.Detail
	s.views.RecordView(d.Type, d.ID, d.DisplayName)
}

// ToggleFavorite flips the favorite state of an item
func (s *Service) ToggleFavorite(t domain.EntityType, id, displayName string) bool {
	return s.views.ToggleFavorite(t, id, displayName)
}

// Favorites returns favorites matching filter
func (s *Service) Favorites(filter string) []domain.Favorite {
	return FilterFavorites(filter, s.views.Favorites())
}

// Recent returns recently viewed entries matching filter
func (s *Service) Recent(filter string) []domain.RecentView {
	return FilterRecent(filter, s.views.Recent())
}
