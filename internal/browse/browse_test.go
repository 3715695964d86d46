package browse

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mmcdole/holocron/internal/domain"
	"github.com/mmcdole/holocron/internal/resolver"
	"github.com/mmcdole/holocron/internal/store"
	"github.com/mmcdole/holocron/internal/viewstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves canned pages and records in memory
type fakeClient struct {
	mu       sync.Mutex
	pages    map[domain.EntityType]domain.ListResult
	records  map[string]*domain.Detail
	failKeys map[string]error
	listErr  error
	lastList struct {
		page   int
		search string
	}
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		pages:    map[domain.EntityType]domain.ListResult{},
		records:  map[string]*domain.Detail{},
		failKeys: map[string]error{},
	}
}

func (f *fakeClient) ListEntities(ctx context.Context, t domain.EntityType, page int, search string) (domain.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList.page = page
	f.lastList.search = search
	if f.listErr != nil {
		return domain.ListResult{}, f.listErr
	}
	res := f.pages[t]
	res.Page = page
	return res, nil
}

func (f *fakeClient) GetEntity(ctx context.Context, t domain.EntityType, id string) (*domain.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := string(t) + "/" + id
	if err := f.failKeys[key]; err != nil {
		return nil, err
	}
	d, ok := f.records[key]
	if !ok {
		return nil, &domain.NotFoundError{Type: t, ID: id}
	}
	return d, nil
}

func (f *fakeClient) GetEntityByReference(ctx context.Context, ref domain.Reference) (*domain.Detail, error) {
	return f.GetEntity(ctx, ref.Type, ref.ID)
}

func newTestService(t *testing.T) (*Service, *fakeClient) {
	t.Helper()
	persist, err := store.NewViewStore("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { persist.Close() })

	client := newFakeClient()
	views := viewstate.New(persist, nil)
	res := resolver.New(client, resolver.Options{}, nil)
	return NewService(client, res, views, nil), client
}

func items(names ...string) []domain.CatalogItem {
	out := make([]domain.CatalogItem, len(names))
	for i, n := range names {
		out[i] = domain.CatalogItem{ID: string(rune('1' + i)), DisplayName: n}
	}
	return out
}

func TestSlot_LatestWins(t *testing.T) {
	var slot Slot

	first := slot.Begin()
	second := slot.Begin()

	// The first response arrives last; it must not be applied
	assert.True(t, slot.Current(second))
	assert.False(t, slot.Current(first))

	slot.Invalidate()
	assert.False(t, slot.Current(second))
}

func TestSlot_Concurrent(t *testing.T) {
	var slot Slot
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slot.Begin()
		}()
	}
	wg.Wait()

	last := slot.Begin()
	assert.Equal(t, Ticket(51), last)
	assert.True(t, slot.Current(last))
}

func TestFilterItems(t *testing.T) {
	all := items("Luke Skywalker", "Leia Organa", "Darth Vader", "Owen Lars")

	assert.Len(t, FilterItems("", all), 4)
	assert.Len(t, FilterItems("   ", all), 4)

	got := FilterItems("sky", all)
	require.Len(t, got, 1)
	assert.Equal(t, "Luke Skywalker", got[0].DisplayName)
	assert.NotEmpty(t, got[0].MatchedIndexes)

	got = FilterItems("LARS", all)
	require.Len(t, got, 1)
	assert.Equal(t, "Owen Lars", got[0].DisplayName)

	assert.Empty(t, FilterItems("yoda", all))
}

func TestSortItems(t *testing.T) {
	page := []PageItem{
		{CatalogItem: domain.CatalogItem{ID: "10", DisplayName: "beru"}},
		{CatalogItem: domain.CatalogItem{ID: "2", DisplayName: "Anakin"}},
		{CatalogItem: domain.CatalogItem{ID: "x", DisplayName: "Cliegg"}},
	}

	names := func() []string {
		var out []string
		for _, p := range page {
			out = append(out, p.DisplayName)
		}
		return out
	}

	SortItems(page, domain.ViewPreference{})
	assert.Equal(t, []string{"beru", "Anakin", "Cliegg"}, names(), "unsorted keeps order")

	SortItems(page, domain.ViewPreference{SortKey: domain.SortKeyName, SortDirection: domain.SortAsc})
	assert.Equal(t, []string{"Anakin", "beru", "Cliegg"}, names(), "name sort ignores case")

	SortItems(page, domain.ViewPreference{SortKey: domain.SortKeyName, SortDirection: domain.SortDesc})
	assert.Equal(t, []string{"Cliegg", "beru", "Anakin"}, names())

	SortItems(page, domain.ViewPreference{SortKey: domain.SortKeyID, SortDirection: domain.SortAsc})
	assert.Equal(t, []string{"Anakin", "beru", "Cliegg"}, names(), "ids compare numerically")
}

func TestService_Page(t *testing.T) {
	svc, client := newTestService(t)
	client.pages[domain.EntityPeople] = domain.ListResult{
		Type:         domain.EntityPeople,
		Items:        items("Luke Skywalker", "C-3PO", "R2-D2"),
		TotalRecords: 82,
		TotalPages:   9,
		Shape:        domain.ShapeList,
	}

	view, err := svc.Page(context.Background(), PageRequest{Type: domain.EntityPeople, Page: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, client.lastList.page)
	assert.Len(t, view.Items, 3)
	assert.True(t, view.HasNext())
	assert.False(t, view.HasPrev())

	svc.Views().ToggleSort(domain.EntityPeople, domain.SortKeyName)
	view, err = svc.Page(context.Background(), PageRequest{Type: domain.EntityPeople, Page: 2, Filter: "-"})
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "C-3PO", view.Items[0].DisplayName)
	assert.Equal(t, "R2-D2", view.Items[1].DisplayName)
	assert.True(t, view.HasPrev())

	svc.Views().ToggleSort(domain.EntityPeople, domain.SortKeyName) // desc
	view = svc.Resort(view)
	assert.Equal(t, "R2-D2", view.Items[0].DisplayName)
}

func TestService_Page_SearchIsSinglePage(t *testing.T) {
	svc, client := newTestService(t)
	client.pages[domain.EntityPeople] = domain.ListResult{
		Items:        items("Luke Skywalker"),
		TotalRecords: 1,
		TotalPages:   1,
		Shape:        domain.ShapeSearch,
	}

	view, err := svc.Page(context.Background(), PageRequest{Type: domain.EntityPeople, Page: 3, Search: "Luke"})
	require.NoError(t, err)
	assert.Equal(t, "Luke", client.lastList.search)
	assert.False(t, view.HasNext())
	assert.False(t, view.HasPrev())
}

func TestService_Page_Errors(t *testing.T) {
	svc, client := newTestService(t)

	_, err := svc.Page(context.Background(), PageRequest{Type: "droids"})
	assert.Error(t, err)

	client.listErr = &domain.TransientError{Op: "GET /people", Err: errors.New("503")}
	_, err = svc.Page(context.Background(), PageRequest{Type: domain.EntityPeople})
	assert.True(t, domain.IsTransient(err))
}

func TestService_Detail(t *testing.T) {
	svc, client := newTestService(t)
	client.records["people/1"] = &domain.Detail{
		ID:          "1",
		Type:        domain.EntityPeople,
		DisplayName: "Luke Skywalker",
		Relations: map[string]domain.Relation{
			"homeworld": {Key: "homeworld", Refs: []domain.Reference{domain.NewReference(domain.EntityPlanets, "1")}},
			"films": {Key: "films", Many: true, Refs: []domain.Reference{
				domain.NewReference(domain.EntityFilms, "1"),
				domain.NewReference(domain.EntityFilms, "2"),
				domain.NewReference(domain.EntityFilms, "3"),
			}},
		},
	}
	client.records["planets/1"] = &domain.Detail{ID: "1", Type: domain.EntityPlanets, DisplayName: "Tatooine"}
	client.records["films/1"] = &domain.Detail{ID: "1", Type: domain.EntityFilms, DisplayName: "A New Hope"}
	client.records["films/3"] = &domain.Detail{ID: "3", Type: domain.EntityFilms, DisplayName: "Return of the Jedi"}
	client.failKeys["films/2"] = &domain.TransientError{Op: "GET /films/2", Err: errors.New("timeout")}

	svc.ToggleFavorite(domain.EntityPeople, "1", "Luke Skywalker")

	view, err := svc.Detail(context.Background(), domain.EntityPeople, "1")
	require.NoError(t, err)

	assert.True(t, view.Favorite)
	assert.Equal(t, 1, view.Omitted, "the failing film is omitted, not fatal")
	require.Len(t, view.Relations, 2)

	// Relations come back in key order
	films := view.Relations[0]
	assert.Equal(t, "films", films.Key)
	assert.Equal(t, "Films", films.Label)
	assert.True(t, films.Many)
	require.Len(t, films.Names, 2)
	assert.Equal(t, "A New Hope", films.Names[0].Name)
	assert.Equal(t, "Return of the Jedi", films.Names[1].Name)

	home := view.Relations[1]
	assert.Equal(t, "homeworld", home.Key)
	require.Len(t, home.Names, 1)
	assert.Equal(t, "Tatooine", home.Names[0].Name)

	assert.Empty(t, svc.Recent(""), "loading alone does not mark the record viewed")
	svc.MarkViewed(view)
	recent := svc.Recent("")
	require.Len(t, recent, 1)
	assert.Equal(t, "Luke Skywalker", recent[0].DisplayName)
}

func TestService_Detail_NotFoundIsNotRecorded(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Detail(context.Background(), domain.EntityPlanets, "999")
	assert.True(t, domain.IsNotFound(err))
	assert.Empty(t, svc.Recent(""))
}

func TestService_FavoritesAndRecentFilter(t *testing.T) {
	svc, _ := newTestService(t)
	svc.ToggleFavorite(domain.EntityPeople, "1", "Luke Skywalker")
	svc.ToggleFavorite(domain.EntityStarships, "10", "Millennium Falcon")
	svc.Views().RecordView(domain.EntityPlanets, "1", "Tatooine")
	svc.Views().RecordView(domain.EntityPlanets, "2", "Alderaan")

	assert.Len(t, svc.Favorites(""), 2)

	favs := svc.Favorites("falcon")
	require.Len(t, favs, 1)
	assert.Equal(t, "10", favs[0].ID)

	favs = svc.Favorites("starships")
	require.Len(t, favs, 1, "collection name matches too")

	recent := svc.Recent("tat")
	require.Len(t, recent, 1)
	assert.Equal(t, "Tatooine", recent[0].DisplayName)
}

func TestRankNames(t *testing.T) {
	names := []string{"people", "planets", "films", "species", "vehicles", "starships"}

	got := RankNames("peple", names)
	require.NotEmpty(t, got)
	assert.Equal(t, "people", got[0])

	assert.Empty(t, RankNames("zzz", names))
}
