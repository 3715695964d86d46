package swapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/holocron/internal/config"
	"github.com/mmcdole/holocron/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peoplePage2 = `{
  "message": "ok",
  "total_records": 82,
  "total_pages": 9,
  "previous": "https://www.swapi.tech/api/people?page=1&limit=10",
  "next": "https://www.swapi.tech/api/people?page=3&limit=10",
  "results": [
    {"uid": "11", "name": "Anakin Skywalker", "url": "https://www.swapi.tech/api/people/11"},
    {"uid": "12", "name": "", "url": "https://www.swapi.tech/api/people/12"}
  ]
}`

const lukeSearch = `{
  "message": "ok",
  "result": [
    {
      "uid": "1",
      "description": "A person within the Star Wars universe",
      "properties": {"name": "Luke Skywalker", "url": "https://www.swapi.tech/api/people/1"}
    },
    {
      "uid": "99",
      "description": "",
      "properties": {"title": "Luke's Holocron", "url": "https://www.swapi.tech/api/people/99"}
    },
    {
      "uid": "100",
      "description": "",
      "properties": {"url": "https://www.swapi.tech/api/people/100"}
    }
  ]
}`

const lukeDetail = `{
  "message": "ok",
  "result": {
    "uid": "1",
    "description": "A person within the Star Wars universe",
    "properties": {
      "name": "Luke Skywalker",
      "height": "172",
      "mass": "77",
      "episode_count": 4,
      "aliases": ["Red Five", "Wormie"],
      "homeworld": "https://www.swapi.tech/api/planets/1",
      "films": ["https://www.swapi.tech/api/films/1", "https://www.swapi.tech/api/films/2"],
      "vehicles": ["https://www.swapi.tech/api/droids/3"],
      "created": "2025-01-01T00:00:00.000Z",
      "edited": "2025-01-01T00:00:00.000Z",
      "url": "https://www.swapi.tech/api/people/1"
    }
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.APIConfig{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second, PageSize: 10}, nil)
}

func TestClient_ListEntities_ListShaped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/people", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		w.Write([]byte(peoplePage2))
	})

	res, err := client.ListEntities(context.Background(), domain.EntityPeople, 2, "")
	require.NoError(t, err)

	assert.Equal(t, domain.ShapeList, res.Shape)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 82, res.TotalRecords)
	assert.Equal(t, 9, res.TotalPages, "total pages comes from the envelope")
	require.Len(t, res.Items, 2)
	assert.Equal(t, domain.CatalogItem{
		ID:          "11",
		DisplayName: "Anakin Skywalker",
		SourceRef:   "https://www.swapi.tech/api/people/11",
	}, res.Items[0])
	assert.Equal(t, domain.UnknownName, res.Items[1].DisplayName)
}

func TestClient_ListEntities_SearchShaped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Luke", r.URL.Query().Get("name"))
		assert.Empty(t, r.URL.Query().Get("page"), "search is not paginated")
		w.Write([]byte(lukeSearch))
	})

	res, err := client.ListEntities(context.Background(), domain.EntityPeople, 4, "Luke")
	require.NoError(t, err)

	assert.Equal(t, domain.ShapeSearch, res.Shape)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, 3, res.TotalRecords)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "Luke Skywalker", res.Items[0].DisplayName)
	assert.Equal(t, "https://www.swapi.tech/api/people/1", res.Items[0].SourceRef)
	assert.Equal(t, "Luke's Holocron", res.Items[1].DisplayName, "falls back to title")
	assert.Equal(t, domain.UnknownName, res.Items[2].DisplayName)
	for _, item := range res.Items {
		assert.NotEmpty(t, item.DisplayName)
	}
}

func TestClient_ListEntities_FilmsSearchByTitle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hope", r.URL.Query().Get("title"))
		w.Write([]byte(`{"message":"ok","result":[]}`))
	})

	res, err := client.ListEntities(context.Background(), domain.EntityFilms, 1, "hope")
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.TotalRecords)
	assert.Equal(t, 1, res.TotalPages)
}

func TestClient_ListEntities_ResultArrayWinsWithoutSearch(t *testing.T) {
	// The films collection answers a plain listing with a result array
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok","result":[{"uid":"1","properties":{"title":"A New Hope"}}]}`))
	})

	res, err := client.ListEntities(context.Background(), domain.EntityFilms, 1, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ShapeSearch, res.Shape)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, "A New Hope", res.Items[0].DisplayName)
}

func TestClient_ListEntities_UnknownEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	})

	_, err := client.ListEntities(context.Background(), domain.EntityPeople, 1, "")
	assert.ErrorContains(t, err, "unrecognized response envelope")
}

func TestClient_GetEntity(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/people/1", r.URL.Path)
		w.Write([]byte(lukeDetail))
	})

	d, err := client.GetEntity(context.Background(), domain.EntityPeople, "1")
	require.NoError(t, err)

	assert.Equal(t, "1", d.ID)
	assert.Equal(t, domain.EntityPeople, d.Type)
	assert.Equal(t, "Luke Skywalker", d.DisplayName)
	assert.Equal(t, "A person within the Star Wars universe", d.Description)

	assert.Equal(t, domain.TextValue("172"), d.Attributes["height"])
	assert.Equal(t, domain.NumberValue(4), d.Attributes["episode_count"])
	assert.Equal(t, domain.ListValue([]string{"Red Five", "Wormie"}), d.Attributes["aliases"])
	for _, key := range []string{"created", "edited", "url", "homeworld", "films"} {
		assert.NotContains(t, d.Attributes, key)
	}

	home := d.Relations["homeworld"]
	assert.False(t, home.Many)
	require.Len(t, home.Refs, 1)
	assert.Equal(t, "planets/1", home.Refs[0].Key())

	films := d.Relations["films"]
	assert.True(t, films.Many)
	require.Len(t, films.Refs, 2)
	assert.Equal(t, "films/2", films.Refs[1].Key())

	// Unknown collections are dropped, not surfaced as attributes
	assert.Empty(t, d.Relations["vehicles"].Refs)
	assert.NotContains(t, d.Attributes, "vehicles")
}

func TestClient_GetEntity_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"not found"}`))
	})

	_, err := client.GetEntity(context.Background(), domain.EntityPlanets, "999")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.False(t, domain.IsTransient(err))

	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "999", nf.ID)
	assert.NotNil(t, errors.Unwrap(err), "cause chain is preserved")
}

func TestClient_GetEntity_ServerErrorIsTransient(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GetEntity(context.Background(), domain.EntityPeople, "1")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
	assert.Equal(t, int32(1), calls.Load(), "client never retries")
}

func TestClient_GetEntity_TimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(config.APIConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)

	_, err := client.GetEntity(context.Background(), domain.EntityPeople, "1")
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestClient_GetEntity_BadRequestIsPlainError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.GetEntity(context.Background(), domain.EntityPeople, "x")
	require.Error(t, err)
	assert.False(t, domain.IsTransient(err))
	assert.False(t, domain.IsNotFound(err))
	assert.Contains(t, err.Error(), "400")
}

func TestClient_GetEntityByReference(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/planets/1", r.URL.Path)
		w.Write([]byte(`{"message":"ok","result":{"uid":"1","properties":{"name":"Tatooine"}}}`))
	})

	ref, err := domain.ParseReference("https://www.swapi.tech/api/planets/1")
	require.NoError(t, err)

	d, err := client.GetEntityByReference(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, "Tatooine", d.DisplayName)

	_, err = client.GetEntityByReference(context.Background(), domain.Reference{Type: "droids", ID: "3"})
	assert.True(t, domain.IsMalformedReference(err))
}
