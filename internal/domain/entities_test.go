package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		raw     string
		wantKey string
	}{
		{"https://www.swapi.tech/api/people/1", "people/1"},
		{"https://www.swapi.tech/api/planets/12/", "planets/12"},
		{"http://localhost:8080/v1/api/Starships/9", "starships/9"},
	}
	for _, tt := range tests {
		ref, err := ParseReference(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.wantKey, ref.Key())
		assert.Equal(t, tt.raw, ref.Raw)
		assert.True(t, ref.Valid())
	}
}

func TestParseReference_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"people/1",
		"https://www.swapi.tech/api/droids/3",
		"https://www.swapi.tech/api/people",
		"https://www.swapi.tech/api/people/1/extra",
		"https://www.swapi.tech/people/1",
	} {
		_, err := ParseReference(raw)
		require.Error(t, err, raw)
		assert.True(t, IsMalformedReference(err), raw)

		var mre *MalformedReferenceError
		assert.True(t, errors.As(err, &mre))
	}
}

func TestLooksLikeReference(t *testing.T) {
	assert.True(t, LooksLikeReference("https://www.swapi.tech/api/droids/3"))
	assert.False(t, LooksLikeReference("172"))
	assert.False(t, LooksLikeReference("blue, grey"))
}

func TestParseEntityType(t *testing.T) {
	got, err := ParseEntityType(" People ")
	require.NoError(t, err)
	assert.Equal(t, EntityPeople, got)

	_, err = ParseEntityType("droids")
	assert.Error(t, err)

	assert.Len(t, EntityTypes, 6)
	assert.Equal(t, "Starships", EntityStarships.Label())
}

func TestErrorClassification(t *testing.T) {
	cause := errors.New("connection refused")
	transient := fmt.Errorf("loading page: %w", &TransientError{Op: "GET /people", Err: cause})
	assert.True(t, IsTransient(transient))
	assert.ErrorIs(t, transient, cause)
	assert.False(t, IsNotFound(transient))

	nf := &NotFoundError{Type: EntityFilms, ID: "42"}
	assert.True(t, IsNotFound(nf))
	assert.Equal(t, `films "42" not found`, nf.Error())
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "172", TextValue("172").String())
	assert.Equal(t, "4", NumberValue(4).String())
	assert.Equal(t, "1.5", NumberValue(1.5).String())
	assert.Equal(t, "a, b", ListValue([]string{"a", "b"}).String())
	assert.Equal(t, "Hair color", HumanizeKey("hair_color"))
}

func TestDetailJSON(t *testing.T) {
	d := &Detail{
		ID:          "1",
		Type:        EntityPeople,
		DisplayName: "Luke Skywalker",
		Attributes: map[string]Value{
			"height":  TextValue("172"),
			"mass":    NumberValue(77),
			"aliases": ListValue([]string{"Red Five"}),
			"titles":  ListValue(nil),
		},
		Relations: map[string]Relation{
			"homeworld": {Key: "homeworld", Refs: []Reference{NewReference(EntityPlanets, "1")}},
		},
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "1",
		"type": "people",
		"displayName": "Luke Skywalker",
		"attributes": {"height": "172", "mass": 77, "aliases": ["Red Five"], "titles": []},
		"relations": {"homeworld": {"key": "homeworld", "many": false, "refs": [{"type": "planets", "id": "1"}]}}
	}`, string(data))

	data, err = json.Marshal(ListResult{Type: EntityFilms, Page: 1, Shape: ShapeSearch})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"shape":"search"`)
}
