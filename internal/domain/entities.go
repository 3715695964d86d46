package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// EntityType identifies one of the catalog collections
type EntityType string

const (
	EntityPeople    EntityType = "people"
	EntityPlanets   EntityType = "planets"
	EntityFilms     EntityType = "films"
	EntitySpecies   EntityType = "species"
	EntityVehicles  EntityType = "vehicles"
	EntityStarships EntityType = "starships"
)

// EntityTypes lists every collection in navigation order
var EntityTypes = []EntityType{
	EntityPeople,
	EntityPlanets,
	EntityFilms,
	EntitySpecies,
	EntityVehicles,
	EntityStarships,
}

// Valid reports whether t belongs to the closed set of collections
func (t EntityType) Valid() bool {
	switch t {
	case EntityPeople, EntityPlanets, EntityFilms, EntitySpecies, EntityVehicles, EntityStarships:
		return true
	}
	return false
}

// Label returns a human-readable collection title
func (t EntityType) Label() string {
	if !t.Valid() {
		return "Unknown"
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseEntityType converts user input into an EntityType
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

// Reference points at one catalog record.
// Raw keeps the URL it was parsed from (empty when built from parts).
type Reference struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
	Raw  string     `json:"raw,omitempty"`
}

// NewReference builds a reference from its parts
func NewReference(t EntityType, id string) Reference {
	return Reference{Type: t, ID: id}
}

// Key returns the canonical "type/id" identity used by caches and stores
func (r Reference) Key() string {
	return string(r.Type) + "/" + r.ID
}

func (r Reference) String() string {
	if r.Raw != "" {
		return r.Raw
	}
	return r.Key()
}

// Valid reports whether the reference can be resolved
func (r Reference) Valid() bool {
	return r.Type.Valid() && r.ID != ""
}

// ParseReference extracts (type, id) from a URL shaped like .../api/{type}/{id}.
// Unknown collections yield a *MalformedReferenceError.
func ParseReference(raw string) (Reference, error) {
	segments, ok := apiSegments(raw)
	if !ok {
		return Reference{}, &MalformedReferenceError{Raw: raw, Reason: "not an api url"}
	}

	t := EntityType(segments[0])
	if !t.Valid() {
		return Reference{}, &MalformedReferenceError{Raw: raw, Reason: fmt.Sprintf("unknown entity type %q", segments[0])}
	}

	return Reference{Type: t, ID: segments[1], Raw: raw}, nil
}

// LooksLikeReference reports whether s has the .../api/{segment}/{id} shape,
// regardless of whether the segment names a known collection.
func LooksLikeReference(s string) bool {
	_, ok := apiSegments(s)
	return ok
}

// apiSegments returns the two path segments following "api"
func apiSegments(raw string) ([]string, bool) {
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(parts) - 3; i >= 0; i-- {
		if parts[i] != "api" {
			continue
		}
		if i+3 != len(parts) || parts[i+1] == "" || parts[i+2] == "" {
			return nil, false
		}
		return []string{strings.ToLower(parts[i+1]), parts[i+2]}, true
	}
	return nil, false
}
