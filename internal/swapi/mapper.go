package swapi

import (
	"encoding/json"
	"strings"

	"github.com/mmcdole/holocron/internal/domain"
)

// bookkeeping properties never shown as attributes
var bookkeeping = map[string]bool{
	"created": true,
	"edited":  true,
	"url":     true,
}

// MapListItems converts paginated listing rows to catalog items
func MapListItems(entries []ListEntry) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			name = domain.UnknownName
		}
		items = append(items, domain.CatalogItem{
			ID:          e.UID,
			DisplayName: name,
			SourceRef:   e.URL,
		})
	}
	return items
}

// MapSearchItems converts search-result records to catalog items
func MapSearchItems(entries []RecordEntry) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, domain.CatalogItem{
			ID:          e.UID,
			DisplayName: displayName(e.Properties),
			SourceRef:   stringProperty(e.Properties, "url"),
		})
	}
	return items
}

// MapDetail converts a record into the detail form, splitting relations
// from plain attributes.
func MapDetail(t domain.EntityType, e RecordEntry) *domain.Detail {
	d := &domain.Detail{
		ID:          e.UID,
		Type:        t,
		DisplayName: displayName(e.Properties),
		Description: e.Description,
		Attributes:  make(map[string]domain.Value),
		Relations:   make(map[string]domain.Relation),
	}

	for key, raw := range e.Properties {
		if bookkeeping[key] {
			continue
		}
		mapProperty(d, key, raw)
	}
	return d
}

// mapProperty classifies one property as an attribute or a relation
func mapProperty(d *domain.Detail, key string, raw json.RawMessage) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return
	}

	switch val := v.(type) {
	case string:
		if domain.LooksLikeReference(val) {
			// Unknown collections are treated as absent
			if ref, err := domain.ParseReference(val); err == nil {
				d.Relations[key] = domain.Relation{Key: key, Refs: []domain.Reference{ref}}
			}
			return
		}
		d.Attributes[key] = domain.TextValue(val)

	case float64:
		d.Attributes[key] = domain.NumberValue(val)

	case bool:
		if val {
			d.Attributes[key] = domain.TextValue("yes")
		} else {
			d.Attributes[key] = domain.TextValue("no")
		}

	case []interface{}:
		texts := make([]string, 0, len(val))
		isRelation := false
		for _, elem := range val {
			s, ok := elem.(string)
			if !ok {
				continue
			}
			if domain.LooksLikeReference(s) {
				isRelation = true
			}
			texts = append(texts, s)
		}

		if !isRelation {
			d.Attributes[key] = domain.ListValue(texts)
			return
		}

		refs := make([]domain.Reference, 0, len(texts))
		for _, s := range texts {
			if ref, err := domain.ParseReference(s); err == nil {
				refs = append(refs, ref)
			}
		}
		d.Relations[key] = domain.Relation{Key: key, Many: true, Refs: refs}
	}
}

// displayName picks name, then title, then the unknown placeholder
func displayName(props map[string]json.RawMessage) string {
	if name := strings.TrimSpace(stringProperty(props, "name")); name != "" {
		return name
	}
	if title := strings.TrimSpace(stringProperty(props, "title")); title != "" {
		return title
	}
	return domain.UnknownName
}

func stringProperty(props map[string]json.RawMessage, key string) string {
	raw, ok := props[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
