package domain

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// UnknownName is shown when a record carries neither a name nor a title
const UnknownName = "Unknown"

// Shape records which envelope a list response arrived in
type Shape int

const (
	ShapeList   Shape = iota // paginated listing: results[]
	ShapeSearch              // unpaginated search result: result[]
)

func (s Shape) String() string {
	if s == ShapeSearch {
		return "search"
	}
	return "list"
}

// MarshalJSON encodes the shape by name
func (s Shape) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// CatalogItem is a row in a collection listing
type CatalogItem struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	SourceRef   string `json:"sourceRef"`
}

// ListResult is one page of a collection or one search response
type ListResult struct {
	Type         EntityType    `json:"type"`
	Page         int           `json:"page"`
	Items        []CatalogItem `json:"items"`
	TotalRecords int           `json:"totalRecords"`
	TotalPages   int           `json:"totalPages"`
	Shape        Shape         `json:"shape"`
}

// ValueKind discriminates attribute values
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueNumber
	ValueList
)

// Value is a scalar or list attribute of a record
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	List   []string
}

// TextValue builds a text attribute
func TextValue(s string) Value { return Value{Kind: ValueText, Text: s} }

// NumberValue builds a numeric attribute
func NumberValue(n float64) Value { return Value{Kind: ValueNumber, Number: n} }

// ListValue builds a list attribute
func ListValue(items []string) Value { return Value{Kind: ValueList, List: items} }

// String formats the value for display
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ValueList:
		return strings.Join(v.List, ", ")
	default:
		return v.Text
	}
}

// MarshalJSON encodes the value as a plain string, number or string list
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Number)
	case ValueList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	default:
		return json.Marshal(v.Text)
	}
}

// Relation holds the references stored under one property
type Relation struct {
	Key  string      `json:"key"`
	Many bool        `json:"many"` // true when the property is an array
	Refs []Reference `json:"refs"`
}

// Detail is the full form of one record
type Detail struct {
	ID          string              `json:"id"`
	Type        EntityType          `json:"type"`
	DisplayName string              `json:"displayName"`
	Description string              `json:"description,omitempty"`
	Attributes  map[string]Value    `json:"attributes"`
	Relations   map[string]Relation `json:"relations"`
}

// Reference returns the reference addressing this record
func (d *Detail) Reference() Reference {
	return NewReference(d.Type, d.ID)
}

// AttributeKeys returns attribute names in stable order
func (d *Detail) AttributeKeys() []string {
	keys := make([]string, 0, len(d.Attributes))
	for k := range d.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RelationKeys returns relation names in stable order
func (d *Detail) RelationKeys() []string {
	keys := make([]string, 0, len(d.Relations))
	for k := range d.Relations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HumanizeKey turns "hair_color" into "Hair color"
func HumanizeKey(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
