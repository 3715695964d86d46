package swapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mmcdole/holocron/internal/domain"
)

// rawEnvelope is the union of every response body the API returns.
// Only one of Result / Results is populated for list endpoints.
type rawEnvelope struct {
	Message      string          `json:"message"`
	TotalRecords int             `json:"total_records"`
	TotalPages   int             `json:"total_pages"`
	Previous     *string         `json:"previous"`
	Next         *string         `json:"next"`
	Results      json.RawMessage `json:"results"`
	Result       json.RawMessage `json:"result"`
}

// ListEntry is one row of a paginated listing
type ListEntry struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RecordEntry is a full record: the elements of a search result and the
// body of a detail response share this shape.
type RecordEntry struct {
	UID         string                     `json:"uid"`
	Description string                     `json:"description"`
	Properties  map[string]json.RawMessage `json:"properties"`
}

// listPage is a decoded list-shaped envelope
type listPage struct {
	TotalRecords int
	TotalPages   int
	Results      []ListEntry
}

// envelope is a classified list response. Shape decides which field is set;
// nothing downstream looks at the JSON again.
type envelope struct {
	shape  domain.Shape
	list   listPage
	search []RecordEntry
}

// decodeListEnvelope classifies a list or search response.
// A result array means search-shaped; otherwise a results array means list-shaped.
func decodeListEnvelope(body []byte) (envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return envelope{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if isArray(raw.Result) {
		var entries []RecordEntry
		if err := json.Unmarshal(raw.Result, &entries); err != nil {
			return envelope{}, fmt.Errorf("failed to parse search result: %w", err)
		}
		return envelope{shape: domain.ShapeSearch, search: entries}, nil
	}

	if isArray(raw.Results) {
		var entries []ListEntry
		if err := json.Unmarshal(raw.Results, &entries); err != nil {
			return envelope{}, fmt.Errorf("failed to parse results: %w", err)
		}
		return envelope{
			shape: domain.ShapeList,
			list: listPage{
				TotalRecords: raw.TotalRecords,
				TotalPages:   raw.TotalPages,
				Results:      entries,
			},
		}, nil
	}

	return envelope{}, fmt.Errorf("unrecognized response envelope (message %q)", raw.Message)
}

// decodeDetailEnvelope parses the body of a single-record response
func decodeDetailEnvelope(body []byte) (RecordEntry, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return RecordEntry{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if !isObject(raw.Result) {
		return RecordEntry{}, fmt.Errorf("detail response has no result object (message %q)", raw.Message)
	}

	var entry RecordEntry
	if err := json.Unmarshal(raw.Result, &entry); err != nil {
		return RecordEntry{}, fmt.Errorf("failed to parse result: %w", err)
	}
	return entry, nil
}

func isArray(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isObject(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
