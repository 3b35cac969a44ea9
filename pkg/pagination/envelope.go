package pagination

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PagesKey is the envelope key holding pagination metadata.
const PagesKey = "pages"

var (
	// ErrMalformedEnvelope is returned when a page response lacks the pagination
	// metadata or the item list it is expected to carry.
	ErrMalformedEnvelope = errors.New("malformed page envelope")
)

// Item is a single element of a page's item list, kept as received.
type Item = json.RawMessage

// Envelope is a page response as received from the API.
//
// Example:
//
//	{
//	  "pages": {"current": 1, "total": 2, "next_page": "https://api.cronofy.com/v1/events/pages/08a07b034306679e"},
//	  "events": [{"event_uid": "evt_external_54008b1a4a41730f8d5c6037"}]
//	}
type Envelope map[string]json.RawMessage

// PageInfo is the decoded "pages" object of an envelope.
type PageInfo struct {
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	NextPage string `json:"next_page,omitempty"`
}

// HasNext reports whether the API announced a page after this one.
func (p PageInfo) HasNext() bool {
	return p.Current < p.Total
}

// ParseEnvelope decodes a raw JSON response body into an Envelope.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env == nil {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformedEnvelope)
	}
	return env, nil
}

// PageInfo decodes the pagination metadata.
// A page that reports more pages but carries no next_page link is malformed.
func (e Envelope) PageInfo() (PageInfo, error) {
	raw, ok := e[PagesKey]
	if !ok || isNull(raw) {
		return PageInfo{}, fmt.Errorf("%w: missing %q", ErrMalformedEnvelope, PagesKey)
	}

	var info PageInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return PageInfo{}, fmt.Errorf("%w: decode %q: %v", ErrMalformedEnvelope, PagesKey, err)
	}

	if info.HasNext() && info.NextPage == "" {
		return PageInfo{}, fmt.Errorf("%w: page %d of %d has no next_page",
			ErrMalformedEnvelope, info.Current, info.Total)
	}

	return info, nil
}

// Items returns the item list stored under dataType.
func (e Envelope) Items(dataType string) ([]Item, error) {
	raw, ok := e[dataType]
	if !ok || isNull(raw) {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedEnvelope, dataType)
	}

	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q is not a list: %v", ErrMalformedEnvelope, dataType, err)
	}
	if items == nil {
		items = []Item{}
	}

	return items, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
