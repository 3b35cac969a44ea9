package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "cronofy"

// Key identifies a cached API response.
type Key struct {
	// Host is the API host the response came from (e.g. "api-de.cronofy.com")
	Host string

	// Endpoint is the request path (e.g. "/v1/events" or "/v1/events/pages/08a07b034306679e")
	Endpoint string

	// Query holds the query parameters (e.g. {"tzid": ["Etc/UTC"]})
	Query url.Values

	// Scope separates responses fetched with different credentials ("" for none)
	Scope string
}

// String generates a deterministic cache key string.
// Format: cronofy:host/endpoint:query1=val1,val2:query2=val:scope=abc
//
// Example:
//
//	cronofy:api.cronofy.com/v1/events:calendar_ids[]=cal_1,cal_2:tzid=Etc/UTC:scope=9f86d081884c7d65
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(KeyPrefix)

	endpoint := strings.Trim(k.Endpoint, "/")
	switch {
	case k.Host != "" && endpoint != "":
		b.WriteByte(':')
		b.WriteString(k.Host)
		b.WriteByte('/')
		b.WriteString(endpoint)
	case k.Host != "":
		b.WriteByte(':')
		b.WriteString(k.Host)
	case endpoint != "":
		b.WriteByte(':')
		b.WriteString(endpoint)
	}

	// Query params sorted for determinism; repeated values keep their order
	keys := make([]string, 0, len(k.Query))
	for key := range k.Query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteByte(':')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(strings.Join(k.Query[key], ","))
	}

	if k.Scope != "" {
		b.WriteString(":scope=")
		b.WriteString(k.Scope)
	}

	return b.String()
}
