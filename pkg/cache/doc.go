// Package cache provides Redis-backed caching of Cronofy API responses.
//
// The client consults the cache before each GET:
//
//   - a fresh entry without validators is served directly
//   - a fresh entry with an ETag or Last-Modified turns the request into a
//     conditional one (If-None-Match / If-Modified-Since); a 304 answer is
//     served from the cache and its TTL refreshed from the new Expires header
//   - a 200 answer is stored with the TTL from its Expires header, or the
//     manager's default TTL when the header is missing
//
// # Basic Usage
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(rdb, cache.DefaultTTL)
//
//	key := cache.Key{
//		Host:     "api.cronofy.com",
//		Endpoint: "/v1/events",
//		Query:    url.Values{"tzid": []string{"Etc/UTC"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API
//	}
//
// Keys carry the Host, so next_page links into another data center never
// collide with the base host, and a Scope so that responses fetched with
// different credentials never collide. The client derives it from a hash of the Authorization header.
//
// # Metrics
//
//   - cronofy_cache_hits_total
//   - cronofy_cache_misses_total
//   - cronofy_conditional_requests_total
//   - cronofy_304_responses_total
//   - cronofy_cache_errors_total{operation}
package cache
