// Package pagination provides a cursor over paged Cronofy API responses.
//
// Paged endpoints such as /v1/events wrap their results in an envelope that
// carries a "pages" object next to the item list:
//
//	{
//	  "pages": {"current": 1, "total": 2, "next_page": "https://api.cronofy.com/v1/events/pages/08a07b034306679e"},
//	  "events": [...]
//	}
//
// A Cursor is built from the first page and walks its items. When the page is
// used up it calls the injected Fetcher with the next_page link and continues
// with the new page, until the last page has been consumed:
//
//	env, err := pagination.ParseEnvelope(body)
//	cursor, err := pagination.New(apiClient, env, "events", pagination.Config{})
//	for item, err := range cursor.All(ctx) {
//		if err != nil {
//			return err
//		}
//		fmt.Println(string(item))
//	}
//
// With Config.ManualPagination set, iteration stops at the end of the current
// page. Callers inspect CurrentPage, TotalPages and NextPageURL and call
// FetchNextPage themselves.
//
// The cursor is single-pass and not safe for concurrent use. It never retries:
// fetch errors are returned to the caller of Next or FetchNextPage unchanged.
package pagination
