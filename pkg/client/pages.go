package client

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/Sternrassler/cronofy-client/pkg/pagination"
)

// maxErrorBody bounds how much of an error response body is kept in APIError.
const maxErrorBody = 1024

var _ pagination.Fetcher = (*Client)(nil)

// Fetch retrieves a page and decodes its envelope. It implements pagination.Fetcher,
// so a Client can be handed to cursors to follow next_page links.
func (c *Client) Fetch(ctx context.Context, ref string) (pagination.Envelope, error) {
	resp, err := c.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		errClass := classifyStatus(resp.StatusCode)
		if errClass == "" {
			errClass = ErrorClassClient
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    resp.Status,
			Body:       string(body),
			Err:        ErrUnexpectedStatus,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "read response body",
			Err:        err,
		}
	}

	env, err := pagination.ParseEnvelope(body)
	if err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode page",
			Err:        err,
		}
	}

	return env, nil
}

// Pages fetches the first page of a paged endpoint and returns a cursor over it.
// Follow-up pages are fetched through this client.
func (c *Client) Pages(ctx context.Context, path string, query url.Values, dataType string, cfg pagination.Config) (*pagination.Cursor, error) {
	ref := path
	if len(query) > 0 {
		ref = path + "?" + query.Encode()
	}

	env, err := c.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}

	cursor, err := pagination.New(c, env, dataType, cfg)
	if err != nil {
		return nil, fmt.Errorf("read %s page: %w", dataType, err)
	}

	c.logger.Debug().
		Str("endpoint", path).
		Str("data_type", dataType).
		Int("total_pages", cursor.TotalPages()).
		Int("items", len(cursor.List())).
		Msg("Opened paged result")

	return cursor, nil
}
