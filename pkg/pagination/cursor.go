package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/cronofy-client/pkg/logging"
	"github.com/rs/zerolog"
)

var (
	// Done is returned by Next when no items remain and no further page will be fetched.
	Done = errors.New("no more items in cursor")

	// ErrNoNextPage is returned by FetchNextPage when the current page has no next_page link.
	ErrNoNextPage = errors.New("no next page to fetch")
)

// Fetcher retrieves the page behind a next_page URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Envelope, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (Envelope, error)

// Fetch calls f(ctx, url).
func (f FetcherFunc) Fetch(ctx context.Context, url string) (Envelope, error) {
	return f(ctx, url)
}

// Config holds cursor configuration.
type Config struct {
	// ManualPagination stops iteration at the end of the current page.
	// The zero value follows next_page links automatically.
	ManualPagination bool

	// Logger overrides the default "pagination" component logger.
	Logger *zerolog.Logger
}

// Cursor iterates over the items of a paged response, one page at a time.
// A Cursor is single-pass and must not be used from multiple goroutines at once.
type Cursor struct {
	fetcher      Fetcher
	dataType     string
	autoPaginate bool
	logger       zerolog.Logger

	data     Envelope
	info     PageInfo
	items    []Item
	position int
}

// New creates a cursor over an already fetched page. It performs no I/O.
// The fetcher is only called when iteration crosses a page boundary or
// FetchNextPage is called.
func New(fetcher Fetcher, data Envelope, dataType string, cfg Config) (*Cursor, error) {
	if dataType == "" {
		return nil, errors.New("data type is required")
	}

	logger := logging.NewLogger("pagination")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	c := &Cursor{
		fetcher:      fetcher,
		dataType:     dataType,
		autoPaginate: !cfg.ManualPagination,
		logger:       logger.With().Str("data_type", dataType).Logger(),
	}
	if err := c.load(data); err != nil {
		return nil, err
	}

	return c, nil
}

// load replaces the page state with data. On error the cursor is unchanged.
func (c *Cursor) load(data Envelope) error {
	info, err := data.PageInfo()
	if err != nil {
		return err
	}
	items, err := data.Items(c.dataType)
	if err != nil {
		return err
	}

	c.data = data
	c.info = info
	c.items = items
	c.position = 0
	return nil
}

// RawData returns the envelope of the current page.
func (c *Cursor) RawData() Envelope {
	return c.data
}

// List returns the items of the current page. It never fetches.
func (c *Cursor) List() []Item {
	return c.items
}

// DataType returns the envelope key holding the item list.
func (c *Cursor) DataType() string {
	return c.dataType
}

// AutoPaginate reports whether iteration follows next_page links.
func (c *Cursor) AutoPaginate() bool {
	return c.autoPaginate
}

// CurrentPage returns the page number of the current page.
func (c *Cursor) CurrentPage() int {
	return c.info.Current
}

// TotalPages returns the total page count reported by the current page.
func (c *Cursor) TotalPages() int {
	return c.info.Total
}

// NextPageURL returns the next_page link of the current page, if any.
func (c *Cursor) NextPageURL() (string, bool) {
	return c.info.NextPage, c.info.NextPage != ""
}

// Position returns the index of the next item to be returned within the current page.
func (c *Cursor) Position() int {
	return c.position
}

// FetchNextPage retrieves the page behind NextPageURL and makes it the current page.
// Errors from the fetcher are returned unchanged and leave the cursor as it was.
func (c *Cursor) FetchNextPage(ctx context.Context) error {
	url, ok := c.NextPageURL()
	if !ok {
		return fmt.Errorf("%w (page %d of %d)", ErrNoNextPage, c.info.Current, c.info.Total)
	}
	if c.fetcher == nil {
		return fmt.Errorf("fetch %s: no fetcher configured", url)
	}

	data, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		pageFetchErrors.WithLabelValues(c.dataType).Inc()
		c.logger.Warn().
			Err(err).
			Str("url", url).
			Int("page", c.info.Current).
			Msg("Next page fetch failed")
		return err
	}

	if err := c.load(data); err != nil {
		pageFetchErrors.WithLabelValues(c.dataType).Inc()
		return fmt.Errorf("page from %s: %w", url, err)
	}

	pagesFetched.WithLabelValues(c.dataType).Inc()
	c.logger.Debug().
		Int("page", c.info.Current).
		Int("total_pages", c.info.Total).
		Int("items", len(c.items)).
		Msg("Advanced to next page")

	return nil
}

// Next returns the next item, fetching the following page when the current one is
// exhausted and auto-pagination is on. It returns Done once the cursor is exhausted;
// every later call returns Done as well.
func (c *Cursor) Next(ctx context.Context) (Item, error) {
	for c.position >= len(c.items) {
		if !c.autoPaginate || !c.info.HasNext() {
			return nil, Done
		}
		if err := c.FetchNextPage(ctx); err != nil {
			return nil, err
		}
	}

	item := c.items[c.position]
	c.position++
	itemsYielded.WithLabelValues(c.dataType).Inc()

	return item, nil
}
