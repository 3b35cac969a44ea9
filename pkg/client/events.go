package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/cronofy-client/pkg/pagination"
)

// Paged endpoints and the envelope keys holding their items.
const (
	EventsPath   = "/v1/events"
	FreeBusyPath = "/v1/free_busy"

	EventsDataType   = "events"
	FreeBusyDataType = "free_busy"

	// DefaultTZID is used when a query does not name a time zone.
	DefaultTZID = "Etc/UTC"
)

const dateLayout = "2006-01-02"

// EventsQuery selects events for ReadEvents. Zero fields are omitted from the request.
type EventsQuery struct {
	From           time.Time
	To             time.Time
	TZID           string
	CalendarIDs    []string
	IncludeManaged bool
	OnlyManaged    bool
	IncludeMoved   bool
	IncludeDeleted bool
	LastModified   time.Time
	LocalizedTimes bool

	// ManualPagination stops iteration at the end of each page.
	ManualPagination bool
}

// Values encodes the query string for GET /v1/events.
func (q EventsQuery) Values() url.Values {
	v := url.Values{}
	setTZID(v, q.TZID)
	setDate(v, "from", q.From)
	setDate(v, "to", q.To)
	for _, id := range q.CalendarIDs {
		v.Add("calendar_ids[]", id)
	}
	setBool(v, "include_managed", q.IncludeManaged)
	setBool(v, "only_managed", q.OnlyManaged)
	setBool(v, "include_moved", q.IncludeMoved)
	setBool(v, "include_deleted", q.IncludeDeleted)
	setBool(v, "localized_times", q.LocalizedTimes)
	if !q.LastModified.IsZero() {
		v.Set("last_modified", q.LastModified.UTC().Format(time.RFC3339))
	}
	return v
}

// FreeBusyQuery selects free/busy blocks for ReadFreeBusy.
type FreeBusyQuery struct {
	From           time.Time
	To             time.Time
	TZID           string
	CalendarIDs    []string
	IncludeManaged bool
	LocalizedTimes bool

	ManualPagination bool
}

// Values encodes the query string for GET /v1/free_busy.
func (q FreeBusyQuery) Values() url.Values {
	v := url.Values{}
	setTZID(v, q.TZID)
	setDate(v, "from", q.From)
	setDate(v, "to", q.To)
	for _, id := range q.CalendarIDs {
		v.Add("calendar_ids[]", id)
	}
	setBool(v, "include_managed", q.IncludeManaged)
	setBool(v, "localized_times", q.LocalizedTimes)
	return v
}

func setTZID(v url.Values, tzid string) {
	if tzid == "" {
		tzid = DefaultTZID
	}
	v.Set("tzid", tzid)
}

func setDate(v url.Values, key string, t time.Time) {
	if !t.IsZero() {
		v.Set(key, t.Format(dateLayout))
	}
}

func setBool(v url.Values, key string, b bool) {
	if b {
		v.Set(key, strconv.FormatBool(b))
	}
}

// Event is a calendar event as returned by /v1/events.
type Event struct {
	CalendarID          string     `json:"calendar_id"`
	EventUID            string     `json:"event_uid"`
	EventID             string     `json:"event_id,omitempty"`
	Summary             string     `json:"summary"`
	Description         string     `json:"description"`
	Start               string     `json:"start"`
	End                 string     `json:"end"`
	Deleted             bool       `json:"deleted"`
	Created             string     `json:"created,omitempty"`
	Updated             string     `json:"updated,omitempty"`
	Location            *Location  `json:"location,omitempty"`
	ParticipationStatus string     `json:"participation_status,omitempty"`
	Transparency        string     `json:"transparency,omitempty"`
	Status              string     `json:"status,omitempty"`
	Attendees           []Attendee `json:"attendees,omitempty"`
}

// Location of an event.
type Location struct {
	Description string `json:"description"`
}

// Attendee of an event.
type Attendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Status      string `json:"status"`
}

// FreeBusy is a busy block as returned by /v1/free_busy.
type FreeBusy struct {
	CalendarID     string `json:"calendar_id"`
	Start          string `json:"start"`
	End            string `json:"end"`
	FreeBusyStatus string `json:"free_busy_status"`
}

// ReadEvents returns a cursor over the events matching q.
func (c *Client) ReadEvents(ctx context.Context, q EventsQuery) (*pagination.Cursor, error) {
	return c.Pages(ctx, EventsPath, q.Values(), EventsDataType, pagination.Config{
		ManualPagination: q.ManualPagination,
	})
}

// ReadFreeBusy returns a cursor over the free/busy blocks matching q.
func (c *Client) ReadFreeBusy(ctx context.Context, q FreeBusyQuery) (*pagination.Cursor, error) {
	return c.Pages(ctx, FreeBusyPath, q.Values(), FreeBusyDataType, pagination.Config{
		ManualPagination: q.ManualPagination,
	})
}
