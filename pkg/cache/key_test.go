package cache

import (
	"net/url"
	"testing"
)

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "endpoint only",
			key:  Key{Endpoint: "/v1/events"},
			want: "cronofy:v1/events",
		},
		{
			name: "next page link",
			key:  Key{Endpoint: "/v1/events/pages/08a07b034306679e/"},
			want: "cronofy:v1/events/pages/08a07b034306679e",
		},
		{
			name: "query params sorted",
			key: Key{
				Endpoint: "/v1/events",
				Query: url.Values{
					"tzid": []string{"Etc/UTC"},
					"from": []string{"2026-10-01"},
				},
			},
			want: "cronofy:v1/events:from=2026-10-01:tzid=Etc/UTC",
		},
		{
			name: "repeated values keep order",
			key: Key{
				Endpoint: "/v1/free_busy",
				Query: url.Values{
					"calendar_ids[]": []string{"cal_2", "cal_1"},
				},
			},
			want: "cronofy:v1/free_busy:calendar_ids[]=cal_2,cal_1",
		},
		{
			name: "scoped",
			key: Key{
				Endpoint: "/v1/events",
				Scope:    "9f86d081884c7d65",
			},
			want: "cronofy:v1/events:scope=9f86d081884c7d65",
		},
		{
			name: "with host",
			key: Key{
				Host:     "api-de.cronofy.com",
				Endpoint: "/v1/events",
				Query:    url.Values{"tzid": []string{"Etc/UTC"}},
			},
			want: "cronofy:api-de.cronofy.com/v1/events:tzid=Etc/UTC",
		},
		{
			name: "host only",
			key:  Key{Host: "api.cronofy.com"},
			want: "cronofy:api.cronofy.com",
		},
		{
			name: "empty key",
			key:  Key{},
			want: "cronofy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_Deterministic(t *testing.T) {
	key := Key{
		Endpoint: "/v1/events",
		Query: url.Values{
			"tzid":            []string{"Europe/London"},
			"include_managed": []string{"true"},
			"from":            []string{"2026-10-01"},
			"to":              []string{"2026-10-31"},
		},
	}

	first := key.String()
	for i := 0; i < 20; i++ {
		if got := key.String(); got != first {
			t.Fatalf("String() not deterministic: %q != %q", got, first)
		}
	}
}

func TestKey_ScopeSeparatesCredentials(t *testing.T) {
	a := Key{Endpoint: "/v1/events", Scope: "aaaa"}
	b := Key{Endpoint: "/v1/events", Scope: "bbbb"}
	if a.String() == b.String() {
		t.Errorf("keys with different scopes collide: %q", a.String())
	}
}

func TestKey_HostSeparatesDataCenters(t *testing.T) {
	us := Key{Host: "api.cronofy.com", Endpoint: "/v1/events/pages/08a07b034306679e"}
	de := Key{Host: "api-de.cronofy.com", Endpoint: "/v1/events/pages/08a07b034306679e"}
	if us.String() == de.String() {
		t.Errorf("keys on different hosts collide: %q", us.String())
	}
}
