package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for cursor page transitions.
var (
	pagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cronofy_pages_fetched_total",
		Help: "Total number of follow-up pages fetched by cursors, by data type",
	}, []string{"data_type"})

	pageFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cronofy_page_fetch_errors_total",
		Help: "Total number of failed or malformed follow-up page fetches, by data type",
	}, []string{"data_type"})

	itemsYielded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cronofy_items_yielded_total",
		Help: "Total number of items returned by cursors, by data type",
	}, []string{"data_type"})
)
