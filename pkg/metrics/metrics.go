package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RefreshRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "country_service", Name: "refresh_runs_total", Help: "Number of refresh runs by outcome."},
		[]string{"outcome"},
	)
	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: "country_service", Name: "refresh_duration_seconds", Help: "Wall time of refresh runs.", Buckets: prometheus.ExponentialBuckets(0.25, 2, 8)},
	)
	UpstreamFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "country_service", Name: "upstream_failures_total", Help: "Failed upstream fetches by source."},
		[]string{"source"},
	)
	CountriesStored = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "country_service", Name: "countries_stored", Help: "Rows in the countries table after the last refresh."},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "country_service", Name: "http_requests_total", Help: "Handled HTTP requests by route and status."},
		[]string{"method", "route", "status"},
	)
	FlagFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "country_service", Name: "summary_flag_failures_total", Help: "Flag images skipped while rendering the summary."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RefreshRuns)
	reg.MustRegister(RefreshDuration)
	reg.MustRegister(UpstreamFailures)
	reg.MustRegister(CountriesStored)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(FlagFailures)
}
