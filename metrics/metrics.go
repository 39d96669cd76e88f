// Package metrics holds the Prometheus collectors of the upload and view
// flows. The local server exposes them on /metrics; Lambda invocations
// increment them without a scraper.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

var (
	// UploadURLs counts upload URL requests by HTTP status code.
	UploadURLs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesharing_upload_url_requests_total",
			Help: "Upload URL requests by response status",
		},
		[]string{"status"},
	)

	// ActivityRecords counts audit records by action and outcome.
	ActivityRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filesharing_activity_records_total",
			Help: "Activity records written, by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// LogStreamsCreated counts daily log streams created on first write.
	LogStreamsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "filesharing_log_streams_created_total",
			Help: "Log streams created after a missing-stream write failure",
		},
	)

	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(
		UploadURLs,
		ActivityRecords,
		LogStreamsCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
