package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

type PrometheusMetrics struct {
	uploads        *prometheus.CounterVec
	uploadBytes    prometheus.Histogram
	uploadDuration *prometheus.HistogramVec
	downloads      *prometheus.CounterVec
	compensations  *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		uploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolcatalog_uploads_total",
				Help: "Total number of upload attempts by outcome",
			},
			[]string{"outcome"},
		),
		uploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "toolcatalog_upload_bytes",
				Help:    "Size of successfully stored uploads in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
		uploadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolcatalog_upload_duration_seconds",
				Help:    "Duration of upload requests in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"outcome"},
		),
		downloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolcatalog_downloads_total",
				Help: "Total number of download attempts by outcome",
			},
			[]string{"outcome"},
		),
		compensations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolcatalog_compensations_total",
				Help: "Blob deletes issued after a failed catalog insert",
			},
			[]string{"result"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolcatalog_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method", "status"},
		),
	}
}

func (p *PrometheusMetrics) ObserveUpload(outcome string, bytes int64, duration time.Duration) {
	p.uploads.WithLabelValues(outcome).Inc()
	p.uploadDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if outcome == toolcatalog.OutcomeSuccess {
		p.uploadBytes.Observe(float64(bytes))
	}
}

func (p *PrometheusMetrics) ObserveDownload(outcome string) {
	p.downloads.WithLabelValues(outcome).Inc()
}

func (p *PrometheusMetrics) ObserveCompensation(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	p.compensations.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records one served request. route is the matched
// pattern, not the raw path, to keep label cardinality bounded.
func (p *PrometheusMetrics) ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(duration.Seconds())
}

var _ toolcatalog.Metrics = (*PrometheusMetrics)(nil)
