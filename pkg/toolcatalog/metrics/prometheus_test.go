package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/tool-catalog/pkg/toolcatalog"
)

func TestNewPrometheusMetrics(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())
	assert.NotNil(t, m)
	assert.NotNil(t, m.uploads)
	assert.NotNil(t, m.uploadBytes)
	assert.NotNil(t, m.uploadDuration)
	assert.NotNil(t, m.downloads)
	assert.NotNil(t, m.compensations)
	assert.NotNil(t, m.httpDuration)
}

func TestNewPrometheusMetrics_UsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewPrometheusMetrics(registry)
	m.ObserveUpload(toolcatalog.OutcomeSuccess, 2048, 10*time.Millisecond)
	m.ObserveDownload(toolcatalog.OutcomeSuccess)
	m.ObserveCompensation(nil)
	m.ObserveHTTPRequest("/tools", "GET", 200, time.Millisecond)

	metrics, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(metrics))
	for _, m := range metrics {
		names = append(names, m.GetName())
	}
	assert.ElementsMatch(t, []string{
		"toolcatalog_uploads_total",
		"toolcatalog_upload_bytes",
		"toolcatalog_upload_duration_seconds",
		"toolcatalog_downloads_total",
		"toolcatalog_compensations_total",
		"toolcatalog_http_request_duration_seconds",
	}, names)
}

func TestPrometheusMetrics_Outcomes(t *testing.T) {
	m := NewPrometheusMetrics(prometheus.NewRegistry())

	m.ObserveUpload(toolcatalog.OutcomeSuccess, 10, time.Millisecond)
	m.ObserveUpload(toolcatalog.OutcomeTooLarge, 0, time.Millisecond)
	m.ObserveUpload(toolcatalog.OutcomeTooLarge, 0, time.Millisecond)
	m.ObserveDownload(toolcatalog.OutcomeBlobMissing)
	m.ObserveCompensation(errors.New("permission denied"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues(toolcatalog.OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues(toolcatalog.OutcomeTooLarge)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.downloads.WithLabelValues(toolcatalog.OutcomeBlobMissing)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.compensations.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.compensations.WithLabelValues("success")))
	// Only stored uploads contribute to the size histogram
	var sizes dto.Metric
	require.NoError(t, m.uploadBytes.Write(&sizes))
	assert.Equal(t, uint64(1), sizes.GetHistogram().GetSampleCount())
}
