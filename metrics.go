package openfa

import (
	"errors"

	"github.com/bodgit/openfa/pic"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultDecoded = "decoded"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)

// Metrics counts the outcome of each file converted. It uses its own
// registry so several converters can coexist.
type Metrics struct {
	registry *prometheus.Registry

	files    *prometheus.CounterVec
	failures *prometheus.CounterVec
	spans    prometheus.Histogram
}

// NewMetrics returns an empty set of metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fapic_files_total",
			Help: "Number of PIC files processed, by result.",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fapic_decode_failures_total",
			Help: "Number of PIC files that could not be decoded, by reason.",
		}, []string{"reason"}),
		spans: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fapic_spans",
			Help:    "Number of spans in each decoded PIC file.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
	m.registry.MustRegister(m.files, m.failures, m.spans)
	return m
}

// Registry returns the registry holding the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics to file in the Prometheus text format
func (m *Metrics) WriteTextfile(file string) error {
	return prometheus.WriteToTextfile(file, m.registry)
}

func (m *Metrics) decoded(stats pic.Stats) {
	m.files.WithLabelValues(resultDecoded).Inc()
	m.spans.Observe(float64(stats.Spans))
}

func (m *Metrics) skipped() {
	m.files.WithLabelValues(resultSkipped).Inc()
}

func (m *Metrics) failed(err error) {
	m.files.WithLabelValues(resultFailed).Inc()
	m.failures.WithLabelValues(failureReason(err)).Inc()
}

func failureReason(err error) string {
	for _, r := range []struct {
		err    error
		reason string
	}{
		{pic.ErrMalformedHeader, "malformed_header"},
		{pic.ErrRegionOutOfBounds, "region_out_of_bounds"},
		{pic.ErrInvalidSpanTable, "invalid_span_table"},
		{pic.ErrSpanBounds, "span_bounds"},
		{pic.ErrPalette, "palette"},
		{pic.ErrUnsupportedFormat, "unsupported_format"},
		{errOutputTaken, "output_taken"},
	} {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "other"
}
