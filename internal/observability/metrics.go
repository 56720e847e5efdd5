package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the paper gateway, organized by
// subsystem: searches, upstream source calls, and PDF content operations. All
// collectors are registered via promauto with the default registry.
type Metrics struct {
	// SearchesTotal counts search operations, labeled by source and outcome.
	SearchesTotal *prometheus.CounterVec

	// SearchDuration observes search duration in seconds, labeled by source.
	SearchDuration *prometheus.HistogramVec

	// PapersPerSearch observes the number of papers a search returned,
	// labeled by source.
	PapersPerSearch *prometheus.HistogramVec

	// FanOutSearches counts provider-less searches that fanned out to all
	// sources.
	FanOutSearches prometheus.Counter

	// MetadataFetches counts single-paper metadata fetches, labeled by
	// source and outcome.
	MetadataFetches *prometheus.CounterVec

	// PDFDownloads counts PDF download attempts, labeled by outcome.
	PDFDownloads *prometheus.CounterVec

	// PDFDownloadBytes observes downloaded PDF sizes in bytes.
	PDFDownloadBytes prometheus.Histogram

	// Conversions counts PDF-to-markdown conversions, labeled by outcome.
	Conversions *prometheus.CounterVec

	// ConversionDuration observes conversion duration in seconds.
	ConversionDuration prometheus.Histogram
}

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// NewMetrics creates and registers all gateway metrics under the given
// namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Search operations by source and outcome.",
		}, []string{"source", "outcome"}),

		SearchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds by source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),

		PapersPerSearch: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_search",
			Help:      "Papers returned per search by source.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 200},
		}, []string{"source"}),

		FanOutSearches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fanout_searches_total",
			Help:      "Provider-less searches dispatched to all sources.",
		}),

		MetadataFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metadata_fetches_total",
			Help:      "Single-paper metadata fetches by source and outcome.",
		}, []string{"source", "outcome"}),

		PDFDownloads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_downloads_total",
			Help:      "PDF download attempts by outcome.",
		}, []string{"outcome"}),

		PDFDownloadBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pdf_download_bytes",
			Help:      "Downloaded PDF sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64<<10, 4, 8),
		}),

		Conversions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_conversions_total",
			Help:      "PDF-to-markdown conversions by outcome.",
		}, []string{"outcome"}),

		ConversionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pdf_conversion_duration_seconds",
			Help:      "PDF-to-markdown conversion duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordSearch records one search outcome with its duration and result count.
func (m *Metrics) RecordSearch(source string, seconds float64, papers int, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.SearchesTotal.WithLabelValues(source, outcome).Inc()
	m.SearchDuration.WithLabelValues(source).Observe(seconds)
	if err == nil {
		m.PapersPerSearch.WithLabelValues(source).Observe(float64(papers))
	}
}

// RecordMetadataFetch records one metadata fetch outcome.
func (m *Metrics) RecordMetadataFetch(source string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.MetadataFetches.WithLabelValues(source, outcome).Inc()
}

// RecordDownload records one PDF download outcome.
func (m *Metrics) RecordDownload(sizeBytes int64, err error) {
	if err != nil {
		m.PDFDownloads.WithLabelValues(OutcomeError).Inc()
		return
	}
	m.PDFDownloads.WithLabelValues(OutcomeSuccess).Inc()
	m.PDFDownloadBytes.Observe(float64(sizeBytes))
}

// RecordConversion records one conversion outcome with its duration.
func (m *Metrics) RecordConversion(seconds float64, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.Conversions.WithLabelValues(outcome).Inc()
	m.ConversionDuration.Observe(seconds)
}
