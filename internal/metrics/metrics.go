// Package metrics exposes Prometheus instruments for the vetting pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verdictsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_vetter_verdicts_total",
			Help: "Total number of verdicts produced, by status and reason",
		},
		[]string{"status", "reason"},
	)

	mxLookupsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_vetter_mx_lookups_total",
			Help: "Total number of MX lookups, by outcome",
		},
		[]string{"outcome"},
	)

	smtpProbesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_vetter_smtp_probes_total",
			Help: "Total number of SMTP reachability probes, by result code",
		},
		[]string{"code"},
	)

	cacheLookupsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_vetter_cache_lookups_total",
			Help: "Total number of verdict cache lookups, by result",
		},
		[]string{"result"},
	)

	classificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "email_vetter_classification_duration_seconds",
			Help:    "Time spent classifying a single address",
			Buckets: []float64{0.0005, 0.005, 0.05, 0.25, 1, 2.5, 5, 8, 10},
		},
		[]string{"mode"},
	)

	batchSizeHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "email_vetter_batch_size",
			Help:    "Number of addresses classified per batch",
			Buckets: prometheus.LinearBuckets(5, 5, 10),
		},
	)

	panicsCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "email_vetter_recovered_panics_total",
			Help: "Total number of panics recovered while classifying",
		},
	)
)

// RecordVerdict counts a verdict and observes how long it took
func RecordVerdict(mode, status, reason string, took time.Duration) {
	verdictsCounter.WithLabelValues(status, reason).Inc()
	classificationDuration.WithLabelValues(mode).Observe(took.Seconds())
}

// RecordMXLookup counts an MX lookup outcome (ok, no_records, timeout, error)
func RecordMXLookup(outcome string) {
	mxLookupsCounter.WithLabelValues(outcome).Inc()
}

// RecordProbe counts an SMTP probe result code
func RecordProbe(code string) {
	smtpProbesCounter.WithLabelValues(code).Inc()
}

// RecordCacheLookup counts a cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsCounter.WithLabelValues(result).Inc()
}

// RecordBatch observes the size of a classified batch
func RecordBatch(size int) {
	batchSizeHistogram.Observe(float64(size))
}

// RecordPanic counts a recovered panic
func RecordPanic() {
	panicsCounter.Inc()
}
