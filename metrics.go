package goSession

import (
	internalmetrics "github.com/MrEthical07/goSession/internal/metrics"
)

// MetricID identifies a counter or histogram.
type MetricID = internalmetrics.MetricID

const (
	// MetricSessionCreated counts sessions established with a new identifier.
	MetricSessionCreated = internalmetrics.MetricSessionCreated
	// MetricSessionLoaded counts sessions read back from the store.
	MetricSessionLoaded = internalmetrics.MetricSessionLoaded
	MetricSessionSaved  = internalmetrics.MetricSessionSaved
	// MetricSessionDestroyed counts explicit destroys.
	MetricSessionDestroyed   = internalmetrics.MetricSessionDestroyed
	MetricSessionRegenerated = internalmetrics.MetricSessionRegenerated
	// MetricIdentifierTampered counts signed identifiers that failed
	// verification.
	MetricIdentifierTampered = internalmetrics.MetricIdentifierTampered
	// MetricIdentifierUnsigned counts unsigned identifiers accepted under
	// lenient parsing.
	MetricIdentifierUnsigned = internalmetrics.MetricIdentifierUnsigned
	// MetricIdentifierMalformed counts identifiers rejected as malformed.
	MetricIdentifierMalformed = internalmetrics.MetricIdentifierMalformed
	MetricMetadataSynthesized = internalmetrics.MetricMetadataSynthesized
	MetricStoreFailure        = internalmetrics.MetricStoreFailure
	MetricPayloadCorrupt      = internalmetrics.MetricPayloadCorrupt
	// MetricStoreLatency is the only histogram.
	MetricStoreLatency = internalmetrics.MetricStoreLatency

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics is the lock-free metric set owned by a Handler.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of a Metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics builds a Metrics from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Enabled,
		EnableLatencyHistograms: cfg.EnableLatencyHistograms,
	})
}

// MetricIDCount reports how many metric ids exist. Exporters use it to check
// their definitions cover every id.
func MetricIDCount() int {
	return int(metricIDCount)
}

// HistogramBucketCount is the number of store latency buckets, +Inf included.
const HistogramBucketCount = internalmetrics.HistogramBucketCount
