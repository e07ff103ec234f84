package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// BucketCount is the number of latency buckets, +Inf included.
const BucketCount = 8

type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Sessions established with a new identifier."},
	{ID: goSession.MetricSessionLoaded, Name: "gosession_session_loaded_total", Help: "Sessions loaded from the store."},
	{ID: goSession.MetricSessionSaved, Name: "gosession_session_saved_total", Help: "Session payloads written to the store."},
	{ID: goSession.MetricSessionDestroyed, Name: "gosession_session_destroyed_total", Help: "Sessions destroyed."},
	{ID: goSession.MetricSessionRegenerated, Name: "gosession_session_regenerated_total", Help: "Sessions moved to a fresh identifier."},
	{ID: goSession.MetricIdentifierTampered, Name: "gosession_identifier_tampered_total", Help: "Signed identifiers that failed verification."},
	{ID: goSession.MetricIdentifierUnsigned, Name: "gosession_identifier_unsigned_total", Help: "Unsigned identifiers accepted under lenient parsing."},
	{ID: goSession.MetricIdentifierMalformed, Name: "gosession_identifier_malformed_total", Help: "Identifiers rejected as malformed."},
	{ID: goSession.MetricMetadataSynthesized, Name: "gosession_metadata_synthesized_total", Help: "Cookie metadata records synthesized."},
	{ID: goSession.MetricStoreFailure, Name: "gosession_store_failure_total", Help: "Failed session store operations."},
	{ID: goSession.MetricPayloadCorrupt, Name: "gosession_payload_corrupt_total", Help: "Stored payloads that could not be decoded."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricStoreLatency, Name: "gosession_store_latency_seconds", Help: "Session store operation latency."},
}

// UpperBounds are the finite bucket bounds in seconds.
var UpperBounds = [BucketCount - 1]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket in instrument names.
var HistogramBoundSuffix = [BucketCount]string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = "gosession_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// NormalizeBuckets copies raw into a fixed-size array, zero-filling.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
