// Package prometheus exposes goSession metrics through client_golang.
//
// [Collector] implements prometheus.Collector over a Handler's snapshot.
// Register it with your own registry, or use [Exporter.Handler] which serves
// a private registry. Counters are named gosession_*_total; the only
// histogram is gosession_store_latency_seconds.
//
// # What this package must NOT do
//
//   - Register anything in the global default registry.
//   - Mutate handler state.
package prometheus
