// Package internal contains helper utilities that are intentionally private to
// goSession: secure random tokens, secret generation and key fingerprints.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink implementations)
//   - config: viper-backed file and environment loading for the CLI
//   - logger: zerolog construction with identifier/secret redaction
//   - metrics: lock-free counters and the store latency histogram
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API.
//   - Be imported by any package outside the goSession module.
package internal
