// Package audit dispatches session lifecycle events asynchronously.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON writer, zerolog, no-op).
//   - [Dispatcher]: buffered relay that either drops or blocks when full.
//   - [Event]: one record, carrying a session fingerprint rather than the id.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. The Handler decides which
// events to emit.
//
// # What this package must NOT do
//
//   - Receive raw session identifiers or secrets.
//   - Import goSession or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
