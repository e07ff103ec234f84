// Package sid issues and verifies signed session identifiers in the
// express-session cookie format:
//
//	s:<rawID>.<signature>
//
// where signature is HMAC-SHA256(secret, rawID) encoded as unpadded base64.
// The rawID, not the full identifier, is the key used against the session
// store.
//
// # Architecture boundaries
//
// This package owns identifier generation, signing, parsing and verification.
// It does NOT read cookies, talk to a store, or decide what happens to a
// tampered identifier; those belong to the goSession Handler and middleware.
//
// # What this package must NOT do
//
//   - Return errors or panic on malformed identifiers in [Verify] or [ExtractRawID].
//   - Compare signatures with a short-circuiting comparison.
//   - Log, format, or otherwise expose the secret.
package sid
