// Package middleware adapts a goSession.Handler to net/http.
//
// [Session] reads the session cookie, resolves it with Handler.Start, puts the
// *goSession.Session into the request context, and commits it (store write
// plus Set-Cookie) just before the response header is written.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Handler calls. Identifier
// verification, payload translation and store access all live in the
// Handler.
//
// # What this package must NOT do
//
//   - Sign or verify identifiers directly.
//   - Talk to a session store.
//   - Treat a store failure as an empty session.
package middleware
