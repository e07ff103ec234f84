// Package goSession shares sessions between Go services and Node.js services
// running express-session against the same store.
//
// Identifiers use the cookie-signature format "s:<rawId>.<signature>", where
// the signature is unpadded base64 of HMAC-SHA256(secret, rawId). Payloads
// are stored as plain JSON objects and carry the "cookie" metadata record
// express-session reads on load.
//
// A [Handler] is built once at startup with [Builder.Build] and is safe for
// concurrent use. Each request works on its own [Session] value returned by
// [Handler.Start]; nothing about the current session is held in process-wide
// state.
//
// # Architecture boundaries
//
// goSession is the public surface: [Handler], [Builder], [Config], [Session]
// and the capability interface [SessionHandler]. Identifier signing lives in
// sid, JSON translation in payload, cookie metadata in cookie, and storage
// backends under store. None of those import this package.
//
// # What this package must NOT do
//
//   - Log or emit raw session identifiers or secrets. Logs and audit events
//     carry a short fingerprint instead.
//   - Treat a store failure as an empty session.
//   - Resolve the store backend lazily: an unknown backend fails Build.
package goSession
