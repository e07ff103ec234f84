// Package store defines the session storage capability set and the backend
// registry that resolves a configured backend name to a concrete [Store].
//
// Stores persist opaque payload bytes under a raw session key. They know
// nothing about signed identifiers or the JSON shape of the payload; the
// root package handles both before a store is called.
//
// # Architecture boundaries
//
// Concrete backends live in sub-packages (redisstore, memcachestore,
// sqlitestore, pgstore, memstore). The backends package wires them into a
// [Registry]. An unknown backend name fails in [Registry.Open], which the
// builder calls at startup, never on the first request.
//
// # What this package must NOT do
//
//   - Import the root package, sid, or payload.
//   - Interpret stored bytes.
//   - Swallow backend failures: they surface wrapped in [ErrUnavailable].
package store
