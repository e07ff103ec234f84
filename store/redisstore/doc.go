// Package redisstore persists session payloads in Redis or any server
// speaking its protocol (Dragonfly, KeyDB).
//
// Each session is a single string key, <prefix><rawId>, holding the JSON
// payload with a server-side TTL. This is the layout connect-redis uses, so
// Node.js and Go processes can share one keyspace.
//
// # What this package must NOT do
//
//   - Decode or rewrite payload bytes.
//   - Return redis.Nil to callers: an absent key is (nil, nil).
package redisstore
