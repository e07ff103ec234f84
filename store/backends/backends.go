// Package backends registers every built-in session store with a
// [store.Registry].
//
// Recognized names:
//
//	redis, dragonfly, keydb   Redis protocol (redisstore)
//	memcached, memcache       memcached (memcachestore)
//	sqlite, sqlite3           SQLite, connect-sqlite3 layout (sqlitestore)
//	postgres, postgresql, pg  PostgreSQL, connect-pg-simple layout (pgstore)
//	memory                    in-process map (memstore)
//
// "mongo" and "mongodb" are reserved and fail with store.ErrNotYetSupported.
package backends

import (
	"context"

	"github.com/MrEthical07/goSession/store"
	"github.com/MrEthical07/goSession/store/memcachestore"
	"github.com/MrEthical07/goSession/store/memstore"
	"github.com/MrEthical07/goSession/store/pgstore"
	"github.com/MrEthical07/goSession/store/redisstore"
	"github.com/MrEthical07/goSession/store/sqlitestore"
)

// Register adds the built-in backends to r.
func Register(r *store.Registry) {
	r.Register("redis", redisstore.Open, "dragonfly", "keydb")
	r.Register("memcached", memcachestore.Open, "memcache")
	r.Register("sqlite", sqlitestore.Open, "sqlite3")
	r.Register("postgres", pgstore.Open, "postgresql", "pg")
	r.Register("memory", memstore.Open)
	r.Reserve("mongo", "mongodb")
}

// Default returns a fresh registry holding the built-in backends.
func Default() *store.Registry {
	r := store.NewRegistry()
	Register(r)
	return r
}

// Open opens cfg.Backend from the built-in set.
func Open(ctx context.Context, cfg store.Config) (store.Store, error) {
	return Default().Open(ctx, cfg)
}
