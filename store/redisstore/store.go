package redisstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/store"
	"github.com/redis/go-redis/v9"
)

// Store is a Redis-backed session store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	owned  bool
}

// NewStore wraps an existing client. The caller keeps ownership: Close does
// not close rdb.
func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  rdb,
		prefix: prefix,
	}
}

// Open dials cfg.Address, checks reachability, and returns a Store that owns
// its client.
func Open(ctx context.Context, cfg store.Config) (store.Store, error) {
	opts, prefix, err := Options(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	rdb := redis.NewClient(opts)

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	s := NewStore(rdb, prefix)
	s.owned = true
	return s, nil
}

// Options translates cfg into client options and the effective key prefix.
// Address may be host:port or a redis:// / rediss:// URL; a "prefix" query
// parameter on the URL overrides cfg.Prefix.
func Options(cfg store.Config) (*redis.Options, string, error) {
	prefix := cfg.Prefix
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		addr = "127.0.0.1:6379"
	}

	var opts *redis.Options
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		u, err := url.Parse(addr)
		if err != nil {
			return nil, "", err
		}
		q := u.Query()
		if q.Has("prefix") {
			prefix = q.Get("prefix")
			q.Del("prefix")
			u.RawQuery = q.Encode()
		}
		opts, err = redis.ParseURL(u.String())
		if err != nil {
			return nil, "", err
		}
	} else {
		opts = &redis.Options{Addr: addr, DB: cfg.Database}
	}

	if cfg.Username != "" {
		opts.Username = cfg.Username
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	return opts, prefix, nil
}

// Prefix returns the key namespace.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(rawID string) string {
	return s.prefix + rawID
}

// Read fetches the payload for rawID.
//
//	Performance: 1 Redis GET.
func (s *Store) Read(ctx context.Context, rawID string) ([]byte, error) {
	data, err := s.redis.Get(ctx, s.key(rawID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		// WRONGTYPE lands here too: a non-string value under a session key
		// means the keyspace is shared with something else.
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return data, nil
}

// Write stores data under rawID with ttl. A ttl <= 0 stores without expiry.
//
//	Performance: 1 Redis SET.
func (s *Store) Write(ctx context.Context, rawID string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, s.key(rawID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Destroy deletes rawID. Deleting an absent key succeeds.
func (s *Store) Destroy(ctx context.Context, rawID string) error {
	if err := s.redis.Del(ctx, s.key(rawID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Touch resets the TTL of rawID without rewriting it.
func (s *Store) Touch(ctx context.Context, rawID string, ttl time.Duration) error {
	var cmd *redis.BoolCmd
	if ttl > 0 {
		cmd = s.redis.Expire(ctx, s.key(rawID), ttl)
	} else {
		cmd = s.redis.Persist(ctx, s.key(rawID))
	}
	ok, err := cmd.Result()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if !ok {
		// PERSIST also reports false for a key without a TTL.
		if ttl <= 0 {
			n, err := s.redis.Exists(ctx, s.key(rawID)).Result()
			if err != nil {
				return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
			}
			if n == 1 {
				return nil
			}
		}
		return store.ErrNotFound
	}
	return nil
}

// Ping checks Redis availability.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Count scans the prefix and counts session keys.
// This is an admin-only O(n) operation and must not be used in request hot paths.
func (s *Store) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+"*", 1000).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return total, nil
}

// Close releases the client if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.redis.Close()
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Toucher = (*Store)(nil)
	_ store.Pinger  = (*Store)(nil)
)
