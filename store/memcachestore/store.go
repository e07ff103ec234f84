// Package memcachestore persists session payloads in memcached.
package memcachestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/store"
	"github.com/bradfitz/gomemcache/memcache"
)

// relativeExpiryLimit is the largest expiration memcached treats as a
// relative number of seconds. Larger values are read as Unix timestamps.
const relativeExpiryLimit = 30 * 24 * time.Hour

type client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
	Touch(key string, seconds int32) error
	Ping() error
	Close() error
}

// Store is a memcached-backed session store.
type Store struct {
	mc     client
	prefix string
	now    func() time.Time
}

// NewStore wraps an existing memcache client.
func NewStore(mc *memcache.Client, prefix string) *Store {
	return newStore(mc, prefix)
}

func newStore(mc client, prefix string) *Store {
	return &Store{mc: mc, prefix: prefix, now: time.Now}
}

// Open connects to the comma-separated servers in cfg.Address and pings them.
func Open(_ context.Context, cfg store.Config) (store.Store, error) {
	addr := strings.TrimSpace(cfg.Address)
	if addr == "" {
		addr = "127.0.0.1:11211"
	}
	servers := strings.Split(addr, ",")
	for i := range servers {
		servers[i] = strings.TrimSpace(servers[i])
	}

	mc := memcache.New(servers...)
	if cfg.DialTimeout > 0 {
		mc.Timeout = cfg.DialTimeout
	}
	if err := mc.Ping(); err != nil {
		_ = mc.Close()
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return NewStore(mc, cfg.Prefix), nil
}

func (s *Store) key(rawID string) string {
	return s.prefix + rawID
}

// expiration converts ttl to memcached's encoding.
func (s *Store) expiration(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	if ttl > relativeExpiryLimit {
		return int32(s.now().Add(ttl).Unix())
	}
	secs := int32(ttl / time.Second)
	if secs == 0 {
		secs = 1
	}
	return secs
}

// Read fetches the payload for rawID.
func (s *Store) Read(_ context.Context, rawID string) ([]byte, error) {
	item, err := s.mc.Get(s.key(rawID))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return item.Value, nil
}

// Write stores data under rawID.
func (s *Store) Write(_ context.Context, rawID string, data []byte, ttl time.Duration) error {
	err := s.mc.Set(&memcache.Item{
		Key:        s.key(rawID),
		Value:      data,
		Expiration: s.expiration(ttl),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Destroy deletes rawID. A cache miss is success.
func (s *Store) Destroy(_ context.Context, rawID string) error {
	err := s.mc.Delete(s.key(rawID))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Touch resets the expiry of rawID.
func (s *Store) Touch(_ context.Context, rawID string, ttl time.Duration) error {
	err := s.mc.Touch(s.key(rawID), s.expiration(ttl))
	switch {
	case errors.Is(err, memcache.ErrCacheMiss):
		return store.ErrNotFound
	case err != nil:
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Ping checks every server.
func (s *Store) Ping(context.Context) error {
	if err := s.mc.Ping(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close closes idle connections.
func (s *Store) Close() error {
	return s.mc.Close()
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Toucher = (*Store)(nil)
	_ store.Pinger  = (*Store)(nil)
)
