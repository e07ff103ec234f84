package goSession

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/sid"
	"github.com/MrEthical07/goSession/store"
	"github.com/MrEthical07/goSession/store/memstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testSecret = []byte("correct-horse-battery-staple-32bytes")

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Secret = testSecret
	cfg.Metrics.Enabled = true
	return cfg
}

// sequenceSource yields id-1, id-2, ...
func sequenceSource() sid.TokenSource {
	var n atomic.Int64
	return sid.TokenSourceFunc(func() (string, error) {
		return fmt.Sprintf("id-%d", n.Add(1)), nil
	})
}

func newTestHandler(t *testing.T, cfg Config, st store.Store) *Handler {
	t.Helper()

	b := New().WithConfig(cfg).WithStore(st).WithTokenSource(sequenceSource())
	b.now = func() time.Time { return testNow }
	h, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func newMemHandler(t *testing.T, mutate func(*Config)) (*Handler, *memstore.Store) {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	st := memstore.New()
	return newTestHandler(t, cfg, st), st
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

// failingStore returns err from every operation.
type failingStore struct {
	err error
}

func (s failingStore) Read(context.Context, string) ([]byte, error) { return nil, s.err }
func (s failingStore) Write(context.Context, string, []byte, time.Duration) error {
	return s.err
}
func (s failingStore) Destroy(context.Context, string) error { return s.err }
func (s failingStore) Close() error                          { return nil }

// countingStore records reads so tests can assert a store was not consulted.
type countingStore struct {
	store.Store
	reads atomic.Int64
}

func (s *countingStore) Read(ctx context.Context, key string) ([]byte, error) {
	s.reads.Add(1)
	return s.Store.Read(ctx, key)
}
