package redisstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return NewStore(rdb, "sess:"), mr
}

func TestReadWriteDestroyUsesPrefix(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	ctx := context.Background()

	if err := s.Write(ctx, "abc123", []byte(`{"n":1}`), time.Hour); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := mr.Get("sess:abc123")
	if err != nil || raw != `{"n":1}` {
		t.Fatalf("expected prefixed key, got %q %v", raw, err)
	}
	if ttl := mr.TTL("sess:abc123"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}

	got, err := s.Read(ctx, "abc123")
	if err != nil || string(got) != `{"n":1}` {
		t.Fatalf("read: %q %v", got, err)
	}

	if err := s.Destroy(ctx, "abc123"); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := s.Destroy(ctx, "abc123"); err != nil {
		t.Fatalf("idempotent destroy: %v", err)
	}
	if mr.Exists("sess:abc123") {
		t.Fatalf("key still present")
	}
}

func TestReadAbsentIsNilNil(t *testing.T) {
	s, _ := newRedisStoreTest(t)
	got, err := s.Read(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got %q %v", got, err)
	}
}

func TestReadExpired(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	ctx := context.Background()
	_ = s.Write(ctx, "k", []byte("{}"), time.Second)
	mr.FastForward(2 * time.Second)
	if got, err := s.Read(ctx, "k"); err != nil || got != nil {
		t.Fatalf("expired key should read as absent, got %q %v", got, err)
	}
}

func TestReadWrongTypeIsUnavailable(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	mr.HSet("sess:hash", "field", "value")
	if _, err := s.Read(context.Background(), "hash"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for non-string value, got %v", err)
	}
}

func TestTouchRefreshesTTL(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	ctx := context.Background()
	_ = s.Write(ctx, "k", []byte("{}"), time.Minute)
	if err := s.Touch(ctx, "k", time.Hour); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL("sess:k"); ttl != time.Hour {
		t.Fatalf("expected refreshed ttl, got %v", ttl)
	}
	if err := s.Touch(ctx, "k", 0); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if ttl := mr.TTL("sess:k"); ttl != 0 {
		t.Fatalf("expected no ttl, got %v", ttl)
	}
}

func TestTouchMissingKey(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	ctx := context.Background()

	if err := s.Touch(ctx, "gone", time.Hour); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expire on missing key: expected ErrNotFound, got %v", err)
	}
	if err := s.Touch(ctx, "gone", 0); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("persist on missing key: expected ErrNotFound, got %v", err)
	}

	_ = s.Write(ctx, "k", []byte("{}"), time.Second)
	mr.FastForward(2 * time.Second)
	if err := s.Touch(ctx, "k", time.Hour); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expired key: expected ErrNotFound, got %v", err)
	}

	_ = s.Write(ctx, "plain", []byte("{}"), 0)
	if err := s.Touch(ctx, "plain", 0); err != nil {
		t.Fatalf("persist on key without ttl: %v", err)
	}
}

func TestCount(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_ = s.Write(ctx, id, []byte("{}"), time.Hour)
	}
	_ = mr.Set("other:x", "1")
	n, err := s.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 session keys, got %d %v", n, err)
	}
}

func TestUnavailableWhenServerDown(t *testing.T) {
	s, mr := newRedisStoreTest(t)
	mr.Close()
	ctx := context.Background()
	if _, err := s.Read(ctx, "k"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("read: expected ErrUnavailable, got %v", err)
	}
	if err := s.Write(ctx, "k", []byte("{}"), time.Minute); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("write: expected ErrUnavailable, got %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("ping: expected ErrUnavailable, got %v", err)
	}
}

func TestOpenWithURLPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := store.Config{
		Backend: "dragonfly",
		Address: "redis://" + mr.Addr() + "/0?prefix=app:",
		Prefix:  store.DefaultPrefix,
	}
	st, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	if err := st.Write(context.Background(), "id", []byte("{}"), time.Minute); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !mr.Exists("app:id") {
		t.Fatalf("expected URL prefix to win, keys: %v", mr.Keys())
	}
}

func TestOpenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := Open(context.Background(), store.Config{Backend: "redis", Address: addr, DialTimeout: 200 * time.Millisecond})
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestOptionsPlainAddress(t *testing.T) {
	opts, prefix, err := Options(store.Config{Address: "cache:6380", Username: "u", Password: "p", Database: 2, Prefix: "x:"})
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.Username != "u" || opts.Password != "p" || opts.DB != 2 || prefix != "x:" {
		t.Fatalf("unexpected options %+v prefix=%q", opts, prefix)
	}
}
