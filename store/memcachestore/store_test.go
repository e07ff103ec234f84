package memcachestore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/store"
	"github.com/bradfitz/gomemcache/memcache"
)

type fakeClient struct {
	items   map[string]*memcache.Item
	failErr error
	closed  bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]*memcache.Item)}
}

func (f *fakeClient) Get(key string) (*memcache.Item, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	it, ok := f.items[key]
	if !ok {
		return nil, memcache.ErrCacheMiss
	}
	return it, nil
}

func (f *fakeClient) Set(item *memcache.Item) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.items[item.Key] = item
	return nil
}

func (f *fakeClient) Delete(key string) error {
	if f.failErr != nil {
		return f.failErr
	}
	if _, ok := f.items[key]; !ok {
		return memcache.ErrCacheMiss
	}
	delete(f.items, key)
	return nil
}

func (f *fakeClient) Touch(key string, seconds int32) error {
	it, ok := f.items[key]
	if !ok {
		return memcache.ErrCacheMiss
	}
	it.Expiration = seconds
	return nil
}

func (f *fakeClient) Ping() error  { return f.failErr }
func (f *fakeClient) Close() error { f.closed = true; return nil }

func TestRoundTripWithPrefix(t *testing.T) {
	fc := newFakeClient()
	s := newStore(fc, "sess:")
	ctx := context.Background()

	if err := s.Write(ctx, "abc", []byte(`{"a":1}`), 90*time.Second); err != nil {
		t.Fatalf("write: %v", err)
	}
	it, ok := fc.items["sess:abc"]
	if !ok || it.Expiration != 90 {
		t.Fatalf("expected prefixed item with 90s expiry, got %+v", it)
	}
	got, err := s.Read(ctx, "abc")
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("read: %q %v", got, err)
	}
	if err := s.Destroy(ctx, "abc"); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if err := s.Destroy(ctx, "abc"); err != nil {
		t.Fatalf("destroying a missing key must succeed: %v", err)
	}
	if got, err := s.Read(ctx, "abc"); got != nil || err != nil {
		t.Fatalf("expected (nil, nil) after destroy, got %q %v", got, err)
	}
}

func TestExpirationEncoding(t *testing.T) {
	s := newStore(newFakeClient(), "")
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	if got := s.expiration(0); got != 0 {
		t.Fatalf("zero ttl must mean no expiry, got %d", got)
	}
	if got := s.expiration(300 * time.Millisecond); got != 1 {
		t.Fatalf("sub-second ttl must round up to 1, got %d", got)
	}
	if got := s.expiration(time.Hour); got != 3600 {
		t.Fatalf("expected 3600, got %d", got)
	}
	long := 60 * 24 * time.Hour
	if got := s.expiration(long); got != int32(now.Add(long).Unix()) {
		t.Fatalf("ttl over 30 days must be absolute, got %d", got)
	}
}

func TestTouch(t *testing.T) {
	fc := newFakeClient()
	s := newStore(fc, "p:")
	ctx := context.Background()
	_ = s.Write(ctx, "k", []byte("{}"), time.Minute)
	if err := s.Touch(ctx, "k", time.Hour); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if fc.items["p:k"].Expiration != 3600 {
		t.Fatalf("touch did not update expiry")
	}
	if err := s.Touch(ctx, "missing", time.Hour); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a missing key, got %v", err)
	}
}

func TestFailuresWrapUnavailable(t *testing.T) {
	fc := newFakeClient()
	fc.failErr = errors.New("connection refused")
	s := newStore(fc, "")
	ctx := context.Background()

	if _, err := s.Read(ctx, "k"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("read: %v", err)
	}
	if err := s.Write(ctx, "k", nil, 0); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("write: %v", err)
	}
	if err := s.Destroy(ctx, "k"); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("destroy: %v", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("ping: %v", err)
	}
	_ = s.Close()
	if !fc.closed {
		t.Fatalf("close not forwarded")
	}
}
