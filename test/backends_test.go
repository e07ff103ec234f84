//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/store"
	"github.com/MrEthical07/goSession/store/backends"
)

type backendCase struct {
	name string
	cfg  func(t *testing.T) (store.Config, bool)
}

// backendCases lists every registered backend reachable from this
// environment. Network backends need PG_DSN or MEMCACHED_ADDR.
func backendCases() []backendCase {
	return []backendCase{
		{name: "memory", cfg: func(t *testing.T) (store.Config, bool) {
			return store.DefaultConfig(), true
		}},
		{name: "sqlite", cfg: func(t *testing.T) (store.Config, bool) {
			cfg := store.DefaultConfig()
			cfg.Backend = "sqlite"
			cfg.DSN = filepath.Join(t.TempDir(), "sessions.db")
			return cfg, true
		}},
		{name: "postgres", cfg: func(t *testing.T) (store.Config, bool) {
			dsn := os.Getenv("PG_DSN")
			cfg := store.DefaultConfig()
			cfg.Backend = "postgres"
			cfg.DSN = dsn
			cfg.Table = "gosession_integration"
			return cfg, dsn != ""
		}},
		{name: "memcached", cfg: func(t *testing.T) (store.Config, bool) {
			addr := os.Getenv("MEMCACHED_ADDR")
			cfg := store.DefaultConfig()
			cfg.Backend = "memcached"
			cfg.Address = addr
			cfg.Prefix = "gosession-it:"
			return cfg, addr != ""
		}},
	}
}

func openBackend(t *testing.T, bc backendCase) store.Store {
	t.Helper()
	cfg, ok := bc.cfg(t)
	if !ok {
		t.Skipf("%s not configured", bc.name)
	}
	st, err := backends.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open %s: %v", bc.name, err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStoreConsistency(t *testing.T) {
	for _, bc := range backendCases() {
		t.Run(bc.name, func(t *testing.T) {
			st := openBackend(t, bc)
			ctx := context.Background()
			key := "consistency-" + time.Now().Format("150405.000000000")

			data, err := st.Read(ctx, key)
			if err != nil || data != nil {
				t.Fatalf("absent read: %q %v", data, err)
			}

			if err := st.Write(ctx, key, []byte(`{"a":1}`), time.Minute); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := st.Write(ctx, key, []byte(`{"a":2}`), time.Minute); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			data, err = st.Read(ctx, key)
			if err != nil || string(data) != `{"a":2}` {
				t.Fatalf("Read: %q %v", data, err)
			}

			if toucher, ok := st.(store.Toucher); ok {
				if err := toucher.Touch(ctx, key, time.Minute); err != nil {
					t.Fatalf("Touch: %v", err)
				}
			}

			if err := st.Destroy(ctx, key); err != nil {
				t.Fatalf("Destroy: %v", err)
			}
			if err := st.Destroy(ctx, key); err != nil {
				t.Fatalf("second Destroy: %v", err)
			}
			data, err = st.Read(ctx, key)
			if err != nil || data != nil {
				t.Fatalf("read after destroy: %q %v", data, err)
			}
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	for _, bc := range backendCases() {
		t.Run(bc.name, func(t *testing.T) {
			st := openBackend(t, bc)
			ctx := context.Background()

			if err := st.Write(ctx, "short-lived", []byte(`{}`), time.Second); err != nil {
				t.Fatalf("Write: %v", err)
			}
			time.Sleep(2100 * time.Millisecond)

			data, err := st.Read(ctx, "short-lived")
			if err != nil || data != nil {
				t.Fatalf("expired record still readable: %q %v", data, err)
			}

			if exp, ok := st.(store.Expirer); ok {
				if _, err := exp.DeleteExpired(ctx); err != nil {
					t.Fatalf("DeleteExpired: %v", err)
				}
			}
		})
	}
}

func TestHandlerAcrossBackends(t *testing.T) {
	for _, bc := range backendCases() {
		t.Run(bc.name, func(t *testing.T) {
			h := newHandler(t, openBackend(t, bc))
			ctx := context.Background()

			s, err := h.Start(ctx, "")
			if err != nil {
				t.Fatalf("Start: %v", err)
			}
			s.Set("cart", []any{"a", "b"})
			if err := h.Save(ctx, s); err != nil {
				t.Fatalf("Save: %v", err)
			}

			loaded, err := h.Start(ctx, s.ID)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			if loaded.IsNew {
				t.Fatal("saved session reported as new")
			}
			if v, _ := loaded.Get("cart"); len(v.([]any)) != 2 {
				t.Fatalf("cart lost: %v", v)
			}

			if err := h.Destroy(ctx, loaded.ID); err != nil {
				t.Fatalf("Destroy: %v", err)
			}
			again, err := h.Start(ctx, s.ID)
			if err != nil {
				t.Fatalf("Start after destroy: %v", err)
			}
			if !again.IsNew {
				t.Fatal("destroyed session came back")
			}
		})
	}
}

func TestUnreachableBackendFailsStartup(t *testing.T) {
	cfg := store.DefaultConfig()
	cfg.Backend = "redis"
	cfg.Address = "127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond
	_, err := backends.Open(context.Background(), cfg)
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
