//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cookie"
	"github.com/MrEthical07/goSession/sid"
	"github.com/MrEthical07/goSession/store/redisstore"
)

func TestRedisCompatibility(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			ctx := context.Background()
			st := redisstore.NewStore(rdb, "sess:")
			h := newHandler(t, st)

			t.Run("round trip", func(t *testing.T) {
				s, err := h.Start(ctx, "")
				if err != nil {
					t.Fatalf("Start: %v", err)
				}
				s.Set("user", "alice")
				if err := h.Save(ctx, s); err != nil {
					t.Fatalf("Save: %v", err)
				}
				got, err := h.Start(ctx, s.ID)
				if err != nil {
					t.Fatalf("Start: %v", err)
				}
				if v, _ := got.Get("user"); v != "alice" {
					t.Fatalf("expected alice, got %v", v)
				}
				ttl, err := rdb.TTL(ctx, "sess:"+s.RawID).Result()
				if err != nil || ttl <= 0 || ttl > goSession.DefaultTTL {
					t.Fatalf("unexpected ttl %s (%v)", ttl, err)
				}
			})

			t.Run("express written record", func(t *testing.T) {
				record := `{"cookie":{"originalMaxAge":86400000,"expires":"2030-01-01T00:00:00.000Z","httpOnly":true,"path":"/"},"views":3}`
				if err := rdb.Set(ctx, "sess:fromnode", record, time.Hour).Err(); err != nil {
					t.Fatalf("seed: %v", err)
				}
				s, err := h.Start(ctx, sid.Format("fromnode", integrationSecret))
				if err != nil {
					t.Fatalf("Start: %v", err)
				}
				if s.IsNew {
					t.Fatal("node session treated as new")
				}
				md, ok := s.Metadata()
				if !ok || md.Expires != "2030-01-01T00:00:00.000Z" {
					t.Fatalf("node cookie record altered: %+v", md)
				}
				if err := h.Save(ctx, s); err != nil {
					t.Fatalf("Save: %v", err)
				}
				md2, _ := s.Metadata()
				if md2.Expires != md.Expires || *md2.OriginalMaxAge != *md.OriginalMaxAge {
					t.Fatalf("Save rewrote the cookie record: %+v", md2)
				}
			})

			t.Run("tampered", func(t *testing.T) {
				s, err := h.Start(ctx, sid.Format("fromnode", []byte("other")))
				if err != nil {
					t.Fatalf("Start: %v", err)
				}
				if !s.Tampered || s.RawID == "fromnode" {
					t.Fatalf("tampered identifier accepted: %+v", s)
				}
				if !s.Values.Has(cookie.MetadataKey) {
					t.Fatal("replacement session has no metadata")
				}
			})

			t.Run("corrupt record", func(t *testing.T) {
				if err := rdb.Set(ctx, "sess:broken", "{not json", 0).Err(); err != nil {
					t.Fatalf("seed: %v", err)
				}
				_, err := h.Start(ctx, sid.Format("broken", integrationSecret))
				if !errors.Is(err, goSession.ErrPayloadCorrupt) {
					t.Fatalf("expected ErrPayloadCorrupt, got %v", err)
				}
			})

			t.Run("regenerate", func(t *testing.T) {
				s, _ := h.Start(ctx, "")
				s.Set("k", "v")
				if err := h.Save(ctx, s); err != nil {
					t.Fatalf("Save: %v", err)
				}
				old := s.RawID
				if err := h.Regenerate(ctx, s); err != nil {
					t.Fatalf("Regenerate: %v", err)
				}
				if n, _ := rdb.Exists(ctx, "sess:"+old).Result(); n != 0 {
					t.Fatal("old key survived regenerate")
				}
				if n, _ := rdb.Exists(ctx, "sess:"+s.RawID).Result(); n != 1 {
					t.Fatal("new key missing")
				}
			})
		})
	}
}
