package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), store.Config{
		Backend: "sqlite",
		DSN:     filepath.Join(t.TempDir(), "sessions.db"),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st.(*Store)
}

func TestReadWriteDestroy(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if got, err := s.Read(ctx, "none"); got != nil || err != nil {
		t.Fatalf("absent key should be (nil, nil), got %q %v", got, err)
	}
	if err := s.Write(ctx, "abc", []byte(`{"cookie":{"path":"/"}}`), time.Hour); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Write(ctx, "abc", []byte(`{"v":2}`), time.Hour); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Read(ctx, "abc")
	if err != nil || string(got) != `{"v":2}` {
		t.Fatalf("read: %q %v", got, err)
	}
	if err := s.Destroy(ctx, "abc"); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if got, _ := s.Read(ctx, "abc"); got != nil {
		t.Fatalf("destroyed row readable")
	}
}

func TestExpiryAndSweep(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	_ = s.Write(ctx, "short", []byte("{}"), time.Second)
	_ = s.Write(ctx, "long", []byte("{}"), time.Hour)
	_ = s.Write(ctx, "forever", []byte("{}"), 0)

	now = now.Add(time.Minute)
	if got, _ := s.Read(ctx, "short"); got != nil {
		t.Fatalf("expired row readable")
	}
	if err := s.Touch(ctx, "long", 2*time.Hour); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := s.Touch(ctx, "short", time.Hour); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("touching an expired row: expected ErrNotFound, got %v", err)
	}
	if err := s.Touch(ctx, "absent", time.Hour); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("touching an absent row: expected ErrNotFound, got %v", err)
	}

	n, err := s.DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected 1 expired row, got %d %v", n, err)
	}
	now = now.Add(90 * time.Minute)
	if got, _ := s.Read(ctx, "long"); got == nil {
		t.Fatalf("touched row expired early")
	}
	if got, _ := s.Read(ctx, "forever"); got == nil {
		t.Fatalf("row without ttl expired")
	}
}

func TestSchemaMatchesConnectSqlite3(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }
	_ = s.Write(ctx, "sid1", []byte(`{"a":1}`), time.Second)

	var (
		expired int64
		sess    string
	)
	if err := s.db.QueryRowContext(ctx, `SELECT expired, sess FROM sessions WHERE sid = 'sid1'`).Scan(&expired, &sess); err != nil {
		t.Fatalf("query: %v", err)
	}
	if expired != now.Add(time.Second).UnixMilli() || sess != `{"a":1}` {
		t.Fatalf("unexpected row expired=%d sess=%q", expired, sess)
	}
}

func TestNewStoreRejectsBadTable(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if _, err := NewStore(db, "sessions; DROP TABLE x"); err == nil {
		t.Fatalf("expected invalid table name error")
	}
	s, err := NewStore(db, "")
	if err != nil || s.table != DefaultTable {
		t.Fatalf("expected default table, got %v %v", s, err)
	}
}
