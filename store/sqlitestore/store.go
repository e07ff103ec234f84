// Package sqlitestore persists session payloads in SQLite using the table
// layout of connect-sqlite3:
//
//	CREATE TABLE sessions (sid PRIMARY KEY, expired, sess)
//
// where expired is a Unix timestamp in milliseconds. Expired rows are
// ignored on read and removed by DeleteExpired.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/store"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultTable is the table connect-sqlite3 creates.
const DefaultTable = "sessions"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is a SQLite-backed session store.
type Store struct {
	db    *sql.DB
	table string
	now   func() time.Time
	owned bool
}

// NewStore wraps an open database. It does not create the table; call
// Install for that.
func NewStore(db *sql.DB, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("sqlitestore: invalid table name %q", table)
	}
	return &Store{db: db, table: table, now: time.Now}, nil
}

// Open opens cfg.DSN (or cfg.Address as a file path), installs the table,
// and returns a Store that owns the database handle.
func Open(ctx context.Context, cfg store.Config) (store.Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		dsn = strings.TrimSpace(cfg.Address)
	}
	if dsn == "" {
		dsn = "sessions.db"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	s, err := NewStore(db, cfg.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.owned = true
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if err := s.Install(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Install creates the session table and its expiry index if missing.
func (s *Store) Install(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (sid PRIMARY KEY, expired, sess)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_expired_idx ON %s (expired)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) nowMillis() int64 {
	return s.now().UnixMilli()
}

// Read returns the payload for rawID unless it has expired.
func (s *Store) Read(ctx context.Context, rawID string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT sess FROM %s WHERE sid = ? AND (expired IS NULL OR expired > ?)`, s.table)
	var data []byte
	err := s.db.QueryRowContext(ctx, query, rawID, s.nowMillis()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return data, nil
}

func (s *Store) expiry(ttl time.Duration) any {
	if ttl <= 0 {
		return nil
	}
	return s.now().Add(ttl).UnixMilli()
}

// Write upserts rawID. The payload is stored as text so Node.js readers see
// the same JSON string they wrote.
func (s *Store) Write(ctx context.Context, rawID string, data []byte, ttl time.Duration) error {
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (sid, expired, sess) VALUES (?, ?, ?)`, s.table)
	if _, err := s.db.ExecContext(ctx, query, rawID, s.expiry(ttl), string(data)); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Destroy deletes rawID.
func (s *Store) Destroy(ctx context.Context, rawID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE sid = ?`, s.table)
	if _, err := s.db.ExecContext(ctx, query, rawID); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Touch moves the expiry of rawID.
func (s *Store) Touch(ctx context.Context, rawID string, ttl time.Duration) error {
	query := fmt.Sprintf(`UPDATE %s SET expired = ? WHERE sid = ? AND (expired IS NULL OR expired > ?)`, s.table)
	res, err := s.db.ExecContext(ctx, query, s.expiry(ttl), rawID, s.nowMillis())
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteExpired removes every expired row and reports how many went.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expired IS NOT NULL AND expired <= ?`, s.table)
	res, err := s.db.ExecContext(ctx, query, s.nowMillis())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return n, nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Toucher = (*Store)(nil)
	_ store.Expirer = (*Store)(nil)
	_ store.Pinger  = (*Store)(nil)
)
