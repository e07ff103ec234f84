// Package pgstore persists session payloads in PostgreSQL using the table
// layout of connect-pg-simple, so a Node.js deployment and this one can
// share rows:
//
//	CREATE TABLE "session" (
//	    "sid" varchar NOT NULL PRIMARY KEY,
//	    "sess" json NOT NULL,
//	    "expire" timestamp(6) NOT NULL
//	);
//	CREATE INDEX "IDX_session_expire" ON "session" ("expire");
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the table connect-pg-simple creates.
const DefaultTable = "session"

// DefaultTTL applies when a write carries no lifetime; the expire column is
// NOT NULL.
const DefaultTTL = 24 * time.Hour

var tableName = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*\.)?[A-Za-z_][A-Za-z0-9_]*$`)

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store is a PostgreSQL-backed session store.
type Store struct {
	pool  pool
	table string
	now   func() time.Time
	owned bool
}

// NewStore wraps an existing pool. The caller keeps ownership.
func NewStore(p *pgxpool.Pool, table string) (*Store, error) {
	return newStore(p, table)
}

func newStore(p pool, table string) (*Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("pgstore: invalid table name %q", table)
	}
	return &Store{pool: p, table: quoteTable(table), now: time.Now}, nil
}

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, ".")
}

// Open builds a pool from cfg.DSN, checks connectivity, and installs the
// table.
func Open(ctx context.Context, cfg store.Config) (store.Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		dsn = strings.TrimSpace(cfg.Address)
	}
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if cfg.DialTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.DialTimeout
	}
	p, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	s, err := newStore(p, cfg.Table)
	if err != nil {
		p.Close()
		return nil, err
	}
	s.owned = true
	if err := s.Ping(ctx); err != nil {
		p.Close()
		return nil, err
	}
	if err := s.Install(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

// Install creates the table and expiry index if missing.
func (s *Store) Install(ctx context.Context) error {
	index := strings.ReplaceAll(strings.ReplaceAll(s.table, `"`, ""), ".", "_") + "_expire_idx"
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			"sid" varchar NOT NULL PRIMARY KEY,
			"sess" json NOT NULL,
			"expire" timestamp(6) NOT NULL
		)`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %s ("expire")`, index, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
	}
	return nil
}

func (s *Store) unixNow() float64 {
	return float64(s.now().UnixMilli()) / 1000
}

func (s *Store) expireAt(ttl time.Duration) float64 {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return float64(s.now().Add(ttl).UnixMilli()) / 1000
}

// Read returns the payload for rawID unless it has expired.
func (s *Store) Read(ctx context.Context, rawID string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT "sess"::text FROM %s WHERE "sid" = $1 AND "expire" >= to_timestamp($2)`, s.table)
	var data string
	err := s.pool.QueryRow(ctx, query, rawID, s.unixNow()).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return []byte(data), nil
}

// Write upserts rawID.
func (s *Store) Write(ctx context.Context, rawID string, data []byte, ttl time.Duration) error {
	query := fmt.Sprintf(`INSERT INTO %s ("sess", "expire", "sid") VALUES ($1::json, to_timestamp($2), $3)
		ON CONFLICT ("sid") DO UPDATE SET "sess" = EXCLUDED."sess", "expire" = EXCLUDED."expire"`, s.table)
	if _, err := s.pool.Exec(ctx, query, string(data), s.expireAt(ttl), rawID); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Destroy deletes rawID.
func (s *Store) Destroy(ctx context.Context, rawID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE "sid" = $1`, s.table)
	if _, err := s.pool.Exec(ctx, query, rawID); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Touch moves the expiry of rawID.
func (s *Store) Touch(ctx context.Context, rawID string, ttl time.Duration) error {
	query := fmt.Sprintf(`UPDATE %s SET "expire" = to_timestamp($1) WHERE "sid" = $2 AND "expire" >= to_timestamp($3)`, s.table)
	tag, err := s.pool.Exec(ctx, query, s.expireAt(ttl), rawID, s.unixNow())
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteExpired removes expired rows.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE "expire" < to_timestamp($1)`, s.table)
	tag, err := s.pool.Exec(ctx, query, s.unixNow())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Close closes the pool if the store opened it.
func (s *Store) Close() error {
	if s.owned {
		s.pool.Close()
	}
	return nil
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Toucher = (*Store)(nil)
	_ store.Expirer = (*Store)(nil)
	_ store.Pinger  = (*Store)(nil)
)
