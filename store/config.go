package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPrefix is prepended to keys by key-value backends.
const DefaultPrefix = "sess:"

// Config selects and parameterizes a backend.
type Config struct {
	// Backend is the registry name, e.g. "redis", "dragonfly", "sqlite".
	Backend string
	// Address is host:port for network key-value backends, or a redis://
	// URL. A "prefix" query parameter on the URL overrides Prefix.
	Address  string
	Username string
	Password string
	Database int
	// Prefix namespaces keys in key-value backends.
	Prefix string
	// TTL is the stored session lifetime. Zero defers to the cookie max age.
	TTL time.Duration
	// Table names the SQL table. Empty selects the backend default.
	Table string
	// DSN is the database source for SQL backends.
	DSN string
	// SweepSchedule is a cron expression for deleting expired SQL rows.
	// Empty disables sweeping.
	SweepSchedule string
	// DialTimeout bounds the startup reachability check.
	DialTimeout time.Duration
}

// DefaultConfig returns an in-process memory store configuration.
func DefaultConfig() Config {
	return Config{
		Backend:     "memory",
		Prefix:      DefaultPrefix,
		DialTimeout: 3 * time.Second,
	}
}

// Validate checks the fields that do not depend on the chosen backend.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Backend) == "" {
		return errors.New("store backend must be set")
	}
	if c.TTL < 0 {
		return errors.New("store TTL must be >= 0")
	}
	if c.DialTimeout < 0 {
		return errors.New("store DialTimeout must be >= 0")
	}
	if c.SweepSchedule != "" {
		if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
			return fmt.Errorf("store SweepSchedule: %w", err)
		}
	}
	return nil
}

// NormalizeBackend lower-cases and trims a backend name.
func NormalizeBackend(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
