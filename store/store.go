package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable wraps every transport or backend failure.
	ErrUnavailable = errors.New("session store unavailable")
	// ErrUnsupportedBackend is returned when a backend name has no opener.
	ErrUnsupportedBackend = errors.New("unsupported session store backend")
	// ErrNotYetSupported marks backend names that are reserved but have no
	// implementation. It is always joined with ErrUnsupportedBackend.
	ErrNotYetSupported = errors.New("session store backend not yet supported")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("session store closed")
	// ErrNotFound is returned by Touch when the key is absent or expired.
	ErrNotFound = errors.New("session record not found")
)

// Store persists serialized session payloads keyed by raw session id.
type Store interface {
	// Read returns the stored bytes, or nil with a nil error when the key is
	// absent or expired.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write stores data under key. A ttl <= 0 stores without expiry.
	Write(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Destroy removes key. Removing an absent key is not an error.
	Destroy(ctx context.Context, key string) error
	Close() error
}

// Toucher is implemented by stores that can extend a key's lifetime without
// rewriting its value. Touching an absent or expired key returns ErrNotFound.
type Toucher interface {
	Touch(ctx context.Context, key string, ttl time.Duration) error
}

// Expirer is implemented by stores that cannot expire keys on their own and
// need periodic sweeping.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Pinger is implemented by stores that can check backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
