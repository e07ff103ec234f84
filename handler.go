package goSession

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSession/cookie"
	"github.com/MrEthical07/goSession/internal"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/logger"
	"github.com/MrEthical07/goSession/payload"
	"github.com/MrEthical07/goSession/sid"
	"github.com/MrEthical07/goSession/store"
	"github.com/rs/zerolog"
)

// SessionHandler is the capability set a request framework drives. Handler
// implements it; frameworks should depend on this interface.
type SessionHandler interface {
	GenerateID() (string, error)
	Read(ctx context.Context, identifier string) (payload.Payload, error)
	Write(ctx context.Context, identifier string, p payload.Payload) error
	Destroy(ctx context.Context, identifier string) error
}

var _ SessionHandler = (*Handler)(nil)

// Handler issues, verifies, loads and persists sessions. Build one with
// Builder.Build; it is safe for concurrent use.
type Handler struct {
	config  Config
	ttl     time.Duration
	backend string

	codec     *sid.Codec
	store     store.Store
	ownsStore bool
	sweeper   *store.Sweeper

	logger    zerolog.Logger
	ownLogger *logger.Logger
	metrics   *Metrics
	audit     *internalaudit.Dispatcher

	now    func() time.Time
	closed atomic.Bool
}

// GenerateID returns a fresh signed identifier.
func (h *Handler) GenerateID() (string, error) {
	if h.closed.Load() {
		return "", ErrHandlerClosed
	}
	return h.codec.Generate()
}

// Verify reports whether identifier carries a valid signature.
func (h *Handler) Verify(identifier string) bool {
	return h.codec.Verify(identifier)
}

// Read verifies identifier and loads its payload. An absent record yields an
// empty payload; a store failure or corrupt record is an error.
func (h *Handler) Read(ctx context.Context, identifier string) (payload.Payload, error) {
	if h.closed.Load() {
		return nil, ErrHandlerClosed
	}
	key, err := h.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	data, err := h.storeRead(ctx, key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return payload.Payload{}, nil
	}
	p, err := h.decode(key, data)
	if err != nil {
		return nil, err
	}
	h.metrics.Inc(MetricSessionLoaded)
	return p, nil
}

// Write verifies identifier and persists p with the configured TTL. When p
// has no cookie metadata record and the key has no stored record yet, one is
// added; later writes store p as given.
func (h *Handler) Write(ctx context.Context, identifier string, p payload.Payload) error {
	if h.closed.Load() {
		return ErrHandlerClosed
	}
	key, err := h.resolve(ctx, identifier)
	if err != nil {
		return err
	}
	if p == nil {
		p = payload.Payload{}
	}
	if !p.Has(cookie.MetadataKey) {
		existing, err := h.storeRead(ctx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			h.synthesize(key, p)
		}
	}
	return h.writeKey(ctx, key, p)
}

// Destroy verifies identifier and removes its record.
func (h *Handler) Destroy(ctx context.Context, identifier string) error {
	if h.closed.Load() {
		return ErrHandlerClosed
	}
	key, err := h.resolve(ctx, identifier)
	if err != nil {
		return err
	}
	return h.destroyKey(ctx, key)
}

// Start resolves the incoming cookie value into a Session. A missing,
// malformed or tampered identifier yields a new session with a fresh
// identifier; a tampered one is never used for a store read. Store failures
// and corrupt records are returned as errors.
func (h *Handler) Start(ctx context.Context, cookieValue string) (*Session, error) {
	if h.closed.Load() {
		return nil, ErrHandlerClosed
	}
	value := strings.TrimSpace(cookieValue)
	if value == "" {
		return h.establish(ctx, "", false)
	}

	key, err := h.resolve(ctx, value)
	switch {
	case errors.Is(err, ErrIdentifierTampered):
		return h.establish(ctx, "", true)
	case errors.Is(err, ErrIdentifierMalformed):
		return h.establish(ctx, "", false)
	case err != nil:
		return nil, err
	}

	data, err := h.storeRead(ctx, key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		// Only an identifier this process can vouch for is adopted for a new
		// record; anything else gets a fresh one.
		if _, signed := sid.Parse(value); signed && h.config.VerifyIdentifiers {
			return h.establish(ctx, value, false)
		}
		return h.establish(ctx, "", false)
	}

	p, err := h.decode(key, data)
	if err != nil {
		return nil, err
	}
	h.metrics.Inc(MetricSessionLoaded)
	return &Session{ID: value, RawID: key, Values: p}, nil
}

// Save persists s and restarts its TTL. Destroyed sessions are skipped.
func (h *Handler) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	if h.closed.Load() {
		return ErrHandlerClosed
	}
	if s.destroyed {
		return nil
	}
	if s.Values == nil {
		s.Values = payload.Payload{}
	}
	return h.writeKey(ctx, s.RawID, s.Values)
}

// Touch restarts the TTL of s without rewriting it when the store supports
// that. It falls back to Save otherwise, and when the record expired since
// Start.
func (h *Handler) Touch(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	if h.closed.Load() {
		return ErrHandlerClosed
	}
	t, ok := h.store.(store.Toucher)
	if !ok || s.IsNew {
		return h.Save(ctx, s)
	}
	start := time.Now()
	err := t.Touch(ctx, s.RawID, h.ttl)
	h.metrics.Observe(MetricStoreLatency, time.Since(start))
	if errors.Is(err, store.ErrNotFound) {
		// The record expired since Start; write it back.
		return h.Save(ctx, s)
	}
	if err != nil {
		return h.storeFailure(ctx, "touch", s.RawID, err)
	}
	return nil
}

// Regenerate moves s to a fresh identifier: the payload is written under the
// new key and the old record is destroyed. s is updated in place.
func (h *Handler) Regenerate(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	if h.closed.Load() {
		return ErrHandlerClosed
	}
	id, err := h.codec.Generate()
	if err != nil {
		return err
	}
	newKey := sid.ExtractRawID(id)
	if s.Values == nil {
		s.Values = payload.Payload{}
	}
	if err := h.writeKey(ctx, newKey, s.Values); err != nil {
		return err
	}

	oldKey := s.RawID
	if oldKey != "" && oldKey != newKey {
		if err := h.removeKey(ctx, oldKey); err != nil {
			return err
		}
	}

	s.ID, s.RawID, s.IsNew, s.destroyed = id, newKey, true, false
	h.metrics.Inc(MetricSessionRegenerated)
	h.emit(ctx, internalaudit.Event{
		EventType:   AuditSessionRegenerated,
		Fingerprint: internal.Fingerprint(newKey),
		Success:     true,
		Metadata:    map[string]string{"previous": internal.Fingerprint(oldKey)},
	})
	return nil
}

// Invalidate destroys the record behind s and marks it destroyed so a later
// Save is a no-op.
func (h *Handler) Invalidate(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	if h.closed.Load() {
		return ErrHandlerClosed
	}
	if err := h.destroyKey(ctx, s.RawID); err != nil {
		return err
	}
	s.destroyed = true
	return nil
}

// CookieName returns the configured cookie name.
func (h *Handler) CookieName() string {
	return h.config.Name
}

// Cookie builds the Set-Cookie value carrying s.ID.
func (h *Handler) Cookie(s *Session) *http.Cookie {
	return h.config.Cookie.HTTPCookie(h.config.Name, s.ID, h.now())
}

// ClearCookie builds a cookie that removes the session cookie.
func (h *Handler) ClearCookie() *http.Cookie {
	return h.config.Cookie.ClearCookie(h.config.Name)
}

// Backend returns the normalized backend name.
func (h *Handler) Backend() string {
	return h.backend
}

// TTL returns the stored session lifetime.
func (h *Handler) TTL() time.Duration {
	return h.ttl
}

// MetricsSnapshot returns the current metric values.
func (h *Handler) MetricsSnapshot() MetricsSnapshot {
	return h.metrics.Snapshot()
}

// AuditDropped reports audit events discarded because the buffer was full.
func (h *Handler) AuditDropped() uint64 {
	return h.audit.Dropped()
}

// Close stops the sweeper, flushes audit events, and releases the store if
// Build opened it. Close is idempotent.
func (h *Handler) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	if h.sweeper != nil {
		h.sweeper.Stop()
	}
	h.audit.Close()

	var errs []error
	if h.ownsStore {
		errs = append(errs, h.store.Close())
	}
	if h.ownLogger != nil {
		errs = append(errs, h.ownLogger.Close())
	}
	return errors.Join(errs...)
}

/*
====================================
INTERNALS
====================================
*/

// resolve maps an incoming identifier to its store key.
func (h *Handler) resolve(ctx context.Context, identifier string) (string, error) {
	id, signed := sid.Parse(identifier)
	if signed {
		if id.RawID == "" {
			h.metrics.Inc(MetricIdentifierMalformed)
			return "", ErrIdentifierMalformed
		}
		if h.config.VerifyIdentifiers && !h.codec.Verify(identifier) {
			h.tampered(ctx, id.RawID)
			return "", ErrIdentifierTampered
		}
		return id.RawID, nil
	}

	if identifier == "" || h.codec.Mode() == sid.Strict {
		h.metrics.Inc(MetricIdentifierMalformed)
		return "", ErrIdentifierMalformed
	}
	h.metrics.Inc(MetricIdentifierUnsigned)
	return identifier, nil
}

func (h *Handler) tampered(ctx context.Context, rawID string) {
	fp := internal.Fingerprint(rawID)
	h.metrics.Inc(MetricIdentifierTampered)
	h.logger.Warn().Str("fingerprint", fp).Msg("session identifier failed verification")
	h.emit(ctx, internalaudit.Event{
		EventType:   AuditIdentifierTampered,
		Fingerprint: fp,
		Success:     false,
	})
}

// establish builds a new session and writes its cookie metadata. An empty
// id draws a fresh identifier.
func (h *Handler) establish(ctx context.Context, id string, tampered bool) (*Session, error) {
	if id == "" {
		var err error
		if id, err = h.codec.Generate(); err != nil {
			return nil, err
		}
	}
	key := sid.ExtractRawID(id)
	values := payload.Payload{}
	h.synthesize(key, values)

	h.metrics.Inc(MetricSessionCreated)
	h.emit(ctx, internalaudit.Event{
		EventType:   AuditSessionCreated,
		Fingerprint: internal.Fingerprint(key),
		Success:     true,
	})
	return &Session{ID: id, RawID: key, Values: values, IsNew: true, Tampered: tampered}, nil
}

func (h *Handler) decode(key string, data []byte) (payload.Payload, error) {
	p, err := payload.FromStore(data)
	if err != nil {
		h.metrics.Inc(MetricPayloadCorrupt)
		h.logger.Error().Err(err).Str("fingerprint", internal.Fingerprint(key)).Msg("stored session payload is corrupt")
		return nil, err
	}
	return p, nil
}

// synthesize adds the cookie metadata record when a session is first
// established. Writes never re-add it.
func (h *Handler) synthesize(key string, p payload.Payload) {
	if cookie.EnsureMetadataAt(p, h.config.Cookie, h.now()) {
		h.metrics.Inc(MetricMetadataSynthesized)
		h.logger.Debug().Str("fingerprint", internal.Fingerprint(key)).Msg("cookie metadata synthesized")
	}
}

func (h *Handler) writeKey(ctx context.Context, key string, p payload.Payload) error {
	data, err := payload.ToStore(p)
	if err != nil {
		return err
	}

	start := time.Now()
	err = h.store.Write(ctx, key, data, h.ttl)
	h.metrics.Observe(MetricStoreLatency, time.Since(start))
	if err != nil {
		return h.storeFailure(ctx, "write", key, err)
	}
	h.metrics.Inc(MetricSessionSaved)
	return nil
}

func (h *Handler) storeRead(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	data, err := h.store.Read(ctx, key)
	h.metrics.Observe(MetricStoreLatency, time.Since(start))
	if err != nil {
		return nil, h.storeFailure(ctx, "read", key, err)
	}
	return data, nil
}

// removeKey deletes a record without counting it as a user-visible destroy.
func (h *Handler) removeKey(ctx context.Context, key string) error {
	start := time.Now()
	err := h.store.Destroy(ctx, key)
	h.metrics.Observe(MetricStoreLatency, time.Since(start))
	if err != nil {
		return h.storeFailure(ctx, "destroy", key, err)
	}
	return nil
}

func (h *Handler) destroyKey(ctx context.Context, key string) error {
	if err := h.removeKey(ctx, key); err != nil {
		return err
	}
	h.metrics.Inc(MetricSessionDestroyed)
	h.emit(ctx, internalaudit.Event{
		EventType:   AuditSessionDestroyed,
		Fingerprint: internal.Fingerprint(key),
		Success:     true,
	})
	return nil
}

func (h *Handler) storeFailure(ctx context.Context, op, key string, err error) error {
	fp := internal.Fingerprint(key)
	h.metrics.Inc(MetricStoreFailure)
	h.logger.Error().Err(err).Str("op", op).Str("backend", h.backend).Str("fingerprint", fp).Msg("session store failure")
	h.emit(ctx, internalaudit.Event{
		EventType:   AuditStoreFailure,
		Fingerprint: fp,
		Success:     false,
		Error:       err.Error(),
		Metadata:    map[string]string{"op": op},
	})
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func (h *Handler) emit(ctx context.Context, ev internalaudit.Event) {
	if h.audit == nil {
		return
	}
	ev.Timestamp = h.now().UTC()
	ev.Backend = h.backend
	ev.IP = clientIPFromContext(ctx)
	h.audit.Emit(ctx, ev)
}
