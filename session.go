package goSession

import (
	"github.com/MrEthical07/goSession/cookie"
	"github.com/MrEthical07/goSession/payload"
)

// Session is the per-request session context returned by Handler.Start.
// It is owned by the request that started it and is not safe for concurrent
// use.
type Session struct {
	// ID is the signed identifier sent in the cookie.
	ID string
	// RawID is the store key.
	RawID string
	// Values is the payload, including the reserved "cookie" record.
	Values payload.Payload
	// IsNew is set when the identifier was issued during this request; the
	// caller must send the cookie.
	IsNew bool
	// Tampered is set when the incoming identifier failed verification and
	// was replaced.
	Tampered bool

	destroyed bool
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	if s == nil || s.Values == nil {
		return nil, false
	}
	v, ok := s.Values[key]
	return v, ok
}

// Set stores v under key. The reserved cookie key can be overwritten; doing
// so is the application's responsibility.
func (s *Session) Set(key string, v any) {
	if s.Values == nil {
		s.Values = payload.Payload{}
	}
	s.Values[key] = v
}

// Delete removes key.
func (s *Session) Delete(key string) {
	delete(s.Values, key)
}

// Metadata returns the typed cookie record.
func (s *Session) Metadata() (cookie.Metadata, bool) {
	if s == nil {
		return cookie.Metadata{}, false
	}
	return cookie.MetadataFrom(s.Values)
}

// Destroyed reports whether the session was invalidated during this request.
func (s *Session) Destroyed() bool {
	return s != nil && s.destroyed
}
