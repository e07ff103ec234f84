package goSession

import (
	"io"

	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/rs/zerolog"
)

// AuditEvent is one session lifecycle record.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink discards events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers events in a channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// LogSink writes events through zerolog.
type LogSink = internalaudit.LogSink

// Audit event types.
const (
	AuditSessionCreated     = internalaudit.EventSessionCreated
	AuditSessionDestroyed   = internalaudit.EventSessionDestroyed
	AuditSessionRegenerated = internalaudit.EventSessionRegenerated
	AuditIdentifierTampered = internalaudit.EventIdentifierTampered
	AuditStoreFailure       = internalaudit.EventStoreFailure
)

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewLogSink(logger zerolog.Logger) *LogSink {
	return internalaudit.NewLogSink(logger)
}
