package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/payload"
	"github.com/MrEthical07/goSession/store"
)

var (
	// ErrConfigInvalid wraps every Config.Validate failure.
	ErrConfigInvalid = errors.New("invalid session config")
	// ErrSecretMissing is returned when no signing secret is configured.
	ErrSecretMissing = errors.New("session secret missing")
	// ErrSecretTooShort is returned when RequireStrongSecret is set and a
	// secret is shorter than MinSecretLength.
	ErrSecretTooShort = errors.New("session secret too short")
	// ErrUnsupportedBackend is returned by Build for an unknown store name.
	ErrUnsupportedBackend = store.ErrUnsupportedBackend
	// ErrStoreUnavailable wraps store I/O failures. It is never reported as
	// an empty session.
	ErrStoreUnavailable = store.ErrUnavailable
	// ErrPayloadCorrupt is returned when stored bytes are not a JSON object.
	ErrPayloadCorrupt = payload.ErrCorrupt
	// ErrIdentifierMalformed is returned when an identifier lacks the signed
	// form and strict parsing is on, or carries an empty raw id.
	ErrIdentifierMalformed = errors.New("session identifier malformed")
	// ErrIdentifierTampered is returned when a signature does not verify.
	ErrIdentifierTampered = errors.New("session identifier tampered")
	// ErrHandlerClosed is returned by operations after Close.
	ErrHandlerClosed = errors.New("session handler closed")
	// ErrBuilderUsed is returned by a second Build call.
	ErrBuilderUsed = errors.New("builder already used")
)
