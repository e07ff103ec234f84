package sid

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/oklog/ulid/v2"
)

// DefaultNanoIDLength yields ~190 bits of entropy over the 64-symbol nanoid
// alphabet, on par with express-session's 24 random bytes.
const DefaultNanoIDLength = 32

// TokenSource produces fresh raw session ids. Implementations must draw from
// a cryptographically secure generator and never emit '.'.
type TokenSource interface {
	Token() (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func() (string, error)

// Token calls f.
func (f TokenSourceFunc) Token() (string, error) { return f() }

// NanoID returns a source of nanoid tokens over the URL-safe alphabet.
func NanoID(length int) TokenSource {
	if length <= 0 {
		length = DefaultNanoIDLength
	}
	return TokenSourceFunc(func() (string, error) {
		return gonanoid.New(length)
	})
}

// UUID returns a source of random (version 4) UUID strings.
func UUID() TokenSource {
	return TokenSourceFunc(func() (string, error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	})
}

// ULID returns a source of ULIDs with crypto/rand entropy. The leading 48 bits
// encode the creation time, so a ULID carries less unpredictable entropy than
// the other sources.
func ULID() TokenSource {
	return TokenSourceFunc(func() (string, error) {
		id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
		if err != nil {
			return "", err
		}
		return id.String(), nil
	})
}

// Random returns a source of n crypto/rand bytes as unpadded base64url,
// the same shape express-session produces.
func Random(n int) TokenSource {
	return TokenSourceFunc(func() (string, error) {
		return internal.RandomToken(n)
	})
}

// SourceByName resolves a configured generator name. length is interpreted
// per source: characters for nanoid, bytes for random, ignored otherwise.
func SourceByName(name string, length int) (TokenSource, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "nanoid":
		return NanoID(length), nil
	case "uuid":
		return UUID(), nil
	case "ulid":
		return ULID(), nil
	case "random", "uid-safe":
		return Random(length), nil
	default:
		return nil, ErrUnknownSource
	}
}
