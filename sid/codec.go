package sid

import (
	"fmt"
	"strings"
)

// ParseMode controls how identifiers without the signed shape are treated
// when extracting the store key.
type ParseMode int

const (
	// Lenient returns unsigned input unchanged and uses it as the store key.
	// This keeps pre-existing unsigned identifiers readable.
	Lenient ParseMode = iota
	// Strict rejects any identifier that is not s:<rawID>.<signature> with a
	// non-empty raw id.
	Strict
)

// ParseParseMode maps "strict"/"lenient" to a ParseMode.
func ParseParseMode(name string) (ParseMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lenient":
		return Lenient, nil
	case "strict":
		return Strict, nil
	default:
		return Lenient, fmt.Errorf("sid: unknown parse mode %q", name)
	}
}

func (m ParseMode) String() string {
	if m == Strict {
		return "strict"
	}
	return "lenient"
}

// Codec binds a secret, encoding, parse mode and token source. A Codec is
// immutable after construction and safe for concurrent use.
type Codec struct {
	secret   []byte
	previous [][]byte
	encoding SignatureEncoding
	mode     ParseMode
	source   TokenSource
}

// Option configures a Codec.
type Option func(*Codec)

// WithEncoding selects the signature alphabet. Default EncodingURL.
func WithEncoding(enc SignatureEncoding) Option {
	return func(c *Codec) { c.encoding = enc }
}

// WithParseMode selects strict or lenient raw-id extraction. Default Lenient.
func WithParseMode(mode ParseMode) Option {
	return func(c *Codec) { c.mode = mode }
}

// WithTokenSource replaces the default nanoid source.
func WithTokenSource(src TokenSource) Option {
	return func(c *Codec) {
		if src != nil {
			c.source = src
		}
	}
}

// WithPreviousSecrets adds secrets that are still accepted by Verify but never
// used for signing, so a secret can be rotated without logging everyone out.
func WithPreviousSecrets(secrets ...[]byte) Option {
	return func(c *Codec) {
		for _, s := range secrets {
			if len(s) > 0 {
				c.previous = append(c.previous, append([]byte(nil), s...))
			}
		}
	}
}

// NewCodec creates a Codec. The secret is copied.
func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrSecretMissing
	}
	c := &Codec{
		secret: append([]byte(nil), secret...),
		source: NanoID(DefaultNanoIDLength),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Mode returns the configured parse mode.
func (c *Codec) Mode() ParseMode { return c.mode }

// Encoding returns the configured signature encoding.
func (c *Codec) Encoding() SignatureEncoding { return c.encoding }

// Generate draws a fresh raw id and returns its signed identifier.
func (c *Codec) Generate() (string, error) {
	raw, err := c.source.Token()
	if err != nil {
		return "", fmt.Errorf("sid: generate token: %w", err)
	}
	if raw == "" || strings.IndexByte(raw, Separator) >= 0 {
		return "", ErrInvalidToken
	}
	return c.Sign(raw), nil
}

// Signature returns the encoded HMAC of rawID under the current secret.
func (c *Codec) Signature(rawID string) string {
	return signWith(c.encoding, rawID, c.secret)
}

// Sign returns the full identifier for rawID.
func (c *Codec) Sign(rawID string) string {
	return Identifier{RawID: rawID, Signature: c.Signature(rawID)}.String()
}

// Verify reports whether identifier is correctly signed under the current or
// any previous secret. Every candidate secret is checked so the time taken
// does not reveal which one matched.
func (c *Codec) Verify(identifier string) bool {
	ok := verifyWith(c.encoding, identifier, c.secret)
	for _, s := range c.previous {
		if verifyWith(c.encoding, identifier, s) {
			ok = true
		}
	}
	return ok
}

// RawID extracts the store key from identifier. In Lenient mode unsigned
// input is returned unchanged; in Strict mode it yields ErrMalformed.
func (c *Codec) RawID(identifier string) (string, error) {
	id, ok := Parse(identifier)
	if ok && id.RawID != "" {
		return id.RawID, nil
	}
	if c.mode == Strict {
		return "", ErrMalformed
	}
	if ok {
		return id.RawID, nil
	}
	return identifier, nil
}
