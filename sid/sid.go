package sid

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

const (
	// Prefix marks a signed identifier.
	Prefix = "s:"
	// Separator splits the raw id from its signature.
	Separator = '.'
)

// SignatureEncoding selects the base64 alphabet of the signature segment.
// Both variants are unpadded.
type SignatureEncoding int

const (
	// EncodingURL is the URL-safe alphabet (- and _).
	EncodingURL SignatureEncoding = iota
	// EncodingStd is the standard alphabet (+ and /), as produced by the
	// cookie-signature npm module.
	EncodingStd
)

// ParseEncoding maps a configuration name ("url", "std") to a SignatureEncoding.
func ParseEncoding(name string) (SignatureEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "url", "base64url":
		return EncodingURL, nil
	case "std", "standard", "base64":
		return EncodingStd, nil
	default:
		return EncodingURL, ErrUnknownEncoding
	}
}

func (e SignatureEncoding) String() string {
	if e == EncodingStd {
		return "std"
	}
	return "url"
}

func (e SignatureEncoding) encoding() *base64.Encoding {
	if e == EncodingStd {
		return base64.RawStdEncoding
	}
	return base64.RawURLEncoding
}

// Identifier is a parsed signed identifier.
type Identifier struct {
	RawID     string
	Signature string
}

// String reassembles the wire form.
func (id Identifier) String() string {
	return Prefix + id.RawID + string(Separator) + id.Signature
}

// Parse splits identifier into raw id and signature. The raw id ends at the
// first '.' after the prefix; everything after it is the signature. ok is
// false when the prefix or the separator is missing.
func Parse(identifier string) (Identifier, bool) {
	if !strings.HasPrefix(identifier, Prefix) {
		return Identifier{}, false
	}
	rest := identifier[len(Prefix):]
	dot := strings.IndexByte(rest, Separator)
	if dot < 0 {
		return Identifier{}, false
	}
	return Identifier{RawID: rest[:dot], Signature: rest[dot+1:]}, true
}

// Sign returns the URL-safe, unpadded base64 HMAC-SHA256 of rawID keyed by secret.
func Sign(rawID string, secret []byte) string {
	return signWith(EncodingURL, rawID, secret)
}

// Format returns the full signed identifier for rawID.
func Format(rawID string, secret []byte) string {
	return Identifier{RawID: rawID, Signature: Sign(rawID, secret)}.String()
}

// Verify reports whether identifier carries a valid signature for its raw id
// under secret. Malformed identifiers are treated as having no signature and
// fail verification.
func Verify(identifier string, secret []byte) bool {
	return verifyWith(EncodingURL, identifier, secret)
}

// Tampered is the negation of Verify.
func Tampered(identifier string, secret []byte) bool {
	return !Verify(identifier, secret)
}

// ExtractRawID returns the raw id embedded in a signed identifier. Input
// without the s:<rawID>. shape is returned unchanged and treated as an
// already-raw key; use a strict Codec to refuse such input instead.
func ExtractRawID(identifier string) string {
	if id, ok := Parse(identifier); ok {
		return id.RawID
	}
	return identifier
}

func signWith(enc SignatureEncoding, rawID string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(rawID))
	return enc.encoding().EncodeToString(mac.Sum(nil))
}

func verifyWith(enc SignatureEncoding, identifier string, secret []byte) bool {
	id, ok := Parse(identifier)
	if !ok {
		return false
	}
	return constantTimeEqual(id.Signature, signWith(enc, id.RawID, secret))
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
