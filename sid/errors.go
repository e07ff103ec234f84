package sid

import "errors"

var (
	// ErrSecretMissing is returned when a Codec is built without a signing secret.
	ErrSecretMissing = errors.New("sid: secret missing")
	// ErrMalformed is returned by strict parsing when an identifier does not
	// match s:<rawID>.<signature>.
	ErrMalformed = errors.New("sid: malformed identifier")
	// ErrInvalidToken is returned when a token source yields an empty token or
	// one containing the '.' separator.
	ErrInvalidToken = errors.New("sid: invalid raw token")
	// ErrUnknownSource is returned for an unregistered token source name.
	ErrUnknownSource = errors.New("sid: unknown token source")
	// ErrUnknownEncoding is returned for an unrecognised signature encoding name.
	ErrUnknownEncoding = errors.New("sid: unknown signature encoding")
)
