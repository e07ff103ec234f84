package cookie

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/payload"
)

// MetadataKey is the reserved payload key holding the cookie record.
const MetadataKey = "cookie"

// ExpiresLayout is ISO-8601 in UTC with a literal Z suffix.
const ExpiresLayout = "2006-01-02T15:04:05Z"

// Config carries the attributes of the session cookie.
type Config struct {
	// MaxAge is the cookie lifetime. Zero makes a browser-session cookie.
	MaxAge   time.Duration
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	// Expires is an optional precomputed absolute expiry. When empty it is
	// derived as now + MaxAge at the moment a session is established.
	Expires string
}

// DefaultConfig returns a one-day, secure, http-only cookie scoped to "/".
func DefaultConfig() Config {
	return Config{
		MaxAge:   24 * time.Hour,
		Path:     "/",
		Secure:   true,
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Metadata is the typed view of the record stored under MetadataKey.
type Metadata struct {
	OriginalMaxAge *int64 `json:"originalMaxAge"`
	HTTPOnly       bool   `json:"httpOnly"`
	Domain         string `json:"domain"`
	Path           string `json:"path"`
	Expires        string `json:"expires,omitempty"`
}

// EnsureMetadata writes the cookie record into p unless one is already
// present. It reports whether it wrote anything.
func EnsureMetadata(p payload.Payload, cfg Config) bool {
	return EnsureMetadataAt(p, cfg, time.Now())
}

// EnsureMetadataAt is EnsureMetadata with an explicit clock reading used to
// derive a missing expiry.
func EnsureMetadataAt(p payload.Payload, cfg Config, now time.Time) bool {
	if p == nil || p.Has(MetadataKey) {
		return false
	}

	record := map[string]any{
		"originalMaxAge": nil,
		"httpOnly":       cfg.HTTPOnly,
		"domain":         cfg.Domain,
		"path":           cfg.Path,
	}
	// express-session keeps originalMaxAge in milliseconds.
	if cfg.MaxAge > 0 {
		record["originalMaxAge"] = json.Number(strconv.FormatInt(cfg.MaxAge.Milliseconds(), 10))
	}
	if expires := cfg.ExpiresAt(now); expires != "" {
		record["expires"] = expires
	}

	p[MetadataKey] = record
	return true
}

// ExpiresAt returns the configured expiry normalized to the Z form, or
// now + MaxAge when none is configured. It is empty for session cookies.
func (c Config) ExpiresAt(now time.Time) string {
	if c.Expires != "" {
		return NormalizeExpires(c.Expires)
	}
	if c.MaxAge <= 0 {
		return ""
	}
	return FormatExpires(now.Add(c.MaxAge))
}

// FormatExpires renders t as ISO-8601 UTC with a Z suffix.
func FormatExpires(t time.Time) string {
	return t.UTC().Format(ExpiresLayout)
}

// NormalizeExpires rewrites an RFC 3339 timestamp in any offset to UTC with a
// Z suffix. Unparseable input only has a trailing "+00:00" replaced.
func NormalizeExpires(s string) string {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return FormatExpires(t)
	}
	if strings.HasSuffix(s, "+00:00") {
		return strings.TrimSuffix(s, "+00:00") + "Z"
	}
	return s
}

// MetadataFrom decodes the cookie record from p.
func MetadataFrom(p payload.Payload) (Metadata, bool) {
	raw, ok := p[MetadataKey]
	if !ok || raw == nil {
		return Metadata{}, false
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return Metadata{}, false
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return Metadata{}, false
	}
	return md, true
}

// HTTPCookie builds the Set-Cookie value for name=value with these attributes.
func (c Config) HTTPCookie(name, value string, now time.Time) *http.Cookie {
	hc := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
	}
	if c.MaxAge > 0 {
		hc.MaxAge = int(c.MaxAge / time.Second)
		hc.Expires = now.Add(c.MaxAge).UTC()
	}
	return hc
}

// ClearCookie returns a cookie that makes the browser drop name.
func (c Config) ClearCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: c.SameSite,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	}
}

// Value returns the named cookie from r, percent-decoded. express writes
// signed identifiers as "s%3A..."; undecodable values are returned raw.
func Value(r *http.Request, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	hc, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	v := hc.Value
	if strings.IndexByte(v, '%') >= 0 {
		if dec, err := url.PathUnescape(v); err == nil {
			v = dec
		}
	}
	return v, true
}
