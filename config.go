package goSession

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/cookie"
	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/internal/logger"
	"github.com/MrEthical07/goSession/sid"
	"github.com/MrEthical07/goSession/store"
)

// DefaultCookieName is the cookie express-session uses unless told otherwise.
const DefaultCookieName = "connect.sid"

// MinSecretLength is the recommended minimum secret size in bytes.
const MinSecretLength = 24

// DefaultTTL is the stored session lifetime when neither the store TTL nor
// the cookie max age is set.
const DefaultTTL = 24 * time.Hour

// Config is the complete Handler configuration. It is read once by Build.
type Config struct {
	// Secret signs new identifiers and verifies incoming ones.
	Secret []byte
	// PreviousSecrets still verify identifiers during a rotation.
	PreviousSecrets [][]byte
	// RequireStrongSecret turns short secrets into a Validate error instead
	// of a lint warning.
	RequireStrongSecret bool
	// Name is the cookie name.
	Name string
	// VerifyIdentifiers checks signatures before any store access. When
	// false, signed identifiers are accepted without verification.
	VerifyIdentifiers bool

	Identifier IdentifierConfig
	Cookie     cookie.Config
	Store      store.Config
	Audit      AuditConfig
	Metrics    MetricsConfig
	Logging    LoggingConfig
}

/*
====================================
IDENTIFIER CONFIG
====================================
*/

// IdentifierConfig controls how identifiers are generated and parsed.
type IdentifierConfig struct {
	// Parsing decides whether unsigned identifiers may be used as store keys.
	Parsing sid.ParseMode
	// Generator names the raw id source: nanoid, uuid, ulid, or random.
	Generator string
	// TokenLength is characters for nanoid and bytes for random.
	TokenLength int
	// SignatureEncoding selects the base64 alphabet of signatures.
	SignatureEncoding sid.SignatureEncoding
}

// AuditConfig controls asynchronous audit dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles in-process counters and the store latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// LoggingConfig configures the logger built when Builder.WithLogger is not
// used. An empty Level disables logging.
type LoggingConfig = logger.Config

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns a configuration with every field but Secret set:
// strict parsing, signature verification on, a one-day http-only cookie, and
// the in-process memory store.
func DefaultConfig() Config {
	return Config{
		Name:              DefaultCookieName,
		VerifyIdentifiers: true,
		Identifier: IdentifierConfig{
			Parsing:           sid.Strict,
			Generator:         "nanoid",
			TokenLength:       sid.DefaultNanoIDLength,
			SignatureEncoding: sid.EncodingURL,
		},
		Cookie: cookie.DefaultConfig(),
		Store:  store.DefaultConfig(),
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Secret = cloneBytes(cfg.Secret)
	if len(cfg.PreviousSecrets) > 0 {
		out.PreviousSecrets = make([][]byte, len(cfg.PreviousSecrets))
		for i, s := range cfg.PreviousSecrets {
			out.PreviousSecrets[i] = cloneBytes(s)
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// TTL resolves the stored session lifetime: store TTL, then cookie max age,
// then DefaultTTL.
func (c *Config) TTL() time.Duration {
	switch {
	case c.Store.TTL > 0:
		return c.Store.TTL
	case c.Cookie.MaxAge > 0:
		return c.Cookie.MaxAge
	default:
		return DefaultTTL
	}
}

/*
====================================
VALIDATION
====================================
*/

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfigInvalid}, args...)...)
}

// Validate returns the first hard configuration error. Every error wraps
// ErrConfigInvalid.
func (c *Config) Validate() error {
	if len(c.Secret) == 0 {
		return fmt.Errorf("%w: %w", ErrConfigInvalid, ErrSecretMissing)
	}
	if c.RequireStrongSecret {
		if len(c.Secret) < MinSecretLength {
			return fmt.Errorf("%w: %w: %d bytes", ErrConfigInvalid, ErrSecretTooShort, len(c.Secret))
		}
		for i, s := range c.PreviousSecrets {
			if len(s) < MinSecretLength {
				return fmt.Errorf("%w: %w: previous secret %d", ErrConfigInvalid, ErrSecretTooShort, i)
			}
		}
	}
	for i, s := range c.PreviousSecrets {
		if len(s) == 0 {
			return invalid("previous secret %d is empty", i)
		}
	}

	if strings.TrimSpace(c.Name) == "" {
		return invalid("cookie Name must be set")
	}
	if strings.ContainsAny(c.Name, " \t\r\n;,=") {
		return invalid("cookie Name %q contains invalid characters", c.Name)
	}

	// Identifier
	if c.Identifier.Parsing != sid.Strict && c.Identifier.Parsing != sid.Lenient {
		return invalid("Identifier Parsing is invalid")
	}
	if c.Identifier.SignatureEncoding != sid.EncodingURL && c.Identifier.SignatureEncoding != sid.EncodingStd {
		return invalid("Identifier SignatureEncoding is invalid")
	}
	if c.Identifier.TokenLength < 0 {
		return invalid("Identifier TokenLength must be >= 0")
	}
	if _, err := sid.SourceByName(c.Identifier.Generator, c.Identifier.TokenLength); err != nil {
		return invalid("Identifier Generator %q is not supported", c.Identifier.Generator)
	}

	// Cookie
	if c.Cookie.MaxAge < 0 {
		return invalid("Cookie MaxAge must be >= 0")
	}
	if c.Cookie.Path == "" {
		return invalid("Cookie Path must be set")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return invalid("Cookie SameSite=None requires Secure")
	}
	if c.Cookie.Expires != "" {
		if _, err := time.Parse(time.RFC3339, cookie.NormalizeExpires(c.Cookie.Expires)); err != nil {
			return invalid("Cookie Expires %q is not an ISO-8601 timestamp", c.Cookie.Expires)
		}
	}

	// Store
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return invalid("Audit BufferSize must be > 0 when enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalid("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}
	return nil
}

/*
====================================
LINT
====================================
*/

// LintWarning is an advisory finding that does not block Build.
type LintWarning struct {
	Code    string
	Message string
}

// LintWarnings is the result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

var sweepableBackends = map[string]bool{
	"sqlite": true, "sqlite3": true,
	"postgres": true, "postgresql": true, "pg": true,
	"memory": true,
}

// Lint reports settings that are legal but weaken security or interop.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code, msg string) {
		ws = append(ws, LintWarning{Code: code, Message: msg})
	}

	if n := len(c.Secret); n > 0 && n < MinSecretLength {
		add("secret_short", fmt.Sprintf("secret is %d bytes; use at least %d", n, MinSecretLength))
	}
	if !c.VerifyIdentifiers {
		add("verification_disabled", "identifier signatures are not checked before store access")
	}
	if c.Identifier.Parsing == sid.Lenient {
		add("identifier_lenient", "unsigned identifiers are accepted as store keys")
	}
	if !c.Cookie.Secure {
		add("cookie_insecure", "cookie is sent over plain HTTP")
	}
	if !c.Cookie.HTTPOnly {
		add("cookie_not_httponly", "cookie is readable from client-side scripts")
	}
	if c.Store.TTL == 0 && c.Cookie.MaxAge == 0 {
		add("ttl_defaulted", fmt.Sprintf("no store TTL or cookie max age; records expire after %s", DefaultTTL))
	}
	if c.Store.TTL > 0 && c.Cookie.MaxAge > 0 && c.Store.TTL < c.Cookie.MaxAge {
		add("ttl_shorter_than_cookie", "store records expire before the cookie does")
	}
	if c.Store.SweepSchedule != "" && !sweepableBackends[store.NormalizeBackend(c.Store.Backend)] {
		add("sweep_ignored", fmt.Sprintf("backend %q expires keys itself; SweepSchedule is ignored", c.Store.Backend))
	}
	return ws
}

// String renders the configuration with secrets replaced by fingerprints.
func (c Config) String() string {
	return fmt.Sprintf(
		"name=%s secret=%s previous=%d verify=%t parsing=%s generator=%s encoding=%s backend=%s prefix=%q ttl=%s",
		c.Name,
		internal.Fingerprint(string(c.Secret)),
		len(c.PreviousSecrets),
		c.VerifyIdentifiers,
		c.Identifier.Parsing,
		c.Identifier.Generator,
		c.Identifier.SignatureEncoding,
		c.Store.Backend,
		c.Store.Prefix,
		c.TTL(),
	)
}
