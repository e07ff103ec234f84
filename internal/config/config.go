// Package config loads Handler configuration from a JSON, YAML or TOML file
// and GOSESSION_* environment variables.
package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logger"
	"github.com/MrEthical07/goSession/sid"
)

// File is the on-disk configuration shape.
type File struct {
	Secret              string   `mapstructure:"secret"`
	PreviousSecrets     []string `mapstructure:"previous_secrets"`
	RequireStrongSecret bool     `mapstructure:"require_strong_secret"`
	Name                string   `mapstructure:"name"`
	VerifyIdentifiers   bool     `mapstructure:"verify_identifiers"`

	Identifier IdentifierFile `mapstructure:"identifier"`
	Cookie     CookieFile     `mapstructure:"cookie"`
	Store      StoreFile      `mapstructure:"store"`
	Audit      AuditFile      `mapstructure:"audit"`
	Metrics    MetricsFile    `mapstructure:"metrics"`
	Logging    logger.Config  `mapstructure:"logging"`
}

type IdentifierFile struct {
	Parsing           string `mapstructure:"parsing"`
	Generator         string `mapstructure:"generator"`
	TokenLength       int    `mapstructure:"token_length"`
	SignatureEncoding string `mapstructure:"signature_encoding"`
}

type CookieFile struct {
	MaxAge   time.Duration `mapstructure:"max_age"`
	Path     string        `mapstructure:"path"`
	Domain   string        `mapstructure:"domain"`
	Secure   bool          `mapstructure:"secure"`
	HTTPOnly bool          `mapstructure:"http_only"`
	SameSite string        `mapstructure:"same_site"`
	Expires  string        `mapstructure:"expires"`
}

type StoreFile struct {
	Backend       string        `mapstructure:"backend"`
	Address       string        `mapstructure:"address"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	Database      int           `mapstructure:"database"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	Table         string        `mapstructure:"table"`
	DSN           string        `mapstructure:"dsn"`
	SweepSchedule string        `mapstructure:"sweep_schedule"`
	DialTimeout   time.Duration `mapstructure:"dial_timeout"`
}

type AuditFile struct {
	Enabled    bool `mapstructure:"enabled"`
	BufferSize int  `mapstructure:"buffer_size"`
	DropIfFull bool `mapstructure:"drop_if_full"`
}

type MetricsFile struct {
	Enabled           bool `mapstructure:"enabled"`
	LatencyHistograms bool `mapstructure:"latency_histograms"`
}

// DefaultFile mirrors goSession.DefaultConfig with logging on.
func DefaultFile() *File {
	d := goSession.DefaultConfig()
	return &File{
		Name:              d.Name,
		VerifyIdentifiers: d.VerifyIdentifiers,
		Identifier: IdentifierFile{
			Parsing:           d.Identifier.Parsing.String(),
			Generator:         d.Identifier.Generator,
			TokenLength:       d.Identifier.TokenLength,
			SignatureEncoding: d.Identifier.SignatureEncoding.String(),
		},
		Cookie: CookieFile{
			MaxAge:   d.Cookie.MaxAge,
			Path:     d.Cookie.Path,
			Domain:   d.Cookie.Domain,
			Secure:   d.Cookie.Secure,
			HTTPOnly: d.Cookie.HTTPOnly,
			SameSite: sameSiteName(d.Cookie.SameSite),
		},
		Store: StoreFile{
			Backend:     d.Store.Backend,
			Prefix:      d.Store.Prefix,
			DialTimeout: d.Store.DialTimeout,
		},
		Audit: AuditFile{
			Enabled:    d.Audit.Enabled,
			BufferSize: d.Audit.BufferSize,
			DropIfFull: d.Audit.DropIfFull,
		},
		Logging: logger.DefaultConfig(),
	}
}

// SessionConfig converts f into a goSession.Config. Enum strings are parsed
// here; range checks are left to Config.Validate.
func (f *File) SessionConfig() (goSession.Config, error) {
	cfg := goSession.DefaultConfig()

	cfg.Secret = []byte(f.Secret)
	cfg.PreviousSecrets = nil
	for _, s := range f.PreviousSecrets {
		cfg.PreviousSecrets = append(cfg.PreviousSecrets, []byte(s))
	}
	cfg.RequireStrongSecret = f.RequireStrongSecret
	cfg.Name = f.Name
	cfg.VerifyIdentifiers = f.VerifyIdentifiers

	mode, err := sid.ParseParseMode(f.Identifier.Parsing)
	if err != nil {
		return goSession.Config{}, fmt.Errorf("identifier.parsing: %w", err)
	}
	enc, err := sid.ParseEncoding(f.Identifier.SignatureEncoding)
	if err != nil {
		return goSession.Config{}, fmt.Errorf("identifier.signature_encoding: %w", err)
	}
	cfg.Identifier.Parsing = mode
	cfg.Identifier.SignatureEncoding = enc
	cfg.Identifier.Generator = f.Identifier.Generator
	cfg.Identifier.TokenLength = f.Identifier.TokenLength

	sameSite, err := ParseSameSite(f.Cookie.SameSite)
	if err != nil {
		return goSession.Config{}, fmt.Errorf("cookie.same_site: %w", err)
	}
	cfg.Cookie.MaxAge = f.Cookie.MaxAge
	cfg.Cookie.Path = f.Cookie.Path
	cfg.Cookie.Domain = f.Cookie.Domain
	cfg.Cookie.Secure = f.Cookie.Secure
	cfg.Cookie.HTTPOnly = f.Cookie.HTTPOnly
	cfg.Cookie.SameSite = sameSite
	cfg.Cookie.Expires = f.Cookie.Expires

	cfg.Store.Backend = f.Store.Backend
	cfg.Store.Address = f.Store.Address
	cfg.Store.Username = f.Store.Username
	cfg.Store.Password = f.Store.Password
	cfg.Store.Database = f.Store.Database
	cfg.Store.Prefix = f.Store.Prefix
	cfg.Store.TTL = f.Store.TTL
	cfg.Store.Table = f.Store.Table
	cfg.Store.DSN = f.Store.DSN
	cfg.Store.SweepSchedule = f.Store.SweepSchedule
	cfg.Store.DialTimeout = f.Store.DialTimeout

	cfg.Audit = goSession.AuditConfig{
		Enabled:    f.Audit.Enabled,
		BufferSize: f.Audit.BufferSize,
		DropIfFull: f.Audit.DropIfFull,
	}
	cfg.Metrics = goSession.MetricsConfig{
		Enabled:                 f.Metrics.Enabled,
		EnableLatencyHistograms: f.Metrics.LatencyHistograms,
	}
	cfg.Logging = f.Logging
	return cfg, nil
}

// ParseSameSite accepts lax, strict, none, default, or empty.
func ParseSameSite(name string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return http.SameSiteDefaultMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown SameSite mode %q", name)
	}
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "lax"
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	default:
		return "default"
	}
}
