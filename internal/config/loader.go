package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GOSESSION_STORE_BACKEND.
const EnvPrefix = "GOSESSION"

// Loader handles configuration loading.
type Loader struct {
	configPath string
}

// NewLoader creates a loader. An empty path loads defaults and environment
// only.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load layers the config file and environment over DefaultFile.
func (l *Loader) Load() (*File, error) {
	v := viper.New()
	setDefaults(v, DefaultFile())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	f := DefaultFile()
	if err := v.Unmarshal(f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// Environment lists arrive comma separated.
	f.PreviousSecrets = splitList(strings.Join(f.PreviousSecrets, ","))
	return f, nil
}

// GetConfigPath returns the config file path.
func (l *Loader) GetConfigPath() string {
	return l.configPath
}

// Load is a convenience function that creates a loader and loads the config.
func Load(configPath string) (*File, error) {
	return NewLoader(configPath).Load()
}

// setDefaults registers every key so environment variables can override keys
// the file does not mention.
func setDefaults(v *viper.Viper, f *File) {
	v.SetDefault("secret", f.Secret)
	v.SetDefault("previous_secrets", f.PreviousSecrets)
	v.SetDefault("require_strong_secret", f.RequireStrongSecret)
	v.SetDefault("name", f.Name)
	v.SetDefault("verify_identifiers", f.VerifyIdentifiers)

	v.SetDefault("identifier.parsing", f.Identifier.Parsing)
	v.SetDefault("identifier.generator", f.Identifier.Generator)
	v.SetDefault("identifier.token_length", f.Identifier.TokenLength)
	v.SetDefault("identifier.signature_encoding", f.Identifier.SignatureEncoding)

	v.SetDefault("cookie.max_age", f.Cookie.MaxAge)
	v.SetDefault("cookie.path", f.Cookie.Path)
	v.SetDefault("cookie.domain", f.Cookie.Domain)
	v.SetDefault("cookie.secure", f.Cookie.Secure)
	v.SetDefault("cookie.http_only", f.Cookie.HTTPOnly)
	v.SetDefault("cookie.same_site", f.Cookie.SameSite)
	v.SetDefault("cookie.expires", f.Cookie.Expires)

	v.SetDefault("store.backend", f.Store.Backend)
	v.SetDefault("store.address", f.Store.Address)
	v.SetDefault("store.username", f.Store.Username)
	v.SetDefault("store.password", f.Store.Password)
	v.SetDefault("store.database", f.Store.Database)
	v.SetDefault("store.prefix", f.Store.Prefix)
	v.SetDefault("store.ttl", f.Store.TTL)
	v.SetDefault("store.table", f.Store.Table)
	v.SetDefault("store.dsn", f.Store.DSN)
	v.SetDefault("store.sweep_schedule", f.Store.SweepSchedule)
	v.SetDefault("store.dial_timeout", f.Store.DialTimeout)

	v.SetDefault("audit.enabled", f.Audit.Enabled)
	v.SetDefault("audit.buffer_size", f.Audit.BufferSize)
	v.SetDefault("audit.drop_if_full", f.Audit.DropIfFull)

	v.SetDefault("metrics.enabled", f.Metrics.Enabled)
	v.SetDefault("metrics.latency_histograms", f.Metrics.LatencyHistograms)

	v.SetDefault("logging.level", f.Logging.Level)
	v.SetDefault("logging.file", f.Logging.File)
	v.SetDefault("logging.console", f.Logging.Console)
	v.SetDefault("logging.pretty", f.Logging.Pretty)
	v.SetDefault("logging.redaction", f.Logging.Redaction)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
