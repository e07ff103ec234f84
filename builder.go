package goSession

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/internal"
	internalaudit "github.com/MrEthical07/goSession/internal/audit"
	"github.com/MrEthical07/goSession/internal/logger"
	"github.com/MrEthical07/goSession/sid"
	"github.com/MrEthical07/goSession/store"
	"github.com/MrEthical07/goSession/store/backends"
	"github.com/MrEthical07/goSession/store/redisstore"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Builder assembles a Handler. Configure it during initialization; a Builder
// can build exactly one Handler.
type Builder struct {
	config Config

	store    store.Store
	redis    redis.UniversalClient
	registry *store.Registry
	source   sid.TokenSource

	logger    *zerolog.Logger
	auditSink AuditSink
	now       func() time.Time

	built bool
}

// New returns a Builder holding DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecret sets the signing secret.
func (b *Builder) WithSecret(secret []byte) *Builder {
	b.config.Secret = cloneBytes(secret)
	return b
}

// WithStore injects a ready store. Build uses it instead of opening
// Config.Store, and Close leaves it open.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithRedis injects a caller-owned redis client. Keys use Config.Store.Prefix.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRegistry replaces the backend registry consulted by Build.
func (b *Builder) WithRegistry(r *store.Registry) *Builder {
	b.registry = r
	return b
}

// WithTokenSource overrides the raw id generator named in the config.
func (b *Builder) WithTokenSource(src sid.TokenSource) *Builder {
	b.source = src
	return b
}

// WithLogger uses l instead of building a logger from Config.Logging.
func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = &l
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build is BuildContext with a background context.
func (b *Builder) Build() (*Handler, error) {
	return b.BuildContext(context.Background())
}

// BuildContext validates the configuration, opens the backend and returns a
// ready Handler. An unknown or unimplemented backend fails here with
// ErrUnsupportedBackend; an unreachable one with ErrStoreUnavailable.
func (b *Builder) BuildContext(ctx context.Context) (*Handler, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- LOGGER --------
	var (
		log       = zerolog.Nop()
		ownLogger *logger.Logger
	)
	switch {
	case b.logger != nil:
		log = *b.logger
	case cfg.Logging.Level != "":
		l, err := logger.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("%w: logging: %v", ErrConfigInvalid, err)
		}
		log, ownLogger = l.Logger, l
	}
	log = log.With().Str("component", "gosession").Logger()

	for _, w := range cfg.Lint() {
		log.Warn().Str("code", w.Code).Msg(w.Message)
	}

	// -------- IDENTIFIER CODEC --------
	source := b.source
	if source == nil {
		src, err := sid.SourceByName(cfg.Identifier.Generator, cfg.Identifier.TokenLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
		}
		source = src
	}
	codec, err := sid.NewCodec(cfg.Secret,
		sid.WithEncoding(cfg.Identifier.SignatureEncoding),
		sid.WithParseMode(cfg.Identifier.Parsing),
		sid.WithTokenSource(source),
		sid.WithPreviousSecrets(cfg.PreviousSecrets...),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	// -------- SESSION STORE --------
	var (
		st      store.Store
		owns    bool
		backend = store.NormalizeBackend(cfg.Store.Backend)
	)
	switch {
	case b.store != nil:
		st = b.store
	case b.redis != nil:
		prefix := cfg.Store.Prefix
		if prefix == "" {
			prefix = store.DefaultPrefix
		}
		st, backend = redisstore.NewStore(b.redis, prefix), "redis"
	default:
		registry := b.registry
		if registry == nil {
			registry = backends.Default()
		}
		st, err = registry.Open(ctx, cfg.Store)
		if err != nil {
			log.Error().Err(err).Str("backend", backend).Msg("session store unavailable at startup")
			closeLogger(ownLogger)
			return nil, err
		}
		owns = true
	}

	h := &Handler{
		config:    cfg,
		ttl:       cfg.TTL(),
		backend:   backend,
		codec:     codec,
		store:     st,
		ownsStore: owns,
		logger:    log,
		ownLogger: ownLogger,
		metrics:   NewMetrics(cfg.Metrics),
		now:       b.now,
	}
	if h.now == nil {
		h.now = time.Now
	}

	// -------- SWEEPER --------
	if cfg.Store.SweepSchedule != "" {
		if exp, ok := st.(store.Expirer); ok {
			sw, err := store.NewSweeper(exp, cfg.Store.SweepSchedule, h.reportSweep)
			if err != nil {
				h.Close()
				return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
			}
			h.sweeper = sw
			sw.Start()
		}
	}

	// -------- AUDIT --------
	sink := b.auditSink
	if sink == nil && cfg.Audit.Enabled {
		sink = NewLogSink(log)
	}
	h.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sink)

	log.Info().
		Str("backend", backend).
		Str("parsing", cfg.Identifier.Parsing.String()).
		Str("secret", internal.Fingerprint(string(cfg.Secret))).
		Dur("ttl", h.ttl).
		Msg("session handler ready")
	return h, nil
}

func (h *Handler) reportSweep(deleted int64, err error) {
	if err != nil {
		h.metrics.Inc(MetricStoreFailure)
		h.logger.Error().Err(err).Str("backend", h.backend).Msg("expired session sweep failed")
		return
	}
	h.logger.Debug().Int64("deleted", deleted).Msg("expired sessions swept")
}

func closeLogger(l *logger.Logger) {
	if l != nil {
		_ = l.Close()
	}
}
