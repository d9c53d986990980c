package venauth

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/opensef/venauth/cache"
	"github.com/opensef/venauth/token"
)

// Builder assembles a Manager with its collaborators injected. Every
// collaborator has a default except the grants provider, which stays nil
// unless supplied; authorization operations then fail with
// ErrNotInitialized while login/session operations work normally.
type Builder struct {
	config    Config
	redis     *redis.Client
	tokens    cache.Cache[string, TokenValue]
	sessions  cache.Cache[string, Session]
	generator token.Generator
	grants    GrantsProvider
	resolver  TokenResolver
	logger    zerolog.Logger
	auditSink AuditSink

	loggerSet bool
	built     bool
}

// New starts a builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the configuration. Zero-valued key prefixes, token
// style, and sweep interval are filled with defaults at Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs both key namespaces with Redis instead of the default
// in-memory caches. Ignored when explicit caches are injected.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithCaches injects explicit store backends for the two namespaces. The
// caller owns their lifecycle.
func (b *Builder) WithCaches(tokens cache.Cache[string, TokenValue], sessions cache.Cache[string, Session]) *Builder {
	b.tokens = tokens
	b.sessions = sessions
	return b
}

// WithTokenGenerator replaces the style-driven default generator.
func (b *Builder) WithTokenGenerator(g token.Generator) *Builder {
	b.generator = g
	return b
}

// WithGrantsProvider wires the external roles/permissions source.
func (b *Builder) WithGrantsProvider(p GrantsProvider) *Builder {
	b.grants = p
	return b
}

// WithTokenResolver replaces the default context-based resolver.
func (b *Builder) WithTokenResolver(r TokenResolver) *Builder {
	b.resolver = r
	return b
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.loggerSet = true
	return b
}

// WithAuditSink sets the sink the audit dispatcher delivers to. Only
// meaningful when Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the internal counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, fills remaining defaults, and returns
// the Manager. A builder builds once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if cfg.TokenKey == "" {
		cfg.TokenKey = defaultTokenKey
	}
	if cfg.SessionKey == "" {
		cfg.SessionKey = defaultSessionKey
	}
	if cfg.TokenStyle == "" {
		cfg.TokenStyle = token.StyleUUID
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = cache.DefaultSweepInterval
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if (b.tokens == nil) != (b.sessions == nil) {
		return nil, errors.New("token and session caches must be injected together")
	}

	m := &Manager{
		cfg:       cfg,
		tokens:    b.tokens,
		sessions:  b.sessions,
		generator: b.generator,
		grants:    b.grants,
		resolver:  b.resolver,
		logger:    b.logger,
		metrics:   newMetrics(cfg.Metrics),
	}

	if m.tokens == nil {
		if b.redis != nil {
			m.tokens = cache.NewRedis[TokenValue](b.redis)
			m.sessions = cache.NewRedis[Session](b.redis)
		} else {
			tokens := cache.NewMemory[string, TokenValue](
				cache.WithSweepInterval(cfg.SweepInterval),
				cache.WithLogger(b.logger),
			)
			sessions := cache.NewMemory[string, Session](
				cache.WithSweepInterval(cfg.SweepInterval),
				cache.WithLogger(b.logger),
			)
			m.tokens = tokens
			m.sessions = sessions
			m.ownedCaches = []closer{tokens, sessions}
		}
	}

	if m.generator == nil {
		m.generator = token.NewGenerator(cfg.TokenStyle)
	}
	if m.resolver == nil {
		m.resolver = ContextResolver{}
	}

	m.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	b.built = true
	return m, nil
}
