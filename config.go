package venauth

import (
	"errors"
	"time"

	"github.com/opensef/venauth/token"
)

// NeverExpire is the Timeout value for tokens and sessions that never
// expire.
const NeverExpire int64 = -1

const (
	defaultTokenKey   = "auth:token"
	defaultSessionKey = "auth:session"
	defaultTimeout    = 30 * 24 * 60 * 60 // 30 days, in seconds
)

// Config is the manager's recognized option surface. Binding it from
// files, flags, or the environment is the embedding host's job.
type Config struct {
	// Timeout is the login lifetime in seconds. NeverExpire (-1) disables
	// expiry. It drives both the token record and the session entry.
	Timeout int64

	// TokenStyle selects the built-in token generator's output shape.
	// Ignored when a custom generator is injected.
	TokenStyle token.Style

	// TokenKey is the key-namespace prefix for token records.
	// Defaults to "auth:token".
	TokenKey string

	// SessionKey is the key-namespace prefix for sessions.
	// Defaults to "auth:session".
	SessionKey string

	// SweepInterval is the background sweep period of the builder-owned
	// in-memory caches. Ignored when caches are injected or Redis-backed.
	SweepInterval time.Duration

	Audit   AuditConfig
	Metrics MetricsConfig
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit drop events instead of blocking when the
	// buffer is full. Drops are counted and reported by Manager.AuditDropped.
	DropIfFull bool
}

// MetricsConfig controls the internal counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Timeout:       defaultTimeout,
		TokenStyle:    token.StyleUUID,
		TokenKey:      defaultTokenKey,
		SessionKey:    defaultSessionKey,
		SweepInterval: time.Hour,
	}
}

// Validate reports whether the config is usable. Zero-valued prefixes are
// filled with defaults by the builder before validation runs.
func (c Config) Validate() error {
	if c.Timeout < NeverExpire {
		return errors.New("timeout must be -1 (never expire) or a non-negative number of seconds")
	}
	if c.TokenKey == "" {
		return errors.New("token key prefix must not be empty")
	}
	if c.SessionKey == "" {
		return errors.New("session key prefix must not be empty")
	}
	if c.TokenKey == c.SessionKey {
		return errors.New("token and session key prefixes must differ")
	}
	if c.SweepInterval < 0 {
		return errors.New("sweep interval must not be negative")
	}
	if c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	// Config is a value type with no reference fields today; the copy
	// exists so builder mutations never leak into a caller-held struct.
	return cfg
}
