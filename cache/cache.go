package cache

import (
	"context"
	"time"
)

const (
	// NeverExpire marks an entry that never expires. As a GetExpire result
	// it means the key exists and has no expiry.
	NeverExpire = time.Duration(-1)

	// NotExist is the GetExpire result for a key that is missing or whose
	// expiry has already passed.
	NotExist = time.Duration(-2)
)

// Cache is the store contract the manager runs against. Any backend that
// honors it is pluggable without touching the manager.
//
// Per-key operations are atomic with respect to each other. The contract
// says nothing about multi-key atomicity; callers composing reads and
// writes across keys get no transactional guarantees.
type Cache[K comparable, V any] interface {
	// Get returns the value at key if it exists and is unexpired. An entry
	// whose expiry has passed is evicted and reported as absent.
	Get(ctx context.Context, key K) (V, bool, error)

	// Put stores value at key without an expiry.
	Put(ctx context.Context, key K, value V) error

	// PutWithTimeout stores value at key, expiring timeout from now.
	// A timeout of NeverExpire stores the entry without expiry.
	PutWithTimeout(ctx context.Context, key K, value V, timeout time.Duration) error

	// Remove deletes key unconditionally and returns the prior live value,
	// if there was one.
	Remove(ctx context.Context, key K) (V, bool, error)

	// Expire re-arms the expiry of an existing key without touching its
	// value. Missing or already-lapsed keys are left alone.
	Expire(ctx context.Context, key K, timeout time.Duration) error

	// GetExpire reports the remaining time-to-live of key: NotExist when
	// the key is missing or lapsed, NeverExpire when it has no expiry, the
	// remaining duration otherwise.
	GetExpire(ctx context.Context, key K) (time.Duration, error)

	// IsUnexpired reports whether key currently resolves to a live entry.
	IsUnexpired(ctx context.Context, key K) (bool, error)
}
