package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level failures from the Redis backend.
var ErrRedisUnavailable = errors.New("cache redis unavailable")

// Redis is a Cache backend over a shared Redis deployment. Values are
// stored as JSON; expiry rides on the key's own TTL, so GetExpire maps
// PTTL replies straight onto the contract's sentinels.
type Redis[V any] struct {
	client *redis.Client
}

// NewRedis wraps client in a string-keyed store for values of type V.
func NewRedis[V any](client *redis.Client) *Redis[V] {
	return &Redis[V]{client: client}
}

var _ Cache[string, any] = (*Redis[any])(nil)

// Get implements Cache.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return value, true, nil
}

// Put implements Cache.
func (r *Redis[V]) Put(ctx context.Context, key string, value V) error {
	return r.PutWithTimeout(ctx, key, value, NeverExpire)
}

// PutWithTimeout implements Cache. A non-sentinel timeout that is not in
// the future deletes the key: the entry would already be lapsed.
func (r *Redis[V]) PutWithTimeout(ctx context.Context, key string, value V, timeout time.Duration) error {
	if timeout != NeverExpire && timeout <= 0 {
		_, _, err := r.Remove(ctx, key)
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}

	expiration := timeout
	if timeout == NeverExpire {
		expiration = 0
	}
	if err := r.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

// Remove implements Cache.
func (r *Redis[V]) Remove(ctx context.Context, key string) (V, bool, error) {
	var zero V

	data, err := r.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return value, true, nil
}

// Expire implements Cache.
func (r *Redis[V]) Expire(ctx context.Context, key string, timeout time.Duration) error {
	var err error
	if timeout == NeverExpire {
		err = r.client.Persist(ctx, key).Err()
	} else {
		err = r.client.PExpire(ctx, key, timeout).Err()
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}
	return nil
}

// GetExpire implements Cache. go-redis already reports PTTL's -1/-2
// replies as raw durations, which are exactly the contract's sentinels.
func (r *Redis[V]) GetExpire(ctx context.Context, key string) (time.Duration, error) {
	remaining, err := r.client.PTTL(ctx, key).Result()
	if err != nil {
		return NotExist, fmt.Errorf("%w: %w", ErrRedisUnavailable, err)
	}

	switch remaining {
	case NeverExpire:
		return NeverExpire, nil
	case NotExist:
		return NotExist, nil
	default:
		return remaining, nil
	}
}

// IsUnexpired implements Cache.
func (r *Redis[V]) IsUnexpired(ctx context.Context, key string) (bool, error) {
	remaining, err := r.GetExpire(ctx, key)
	if err != nil {
		return false, err
	}
	return remaining > NotExist, nil
}
