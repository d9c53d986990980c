package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSweepInterval is how often the in-memory store scans for lapsed
// entries when not configured otherwise. The sweep is advisory cleanup;
// reads enforce expiry on their own.
const DefaultSweepInterval = time.Hour

// nowFunc is the clock used for expiry decisions. Tests override it.
var nowFunc = time.Now

type memoryEntry[V any] struct {
	value V
	// expiresAt is a unix-millisecond instant, or the NeverExpire marker.
	expiresAt int64
}

func (e memoryEntry[V]) lapsed(nowMillis int64) bool {
	return e.expiresAt != int64(NeverExpire) && e.expiresAt <= nowMillis
}

// Memory is the in-process reference backend: a mutex-guarded map with
// lazy eviction on read and a background sweeper. The zero value is not
// usable; construct with NewMemory and release with Close.
type Memory[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]memoryEntry[V]

	logger    zerolog.Logger
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// MemoryOption configures a Memory store at construction.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	sweepInterval time.Duration
	logger        zerolog.Logger
}

// WithSweepInterval sets the period of the background sweep.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}

// WithLogger sets the logger the sweeper reports evictions to.
func WithLogger(logger zerolog.Logger) MemoryOption {
	return func(o *memoryOptions) {
		o.logger = logger
	}
}

// NewMemory builds an in-memory store and starts its sweep goroutine.
func NewMemory[K comparable, V any](opts ...MemoryOption) *Memory[K, V] {
	options := memoryOptions{
		sweepInterval: DefaultSweepInterval,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	m := &Memory[K, V]{
		entries: make(map[K]memoryEntry[V]),
		logger:  options.logger,
		done:    make(chan struct{}),
	}

	m.wg.Add(1)
	go m.sweepLoop(options.sweepInterval)

	return m
}

var _ Cache[string, any] = (*Memory[string, any])(nil)

// Get implements Cache. A lapsed entry is evicted before reporting absence,
// independent of the background sweep.
func (m *Memory[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return zero, false, nil
	}
	if entry.lapsed(nowFunc().UnixMilli()) {
		delete(m.entries, key)
		return zero, false, nil
	}

	return entry.value, true, nil
}

// Put implements Cache.
func (m *Memory[K, V]) Put(ctx context.Context, key K, value V) error {
	return m.PutWithTimeout(ctx, key, value, NeverExpire)
}

// PutWithTimeout implements Cache.
func (m *Memory[K, V]) PutWithTimeout(ctx context.Context, key K, value V, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	expiresAt := int64(NeverExpire)
	if timeout != NeverExpire {
		expiresAt = nowFunc().Add(timeout).UnixMilli()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry[V]{value: value, expiresAt: expiresAt}
	return nil
}

// Remove implements Cache. An entry that had already lapsed is deleted but
// reported as absent, matching what any read would have said.
func (m *Memory[K, V]) Remove(ctx context.Context, key K) (V, bool, error) {
	var zero V
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return zero, false, nil
	}
	delete(m.entries, key)

	if entry.lapsed(nowFunc().UnixMilli()) {
		return zero, false, nil
	}
	return entry.value, true, nil
}

// Expire implements Cache. Re-arming a lapsed entry does not resurrect it.
func (m *Memory[K, V]) Expire(ctx context.Context, key K, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	nowMillis := nowFunc().UnixMilli()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil
	}
	if entry.lapsed(nowMillis) {
		delete(m.entries, key)
		return nil
	}

	if timeout == NeverExpire {
		entry.expiresAt = int64(NeverExpire)
	} else {
		entry.expiresAt = nowMillis + timeout.Milliseconds()
	}
	m.entries[key] = entry
	return nil
}

// GetExpire implements Cache.
func (m *Memory[K, V]) GetExpire(ctx context.Context, key K) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return NotExist, err
	}

	nowMillis := nowFunc().UnixMilli()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return NotExist, nil
	}
	if entry.expiresAt == int64(NeverExpire) {
		return NeverExpire, nil
	}
	if entry.expiresAt <= nowMillis {
		delete(m.entries, key)
		return NotExist, nil
	}

	return time.Duration(entry.expiresAt-nowMillis) * time.Millisecond, nil
}

// IsUnexpired implements Cache.
func (m *Memory[K, V]) IsUnexpired(ctx context.Context, key K) (bool, error) {
	remaining, err := m.GetExpire(ctx, key)
	if err != nil {
		return false, err
	}
	return remaining > NotExist, nil
}

// Close stops the background sweeper. The store remains readable after
// Close; only the periodic cleanup stops.
func (m *Memory[K, V]) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

// Len reports the number of entries currently held, lapsed ones included.
func (m *Memory[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory[K, V]) sweepLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := m.sweep(); removed > 0 {
				m.logger.Debug().Int("removed", removed).Msg("swept expired cache entries")
			}
		case <-m.done:
			return
		}
	}
}

func (m *Memory[K, V]) sweep() int {
	nowMillis := nowFunc().UnixMilli()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if entry.lapsed(nowMillis) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}
