package venauth

import "sync/atomic"

// MetricID identifies one internal counter.
type MetricID uint16

const (
	// MetricLogin counts successful logins.
	MetricLogin MetricID = iota
	// MetricLogout counts single-token logouts.
	MetricLogout
	// MetricLogoutAll counts whole-identity logouts.
	MetricLogoutAll
	// MetricRenew counts joint TTL renewals.
	MetricRenew
	// MetricAuthenticationDenied counts failed CheckLogin variants.
	MetricAuthenticationDenied
	// MetricAuthorizationDenied counts failed role/permission checks.
	MetricAuthorizationDenied

	metricCount
)

// Metrics is a fixed set of atomic counters. A nil or disabled Metrics
// makes every Inc a no-op, so the hot path pays nothing when metrics are
// off.
type Metrics struct {
	enabled  bool
	counters [metricCount]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func newMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{enabled: true}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricCount)}
	if m == nil || !m.enabled {
		return snapshot
	}
	for id := MetricID(0); id < metricCount; id++ {
		snapshot.Counters[id] = m.counters[id].Load()
	}
	return snapshot
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil {
		return
	}
	m.metrics.Inc(id)
}
