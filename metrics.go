package authclient

import "sync/atomic"

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricLoginSuccess counts completed logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected logins.
	MetricLoginFailure
	// MetricLoginSecondFactorRequired counts logins halted for a TOTP code.
	MetricLoginSecondFactorRequired
	// MetricLoginTimeout counts logins that hit the bounded wait.
	MetricLoginTimeout
	// MetricRestoreSuccess counts passive session restores.
	MetricRestoreSuccess
	// MetricRestoreMiss counts restore attempts with no usable credential.
	MetricRestoreMiss
	// MetricRenewSuccess counts completed credential renewals.
	MetricRenewSuccess
	// MetricRenewFailure counts failed credential renewals.
	MetricRenewFailure
	// MetricRenewCoalesced counts callers that shared an in-flight renewal.
	MetricRenewCoalesced
	// MetricLogout counts logouts.
	MetricLogout
	// MetricSessionTeardown counts teardowns forced by terminal auth
	// failures.
	MetricSessionTeardown
	// MetricEnrollStarted counts second-factor enrollments started.
	MetricEnrollStarted
	// MetricEnrollCompleted counts second-factor enrollments completed.
	MetricEnrollCompleted
	// MetricEnrollFailed counts failed enrollment verifications.
	MetricEnrollFailed
	// MetricRetry counts Retry invocations.
	MetricRetry
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters. When disabled, all operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// NewMetrics creates a [Metrics] instance.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments the counter. Allocation-free on the write path.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot returns a deep copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if v := atomic.LoadUint64(&m.counters[id].value); v > 0 {
			snap.Counters[id] = v
		}
	}
	return snap
}

// MetricIDs returns every counter ID in stable exposition order.
func MetricIDs() []MetricID {
	ids := make([]MetricID, 0, metricIDCount)
	for id := MetricID(0); id < metricIDCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Name returns the exposition name of a metric.
func (id MetricID) Name() string {
	switch id {
	case MetricLoginSuccess:
		return "login_success"
	case MetricLoginFailure:
		return "login_failure"
	case MetricLoginSecondFactorRequired:
		return "login_second_factor_required"
	case MetricLoginTimeout:
		return "login_timeout"
	case MetricRestoreSuccess:
		return "restore_success"
	case MetricRestoreMiss:
		return "restore_miss"
	case MetricRenewSuccess:
		return "renew_success"
	case MetricRenewFailure:
		return "renew_failure"
	case MetricRenewCoalesced:
		return "renew_coalesced"
	case MetricLogout:
		return "logout"
	case MetricSessionTeardown:
		return "session_teardown"
	case MetricEnrollStarted:
		return "enroll_started"
	case MetricEnrollCompleted:
		return "enroll_completed"
	case MetricEnrollFailed:
		return "enroll_failed"
	case MetricRetry:
		return "retry"
	}
	return "unknown"
}

// Help returns the exposition help text of a metric.
func (id MetricID) Help() string {
	switch id {
	case MetricLoginSuccess:
		return "Completed logins."
	case MetricLoginFailure:
		return "Rejected logins."
	case MetricLoginSecondFactorRequired:
		return "Logins halted pending a TOTP code."
	case MetricLoginTimeout:
		return "Logins that exceeded the bounded wait."
	case MetricRestoreSuccess:
		return "Sessions restored from stored credentials."
	case MetricRestoreMiss:
		return "Restore attempts with no usable credential."
	case MetricRenewSuccess:
		return "Completed credential renewals."
	case MetricRenewFailure:
		return "Failed credential renewals."
	case MetricRenewCoalesced:
		return "Callers that shared an in-flight renewal."
	case MetricLogout:
		return "Explicit logouts."
	case MetricSessionTeardown:
		return "Teardowns forced by terminal authorization failures."
	case MetricEnrollStarted:
		return "Second-factor enrollments started."
	case MetricEnrollCompleted:
		return "Second-factor enrollments completed."
	case MetricEnrollFailed:
		return "Failed enrollment verifications."
	case MetricRetry:
		return "Retry invocations of the last failed operation."
	}
	return "Unknown metric."
}
