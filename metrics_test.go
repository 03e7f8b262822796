package authclient

import (
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricRenewFailure)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("login_success = %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricRenewFailure] != 1 {
		t.Fatalf("renew_failure = %d", snap.Counters[MetricRenewFailure])
	}
	if _, ok := snap.Counters[MetricLogout]; ok {
		t.Fatal("zero counters must not appear in snapshot")
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := len(m.Snapshot().Counters); got != 0 {
		t.Fatalf("disabled metrics recorded %d counters", got)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess)
	if got := len(nilMetrics.Snapshot().Counters); got != 0 {
		t.Fatalf("nil metrics recorded %d counters", got)
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers, each = 8, 1000
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				m.Inc(MetricRetry)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricRetry]; got != workers*each {
		t.Fatalf("retry = %d, want %d", got, workers*each)
	}
}

func TestMetricIDNames(t *testing.T) {
	seen := map[string]bool{}
	for _, id := range MetricIDs() {
		name := id.Name()
		if name == "" || name == "unknown" {
			t.Fatalf("metric %d has no exposition name", id)
		}
		if seen[name] {
			t.Fatalf("duplicate exposition name %q", name)
		}
		seen[name] = true
		if id.Help() == "" || id.Help() == "Unknown metric." {
			t.Fatalf("metric %q has no help text", name)
		}
	}
	if MetricID(9999).Name() != "unknown" {
		t.Fatal("out-of-range id must report unknown")
	}
}
