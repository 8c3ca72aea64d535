package telemetry

import (
	"testing"
	"time"
)

func TestCounters(t *testing.T) {
	m := NewMetricsCollector()

	m.IncrementCounter(MetricToolCalls, 1)
	m.IncrementCounter(MetricToolCalls, 2)

	if got := m.GetCounter(MetricToolCalls); got != 3 {
		t.Errorf("expected counter 3, got %d", got)
	}
	if got := m.GetCounter(MetricToolCallsFailure); got != 0 {
		t.Errorf("expected zero counter for unset name, got %d", got)
	}
}

func TestGauges(t *testing.T) {
	m := NewMetricsCollector()

	m.SetGauge("server.tools_registered", 7)
	if got := m.GetGauge("server.tools_registered"); got != 7 {
		t.Errorf("expected gauge 7, got %f", got)
	}
}

func TestTimerAverageAndP95(t *testing.T) {
	m := NewMetricsCollector()
	name := MetricToolTimePrefix + "get_memory"

	for i := 1; i <= 10; i++ {
		m.RecordTimer(name, time.Duration(i)*time.Millisecond)
	}

	avg := m.GetTimerAverage(name)
	if avg != 5500*time.Microsecond {
		t.Errorf("expected 5.5ms average, got %v", avg)
	}

	p95 := m.GetTimerP95(name)
	if p95 < 9*time.Millisecond {
		t.Errorf("expected p95 >= 9ms, got %v", p95)
	}

	if m.GetTimerAverage("missing") != 0 {
		t.Error("expected zero average for unknown timer")
	}
}

func TestTimerHistoryIsBounded(t *testing.T) {
	m := NewMetricsCollector()
	name := MetricToolTimePrefix + "search_memory"

	for i := 0; i < timerHistoryLimit+50; i++ {
		m.RecordTimer(name, time.Millisecond)
	}

	m.mu.RLock()
	stored := len(m.timers[name])
	m.mu.RUnlock()

	if stored > timerHistoryLimit {
		t.Errorf("timer history grew to %d, limit is %d", stored, timerHistoryLimit)
	}
}

func TestTimestamps(t *testing.T) {
	m := NewMetricsCollector()

	if m.GetTimeSince(MetricLastToolCall) != 0 {
		t.Error("expected zero for unrecorded timestamp")
	}

	m.RecordTimestamp(MetricLastToolCall)
	if m.GetTimeSince(MetricLastToolCall) < 0 {
		t.Error("expected non-negative elapsed time")
	}
}
