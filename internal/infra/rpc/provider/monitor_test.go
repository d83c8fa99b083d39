package provider

import (
	"testing"
	"time"
)

func TestMonitorAccumulates(t *testing.T) {
	m := NewProviderMonitor()

	m.RecordRequest(100 * time.Millisecond)
	stats := m.GetStats()
	if stats.Requests != 1 {
		t.Errorf("Expected 1 request, got %d", stats.Requests)
	}

	for i := 0; i < 100; i++ {
		m.RecordRequest(50 * time.Millisecond)
	}

	stats = m.GetStats()
	if stats.Requests != 101 {
		t.Errorf("Expected 101 requests, got %d", stats.Requests)
	}
	// Window keeps the last 100 samples, all 50ms.
	if stats.AverageLatency != 50*time.Millisecond {
		t.Errorf("Expected 50ms average, got %s", stats.AverageLatency)
	}
	if stats.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", stats.Status)
	}
}

func TestMonitorDegradedOnErrorRate(t *testing.T) {
	m := NewProviderMonitor()
	for i := 0; i < 6; i++ {
		m.RecordRequest(10 * time.Millisecond)
	}
	for i := 0; i < 4; i++ {
		m.RecordFailure()
	}

	stats := m.GetStats()
	if stats.Status != "degraded" {
		t.Errorf("Expected degraded, got %s", stats.Status)
	}
	if stats.ErrorRate != 0.4 {
		t.Errorf("Expected error rate 0.4, got %f", stats.ErrorRate)
	}
}

func TestMonitorThrottle(t *testing.T) {
	m := NewProviderMonitor()
	m.RecordThrottle("30")

	if m.CheckProviderStatus() != StatusThrottled {
		t.Fatalf("Expected throttled status")
	}
	if ra := m.GetRetryAfter(); ra <= 0 || ra > 30*time.Second {
		t.Errorf("Expected retry-after within 30s, got %s", ra)
	}

	stats := m.GetStats()
	if stats.Throttles != 1 {
		t.Errorf("Expected 1 throttle, got %d", stats.Throttles)
	}
}

func TestMonitorThrottleDefaultRetryAfter(t *testing.T) {
	m := NewProviderMonitor()
	m.RecordThrottle("")

	if ra := m.GetRetryAfter(); ra <= 30*time.Second {
		t.Errorf("Expected default retry-after near 1m, got %s", ra)
	}
}
