package provider

import (
	"strconv"
	"sync"
	"time"
)

// ProviderStatus represents the health state of a provider.
type ProviderStatus int

const (
	StatusHealthy   ProviderStatus = iota // Provider is working normally
	StatusDegraded                        // Provider is slow or failing often
	StatusThrottled                       // Provider is rate limiting us
)

func (s ProviderStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for a provider.
type MonitorStats struct {
	Status         string        `json:"status"`
	Requests       int           `json:"requests"`
	Failures       int           `json:"failures"`
	ErrorRate      float64       `json:"error_rate"`
	AverageLatency time.Duration `json:"average_latency"`
	Throttles      int           `json:"throttles"`
	RetryAfter     time.Duration `json:"retry_after"`
	LastSuccessAt  time.Time     `json:"last_success_at,omitempty"`
	LastFailureAt  time.Time     `json:"last_failure_at,omitempty"`
}

// ProviderMonitor tracks provider latency and rate limiting.
type ProviderMonitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	requests      int
	failures      int
	lastSuccessAt time.Time
	lastFailureAt time.Time

	throttleCount      int
	lastThrottleTime   time.Time
	retryAfterDuration time.Duration

	slowResponseThreshold time.Duration
	degradedThreshold     float64
}

// NewProviderMonitor creates a new monitor with default settings.
func NewProviderMonitor() *ProviderMonitor {
	return &ProviderMonitor{
		recentLatencies:       make([]time.Duration, 0, 100),
		maxLatencyWindow:      100,
		slowResponseThreshold: 3 * time.Second,
		degradedThreshold:     0.3, // 30% error rate
	}
}

// RecordRequest records a successful request with its latency.
func (pm *ProviderMonitor) RecordRequest(latency time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.requests++
	pm.lastSuccessAt = time.Now()
	pm.recentLatencies = append(pm.recentLatencies, latency)
	if len(pm.recentLatencies) > pm.maxLatencyWindow {
		pm.recentLatencies = pm.recentLatencies[1:]
	}
}

// RecordFailure records a failed request.
func (pm *ProviderMonitor) RecordFailure() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.requests++
	pm.failures++
	pm.lastFailureAt = time.Now()
}

// RecordThrottle records a 429 response and its Retry-After hint (seconds).
func (pm *ProviderMonitor) RecordThrottle(retryAfter string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.throttleCount++
	pm.lastThrottleTime = time.Now()
	pm.retryAfterDuration = 60 * time.Second // Default 1min
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		pm.retryAfterDuration = time.Duration(secs) * time.Second
	}
}

// CheckProviderStatus returns the current status of the provider.
func (pm *ProviderMonitor) CheckProviderStatus() ProviderStatus {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.statusLocked()
}

func (pm *ProviderMonitor) statusLocked() ProviderStatus {
	if pm.throttleCount > 0 && time.Since(pm.lastThrottleTime) < pm.retryAfterDuration {
		return StatusThrottled
	}

	if pm.requests >= 10 && float64(pm.failures)/float64(pm.requests) > pm.degradedThreshold {
		return StatusDegraded
	}

	if len(pm.recentLatencies) > 10 && pm.averageLocked() > pm.slowResponseThreshold {
		return StatusDegraded
	}

	return StatusHealthy
}

func (pm *ProviderMonitor) averageLocked() time.Duration {
	if len(pm.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range pm.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(pm.recentLatencies))
}

// GetRetryAfter returns remaining time before the upstream expects traffic again.
func (pm *ProviderMonitor) GetRetryAfter() time.Duration {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if pm.retryAfterDuration > 0 {
		remaining := pm.retryAfterDuration - time.Since(pm.lastThrottleTime)
		if remaining > 0 {
			return remaining
		}
	}
	return 0
}

// GetStats returns current monitoring statistics.
func (pm *ProviderMonitor) GetStats() MonitorStats {
	retryAfter := pm.GetRetryAfter()

	pm.mu.RLock()
	defer pm.mu.RUnlock()

	stats := MonitorStats{
		Status:         pm.statusLocked().String(),
		Requests:       pm.requests,
		Failures:       pm.failures,
		AverageLatency: pm.averageLocked(),
		Throttles:      pm.throttleCount,
		RetryAfter:     retryAfter,
		LastSuccessAt:  pm.lastSuccessAt,
		LastFailureAt:  pm.lastFailureAt,
	}
	if pm.requests > 0 {
		stats.ErrorRate = float64(pm.failures) / float64(pm.requests)
	}
	return stats
}
