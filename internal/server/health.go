package server

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/rpc"
	"github.com/vietddude/shipbridge/internal/infra/rpc/breaker"
	"github.com/vietddude/shipbridge/internal/infra/rpc/provider"
)

// SystemStatus represents the overall health state of the bridge or one upstream.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// HealthSource reports the health of one upstream.
type HealthSource interface {
	Health() rpc.ServiceHealth
}

// Pinger checks a backing store such as Redis or Postgres.
type Pinger interface {
	Health(ctx context.Context) error
}

// DependencyStatus is the result of one Pinger check.
type DependencyStatus struct {
	Status SystemStatus `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// dependencyTimeout bounds each backing store ping.
const dependencyTimeout = 2 * time.Second

// ServiceSummary is the short health view of one upstream.
type ServiceSummary struct {
	Service   string       `json:"service"`
	Status    SystemStatus `json:"status"`
	Breaker   string       `json:"breaker"`
	ErrorRate float64      `json:"error_rate"`
}

// HealthReport is the response of /health.
type HealthReport struct {
	Status   SystemStatus              `json:"status"`
	MockMode bool                      `json:"mock_mode"`
	Services map[string]ServiceSummary `json:"services"`

	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// Monitor aggregates upstream health.
type Monitor struct {
	sources  []HealthSource
	deps     map[string]Pinger
	mockMode bool
	ttl      time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *HealthReport
}

// NewMonitor creates a monitor. Reports are reused for ttl.
func NewMonitor(mockMode bool, ttl time.Duration, sources ...HealthSource) *Monitor {
	return &Monitor{sources: sources, deps: make(map[string]Pinger), mockMode: mockMode, ttl: ttl}
}

// AddDependency registers a backing store. A failed ping degrades the bridge.
func (m *Monitor) AddDependency(name string, p Pinger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deps[name] = p
}

// CheckHealth summarizes every upstream. An open breaker degrades the
// bridge; every breaker open is critical.
func (m *Monitor) CheckHealth() *HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && time.Since(m.lastCheck) < m.ttl {
		return m.lastReport
	}

	report := &HealthReport{
		Status:   StatusHealthy,
		MockMode: m.mockMode,
		Services: make(map[string]ServiceSummary, len(m.sources)),
	}

	open := 0
	for _, src := range m.sources {
		h := src.Health()
		sum := ServiceSummary{Service: h.Service, Status: StatusHealthy, Breaker: h.Breaker}
		if h.Provider != nil {
			sum.ErrorRate = h.Provider.ErrorRate
		}

		switch {
		case h.Breaker == breaker.Open.String():
			open++
			sum.Status = StatusDegraded
		case !h.Healthy():
			sum.Status = StatusDegraded
		case h.Provider != nil && h.Provider.Status != provider.StatusHealthy.String():
			sum.Status = StatusDegraded
		}
		if sum.Status != StatusHealthy {
			report.Status = StatusDegraded
		}
		report.Services[h.Service] = sum
	}
	if len(m.deps) > 0 {
		report.Dependencies = m.checkDependencies()
		for _, dep := range report.Dependencies {
			if dep.Status != StatusHealthy && report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		}
	}
	if open > 0 && open == len(m.sources) {
		report.Status = StatusCritical
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

func (m *Monitor) checkDependencies() map[string]DependencyStatus {
	out := make(map[string]DependencyStatus, len(m.deps))
	for name, p := range m.deps {
		ctx, cancel := context.WithTimeout(context.Background(), dependencyTimeout)
		err := p.Health(ctx)
		cancel()

		if err != nil {
			out[name] = DependencyStatus{Status: StatusDegraded, Error: err.Error()}
			continue
		}
		out[name] = DependencyStatus{Status: StatusHealthy}
	}
	return out
}

// Detailed returns the full diagnostic snapshot of every upstream.
func (m *Monitor) Detailed() []rpc.ServiceHealth {
	out := make([]rpc.ServiceHealth, 0, len(m.sources))
	for _, src := range m.sources {
		out = append(out, src.Health())
	}
	return out
}

// DependencyHealth pings every backing store now, bypassing the cache.
func (m *Monitor) DependencyHealth() map[string]DependencyStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkDependencies()
}
