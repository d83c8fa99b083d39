// Package breaker implements a per-dependency circuit breaker.
//
// The breaker state is a plain value updated only through Transition, so
// every legal move is visible in one place:
//
//	Closed   --failure threshold reached-->  Open
//	Open     --cooldown elapsed (acquire)-->  HalfOpen
//	HalfOpen --trial success-->               Closed
//	HalfOpen --trial failure-->               Open
//
// Only the admitted trial decides HalfOpen. Outcomes of calls admitted while
// Closed are counted only while the breaker is still Closed.
package breaker

import "time"

// Phase is the breaker position.
type Phase int

const (
	Closed Phase = iota
	Open
	HalfOpen
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// State is the full breaker state.
type State struct {
	Phase Phase `json:"phase"`
	// Failures counts consecutive failures while Closed.
	Failures int `json:"failures"`
	// OpenedAt is when the breaker last entered Open.
	OpenedAt time.Time `json:"opened_at,omitempty"`
	// TrialInFlight marks the single HalfOpen probe.
	TrialInFlight bool `json:"trial_in_flight"`
}

// Event drives a transition.
type Event int

const (
	// EventAcquire asks permission to call the dependency.
	EventAcquire Event = iota
	// EventSuccess and EventFailure report calls admitted while Closed.
	EventSuccess
	EventFailure
	// EventTrialSuccess and EventTrialFailure report the HalfOpen trial.
	EventTrialSuccess
	EventTrialFailure
	// EventTrialAbandoned frees the trial slot without a verdict.
	EventTrialAbandoned
)

// Config holds breaker thresholds.
type Config struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	FailureThreshold: 5,
	Cooldown:         30 * time.Second,
}

// Transition applies ev to s at time now. The returned bool is the admission
// decision for EventAcquire and always true for outcome events.
func Transition(s State, ev Event, now time.Time, cfg Config) (State, bool) {
	switch ev {
	case EventAcquire:
		switch s.Phase {
		case Closed:
			return s, true
		case Open:
			if now.Sub(s.OpenedAt) >= cfg.Cooldown {
				return State{Phase: HalfOpen, OpenedAt: s.OpenedAt, TrialInFlight: true}, true
			}
			return s, false
		case HalfOpen:
			if s.TrialInFlight {
				return s, false
			}
			s.TrialInFlight = true
			return s, true
		}

	case EventSuccess:
		if s.Phase == Closed {
			s.Failures = 0
		}
		// Late results in Open or HalfOpen say nothing about the trial.
		return s, true

	case EventFailure:
		if s.Phase == Closed {
			s.Failures++
			if s.Failures >= cfg.FailureThreshold {
				return State{Phase: Open, Failures: s.Failures, OpenedAt: now}, true
			}
		}
		return s, true

	case EventTrialSuccess:
		if s.Phase == HalfOpen {
			return State{Phase: Closed}, true
		}
		return s, true

	case EventTrialFailure:
		if s.Phase == HalfOpen {
			return State{Phase: Open, OpenedAt: now}, true
		}
		return s, true

	case EventTrialAbandoned:
		if s.Phase == HalfOpen {
			s.TrialInFlight = false
		}
		return s, true
	}

	return s, false
}
