package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
)

// StateChangeFunc observes phase changes.
type StateChangeFunc func(name string, from, to Phase)

// Breaker guards one named dependency.
type Breaker struct {
	name     string
	config   Config
	now      func() time.Time
	onChange StateChangeFunc

	mu    sync.Mutex
	state State
}

// New creates a closed breaker.
func New(name string, config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultConfig.FailureThreshold
	}
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultConfig.Cooldown
	}
	return &Breaker{
		name:   name,
		config: config,
		now:    time.Now,
		state:  State{Phase: Closed},
	}
}

// Name returns the dependency name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns a snapshot of the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// OnStateChange registers a callback fired after each phase change.
func (b *Breaker) OnStateChange(fn StateChangeFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

// Execute runs op if the breaker admits it. Rejections return a
// non-retryable KindCircuitOpen error without calling op.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	admitted, ok := b.apply(EventAcquire)
	if !ok {
		rejection := fault.New(fault.KindCircuitOpen, fmt.Sprintf("circuit open for %s", b.name))
		rejection.Service = b.name
		return rejection
	}
	trial := admitted.Phase == HalfOpen

	err := op(ctx)
	if ev, ok := outcomeEvent(err, trial); ok {
		b.apply(ev)
	}
	return err
}

func (b *Breaker) apply(ev Event) (State, bool) {
	b.mu.Lock()
	from := b.state.Phase
	next, ok := Transition(b.state, ev, b.now(), b.config)
	b.state = next
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil && from != next.Phase {
		fn(b.name, from, next.Phase)
	}
	return next, ok
}

// outcomeEvent maps a call result to the event it reports. A cancelled
// caller says nothing about the upstream: a cancelled trial only frees its
// slot and any other cancelled call reports nothing.
func outcomeEvent(err error, trial bool) (Event, bool) {
	switch {
	case errors.Is(err, context.Canceled):
		return EventTrialAbandoned, trial
	case countsAsFailure(err):
		if trial {
			return EventTrialFailure, true
		}
		return EventFailure, true
	default:
		if trial {
			return EventTrialSuccess, true
		}
		return EventSuccess, true
	}
}

// countsAsFailure reports whether err says something about upstream health.
// Caller mistakes (bad input, auth, missing resource) prove the upstream answered.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	switch fault.KindOf(err) {
	case fault.KindValidation, fault.KindAuth, fault.KindNotFound:
		return false
	default:
		return true
	}
}

// Registry hands out one breaker per dependency name.
type Registry struct {
	config   Config
	onChange StateChangeFunc

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewRegistry creates a registry whose breakers share config but not state.
func NewRegistry(config Config, onChange StateChangeFunc) *Registry {
	return &Registry{
		config:   config,
		onChange: onChange,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for name, creating it on first use.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := New(name, r.config)
	b.onChange = r.onChange
	r.breakers[name] = b
	return b
}

// States returns a snapshot of every breaker.
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]State, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.State()
	}
	return out
}
