// Package tools exposes the bridge's operations as named tools. Each tool
// takes a JSON parameter object and returns a JSON-shaped result or a
// classified failure.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/shipbridge/internal/infra/rpc/fault"
	"github.com/vietddude/shipbridge/internal/metrics"
)

// Handler runs a tool with raw JSON parameters.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Descriptor describes a registered tool.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type tool struct {
	desc    Descriptor
	handler Handler
}

// Registry maps tool names to handlers.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]tool
	log   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]tool),
		log:   slog.Default().With("component", "tools"),
	}
}

// Register adds or replaces a tool.
func (r *Registry) Register(name, description string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = tool{desc: Descriptor{Name: name, Description: description}, handler: h}
}

// List returns the registered tools sorted by name.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t.desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call invokes the named tool. Errors are always *fault.Error.
func (r *Registry) Call(ctx context.Context, name string, params json.RawMessage) (any, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		metrics.ToolCallsTotal.WithLabelValues("unknown", string(fault.KindNotFound)).Inc()
		return nil, fault.New(fault.KindNotFound, "unknown tool: "+name)
	}

	start := time.Now()
	result, err := t.handler(ctx, params)
	if err != nil {
		fe := fault.Classify(0, nil, err)
		metrics.ToolCallsTotal.WithLabelValues(name, string(fe.Kind)).Inc()
		r.log.Warn("tool failed", "tool", name, "kind", fe.Kind, "error", fe.Message, "duration", time.Since(start))
		return nil, fe
	}

	metrics.ToolCallsTotal.WithLabelValues(name, "ok").Inc()
	r.log.Debug("tool done", "tool", name, "duration", time.Since(start))
	return result, nil
}

// typed adapts a handler over a bound parameter struct.
func typed[P any](fn func(ctx context.Context, p P) (any, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p P
		if err := bind(raw, &p); err != nil {
			return nil, err
		}
		return fn(ctx, p)
	}
}
