package multiagent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"salesdesk/internal/domain"
)

// Registry holds the current set of workers. The set is replaced wholesale by
// Register; concurrent readers observe either the old or the new set.
type Registry struct {
	mu      sync.RWMutex
	workers map[domain.AgentTag]domain.Worker
	order   []domain.AgentTag
	logger  *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		workers: make(map[domain.AgentTag]domain.Worker),
		logger:  logger,
	}
}

// Register replaces the registered set with workers, in the given order.
// Nil workers and duplicate tags are rejected and leave the current set intact.
func (r *Registry) Register(workers ...domain.Worker) error {
	next := make(map[domain.AgentTag]domain.Worker, len(workers))
	order := make([]domain.AgentTag, 0, len(workers))
	for _, w := range workers {
		if w == nil {
			return fmt.Errorf("registry: nil worker: %w", domain.ErrInvalidInput)
		}
		tag := w.Tag()
		if _, dup := next[tag]; dup {
			return fmt.Errorf("registry: %q: %w", tag, domain.ErrDuplicate)
		}
		next[tag] = w
		order = append(order, tag)
	}

	r.mu.Lock()
	r.workers = next
	r.order = order
	r.mu.Unlock()

	r.logger.Info("workers registered", "count", len(order), "agents", order)
	return nil
}

// Get returns the worker registered under tag, or ErrAgentNotFound.
func (r *Registry) Get(tag domain.AgentTag) (domain.Worker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.workers[tag]
	if !ok {
		return nil, fmt.Errorf("registry: %q: %w", tag, domain.ErrAgentNotFound)
	}
	return w, nil
}

// Workers returns the registered workers in registration order.
func (r *Registry) Workers() []domain.Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Worker, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.workers[tag])
	}
	return out
}

// Tags returns the registered tags in registration order.
func (r *Registry) Tags() []domain.AgentTag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.AgentTag(nil), r.order...)
}

// Len returns the number of registered workers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Clear empties the registry and returns the workers it held, in
// registration order.
func (r *Registry) Clear() []domain.Worker {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Worker, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.workers[tag])
	}
	r.workers = make(map[domain.AgentTag]domain.Worker)
	r.order = nil
	return out
}

// Statuses checks every worker and reports its health and capabilities.
func (r *Registry) Statuses(ctx context.Context) []domain.AgentStatus {
	workers := r.Workers()
	out := make([]domain.AgentStatus, 0, len(workers))
	for _, w := range workers {
		healthy, _ := CheckHealth(ctx, w)
		caps := w.Capabilities()
		names := make([]string, 0, len(caps))
		for _, c := range caps {
			names = append(names, c.Name)
		}
		out = append(out, domain.AgentStatus{Tag: w.Tag(), Healthy: healthy, Capabilities: names})
	}
	return out
}

// CheckHealth calls w.HealthCheck, converting a panic into an error.
// A worker is healthy only when it reports true with no error.
func CheckHealth(ctx context.Context, w domain.Worker) (healthy bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			healthy = false
			err = fmt.Errorf("health check %q panicked: %v", w.Tag(), rec)
		}
	}()
	ok, err := w.HealthCheck(ctx)
	if err != nil {
		return false, err
	}
	return ok, nil
}
