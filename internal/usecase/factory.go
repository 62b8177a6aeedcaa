package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"salesdesk/internal/domain"
	"salesdesk/internal/infra/config"
	"salesdesk/internal/usecase/intent"
	"salesdesk/internal/usecase/multiagent"
)

// WorkerSpec describes how to build one worker. The factory builds workers
// in the order the specs are given.
type WorkerSpec struct {
	Tag domain.AgentTag
	New func() (domain.Worker, error)
}

// FactoryOption customizes an AgentFactory.
type FactoryOption func(*AgentFactory)

// WithClassifier replaces the default keyword classifier.
func WithClassifier(c domain.Classifier) FactoryOption {
	return func(f *AgentFactory) { f.classifier = c }
}

// WithEventBus publishes orchestration events on bus.
func WithEventBus(bus domain.EventBus) FactoryOption {
	return func(f *AgentFactory) { f.bus = bus }
}

// AgentFactory owns the lifecycle of one orchestrator and its workers.
type AgentFactory struct {
	mu           sync.Mutex
	cfg          *config.Config
	specs        []WorkerSpec
	classifier   domain.Classifier
	bus          domain.EventBus
	logger       *slog.Logger
	orchestrator *Orchestrator
	registry     *multiagent.Registry
	store        *ConversationStore
}

// NewAgentFactory creates a factory. Nothing is built until Initialize.
func NewAgentFactory(cfg *config.Config, specs []WorkerSpec, logger *slog.Logger, opts ...FactoryOption) *AgentFactory {
	f := &AgentFactory{
		cfg:    cfg,
		specs:  specs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.classifier == nil {
		f.classifier = intent.NewClassifier(logger)
	}
	return f
}

// Initialize builds the orchestrator, then builds and initializes every
// enabled worker in spec order. Workers are registered only once all of them
// initialized; on any failure the ones already initialized are shut down and
// ErrAgentInitialization is returned. A second call returns the existing
// orchestrator.
func (f *AgentFactory) Initialize(ctx context.Context) (*Orchestrator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.orchestrator != nil {
		return f.orchestrator, nil
	}

	oc := f.cfg.Orchestrator
	registry := multiagent.NewRegistry(f.logger)
	store := NewConversationStore(f.cfg.Sessions, f.bus, f.logger)
	executor := multiagent.NewExecutor(registry, multiagent.ExecutorConfig{
		WorkerTimeout: oc.WorkerTimeout,
		MaxParallel:   oc.MaxParallelWorkers,
		ContextWindow: oc.ContextWindow,
	}, f.logger)
	orch := NewOrchestrator(OrchestratorDeps{
		Classifier: f.classifier,
		Registry:   registry,
		Executor:   executor,
		Store:      store,
		Bus:        f.bus,
		Logger:     f.logger,
	})
	if err := orch.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("orchestrator: %w: %w", domain.ErrAgentInitialization, err)
	}

	initCtx := ctx
	if oc.InitTimeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, oc.InitTimeout)
		defer cancel()
	}

	var ready []domain.Worker
	abort := func(tag domain.AgentTag, err error) (*Orchestrator, error) {
		for _, w := range ready {
			if serr := safeShutdown(ctx, w); serr != nil {
				f.logger.Warn("cleanup shutdown failed", "agent", w.Tag(), "error", serr)
			}
		}
		_ = orch.Shutdown(ctx)
		f.logger.Error("agent initialization failed", "agent", tag, "error", err)
		return nil, domain.NewSubSystemError("agent", "AgentFactory.Initialize", domain.ErrAgentInitialization,
			fmt.Sprintf("%s: %v", tag, err))
	}

	for _, spec := range f.specs {
		if slices.Contains(oc.DisabledAgents, string(spec.Tag)) {
			f.logger.Info("agent disabled", "agent", spec.Tag)
			continue
		}
		w, err := spec.New()
		if err != nil {
			return abort(spec.Tag, err)
		}
		if w == nil || w.Tag() != spec.Tag {
			return abort(spec.Tag, fmt.Errorf("constructor returned the wrong worker"))
		}
		if err := safeInitialize(initCtx, w); err != nil {
			return abort(spec.Tag, err)
		}
		ready = append(ready, w)
	}

	if err := registry.Register(ready...); err != nil {
		return abort("", err)
	}

	f.orchestrator = orch
	f.registry = registry
	f.store = store
	f.logger.Info("agents initialized", "count", len(ready))
	return orch, nil
}

// Orchestrator returns the initialized orchestrator or ErrNotInitialized.
func (f *AgentFactory) Orchestrator() (*Orchestrator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orchestrator == nil {
		return nil, domain.ErrNotInitialized
	}
	return f.orchestrator, nil
}

// HealthReport checks every registered worker and the orchestrator. Unlike
// Orchestrator.HealthCheck it never stops early: a failing or panicking check
// is reported as false and the scan continues.
func (f *AgentFactory) HealthReport(ctx context.Context) map[string]bool {
	f.mu.Lock()
	orch, registry := f.orchestrator, f.registry
	f.mu.Unlock()

	report := map[string]bool{string(domain.AgentOrchestrator): orch != nil && orch.Initialized()}
	if registry == nil {
		return report
	}
	for _, w := range registry.Workers() {
		ok, err := multiagent.CheckHealth(ctx, w)
		if err != nil {
			f.logger.Warn("health check failed", "agent", w.Tag(), "error", err)
		}
		report[string(w.Tag())] = ok && err == nil
	}
	return report
}

// Shutdown stops the orchestrator, then every worker in registration order,
// then drops all state. Worker errors are collected, not fatal. Calling
// Shutdown on a factory that is not initialized is a no-op.
func (f *AgentFactory) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.orchestrator == nil {
		return nil
	}

	var errs []error
	if err := f.orchestrator.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("orchestrator: %w", err))
	}
	for _, w := range f.registry.Clear() {
		if err := safeShutdown(ctx, w); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", w.Tag(), err))
		}
	}
	f.store.Clear()

	f.orchestrator = nil
	f.registry = nil
	f.store = nil
	f.logger.Info("agents shut down", "errors", len(errs))
	return errors.Join(errs...)
}

func safeInitialize(ctx context.Context, w domain.Worker) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("initialize panicked: %v", rec)
		}
	}()
	return w.Initialize(ctx)
}

func safeShutdown(ctx context.Context, w domain.Worker) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("shutdown panicked: %v", rec)
		}
	}()
	return w.Shutdown(ctx)
}
