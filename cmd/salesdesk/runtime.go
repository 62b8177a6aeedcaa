package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"salesdesk/internal/adapter/llm"
	"salesdesk/internal/adapter/render"
	"salesdesk/internal/adapter/worker"
	"salesdesk/internal/domain"
	"salesdesk/internal/infra/config"
	"salesdesk/internal/infra/logger"
	"salesdesk/internal/infra/tracer"
	"salesdesk/internal/usecase"
	"salesdesk/internal/usecase/eventbus"
)

const shutdownTimeout = 10 * time.Second

// runtime is everything a command needs once the stack is up.
type runtime struct {
	cfg          *config.Config
	log          *slog.Logger
	factory      *usecase.AgentFactory
	orchestrator *usecase.Orchestrator
	renderer     *render.Renderer
	bus          *eventbus.Bus
	session      string
	seed         domain.SessionSeed
	trace        bool
	plain        bool
	closers      []func(context.Context) error
}

// initRuntime loads config and brings up logging, tracing, the completion
// provider, the event bus and the agents, in that order.
func initRuntime(ctx context.Context, flags cliFlags) (*runtime, error) {
	// 1. Config
	cfg, err := config.Load(configPath(flags))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return initRuntimeWithConfig(ctx, cfg, flags)
}

func initRuntimeWithConfig(ctx context.Context, cfg *config.Config, flags cliFlags) (rt *runtime, err error) {
	rt = &runtime{cfg: cfg, trace: flags.Trace, plain: flags.Plain}
	defer func() {
		if err != nil {
			rt.close()
			rt = nil
		}
	}()

	// 2. Logger & Tracer
	var logOpts []logger.Option
	if flags.interactive {
		logOpts = append(logOpts, logger.WithTerminalReserved(filepath.Join(os.TempDir(), "salesdesk.log")))
	}
	log, logCloser, err := logger.New(cfg.Logger, logOpts...)
	if err != nil {
		return rt, fmt.Errorf("logger: %w", err)
	}
	rt.log = log
	rt.closers = append(rt.closers, func(context.Context) error { return logCloser() })

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return rt, fmt.Errorf("tracer: %w", err)
	}
	rt.closers = append(rt.closers, tracerShutdown)

	// 3. Completion provider
	provider, err := llm.NewProvider(cfg.LLM, log)
	if err != nil {
		return rt, fmt.Errorf("llm: %w", err)
	}

	// 4. Event bus
	bus := eventbus.New(log, eventbus.WithSynchronousDelivery())
	rt.bus = bus
	bus.SubscribeAll(func(_ context.Context, ev domain.Event) {
		log.Debug("event", "type", ev.Type, "session", ev.SessionID)
	})
	rt.closers = append(rt.closers, func(context.Context) error { bus.Close(); return nil })

	// 5. Agents
	rt.factory = usecase.NewAgentFactory(cfg, workerSpecs(provider, log), log, usecase.WithEventBus(bus))
	rt.closers = append(rt.closers, rt.factory.Shutdown)

	rt.orchestrator, err = rt.factory.Initialize(ctx)
	if err != nil {
		return rt, fmt.Errorf("agents: %w", err)
	}

	// 6. Session and output
	var opts []render.Option
	if flags.Plain {
		opts = append(opts, render.WithPlain())
	}
	rt.renderer = render.New(opts...)
	rt.session = flags.SessionID
	if rt.session == "" {
		rt.session = domain.NewID()
	}
	rt.seed = domain.SessionSeed{UserID: flags.UserName}
	if rt.seed.UserID == "" {
		rt.seed.UserID = "local"
	}
	if flags.UserName != "" || flags.Company != "" {
		rt.seed.UserProfile = &domain.UserProfile{Name: flags.UserName, Company: flags.Company}
	}
	return rt, nil
}

// workerSpecs builds one spec per worker tag, all sharing provider.
func workerSpecs(provider domain.CompletionProvider, log *slog.Logger) []usecase.WorkerSpec {
	tags := domain.WorkerTags()
	specs := make([]usecase.WorkerSpec, 0, len(tags))
	for _, tag := range tags {
		specs = append(specs, usecase.WorkerSpec{
			Tag: tag,
			New: func() (domain.Worker, error) { return worker.New(tag, provider, log) },
		})
	}
	return specs
}

// ask sends one message on the runtime's session and renders the reply.
func (rt *runtime) ask(ctx context.Context, message string) string {
	res := rt.orchestrator.ProcessMessage(ctx, message, rt.seed, rt.session)
	out := rt.renderer.Reply(res.Response)
	if rt.trace {
		out += "\n" + rt.renderer.Trace(res.Trace)
	}
	return out
}

// close releases resources in reverse order of acquisition.
func (rt *runtime) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
