package multiagent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"salesdesk/internal/domain"
	"salesdesk/internal/infra/tracer"
)

// ExecutorConfig bounds worker invocations.
type ExecutorConfig struct {
	WorkerTimeout time.Duration // per call, primary and supporting alike
	MaxParallel   int           // concurrent supporting calls per message
	ContextWindow int           // recent messages copied into the TaskRequest
}

// Executor runs a routing decision against the registry. The primary worker
// runs first; supporting workers run afterwards and concurrently, and only
// when the decision is parallel. Failures never escape Execute.
type Executor struct {
	registry *Registry
	cfg      ExecutorConfig
	logger   *slog.Logger
}

// NewExecutor creates an Executor, filling zero config fields with defaults.
func NewExecutor(registry *Registry, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if cfg.WorkerTimeout <= 0 {
		cfg.WorkerTimeout = 30 * time.Second
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 5
	}
	return &Executor{registry: registry, cfg: cfg, logger: logger}
}

// TaskOutcome is the result of one worker invocation. Err is set when the
// worker returned an error, panicked, or missed its deadline; Response is
// nil in that case.
type TaskOutcome struct {
	Agent    domain.AgentTag
	Primary  bool
	Response *domain.TaskResponse
	Err      error
	Duration time.Duration
}

// Failed reports whether the invocation itself failed.
func (o TaskOutcome) Failed() bool { return o.Err != nil }

// Trace converts the outcome into an audit entry.
func (o TaskOutcome) Trace(input string) domain.AgentTrace {
	t := domain.AgentTrace{
		AgentTag: o.Agent,
		Action:   domain.ActionExecute,
		Input:    input,
		Duration: o.Duration,
	}
	switch {
	case o.Err != nil:
		t.Error = o.Err.Error()
	case o.Response != nil:
		t.Success = o.Response.Success
		t.Output = truncate(o.Response.Result, 200)
		t.Error = o.Response.Error
	}
	return t
}

// Execution is everything the engine produced for one message.
type Execution struct {
	Request *domain.TaskRequest
	// Responses holds every response a worker returned, successful or not,
	// primary first.
	Responses []domain.TaskResponse
	// Outcomes and Trace are in execution order: primary, then supporting
	// workers in completion order.
	Outcomes []TaskOutcome
	Trace    []domain.AgentTrace
}

func (x *Execution) add(o TaskOutcome) {
	x.Outcomes = append(x.Outcomes, o)
	x.Trace = append(x.Trace, o.Trace(x.Request.Description))
	if o.Response != nil {
		x.Responses = append(x.Responses, *o.Response)
	}
}

// NewTaskRequest builds the request shared by every worker handling message.
// Parameters extracted from message win over string values remembered in the
// conversation's knowledge from earlier turns.
func NewTaskRequest(message string, c domain.IntentClassification, conv domain.ConversationContext, window int) *domain.TaskRequest {
	params := maps.Clone(c.Parameters)
	for k, v := range conv.Knowledge {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if _, set := params[k]; set {
			continue
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[k] = s
	}
	return &domain.TaskRequest{
		ID:          domain.NewID(),
		Type:        c.Intent,
		Description: message,
		Parameters:  params,
		Complexity:  c.Complexity,
		Priority:    domain.PriorityFor(c.Complexity),
		Context: domain.TaskContext{
			SessionID:      conv.SessionID,
			UserProfile:    conv.UserProfile,
			RecentMessages: conv.RecentMessages(window),
		},
		CreatedAt: time.Now(),
	}
}

// NewRequest builds the TaskRequest for message using the configured
// context window.
func (e *Executor) NewRequest(message string, c domain.IntentClassification, conv domain.ConversationContext) *domain.TaskRequest {
	return NewTaskRequest(message, c, conv, e.cfg.ContextWindow)
}

// Execute runs decision for req. An unregistered primary yields an empty
// execution. A failed primary yields its single failing trace entry and no
// responses; supporting workers are not consulted. A non-parallel decision
// stops after the primary.
func (e *Executor) Execute(ctx context.Context, req *domain.TaskRequest, decision domain.RoutingDecision, conv domain.ConversationContext) *Execution {
	x := &Execution{Request: req}

	primary, err := e.registry.Get(decision.PrimaryAgent)
	if err != nil {
		e.logger.Warn("primary agent unavailable, skipping execution",
			"session", conv.SessionID, "agent", decision.PrimaryAgent, "error", err)
		return x
	}

	out := e.invoke(ctx, primary, req, conv, true)
	x.add(out)
	if out.Failed() {
		x.Responses = nil
		return x
	}
	if !decision.IsParallel {
		return x
	}

	supporting := e.resolve(decision.SupportingAgents, conv.SessionID)
	if len(supporting) == 0 {
		return x
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.cfg.MaxParallel)
	for _, w := range supporting {
		g.Go(func() error {
			o := e.invoke(ctx, w, req, conv, false)
			mu.Lock()
			x.add(o)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return x
}

// resolve looks up supporting tags, skipping any that are not registered.
func (e *Executor) resolve(tags []domain.AgentTag, sessionID string) []domain.Worker {
	out := make([]domain.Worker, 0, len(tags))
	for _, tag := range tags {
		w, err := e.registry.Get(tag)
		if err != nil {
			e.logger.Warn("supporting agent unavailable", "session", sessionID, "agent", tag)
			continue
		}
		out = append(out, w)
	}
	return out
}

type callResult struct {
	resp *domain.TaskResponse
	err  error
}

// invoke runs one worker under the per-call deadline. A worker that ignores
// its context is abandoned when the deadline passes.
func (e *Executor) invoke(ctx context.Context, w domain.Worker, req *domain.TaskRequest, conv domain.ConversationContext, primary bool) TaskOutcome {
	tag := w.Tag()
	ctx, span := tracer.StartSpan(ctx, "orchestrator.worker", trace.WithAttributes(
		tracer.StringAttr(tracer.AttrAgent, string(tag)),
		tracer.StringAttr(tracer.AttrTaskID, req.ID),
		tracer.BoolAttr("salesdesk.primary", primary),
	))

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.WorkerTimeout)
	defer cancel()

	done := make(chan callResult, 1)
	start := time.Now()
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- callResult{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		resp, err := w.ProcessTask(callCtx, req, conv)
		done <- callResult{resp: resp, err: err}
	}()

	var res callResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res.err = callCtx.Err()
	}

	out := TaskOutcome{Agent: tag, Primary: primary, Duration: time.Since(start)}
	switch {
	case errors.Is(res.err, context.DeadlineExceeded):
		out.Err = fmt.Errorf("agent %q after %s: %w: %w", tag, e.cfg.WorkerTimeout, domain.ErrTaskExecution, domain.ErrWorkerTimeout)
	case res.err != nil:
		out.Err = fmt.Errorf("agent %q: %w: %w", tag, domain.ErrTaskExecution, res.err)
	case res.resp == nil:
		out.Err = fmt.Errorf("agent %q returned no response: %w", tag, domain.ErrTaskExecution)
	default:
		resp := *res.resp
		if resp.TaskID == "" {
			resp.TaskID = req.ID
		}
		if resp.AgentTag == "" {
			resp.AgentTag = tag
		}
		out.Response = &resp
	}

	span.SetAttributes(tracer.DurationAttr("salesdesk.duration_ms", out.Duration))
	tracer.End(span, out.Err)

	if out.Err != nil {
		e.logger.Warn("agent task failed",
			"session", conv.SessionID, "agent", tag, "primary", primary,
			"duration", out.Duration, "error", out.Err)
	} else {
		e.logger.Debug("agent task finished",
			"session", conv.SessionID, "agent", tag, "primary", primary,
			"duration", out.Duration, "success", out.Response.Success)
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
