package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"salesdesk/internal/domain"
	"salesdesk/internal/infra/tracer"
	"salesdesk/internal/usecase/multiagent"
	"salesdesk/internal/usecase/synthesis"
)

// apology is the reply used when processing fails outside task execution.
const apology = "I'm sorry, something went wrong while processing your message. Please try again in a moment."

// Result is everything ProcessMessage hands back to its caller.
type Result struct {
	Response  domain.Message
	Context   domain.ConversationContext
	Trace     []domain.AgentTrace
	Synthesis synthesis.Synthesis
}

// OrchestratorDeps are the collaborators of an Orchestrator.
type OrchestratorDeps struct {
	Classifier domain.Classifier
	Registry   *multiagent.Registry
	Executor   *multiagent.Executor
	Store      *ConversationStore
	Bus        domain.EventBus // optional
	Logger     *slog.Logger
}

// Orchestrator turns one user message into one synthesized reply:
// classify, route, execute, synthesize. It is safe for concurrent use;
// messages for the same session are processed one at a time.
type Orchestrator struct {
	classifier  domain.Classifier
	registry    *multiagent.Registry
	executor    *multiagent.Executor
	store       *ConversationStore
	locks       *SessionLocker
	bus         domain.EventBus
	logger      *slog.Logger
	initialized atomic.Bool
}

// NewOrchestrator creates an Orchestrator. It must be initialized before
// HealthCheck reports healthy or messages are dispatched to workers.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		classifier: deps.Classifier,
		registry:   deps.Registry,
		executor:   deps.Executor,
		store:      deps.Store,
		locks:      NewSessionLocker(),
		bus:        deps.Bus,
		logger:     deps.Logger,
	}
}

// Initialize marks the orchestrator ready.
func (o *Orchestrator) Initialize(context.Context) error {
	o.initialized.Store(true)
	o.logger.Info("orchestrator initialized")
	return nil
}

// Shutdown marks the orchestrator stopped. Registered workers are shut down
// by their owner.
func (o *Orchestrator) Shutdown(context.Context) error {
	if o.initialized.Swap(false) {
		o.logger.Info("orchestrator shut down")
	}
	return nil
}

// Initialized reports whether Initialize has run and Shutdown has not.
func (o *Orchestrator) Initialized() bool { return o.initialized.Load() }

// Registry returns the registry the orchestrator dispatches to.
func (o *Orchestrator) Registry() *multiagent.Registry { return o.registry }

// Store returns the conversation store.
func (o *Orchestrator) Store() *ConversationStore { return o.store }

// HealthCheck reports whether the orchestrator is initialized and every
// registered worker is healthy. It stops at the first unhealthy worker.
func (o *Orchestrator) HealthCheck(ctx context.Context) bool {
	if !o.initialized.Load() {
		return false
	}
	for _, w := range o.registry.Workers() {
		ok, err := multiagent.CheckHealth(ctx, w)
		if err != nil || !ok {
			o.logger.Warn("worker unhealthy", "agent", w.Tag(), "error", err)
			return false
		}
	}
	return true
}

// processState tracks what has been written to the conversation so a
// failure can complete the exchange without duplicating messages.
type processState struct {
	sessionID    string
	message      string
	start        time.Time
	conv         *Conversation
	userAppended bool
	result       *Result
}

// ProcessMessage handles one user message for sessionID. It never returns
// an error: failures outside task execution produce an apology reply with a
// single error trace entry. Each call appends exactly one user message and
// one reply to the session, when the session could be loaded.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message string, seed domain.SessionSeed, sessionID string) (res Result) {
	st := &processState{sessionID: sessionID, message: message, start: time.Now()}

	ctx, span := tracer.StartSpan(ctx, "orchestrator.process",
		trace.WithAttributes(tracer.StringAttr(tracer.AttrSession, sessionID)))
	var spanErr error
	defer func() { tracer.End(span, spanErr) }()

	// 1. Serialize per session.
	unlock, err := o.locks.Lock(ctx, sessionID)
	if err != nil {
		spanErr = err
		return o.fail(ctx, st, err)
	}
	defer unlock()

	defer func() {
		if rec := recover(); rec != nil {
			spanErr = fmt.Errorf("panic: %v", rec)
			if st.result != nil {
				res = *st.result
				return
			}
			res = o.fail(ctx, st, spanErr)
		}
	}()

	// 2. Load the session and record the user message.
	conv, err := o.store.GetOrCreate(sessionID, seed)
	if err != nil {
		spanErr = err
		return o.fail(ctx, st, err)
	}
	st.conv = conv

	userMsg := domain.NewMessage(message, domain.SenderUser)
	o.store.Append(conv, userMsg)
	st.userAppended = true
	publishEvent(o.bus, ctx, domain.EventMessageReceived, sessionID, domain.MessageEventPayload{MessageID: userMsg.ID})

	if !o.initialized.Load() {
		spanErr = domain.ErrNotInitialized
		return o.fail(ctx, st, fmt.Errorf("orchestrator: %w", domain.ErrNotInitialized))
	}

	// 3. Classify.
	snapshot := conv.Snapshot()
	classifyStart := time.Now()
	classification, err := o.classifier.Classify(ctx, message, snapshot)
	if err != nil {
		spanErr = err
		return o.fail(ctx, st, fmt.Errorf("classify: %w", err))
	}
	span.SetAttributes(
		tracer.StringAttr(tracer.AttrIntent, string(classification.Intent)),
		tracer.IntAttr("salesdesk.estimated_tokens", classification.EstimatedTokens),
	)
	steps := []domain.AgentTrace{{
		AgentTag: domain.AgentOrchestrator,
		Action:   domain.ActionClassify,
		Input:    message,
		Output:   fmt.Sprintf("%s (%.2f)", classification.Intent, classification.Confidence),
		Duration: time.Since(classifyStart),
		Success:  true,
	}}

	// 4. Route.
	routeStart := time.Now()
	decision := multiagent.Route(classification)
	steps = append(steps, domain.AgentTrace{
		AgentTag: domain.AgentOrchestrator,
		Action:   domain.ActionRoute,
		Input:    string(classification.Intent),
		Output:   describeDecision(decision),
		Duration: time.Since(routeStart),
		Success:  true,
	})
	publishEvent(o.bus, ctx, domain.EventAgentRouted, sessionID, domain.RoutedEventPayload{
		Intent:     classification.Intent,
		Primary:    decision.PrimaryAgent,
		Supporting: decision.SupportingAgents,
		Parallel:   decision.IsParallel,
	})
	o.logger.Info("message routed",
		"session", sessionID,
		"intent", classification.Intent,
		"confidence", classification.Confidence,
		"primary", decision.PrimaryAgent,
		"supporting", decision.SupportingAgents,
		"parallel", decision.IsParallel,
	)

	// 5. Execute.
	req := o.executor.NewRequest(message, classification, snapshot)
	for k, v := range classification.Parameters {
		conv.Remember(k, v)
	}
	conv.BeginTask(req)
	exec := o.executor.Execute(ctx, req, decision, snapshot)
	conv.CompleteTask(req.ID, exec.Responses)
	steps = append(steps, exec.Trace...)
	for _, out := range exec.Outcomes {
		o.publishOutcome(ctx, sessionID, req.ID, out)
	}

	// 6. Synthesize.
	synthStart := time.Now()
	syn := synthesis.Synthesize(message, classification.Intent, exec.Responses)
	steps = append(steps, domain.AgentTrace{
		AgentTag: domain.AgentOrchestrator,
		Action:   domain.ActionSynthesize,
		Input:    fmt.Sprintf("%d responses", len(exec.Responses)),
		Output:   describeSynthesis(syn),
		Duration: time.Since(synthStart),
		Success:  true,
	})

	// 7. Record the reply.
	reply := domain.NewMessage(syn.Body, domain.SenderOrchestrator)
	reply.Intent = classification.Intent
	reply.Confidence = classification.Confidence
	reply.Suggestions = syn.Suggestions
	reply.Trace = steps
	o.store.Append(conv, reply)

	st.result = &Result{
		Response:  reply,
		Context:   conv.Snapshot(),
		Trace:     slices.Clone(steps),
		Synthesis: syn,
	}
	publishEvent(o.bus, ctx, domain.EventMessageSent, sessionID, domain.MessageEventPayload{
		MessageID:  reply.ID,
		Intent:     classification.Intent,
		Confidence: classification.Confidence,
		Fallback:   syn.Fallback,
	})
	o.logger.Debug("message processed",
		"session", sessionID,
		"intent", classification.Intent,
		"fallback", syn.Fallback,
		"duration", time.Since(st.start),
	)
	return *st.result
}

// fail completes the exchange with the apology reply.
func (o *Orchestrator) fail(ctx context.Context, st *processState, cause error) Result {
	err := fmt.Errorf("%w: %w", domain.ErrOrchestratorProcessing, cause)
	o.logger.Error("message processing failed",
		"session", st.sessionID,
		"code", domain.ErrorCodeOf(err),
		"error", err,
	)

	entry := domain.AgentTrace{
		AgentTag: domain.AgentOrchestrator,
		Action:   domain.ActionError,
		Input:    st.message,
		Duration: time.Since(st.start),
		Success:  false,
		Error:    err.Error(),
	}
	reply := domain.NewMessage(apology, domain.SenderOrchestrator)
	reply.Trace = []domain.AgentTrace{entry}

	res := Result{
		Response:  reply,
		Context:   domain.ConversationContext{SessionID: st.sessionID},
		Trace:     []domain.AgentTrace{entry},
		Synthesis: synthesis.Synthesis{Body: apology, Fallback: true},
	}
	if st.conv != nil {
		if !st.userAppended {
			o.store.Append(st.conv, domain.NewMessage(st.message, domain.SenderUser))
			st.userAppended = true
		}
		o.store.Append(st.conv, reply)
		res.Context = st.conv.Snapshot()
	}
	st.result = &res

	publishEvent(o.bus, ctx, domain.EventAgentError, st.sessionID, domain.TaskEventPayload{
		Agent:      domain.AgentOrchestrator,
		DurationMs: entry.Duration.Milliseconds(),
		Error:      entry.Error,
	})
	return res
}

func (o *Orchestrator) publishOutcome(ctx context.Context, sessionID, taskID string, out multiagent.TaskOutcome) {
	payload := domain.TaskEventPayload{
		TaskID:     taskID,
		Agent:      out.Agent,
		DurationMs: out.Duration.Milliseconds(),
	}
	switch {
	case out.Failed():
		payload.Error = out.Err.Error()
		publishEvent(o.bus, ctx, domain.EventTaskFailed, sessionID, payload)
	case !out.Response.Success:
		payload.Error = out.Response.Error
		publishEvent(o.bus, ctx, domain.EventTaskFailed, sessionID, payload)
	default:
		publishEvent(o.bus, ctx, domain.EventTaskCompleted, sessionID, payload)
	}
}

func describeDecision(d domain.RoutingDecision) string {
	return fmt.Sprintf("primary=%s supporting=%v parallel=%t estimate=%s",
		d.PrimaryAgent, d.SupportingAgents, d.IsParallel, d.EstimatedDuration)
}

func describeSynthesis(s synthesis.Synthesis) string {
	if s.Fallback {
		return "fallback"
	}
	return "primary=" + string(s.Primary)
}
