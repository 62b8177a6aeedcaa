// Package worker implements the six sales-outreach specialists. Each one
// prompts the completion provider and falls back to a built-in template when
// the provider answers with a canned response or fails.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"salesdesk/internal/domain"
)

// Confidence reported for model output and for template output.
const (
	modelConfidence    = 0.85
	templateConfidence = 0.6
)

// Response metadata keys.
const (
	MetaSource = "source" // "model" or "template"
	MetaModel  = "model"
)

// base carries the lifecycle and prompting shared by every worker.
type base struct {
	tag          domain.AgentTag
	system       string
	capabilities []domain.AgentCapability
	llm          domain.CompletionProvider
	logger       *slog.Logger
	ready        atomic.Bool
}

func newBase(tag domain.AgentTag, system string, caps []domain.AgentCapability, llm domain.CompletionProvider, logger *slog.Logger) *base {
	return &base{
		tag:          tag,
		system:       system,
		capabilities: caps,
		llm:          llm,
		logger:       logger.With("agent", string(tag)),
	}
}

func (b *base) Tag() domain.AgentTag { return b.tag }

func (b *base) Capabilities() []domain.AgentCapability {
	return slices.Clone(b.capabilities)
}

func (b *base) Initialize(context.Context) error {
	if b.llm == nil {
		return fmt.Errorf("%s: no completion provider", b.tag)
	}
	b.ready.Store(true)
	b.logger.Debug("worker initialized", "provider", b.llm.Name())
	return nil
}

func (b *base) HealthCheck(context.Context) (bool, error) {
	return b.ready.Load(), nil
}

func (b *base) Shutdown(context.Context) error {
	b.ready.Store(false)
	return nil
}

// respond asks the provider to answer prompt given the recent conversation.
// A canned reply or a provider failure yields template() instead; only a
// done ctx is returned as an error.
func (b *base) respond(ctx context.Context, req *domain.TaskRequest, prompt string, template func() string) (*domain.TaskResponse, error) {
	if !b.ready.Load() {
		return nil, domain.WrapOp(string(b.tag), domain.ErrNotInitialized)
	}

	start := time.Now()
	resp, err := b.llm.Complete(ctx, domain.CompletionRequest{Messages: b.messages(req, prompt)})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.Warn("completion failed, using template", "code", domain.ErrorCodeOf(err), "error", err)
	}

	out := &domain.TaskResponse{
		TaskID:   req.ID,
		AgentTag: b.tag,
		Success:  true,
		Metadata: map[string]any{},
	}
	if err == nil && !resp.Canned && resp.Content != "" {
		out.Result = resp.Content
		out.Confidence = modelConfidence
		out.Metadata[MetaSource] = "model"
		out.Metadata[MetaModel] = resp.Model
	} else {
		out.Result = template()
		out.Confidence = templateConfidence
		out.Metadata[MetaSource] = "template"
	}

	b.logger.Debug("task processed",
		"task", req.ID,
		"source", out.Metadata[MetaSource],
		"duration", time.Since(start),
	)
	return out, nil
}

// messages builds the completion transcript: the worker's instructions, the
// recent conversation, then the task prompt.
func (b *base) messages(req *domain.TaskRequest, prompt string) []domain.CompletionMessage {
	system := b.system
	if p := req.Context.UserProfile; p != nil {
		if d := describeProfile(p); d != "" {
			system += "\n\n" + d
		}
	}

	msgs := []domain.CompletionMessage{{Role: domain.RoleSystem, Content: system}}
	for _, m := range req.Context.RecentMessages {
		role := domain.RoleAssistant
		if m.Sender == domain.SenderUser {
			role = domain.RoleUser
		}
		msgs = append(msgs, domain.CompletionMessage{Role: role, Content: m.Content})
	}
	return append(msgs, domain.CompletionMessage{Role: domain.RoleUser, Content: prompt})
}

func describeProfile(p *domain.UserProfile) string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, "name: "+p.Name)
	}
	if p.Role != "" {
		parts = append(parts, "role: "+p.Role)
	}
	if p.Company != "" {
		parts = append(parts, "company: "+p.Company)
	}
	if p.Industry != "" {
		parts = append(parts, "industry: "+p.Industry)
	}
	if len(parts) == 0 {
		return ""
	}
	return "The user you are helping (" + strings.Join(parts, ", ") + ")."
}

// paramOr returns req's parameter key, or def when it is absent.
func paramOr(req *domain.TaskRequest, key, def string) string {
	if v := req.Param(key); v != "" {
		return v
	}
	return def
}

// promptFor appends the extracted parameters to the user's request.
func promptFor(req *domain.TaskRequest, task string) string {
	var sb strings.Builder
	sb.WriteString(task)
	sb.WriteString("\n\nUser request: ")
	sb.WriteString(req.Description)
	if len(req.Parameters) > 0 {
		keys := make([]string, 0, len(req.Parameters))
		for k := range req.Parameters {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		sb.WriteString("\nKnown details:")
		for _, k := range keys {
			fmt.Fprintf(&sb, "\n- %s: %s", k, req.Parameters[k])
		}
	}
	return sb.String()
}

// New builds the worker for tag.
func New(tag domain.AgentTag, llm domain.CompletionProvider, logger *slog.Logger) (domain.Worker, error) {
	switch tag {
	case domain.AgentLeadResearch:
		return NewLeadResearch(llm, logger), nil
	case domain.AgentContentCreation:
		return NewContentCreation(llm, logger), nil
	case domain.AgentCampaignStrategy:
		return NewCampaignStrategy(llm, logger), nil
	case domain.AgentAnalytics:
		return NewAnalytics(llm, logger), nil
	case domain.AgentWorkflowAutomation:
		return NewWorkflowAutomation(llm, logger), nil
	case domain.AgentKnowledgeBase:
		return NewKnowledgeBase(llm, logger), nil
	default:
		return nil, domain.NewSubSystemError("agent", "worker.New", domain.ErrNotFound, string(tag))
	}
}

var (
	_ domain.Worker = (*LeadResearch)(nil)
	_ domain.Worker = (*ContentCreation)(nil)
	_ domain.Worker = (*CampaignStrategy)(nil)
	_ domain.Worker = (*Analytics)(nil)
	_ domain.Worker = (*WorkflowAutomation)(nil)
	_ domain.Worker = (*KnowledgeBase)(nil)
)
