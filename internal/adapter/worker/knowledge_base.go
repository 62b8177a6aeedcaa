package worker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"salesdesk/internal/domain"
)

// KnowledgeBase answers best-practice and general questions.
type KnowledgeBase struct {
	*base
}

// NewKnowledgeBase creates the knowledge-base worker.
func NewKnowledgeBase(llm domain.CompletionProvider, logger *slog.Logger) *KnowledgeBase {
	return &KnowledgeBase{base: newBase(domain.AgentKnowledgeBase,
		"You are a sales-outreach coach. Answer with practical, proven advice in a few sentences.",
		[]domain.AgentCapability{
			{
				Name:              "best-practices",
				Description:       "Explain outreach best practices",
				Complexity:        []domain.Complexity{domain.ComplexitySimple, domain.ComplexityModerate},
				EstimatedDuration: 3 * time.Second,
			},
			{
				Name:              "general-help",
				Description:       "Answer general questions about the assistant",
				Complexity:        []domain.Complexity{domain.ComplexitySimple},
				EstimatedDuration: 2 * time.Second,
			},
		},
		llm, logger)}
}

// tips is keyed by the intent the knowledge base is supporting.
var tips = map[domain.Intent]string{
	domain.IntentLeadGeneration:     "Tip: narrow searches by recent activity; active profiles reply far more often.",
	domain.IntentContentCreation:    "Tip: mention something specific to the recipient in the first line.",
	domain.IntentCampaignStrategy:   "Tip: space touches at least two days apart and stop on the first reply.",
	domain.IntentWorkflowAutomation: "Tip: automate the logging, not the conversation.",
}

// ProcessTask implements domain.Worker.
func (w *KnowledgeBase) ProcessTask(ctx context.Context, req *domain.TaskRequest, _ domain.ConversationContext) (*domain.TaskResponse, error) {
	prompt := promptFor(req, "Answer the user's question.")
	return w.respond(ctx, req, prompt, func() string {
		if tip, ok := tips[req.Type]; ok {
			return tip
		}
		var sb strings.Builder
		sb.WriteString("Good outreach is relevant, brief and consistent:\n\n")
		sb.WriteString("- Personalize the first line\n")
		sb.WriteString("- Ask for one small next step\n")
		sb.WriteString("- Follow up two or three times, then move on\n\n")
		sb.WriteString("I can also find leads, draft messages, plan campaigns, review your results or automate follow-ups.")
		return sb.String()
	})
}
