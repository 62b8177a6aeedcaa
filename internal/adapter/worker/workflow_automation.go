package worker

import (
	"context"
	"log/slog"
	"time"

	"salesdesk/internal/domain"
)

// WorkflowAutomation designs triggers and integrations.
type WorkflowAutomation struct {
	*base
}

// NewWorkflowAutomation creates the workflow-automation worker.
func NewWorkflowAutomation(llm domain.CompletionProvider, logger *slog.Logger) *WorkflowAutomation {
	return &WorkflowAutomation{base: newBase(domain.AgentWorkflowAutomation,
		"You design sales workflow automations. Describe trigger, conditions and actions, "+
			"and call out anything that needs a human check.",
		[]domain.AgentCapability{
			{
				Name:              "trigger-design",
				Description:       "Define triggers and follow-up actions",
				Complexity:        []domain.Complexity{domain.ComplexityComplex, domain.ComplexityExpert},
				EstimatedDuration: 15 * time.Second,
			},
			{
				Name:              "crm-integration",
				Description:       "Sync outreach activity with a CRM",
				Complexity:        []domain.Complexity{domain.ComplexityExpert},
				EstimatedDuration: 20 * time.Second,
			},
		},
		llm, logger)}
}

// ProcessTask implements domain.Worker.
func (w *WorkflowAutomation) ProcessTask(ctx context.Context, req *domain.TaskRequest, _ domain.ConversationContext) (*domain.TaskResponse, error) {
	prompt := promptFor(req, "Design the automation the user is asking for.")
	return w.respond(ctx, req, prompt, func() string {
		return "Trigger: a prospect accepts your connection request.\n" +
			"Condition: no reply within 3 days.\n" +
			"Action: send the first follow-up and log the touch in your CRM.\n\n" +
			"Keep a daily send cap and review replies by hand before any automated step."
	})
}
