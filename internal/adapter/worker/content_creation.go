package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"salesdesk/internal/domain"
)

// ContentCreation drafts outreach messages.
type ContentCreation struct {
	*base
}

// NewContentCreation creates the content-creation worker.
func NewContentCreation(llm domain.CompletionProvider, logger *slog.Logger) *ContentCreation {
	return &ContentCreation{base: newBase(domain.AgentContentCreation,
		"You write short, personal B2B outreach messages. Under 120 words, one clear "+
			"call to action, no buzzwords.",
		[]domain.AgentCapability{
			{
				Name:               "message-drafting",
				Description:        "Draft connection requests, emails and follow-ups",
				Complexity:         []domain.Complexity{domain.ComplexitySimple, domain.ComplexityModerate},
				EstimatedDuration:  6 * time.Second,
				OptionalParameters: []string{"role", "company", "industry"},
			},
			{
				Name:              "template-library",
				Description:       "Adapt reusable outreach templates",
				Complexity:        []domain.Complexity{domain.ComplexitySimple},
				EstimatedDuration: 3 * time.Second,
			},
		},
		llm, logger)}
}

// ProcessTask implements domain.Worker.
func (w *ContentCreation) ProcessTask(ctx context.Context, req *domain.TaskRequest, conv domain.ConversationContext) (*domain.TaskResponse, error) {
	prompt := promptFor(req, "Write the outreach message the user asked for.")
	return w.respond(ctx, req, prompt, func() string {
		greeting := "Hi {first_name},"
		role := paramOr(req, "role", "leaders")
		industry := paramOr(req, "industry", "your space")
		sender := "{your_name}"
		if p := conv.UserProfile; p != nil && p.Name != "" {
			sender = p.Name
		}
		return fmt.Sprintf("%s\n\nI've been talking with %s in %s about how they book more meetings "+
			"without adding headcount. A few of them cut prospecting time in half.\n\n"+
			"Worth a 15-minute call next week to compare notes?\n\nBest,\n%s", greeting, role, industry, sender)
	})
}
