package worker

import (
	"context"
	"log/slog"
	"time"

	"salesdesk/internal/domain"
)

// CampaignStrategy plans multi-touch outreach campaigns.
type CampaignStrategy struct {
	*base
}

// NewCampaignStrategy creates the campaign-strategy worker.
func NewCampaignStrategy(llm domain.CompletionProvider, logger *slog.Logger) *CampaignStrategy {
	return &CampaignStrategy{base: newBase(domain.AgentCampaignStrategy,
		"You are an outbound campaign strategist. Lay out a sequence with timing, "+
			"channel and goal for each step.",
		[]domain.AgentCapability{
			{
				Name:              "sequence-planning",
				Description:       "Design a multi-step outreach sequence",
				Complexity:        []domain.Complexity{domain.ComplexityModerate, domain.ComplexityComplex},
				EstimatedDuration: 12 * time.Second,
			},
			{
				Name:               "audience-segmentation",
				Description:        "Split an audience into segments with tailored messaging",
				Complexity:         []domain.Complexity{domain.ComplexityComplex},
				EstimatedDuration:  10 * time.Second,
				OptionalParameters: []string{"industry", "role"},
			},
		},
		llm, logger)}
}

// ProcessTask implements domain.Worker.
func (w *CampaignStrategy) ProcessTask(ctx context.Context, req *domain.TaskRequest, _ domain.ConversationContext) (*domain.TaskResponse, error) {
	prompt := promptFor(req, "Plan the outreach campaign the user described.")
	return w.respond(ctx, req, prompt, func() string {
		audience := paramOr(req, "role", "your target buyers")
		return "A four-touch sequence for " + audience + ":\n\n" +
			"1. Day 0: connection request with a one-line personal note\n" +
			"2. Day 2: value message sharing a relevant insight\n" +
			"3. Day 7: short case study from a similar company\n" +
			"4. Day 14: soft close asking for a 15-minute call\n\n" +
			"Pause the sequence as soon as someone replies."
	})
}
