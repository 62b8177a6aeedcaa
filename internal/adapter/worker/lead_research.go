package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"salesdesk/internal/domain"
)

// LeadResearch finds and qualifies prospects.
type LeadResearch struct {
	*base
}

// NewLeadResearch creates the lead-research worker.
func NewLeadResearch(llm domain.CompletionProvider, logger *slog.Logger) *LeadResearch {
	return &LeadResearch{base: newBase(domain.AgentLeadResearch,
		"You are a B2B lead researcher. Propose concrete search filters, ideal customer "+
			"profile criteria and qualification questions. Be brief and use bullet points.",
		[]domain.AgentCapability{
			{
				Name:               "prospect-search",
				Description:        "Build a prospect search from role, industry, company and location",
				Complexity:         []domain.Complexity{domain.ComplexitySimple, domain.ComplexityModerate},
				EstimatedDuration:  5 * time.Second,
				OptionalParameters: []string{"role", "industry", "company", "location"},
			},
			{
				Name:              "lead-qualification",
				Description:       "Score and qualify a list of leads",
				Complexity:        []domain.Complexity{domain.ComplexityModerate, domain.ComplexityComplex},
				EstimatedDuration: 10 * time.Second,
			},
		},
		llm, logger)}
}

// ProcessTask implements domain.Worker.
func (w *LeadResearch) ProcessTask(ctx context.Context, req *domain.TaskRequest, _ domain.ConversationContext) (*domain.TaskResponse, error) {
	prompt := promptFor(req, "Suggest how to find and qualify leads for this request.")
	return w.respond(ctx, req, prompt, func() string {
		role := paramOr(req, "role", "decision makers")
		industry := paramOr(req, "industry", "your target industry")
		location := paramOr(req, "location", "your core markets")
		out := fmt.Sprintf("Start with a saved search for %s in %s, limited to %s.\n\n", role, industry, location)
		if company := req.Param("company"); company != "" {
			out += fmt.Sprintf("- Map the buying committee at %s before reaching out\n", company)
		}
		out += "- Filter for activity in the last 30 days\n" +
			"- Prioritize shared connections and groups\n" +
			"- Qualify on budget, authority, need and timing before the first call"
		return out
	})
}
