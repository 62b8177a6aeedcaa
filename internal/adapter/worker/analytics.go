package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"salesdesk/internal/domain"
)

// Analytics interprets outreach performance.
type Analytics struct {
	*base
}

// NewAnalytics creates the analytics worker.
func NewAnalytics(llm domain.CompletionProvider, logger *slog.Logger) *Analytics {
	return &Analytics{base: newBase(domain.AgentAnalytics,
		"You analyze outreach performance. Compare against typical benchmarks and name "+
			"the single change most likely to help.",
		[]domain.AgentCapability{
			{
				Name:               "performance-review",
				Description:        "Interpret acceptance, reply and meeting rates",
				Complexity:         []domain.Complexity{domain.ComplexityModerate, domain.ComplexityComplex},
				EstimatedDuration:  8 * time.Second,
				OptionalParameters: []string{"metric"},
			},
		},
		llm, logger)}
}

// ProcessTask implements domain.Worker.
func (w *Analytics) ProcessTask(ctx context.Context, req *domain.TaskRequest, _ domain.ConversationContext) (*domain.TaskResponse, error) {
	prompt := promptFor(req, "Analyze the performance question.")
	return w.respond(ctx, req, prompt, func() string {
		metric := paramOr(req, "metric", "reply rate")
		return fmt.Sprintf("Typical benchmarks: 30-45%% connection acceptance, 10-20%% reply rate, "+
			"2-5%% meetings booked.\n\nIf your %s is below range, test one variable at a time: "+
			"the first line of the message, then the audience filter, then send timing.", metric)
	})
}
