package multiagent

import (
	"time"

	"salesdesk/internal/domain"
)

// estimatedDurations is the static complexity to duration table.
var estimatedDurations = map[domain.Complexity]time.Duration{
	domain.ComplexitySimple:   3 * time.Second,
	domain.ComplexityModerate: 8 * time.Second,
	domain.ComplexityComplex:  15 * time.Second,
	domain.ComplexityExpert:   25 * time.Second,
}

// EstimatedDuration returns the expected handling time for complexity c.
// Unknown complexities are treated as simple.
func EstimatedDuration(c domain.Complexity) time.Duration {
	if d, ok := estimatedDurations[c]; ok {
		return d
	}
	return estimatedDurations[domain.ComplexitySimple]
}

// Route turns a classification into a dispatch plan. The first suggested
// agent is primary and the rest support it; supporting agents run
// concurrently unless the intent is simple.
func Route(c domain.IntentClassification) domain.RoutingDecision {
	var primary domain.AgentTag
	var supporting []domain.AgentTag
	if len(c.SuggestedAgents) > 0 {
		primary = c.SuggestedAgents[0]
		supporting = append([]domain.AgentTag{}, c.SuggestedAgents[1:]...)
	}
	return domain.RoutingDecision{
		PrimaryAgent:         primary,
		SupportingAgents:     supporting,
		IsParallel:           c.Complexity != domain.ComplexitySimple && len(supporting) > 0,
		EstimatedDuration:    EstimatedDuration(c.Complexity),
		RequiredCapabilities: []string{string(c.Intent)},
	}
}
