package multiagent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"salesdesk/internal/domain"
)

func TestRouteComplexWithSupportIsParallel(t *testing.T) {
	d := Route(domain.IntentClassification{
		Intent:          domain.IntentPerformanceAnalysis,
		Complexity:      domain.ComplexityComplex,
		SuggestedAgents: []domain.AgentTag{domain.AgentAnalytics, domain.AgentCampaignStrategy},
	})

	assert.Equal(t, domain.AgentAnalytics, d.PrimaryAgent)
	assert.Equal(t, []domain.AgentTag{domain.AgentCampaignStrategy}, d.SupportingAgents)
	assert.True(t, d.IsParallel)
	assert.Equal(t, 15*time.Second, d.EstimatedDuration)
	assert.Equal(t, []string{"performance-analysis"}, d.RequiredCapabilities)
}

func TestRouteSingleAgentIsNeverParallel(t *testing.T) {
	for _, c := range []domain.Complexity{
		domain.ComplexitySimple, domain.ComplexityModerate, domain.ComplexityComplex, domain.ComplexityExpert,
	} {
		d := Route(domain.IntentClassification{
			Complexity:      c,
			SuggestedAgents: []domain.AgentTag{domain.AgentKnowledgeBase},
		})
		assert.False(t, d.IsParallel, c)
		assert.Empty(t, d.SupportingAgents, c)
	}
}

func TestRouteSimpleWithSupportIsSequential(t *testing.T) {
	d := Route(domain.IntentClassification{
		Complexity:      domain.ComplexitySimple,
		SuggestedAgents: []domain.AgentTag{domain.AgentKnowledgeBase, domain.AgentLeadResearch},
	})
	assert.False(t, d.IsParallel)
	assert.Len(t, d.SupportingAgents, 1)
}

func TestRouteDoesNotAliasSuggestions(t *testing.T) {
	suggested := []domain.AgentTag{domain.AgentCampaignStrategy, domain.AgentContentCreation, domain.AgentKnowledgeBase}
	d := Route(domain.IntentClassification{Complexity: domain.ComplexityComplex, SuggestedAgents: suggested})

	d.SupportingAgents[0] = domain.AgentAnalytics
	assert.Equal(t, domain.AgentContentCreation, suggested[1])
}

func TestRouteNoSuggestions(t *testing.T) {
	d := Route(domain.IntentClassification{Complexity: domain.ComplexityExpert})
	assert.Equal(t, domain.AgentTag(""), d.PrimaryAgent)
	assert.False(t, d.IsParallel)
	assert.Equal(t, 25*time.Second, d.EstimatedDuration)
}

func TestEstimatedDuration(t *testing.T) {
	tests := []struct {
		c    domain.Complexity
		want time.Duration
	}{
		{domain.ComplexitySimple, 3 * time.Second},
		{domain.ComplexityModerate, 8 * time.Second},
		{domain.ComplexityComplex, 15 * time.Second},
		{domain.ComplexityExpert, 25 * time.Second},
		{domain.Complexity("unknown"), 3 * time.Second},
	}
	for _, tt := range tests {
		if got := EstimatedDuration(tt.c); got != tt.want {
			t.Errorf("EstimatedDuration(%q) = %v, want %v", tt.c, got, tt.want)
		}
	}
}
