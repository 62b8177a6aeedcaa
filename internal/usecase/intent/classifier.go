// Package intent implements the keyword classifier that assigns one of the
// fixed sales-outreach intents to a user message.
package intent

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"salesdesk/internal/domain"
)

const (
	// floorConfidence is the starting best score. A message must beat it
	// strictly to classify as anything but a general question.
	floorConfidence = 0.30
	maxConfidence   = 0.95
)

type rule struct {
	intent     domain.Intent
	complexity domain.Complexity
	keywords   []string
	agents     []domain.AgentTag
}

// taxonomy is evaluated in order; on equal scores the earlier rule wins.
var taxonomy = []rule{
	{
		intent:     domain.IntentLeadGeneration,
		complexity: domain.ComplexityModerate,
		keywords:   []string{"lead", "prospect", "sales navigator", "contacts", "search"},
		agents:     []domain.AgentTag{domain.AgentLeadResearch, domain.AgentKnowledgeBase},
	},
	{
		intent:     domain.IntentContentCreation,
		complexity: domain.ComplexityModerate,
		keywords:   []string{"write", "email", "message", "template", "content"},
		agents:     []domain.AgentTag{domain.AgentContentCreation, domain.AgentKnowledgeBase},
	},
	{
		intent:     domain.IntentCampaignStrategy,
		complexity: domain.ComplexityComplex,
		keywords:   []string{"campaign", "strategy", "sequence", "outreach", "plan"},
		agents:     []domain.AgentTag{domain.AgentCampaignStrategy, domain.AgentContentCreation, domain.AgentKnowledgeBase},
	},
	{
		intent:     domain.IntentPerformanceAnalysis,
		complexity: domain.ComplexityComplex,
		keywords:   []string{"analyze", "performance", "metrics", "response rate", "results"},
		agents:     []domain.AgentTag{domain.AgentAnalytics, domain.AgentCampaignStrategy},
	},
	{
		intent:     domain.IntentWorkflowAutomation,
		complexity: domain.ComplexityExpert,
		keywords:   []string{"automate", "workflow", "trigger", "integration", "schedule"},
		agents:     []domain.AgentTag{domain.AgentWorkflowAutomation, domain.AgentKnowledgeBase},
	},
	{
		intent:     domain.IntentKnowledgeQuery,
		complexity: domain.ComplexitySimple,
		keywords:   []string{"best practice", "how to", "tips", "guide", "learn"},
		agents:     []domain.AgentTag{domain.AgentKnowledgeBase},
	},
	{
		intent:     domain.IntentGeneralQuestion,
		complexity: domain.ComplexitySimple,
		keywords:   []string{"hello", "hi there", "question", "help", "what"},
		agents:     []domain.AgentTag{domain.AgentKnowledgeBase},
	},
}

func ruleFor(i domain.Intent) rule {
	for _, r := range taxonomy {
		if r.intent == i {
			return r
		}
	}
	return taxonomy[len(taxonomy)-1]
}

// Intents returns every intent in evaluation order.
func Intents() []domain.Intent {
	out := make([]domain.Intent, len(taxonomy))
	for i, r := range taxonomy {
		out[i] = r.intent
	}
	return out
}

// SuggestedAgents returns the workers that handle intent, primary first.
func SuggestedAgents(i domain.Intent) []domain.AgentTag {
	return append([]domain.AgentTag(nil), ruleFor(i).agents...)
}

// Classifier scores a message against the keyword taxonomy.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a keyword classifier.
func NewClassifier(logger *slog.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Classify implements domain.Classifier. The conversation is accepted for
// interface compatibility; scoring looks at the message alone.
func (c *Classifier) Classify(ctx context.Context, message string, _ domain.ConversationContext) (domain.IntentClassification, error) {
	if err := ctx.Err(); err != nil {
		return domain.IntentClassification{}, err
	}

	best := ruleFor(domain.IntentGeneralQuestion)
	bestScore := floorConfidence

	lower := strings.ToLower(message)
	for _, r := range taxonomy {
		if s := score(lower, r.keywords); s > bestScore {
			best, bestScore = r, s
		}
	}

	result := domain.IntentClassification{
		Intent:          best.intent,
		Confidence:      bestScore,
		Parameters:      ExtractParameters(message),
		SuggestedAgents: append([]domain.AgentTag(nil), best.agents...),
		Complexity:      best.complexity,
		EstimatedTokens: EstimateTokens(message),
	}

	c.logger.Debug("message classified",
		"intent", result.Intent,
		"confidence", result.Confidence,
		"parameters", len(result.Parameters),
	)
	return result, nil
}

// score is the fraction of keywords present in lower, capped at maxConfidence.
func score(lower string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return min(float64(hits)/float64(len(keywords)), maxConfidence)
}

// EstimateTokens approximates the token count as one token per four characters.
func EstimateTokens(message string) int {
	return (utf8.RuneCountInString(message) + 3) / 4
}

type extractor struct {
	key string
	re  *regexp.Regexp
}

// extractors run in order against the raw message. Each has one capture group.
var extractors = []extractor{
	{"company", regexp.MustCompile(`\b(?:at|from|company)\s+([A-Z][\w&.-]*(?:\s+[A-Z][\w&.-]*)*)`)},
	{"location", regexp.MustCompile(`\b(?:based in|near|in)\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*)`)},
	{"industry", regexp.MustCompile(`(?i)\b(saas|fintech|healthcare|e-?commerce|manufacturing|retail|education|real estate|cybersecurity|logistics)\b`)},
	{"role", regexp.MustCompile(`(?i)\b(ceos?|ctos?|cfos?|cmos?|coos?|founders?|directors?|managers?|(?:vps?|heads?) of [a-z]+)\b`)},
	{"metric", regexp.MustCompile(`(?i)\b(response rate|reply rate|open rate|acceptance rate|conversion rate|click[- ]through rate|meetings booked)\b`)},
}

// ExtractParameters returns the entities found in message. A key is present
// only when its pattern matched; the first match wins.
func ExtractParameters(message string) map[string]string {
	params := make(map[string]string)
	for _, ex := range extractors {
		if _, seen := params[ex.key]; seen {
			continue
		}
		if m := ex.re.FindStringSubmatch(message); len(m) > 1 && m[1] != "" {
			params[ex.key] = strings.TrimSpace(m[1])
		}
	}
	return params
}

var _ domain.Classifier = (*Classifier)(nil)
