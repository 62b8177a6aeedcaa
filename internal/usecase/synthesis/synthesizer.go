// Package synthesis merges worker results into one structured reply.
package synthesis

import (
	"strings"

	"salesdesk/internal/domain"
)

// Synthesis is the structured reply for one message. Rendering it as text,
// markdown or terminal output is left to the caller.
type Synthesis struct {
	Body        string          `json:"body"`
	Suggestions []string        `json:"suggestions"`
	Intent      domain.Intent   `json:"intent"`
	Primary     domain.AgentTag `json:"primary,omitempty"`
	// Fallback is set when no worker succeeded and Body is the static
	// intent fallback.
	Fallback bool `json:"fallback"`
}

var fallbacks = map[domain.Intent]string{
	domain.IntentLeadGeneration:      "I couldn't pull lead results right now. Try narrowing the search by role, industry or location and ask again.",
	domain.IntentContentCreation:     "I couldn't draft that content right now. Tell me who the message is for and what it should achieve, and I'll try again.",
	domain.IntentCampaignStrategy:    "I couldn't put a campaign plan together right now. Share your target audience and goal and I'll try again.",
	domain.IntentPerformanceAnalysis: "I couldn't analyze your campaign performance right now. Make sure campaign data is available and ask again.",
	domain.IntentWorkflowAutomation:  "I couldn't design that workflow right now. Describe the trigger and the steps you want automated and I'll try again.",
	domain.IntentKnowledgeQuery:      "I couldn't find guidance on that right now. Try rephrasing the question or asking about a specific outreach topic.",
	domain.IntentGeneralQuestion:     "I'm here to help with lead research, outreach content, campaign strategy, analytics and automation. What would you like to work on?",
}

const defaultFallback = "I wasn't able to process that request right now. Please try again in a moment."

var prefixes = map[domain.Intent]string{
	domain.IntentLeadGeneration:      "Here's what I found for your lead search:\n\n",
	domain.IntentContentCreation:     "Here's a draft you can adapt:\n\n",
	domain.IntentCampaignStrategy:    "Here's a campaign strategy tailored to your goals:\n\n",
	domain.IntentPerformanceAnalysis: "Here's how your outreach is performing:\n\n",
	domain.IntentWorkflowAutomation:  "Here's a workflow you can automate:\n\n",
}

const knowledgePrefix = "Here's what I know about that:\n\n"

var suggestions = map[domain.Intent][]string{
	domain.IntentLeadGeneration: {
		"Draft a connection request for these leads",
		"Build a campaign targeting this audience",
		"Refine the search by industry or location",
	},
	domain.IntentContentCreation: {
		"Create a follow-up message",
		"Write an A/B variant of this draft",
		"Plan a sequence around this message",
	},
	domain.IntentCampaignStrategy: {
		"Write the first message of the sequence",
		"Set up automation for this campaign",
		"Define success metrics to track",
	},
	domain.IntentPerformanceAnalysis: {
		"Suggest improvements for low-performing steps",
		"Compare against industry benchmarks",
	},
	domain.IntentWorkflowAutomation: {
		"Add a follow-up trigger",
		"Review safe daily sending limits",
	},
	domain.IntentKnowledgeQuery: {
		"Apply this to my current campaign",
		"Show more best practices",
	},
}

var defaultSuggestions = []string{
	"Find leads for my ideal customer profile",
	"Write a personalized outreach message",
	"Plan a multi-step outreach campaign",
}

// Fallback returns the static reply used when no worker succeeded.
func Fallback(intent domain.Intent) string {
	if s, ok := fallbacks[intent]; ok {
		return s
	}
	return defaultFallback
}

// Prefix returns the introductory sentence applied to intent's primary
// result. Intents without a dedicated wrapper use the knowledge wrapper.
func Prefix(intent domain.Intent) string {
	if p, ok := prefixes[intent]; ok {
		return p
	}
	return knowledgePrefix
}

// Suggestions returns the follow-up prompts for intent.
func Suggestions(intent domain.Intent) []string {
	if s, ok := suggestions[intent]; ok {
		return append([]string(nil), s...)
	}
	return append([]string(nil), defaultSuggestions...)
}

// Synthesize builds the reply from the responses of one execution. Only
// successful responses count; the first of them is the primary result.
func Synthesize(message string, intent domain.Intent, responses []domain.TaskResponse) Synthesis {
	out := Synthesis{Intent: intent, Suggestions: Suggestions(intent)}

	var primary *domain.TaskResponse
	for i := range responses {
		if responses[i].Success {
			primary = &responses[i]
			break
		}
	}
	if primary == nil {
		out.Body = Fallback(intent)
		out.Fallback = true
		return out
	}

	out.Primary = primary.AgentTag
	result := primary.Result
	if _, wrapped := prefixes[intent]; !wrapped && strings.TrimSpace(result) == "" {
		result = "You asked: " + message
	}
	out.Body = Prefix(intent) + result
	return out
}
