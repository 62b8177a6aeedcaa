package domain

import (
	"context"
	"time"
)

// Intent is the coarse category assigned to a user message.
type Intent string

const (
	IntentLeadGeneration      Intent = "lead-generation"
	IntentContentCreation     Intent = "content-creation"
	IntentCampaignStrategy    Intent = "campaign-strategy"
	IntentPerformanceAnalysis Intent = "performance-analysis"
	IntentWorkflowAutomation  Intent = "workflow-automation"
	IntentKnowledgeQuery      Intent = "knowledge-query"
	IntentGeneralQuestion     Intent = "general-question"
)

// Complexity is the pre-declared difficulty of an intent.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityExpert   Complexity = "expert"
)

// Priority orders task requests.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// PriorityFor maps a complexity to a task priority.
func PriorityFor(c Complexity) Priority {
	switch c {
	case ComplexityComplex, ComplexityExpert:
		return PriorityHigh
	case ComplexityModerate:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// IntentClassification is the classifier's verdict on one message.
type IntentClassification struct {
	Intent          Intent            `json:"intent"`
	Confidence      float64           `json:"confidence"`
	Parameters      map[string]string `json:"parameters"`
	SuggestedAgents []AgentTag        `json:"suggested_agents"`
	Complexity      Complexity        `json:"complexity"`
	EstimatedTokens int               `json:"estimated_tokens"`
}

// Classifier maps a message and its conversation to an intent.
type Classifier interface {
	Classify(ctx context.Context, message string, conv ConversationContext) (IntentClassification, error)
}

// RoutingDecision is the concrete dispatch plan for one message.
type RoutingDecision struct {
	PrimaryAgent         AgentTag      `json:"primary_agent"`
	SupportingAgents     []AgentTag    `json:"supporting_agents"`
	IsParallel           bool          `json:"is_parallel"`
	EstimatedDuration    time.Duration `json:"estimated_duration"`
	RequiredCapabilities []string      `json:"required_capabilities"`
}

// TaskContext is the slim conversation snapshot carried by a TaskRequest.
type TaskContext struct {
	SessionID      string       `json:"session_id"`
	UserProfile    *UserProfile `json:"user_profile,omitempty"`
	RecentMessages []Message    `json:"recent_messages"`
}

// TaskRequest is created once per incoming message and shared by every
// worker that handles it. It is never mutated after creation.
type TaskRequest struct {
	ID          string            `json:"id"`
	Type        Intent            `json:"type"`
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters"`
	Complexity  Complexity        `json:"complexity"`
	Priority    Priority          `json:"priority"`
	Context     TaskContext       `json:"context"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Param returns a request parameter or "" when absent.
func (r *TaskRequest) Param(key string) string {
	if r == nil || r.Parameters == nil {
		return ""
	}
	return r.Parameters[key]
}

// TaskResponse is the outcome of exactly one worker invocation.
type TaskResponse struct {
	TaskID     string         `json:"task_id"`
	AgentTag   AgentTag       `json:"agent_tag"`
	Result     string         `json:"result"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	Confidence float64        `json:"confidence"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
