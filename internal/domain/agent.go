package domain

import (
	"context"
	"time"
)

// AgentTag identifies a specialist worker. The set is closed.
type AgentTag string

const (
	AgentLeadResearch       AgentTag = "lead-research"
	AgentContentCreation    AgentTag = "content-creation"
	AgentCampaignStrategy   AgentTag = "campaign-strategy"
	AgentAnalytics          AgentTag = "analytics"
	AgentWorkflowAutomation AgentTag = "workflow-automation"
	AgentKnowledgeBase      AgentTag = "knowledge-base"

	// AgentOrchestrator tags trace entries and messages produced by the
	// orchestrator itself. It is never a registered worker.
	AgentOrchestrator AgentTag = "orchestrator"
)

// WorkerTags returns every worker tag in construction order.
func WorkerTags() []AgentTag {
	return []AgentTag{
		AgentLeadResearch,
		AgentContentCreation,
		AgentCampaignStrategy,
		AgentAnalytics,
		AgentWorkflowAutomation,
		AgentKnowledgeBase,
	}
}

// IsWorker reports whether t names one of the specialist workers.
func (t AgentTag) IsWorker() bool {
	switch t {
	case AgentLeadResearch, AgentContentCreation, AgentCampaignStrategy,
		AgentAnalytics, AgentWorkflowAutomation, AgentKnowledgeBase:
		return true
	}
	return false
}

func (t AgentTag) String() string { return string(t) }

// AgentCapability is a static declaration of what a worker can do.
type AgentCapability struct {
	Name               string        `json:"name"                          yaml:"name"`
	Description        string        `json:"description"                   yaml:"description"`
	Complexity         []Complexity  `json:"complexity"                    yaml:"complexity"`
	EstimatedDuration  time.Duration `json:"estimated_duration"            yaml:"estimated_duration"`
	RequiredParameters []string      `json:"required_parameters,omitempty" yaml:"required_parameters,omitempty"`
	OptionalParameters []string      `json:"optional_parameters,omitempty" yaml:"optional_parameters,omitempty"`
}

// Worker is the contract every specialist satisfies.
//
// ProcessTask receives the request shared by every worker handling the same
// message; implementations must not mutate it. A returned error, a panic, or
// a missed ctx deadline are all treated as a failed task by the caller.
type Worker interface {
	Tag() AgentTag
	Initialize(ctx context.Context) error
	ProcessTask(ctx context.Context, req *TaskRequest, conv ConversationContext) (*TaskResponse, error)
	Capabilities() []AgentCapability
	HealthCheck(ctx context.Context) (bool, error)
	Shutdown(ctx context.Context) error
}

// AgentStatus is a read-only snapshot of a registered worker.
type AgentStatus struct {
	Tag          AgentTag `json:"tag"`
	Healthy      bool     `json:"healthy"`
	Capabilities []string `json:"capabilities"`
}
