// Package chat implements the interactive Bubble Tea chat view for salesdesk.
package chat

import "salesdesk/internal/domain"

// Exchange is the outcome of one message: the orchestrator's reply and the
// trace that produced it.
type Exchange struct {
	Reply domain.Message
	Trace []domain.AgentTrace
}

// ReplyMsg delivers a finished exchange. Gen identifies the request
// generation so replies to cancelled requests can be discarded.
type ReplyMsg struct {
	Exchange Exchange
	Gen      uint64
}

// HealthMsg delivers a health report and the registered agents.
type HealthMsg struct {
	Report map[string]bool
	Agents []domain.AgentStatus
}

// ActivityMsg reports what the agents are doing for the in-flight request.
type ActivityMsg struct {
	Text string
}

// QuitMsg signals the program to exit.
type QuitMsg struct{}
