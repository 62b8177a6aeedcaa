package domain

import (
	"context"
	"encoding/json"
	"time"
)

// EventType identifies the kind of event being published.
type EventType string

const (
	EventMessageReceived EventType = "message.received"
	EventMessageSent     EventType = "message.sent"
	EventAgentRouted     EventType = "agent.routed"
	EventAgentError      EventType = "agent.error"
	EventTaskCompleted   EventType = "task.completed"
	EventTaskFailed      EventType = "task.failed"
	EventSessionCreated  EventType = "session.created"
	EventSessionEvicted  EventType = "session.evicted"
)

// Event is the envelope published on the event bus.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	SessionID string          `json:"session_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// EventHandler processes a published event.
type EventHandler func(ctx context.Context, event Event)

// EventBus is a publish/subscribe event bus.
type EventBus interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType EventType, handler EventHandler) (unsubscribe func())
	SubscribeAll(handler EventHandler) (unsubscribe func())
	Close()
}

// NewEvent builds an event with payload marshalled to JSON. A payload that
// cannot be marshalled is dropped; events are advisory.
func NewEvent(eventType EventType, sessionID string, payload any) Event {
	ev := Event{Type: eventType, Timestamp: time.Now(), SessionID: sessionID}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			ev.Payload = data
		}
	}
	return ev
}

// MessageEventPayload accompanies message.received and message.sent.
type MessageEventPayload struct {
	MessageID  string  `json:"message_id"`
	Intent     Intent  `json:"intent,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Fallback   bool    `json:"fallback,omitempty"`
}

// RoutedEventPayload accompanies agent.routed.
type RoutedEventPayload struct {
	Intent     Intent     `json:"intent"`
	Primary    AgentTag   `json:"primary"`
	Supporting []AgentTag `json:"supporting,omitempty"`
	Parallel   bool       `json:"parallel"`
}

// TaskEventPayload accompanies task.completed, task.failed and agent.error.
type TaskEventPayload struct {
	TaskID     string   `json:"task_id,omitempty"`
	Agent      AgentTag `json:"agent"`
	DurationMs int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
}
