package domain

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sender identifies who produced a message: the user, the orchestrator, or a
// specific worker (its AgentTag).
type Sender string

const (
	SenderUser         Sender = "user"
	SenderOrchestrator Sender = Sender(AgentOrchestrator)
)

// SenderFor returns the sender value for a worker tag.
func SenderFor(tag AgentTag) Sender { return Sender(tag) }

// Message is a single entry in a conversation. Messages are immutable once
// appended to a conversation.
type Message struct {
	ID          string       `json:"id"`
	Content     string       `json:"content"`
	Sender      Sender       `json:"sender"`
	Timestamp   time.Time    `json:"timestamp"`
	Intent      Intent       `json:"intent,omitempty"`
	Confidence  float64      `json:"confidence,omitempty"`
	Suggestions []string     `json:"suggestions,omitempty"`
	Trace       []AgentTrace `json:"trace,omitempty"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(content string, sender Sender) Message {
	now := time.Now()
	return Message{
		ID:        newULID(now),
		Content:   content,
		Sender:    sender,
		Timestamp: now,
	}
}

// AgentTrace is one audit entry of an orchestration step.
type AgentTrace struct {
	AgentTag AgentTag      `json:"agent_tag"`
	Action   string        `json:"action"`
	Input    string        `json:"input,omitempty"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
}

// Trace actions recorded by the orchestrator.
const (
	ActionClassify   = "classify"
	ActionRoute      = "route"
	ActionExecute    = "execute"
	ActionSynthesize = "synthesize"
	ActionError      = "error"
)

// UserProfile is caller-supplied information about the person chatting.
type UserProfile struct {
	Name     string            `json:"name,omitempty"     yaml:"name,omitempty"`
	Company  string            `json:"company,omitempty"  yaml:"company,omitempty"`
	Role     string            `json:"role,omitempty"     yaml:"role,omitempty"`
	Industry string            `json:"industry,omitempty" yaml:"industry,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"    yaml:"extra,omitempty"`
}

// ConversationContext is an immutable snapshot of one session's state, as
// handed to workers and returned to callers.
type ConversationContext struct {
	SessionID      string         `json:"session_id"`
	UserID         string         `json:"user_id"`
	Workspace      string         `json:"workspace,omitempty"`
	Messages       []Message      `json:"messages"`
	UserProfile    *UserProfile   `json:"user_profile,omitempty"`
	ActiveTasks    []*TaskRequest `json:"active_tasks,omitempty"`
	CompletedTasks []TaskResponse `json:"completed_tasks,omitempty"`
	Knowledge      map[string]any `json:"knowledge,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// RecentMessages returns at most the last n messages.
func (c ConversationContext) RecentMessages(n int) []Message {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	start := len(c.Messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(c.Messages)-start)
	copy(out, c.Messages[start:])
	return out
}

// SessionSeed carries caller defaults used when a session is first seen.
type SessionSeed struct {
	UserID      string
	Workspace   string
	UserProfile *UserProfile
	Messages    []Message
}

// NewID returns a new ULID string.
func NewID() string { return newULID(time.Now()) }

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func newULID(t time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), idEntropy).String()
}
