package usecase

import (
	"context"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"salesdesk/internal/domain"
	"salesdesk/internal/infra/config"
)

// Conversation is the live, orchestrator-owned state of one session.
// Workers and callers only ever see Snapshot copies.
type Conversation struct {
	mu        sync.RWMutex
	sessionID string
	userID    string
	workspace string
	profile   *domain.UserProfile
	msgs      []domain.Message
	active    []*domain.TaskRequest
	completed []domain.TaskResponse
	knowledge map[string]any
	createdAt time.Time
	updatedAt time.Time
}

func newConversation(sessionID string, seed domain.SessionSeed) *Conversation {
	now := time.Now()
	return &Conversation{
		sessionID: sessionID,
		userID:    seed.UserID,
		workspace: seed.Workspace,
		profile:   seed.UserProfile,
		msgs:      append([]domain.Message(nil), seed.Messages...),
		knowledge: make(map[string]any),
		createdAt: now,
		updatedAt: now,
	}
}

// SessionID returns the session this conversation belongs to.
func (c *Conversation) SessionID() string { return c.sessionID }

// Len returns the number of messages in the history.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.msgs)
}

// Snapshot returns an immutable copy of the conversation.
func (c *Conversation) Snapshot() domain.ConversationContext {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var profile *domain.UserProfile
	if c.profile != nil {
		p := *c.profile
		p.Extra = maps.Clone(c.profile.Extra)
		profile = &p
	}
	return domain.ConversationContext{
		SessionID:      c.sessionID,
		UserID:         c.userID,
		Workspace:      c.workspace,
		Messages:       append([]domain.Message(nil), c.msgs...),
		UserProfile:    profile,
		ActiveTasks:    append([]*domain.TaskRequest(nil), c.active...),
		CompletedTasks: append([]domain.TaskResponse(nil), c.completed...),
		Knowledge:      maps.Clone(c.knowledge),
		CreatedAt:      c.createdAt,
		UpdatedAt:      c.updatedAt,
	}
}

// BeginTask records req as in flight.
func (c *Conversation) BeginTask(req *domain.TaskRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = append(c.active, req)
	c.updatedAt = time.Now()
}

// CompleteTask removes the in-flight request taskID and records the
// responses it produced.
func (c *Conversation) CompleteTask(taskID string, responses []domain.TaskResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, req := range c.active {
		if req.ID == taskID {
			c.active = append(c.active[:i:i], c.active[i+1:]...)
			break
		}
	}
	c.completed = append(c.completed, responses...)
	c.updatedAt = time.Now()
}

// Remember stores a value in the conversation's knowledge map.
func (c *Conversation) Remember(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.knowledge[key] = value
	c.updatedAt = time.Now()
}

func (c *Conversation) append(msgs []domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for _, m := range msgs {
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		c.msgs = append(c.msgs, m)
	}
	c.updatedAt = now
}

// ConversationStore holds one Conversation per session, bounded by a
// maximum session count and an idle TTL.
type ConversationStore struct {
	mu     sync.Mutex // serializes GetOrCreate
	cache  *expirable.LRU[string, *Conversation]
	bus    domain.EventBus
	logger *slog.Logger
}

// NewConversationStore creates a store. bus may be nil.
func NewConversationStore(cfg config.SessionsConfig, bus domain.EventBus, logger *slog.Logger) *ConversationStore {
	size := cfg.MaxSessions
	if size <= 0 {
		size = 1000
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &ConversationStore{bus: bus, logger: logger}
	s.cache = expirable.NewLRU[string, *Conversation](size, s.onEvict, ttl)
	return s
}

// onEvict runs under the cache lock and must not call back into the cache.
func (s *ConversationStore) onEvict(sessionID string, conv *Conversation) {
	s.logger.Debug("session evicted", "session", sessionID, "messages", conv.Len())
	publishEvent(s.bus, context.Background(), domain.EventSessionEvicted, sessionID, nil)
}

// GetOrCreate returns the conversation for sessionID, creating it from seed
// when the session is new or has been evicted.
func (s *ConversationStore) GetOrCreate(sessionID string, seed domain.SessionSeed) (*Conversation, error) {
	if sessionID == "" {
		return nil, domain.NewSubSystemError("session", "ConversationStore.GetOrCreate", domain.ErrInvalidInput, "empty session id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.cache.Get(sessionID); ok {
		return conv, nil
	}
	conv := newConversation(sessionID, seed)
	s.cache.Add(sessionID, conv)
	s.logger.Debug("session created", "session", sessionID, "seeded_messages", len(seed.Messages))
	publishEvent(s.bus, context.Background(), domain.EventSessionCreated, sessionID, nil)
	return conv, nil
}

// Get returns the conversation for sessionID if present.
func (s *ConversationStore) Get(sessionID string) (*Conversation, error) {
	conv, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, domain.NewSubSystemError("session", "ConversationStore.Get", domain.ErrNotFound, sessionID)
	}
	return conv, nil
}

// Append adds msgs to the end of conv's history, in order, and marks the
// session as recently used.
func (s *ConversationStore) Append(conv *Conversation, msgs ...domain.Message) {
	if conv == nil || len(msgs) == 0 {
		return
	}
	conv.append(msgs)
	s.cache.Add(conv.sessionID, conv)
}

// Len returns the number of live sessions.
func (s *ConversationStore) Len() int { return s.cache.Len() }

// Remove drops a session.
func (s *ConversationStore) Remove(sessionID string) bool { return s.cache.Remove(sessionID) }

// Clear drops every session.
func (s *ConversationStore) Clear() { s.cache.Purge() }

func publishEvent(bus domain.EventBus, ctx context.Context, eventType domain.EventType, sessionID string, payload any) {
	if bus == nil {
		return
	}
	bus.Publish(ctx, domain.NewEvent(eventType, sessionID, payload))
}
