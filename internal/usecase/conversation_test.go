package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/domain"
	"salesdesk/internal/infra/config"
	"salesdesk/internal/infra/logger"
	"salesdesk/internal/usecase/eventbus"
)

func newTestStore(max int, ttl time.Duration) *ConversationStore {
	return NewConversationStore(config.SessionsConfig{MaxSessions: max, IdleTTL: ttl}, nil, logger.Discard())
}

func TestConversationStoreGetOrCreateSeeds(t *testing.T) {
	store := newTestStore(10, time.Hour)
	seed := domain.SessionSeed{
		UserID:      "u1",
		Workspace:   "acme",
		UserProfile: &domain.UserProfile{Name: "Dana", Extra: map[string]string{"tz": "UTC"}},
		Messages:    []domain.Message{domain.NewMessage("earlier", domain.SenderUser)},
	}

	conv, err := store.GetOrCreate("s1", seed)
	require.NoError(t, err)
	snap := conv.Snapshot()
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, "u1", snap.UserID)
	assert.Equal(t, "acme", snap.Workspace)
	assert.Equal(t, "Dana", snap.UserProfile.Name)
	require.Len(t, snap.Messages, 1)

	// A second call returns the same conversation and ignores the new seed.
	again, err := store.GetOrCreate("s1", domain.SessionSeed{UserID: "other"})
	require.NoError(t, err)
	assert.Same(t, conv, again)
	assert.Equal(t, "u1", again.Snapshot().UserID)
}

func TestConversationStoreRejectsEmptySession(t *testing.T) {
	store := newTestStore(10, time.Hour)
	_, err := store.GetOrCreate("", domain.SessionSeed{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, domain.CodeSessionInvalid, domain.ErrorCodeOf(err))
}

func TestConversationAppendIsOrdered(t *testing.T) {
	store := newTestStore(10, time.Hour)
	conv, err := store.GetOrCreate("s1", domain.SessionSeed{})
	require.NoError(t, err)

	store.Append(conv, domain.NewMessage("a", domain.SenderUser), domain.NewMessage("b", domain.SenderOrchestrator))
	store.Append(conv, domain.Message{Content: "c", Sender: domain.SenderUser})
	store.Append(conv)

	snap := conv.Snapshot()
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{snap.Messages[0].Content, snap.Messages[1].Content, snap.Messages[2].Content})
	assert.False(t, snap.Messages[2].Timestamp.IsZero(), "missing timestamps are filled")
}

func TestConversationSnapshotIsACopy(t *testing.T) {
	store := newTestStore(10, time.Hour)
	conv, _ := store.GetOrCreate("s1", domain.SessionSeed{UserProfile: &domain.UserProfile{Name: "Dana"}})
	store.Append(conv, domain.NewMessage("a", domain.SenderUser))
	conv.Remember("icp", "fintech CTOs")

	snap := conv.Snapshot()
	snap.Messages[0].Content = "mutated"
	snap.UserProfile.Name = "Eve"
	snap.Knowledge["icp"] = "changed"

	fresh := conv.Snapshot()
	assert.Equal(t, "a", fresh.Messages[0].Content)
	assert.Equal(t, "Dana", fresh.UserProfile.Name)
	assert.Equal(t, "fintech CTOs", fresh.Knowledge["icp"])
}

func TestConversationTaskLedger(t *testing.T) {
	store := newTestStore(10, time.Hour)
	conv, _ := store.GetOrCreate("s1", domain.SessionSeed{})

	req := &domain.TaskRequest{ID: "t1"}
	other := &domain.TaskRequest{ID: "t2"}
	conv.BeginTask(req)
	conv.BeginTask(other)
	assert.Len(t, conv.Snapshot().ActiveTasks, 2)

	conv.CompleteTask("t1", []domain.TaskResponse{{TaskID: "t1", Success: true}})
	snap := conv.Snapshot()
	require.Len(t, snap.ActiveTasks, 1)
	assert.Equal(t, "t2", snap.ActiveTasks[0].ID)
	assert.Len(t, snap.CompletedTasks, 1)
}

func TestConversationStoreEvictsLeastRecentlyUsed(t *testing.T) {
	bus := eventbus.New(logger.Discard(), eventbus.WithSynchronousDelivery())
	var mu sync.Mutex
	var evicted []string
	bus.Subscribe(domain.EventSessionEvicted, func(_ context.Context, e domain.Event) {
		mu.Lock()
		evicted = append(evicted, e.SessionID)
		mu.Unlock()
	})
	store := NewConversationStore(config.SessionsConfig{MaxSessions: 2, IdleTTL: time.Hour}, bus, logger.Discard())

	a, _ := store.GetOrCreate("a", domain.SessionSeed{})
	_, _ = store.GetOrCreate("b", domain.SessionSeed{})
	store.Append(a, domain.NewMessage("keep me warm", domain.SenderUser))
	_, _ = store.GetOrCreate("c", domain.SessionSeed{})

	assert.Equal(t, 2, store.Len())
	_, err := store.Get("b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.Get("a")
	assert.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"b"}, evicted)
}

func TestConversationStoreExpiresIdleSessions(t *testing.T) {
	store := newTestStore(10, 50*time.Millisecond)
	_, err := store.GetOrCreate("s1", domain.SessionSeed{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := store.Get("s1")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	conv, err := store.GetOrCreate("s1", domain.SessionSeed{UserID: "fresh"})
	require.NoError(t, err)
	assert.Equal(t, "fresh", conv.Snapshot().UserID)
}

func TestConversationStoreRemoveAndClear(t *testing.T) {
	store := newTestStore(10, time.Hour)
	_, _ = store.GetOrCreate("a", domain.SessionSeed{})
	_, _ = store.GetOrCreate("b", domain.SessionSeed{})

	assert.True(t, store.Remove("a"))
	assert.False(t, store.Remove("a"))
	store.Clear()
	assert.Equal(t, 0, store.Len())
}
