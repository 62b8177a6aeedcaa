package usecase

import (
	"context"
	"fmt"
	"sync"
)

// SessionLocker serializes message processing per session while leaving
// different sessions free to run in parallel.
type SessionLocker struct {
	mu    sync.Mutex
	slots map[string]*sessionSlot
}

// sessionSlot is a one-token semaphore. refs counts holders and waiters so
// the slot can be dropped once nobody needs it.
type sessionSlot struct {
	token chan struct{}
	refs  int
}

// NewSessionLocker creates a new session locker.
func NewSessionLocker() *SessionLocker {
	return &SessionLocker{slots: make(map[string]*sessionSlot)}
}

// Lock blocks until the session is free or ctx is done. The returned unlock
// function must be called exactly once; extra calls are ignored.
func (sl *SessionLocker) Lock(ctx context.Context, sessionID string) (unlock func(), err error) {
	slot := sl.acquireSlot(sessionID)

	select {
	case slot.token <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.token
				sl.releaseSlot(sessionID, slot)
			})
		}, nil
	case <-ctx.Done():
		sl.releaseSlot(sessionID, slot)
		return nil, fmt.Errorf("session lock: %w", ctx.Err())
	}
}

func (sl *SessionLocker) acquireSlot(sessionID string) *sessionSlot {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	slot, ok := sl.slots[sessionID]
	if !ok {
		slot = &sessionSlot{token: make(chan struct{}, 1)}
		sl.slots[sessionID] = slot
	}
	slot.refs++
	return slot
}

func (sl *SessionLocker) releaseSlot(sessionID string, slot *sessionSlot) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(sl.slots, sessionID)
	}
}

// ActiveCount returns the number of sessions with a holder or waiter.
func (sl *SessionLocker) ActiveCount() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return len(sl.slots)
}
