package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"salesdesk/internal/domain"
)

// stubWorker is a configurable domain.Worker for orchestrator tests.
type stubWorker struct {
	tag       domain.AgentTag
	result    string
	fail      error
	delay     time.Duration
	initErr   error
	healthy   bool
	healthErr error
	panicOn   string // "init", "health", "process", "shutdown"
	hook      func(ctx context.Context) error

	mu          sync.Mutex
	initCalls   int
	shutdowns   int
	healthCalls int
	requests    []*domain.TaskRequest
	log         *[]string // shared call log for ordering assertions
}

func newStub(tag domain.AgentTag, result string) *stubWorker {
	return &stubWorker{tag: tag, result: result, healthy: true}
}

func (s *stubWorker) Tag() domain.AgentTag { return s.tag }

func (s *stubWorker) record(event string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log != nil {
		*s.log = append(*s.log, event)
	}
}

func (s *stubWorker) Initialize(context.Context) error {
	if s.panicOn == "init" {
		panic("init exploded")
	}
	s.mu.Lock()
	s.initCalls++
	s.mu.Unlock()
	s.record("init:" + string(s.tag))
	return s.initErr
}

func (s *stubWorker) ProcessTask(ctx context.Context, req *domain.TaskRequest, _ domain.ConversationContext) (*domain.TaskResponse, error) {
	if s.panicOn == "process" {
		panic("process exploded")
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.hook != nil {
		if err := s.hook(ctx); err != nil {
			return nil, err
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.fail != nil {
		return nil, s.fail
	}
	return &domain.TaskResponse{TaskID: req.ID, AgentTag: s.tag, Result: s.result, Success: true, Confidence: 0.9}, nil
}

func (s *stubWorker) Capabilities() []domain.AgentCapability {
	return []domain.AgentCapability{{Name: string(s.tag)}}
}

func (s *stubWorker) HealthCheck(context.Context) (bool, error) {
	s.mu.Lock()
	s.healthCalls++
	s.mu.Unlock()
	if s.panicOn == "health" {
		panic("health exploded")
	}
	return s.healthy, s.healthErr
}

func (s *stubWorker) Shutdown(context.Context) error {
	s.mu.Lock()
	s.shutdowns++
	s.mu.Unlock()
	s.record("shutdown:" + string(s.tag))
	if s.panicOn == "shutdown" {
		panic("shutdown exploded")
	}
	return nil
}

func (s *stubWorker) healthCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthCalls
}

func (s *stubWorker) seen() []*domain.TaskRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.TaskRequest(nil), s.requests...)
}

func (s *stubWorker) shutdownCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdowns
}

// specsFor wraps already-built workers as WorkerSpecs.
func specsFor(workers ...*stubWorker) []WorkerSpec {
	specs := make([]WorkerSpec, 0, len(workers))
	for _, w := range workers {
		specs = append(specs, WorkerSpec{Tag: w.tag, New: func() (domain.Worker, error) { return w, nil }})
	}
	return specs
}

// failingClassifier always errors.
type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string, domain.ConversationContext) (domain.IntentClassification, error) {
	return domain.IntentClassification{}, errors.New("classifier offline")
}

// panickingClassifier always panics.
type panickingClassifier struct{}

func (panickingClassifier) Classify(context.Context, string, domain.ConversationContext) (domain.IntentClassification, error) {
	panic("classifier exploded")
}
