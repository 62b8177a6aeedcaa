package multiagent

import (
	"context"
	"sync/atomic"

	"salesdesk/internal/domain"
)

// fakeWorker is a configurable domain.Worker for tests.
type fakeWorker struct {
	tag       domain.AgentTag
	process   func(ctx context.Context, req *domain.TaskRequest) (*domain.TaskResponse, error)
	healthy   bool
	healthErr error
	panicOn   string // "health" or "process"
	calls     atomic.Int32
}

func newFake(tag domain.AgentTag, result string) *fakeWorker {
	return &fakeWorker{
		tag:     tag,
		healthy: true,
		process: func(_ context.Context, req *domain.TaskRequest) (*domain.TaskResponse, error) {
			return &domain.TaskResponse{TaskID: req.ID, AgentTag: tag, Result: result, Success: true, Confidence: 0.8}, nil
		},
	}
}

func (f *fakeWorker) Tag() domain.AgentTag             { return f.tag }
func (f *fakeWorker) Initialize(context.Context) error { return nil }
func (f *fakeWorker) Shutdown(context.Context) error   { return nil }

func (f *fakeWorker) Capabilities() []domain.AgentCapability {
	return []domain.AgentCapability{{Name: string(f.tag) + "-cap"}}
}

func (f *fakeWorker) ProcessTask(ctx context.Context, req *domain.TaskRequest, _ domain.ConversationContext) (*domain.TaskResponse, error) {
	f.calls.Add(1)
	if f.panicOn == "process" {
		panic("worker exploded")
	}
	return f.process(ctx, req)
}

func (f *fakeWorker) HealthCheck(context.Context) (bool, error) {
	if f.panicOn == "health" {
		panic("health exploded")
	}
	return f.healthy, f.healthErr
}
