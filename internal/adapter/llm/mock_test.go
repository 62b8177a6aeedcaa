package llm

import (
	"context"
	"sync/atomic"

	"salesdesk/internal/domain"
)

type mockProvider struct {
	name         string
	calls        atomic.Int32
	completeFunc func(context.Context, domain.CompletionRequest) (*domain.CompletionResponse, error)
}

func (m *mockProvider) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	m.calls.Add(1)
	return m.completeFunc(ctx, req)
}

func (m *mockProvider) Name() string { return m.name }

func okProvider(name, content string) *mockProvider {
	return &mockProvider{
		name: name,
		completeFunc: func(context.Context, domain.CompletionRequest) (*domain.CompletionResponse, error) {
			return &domain.CompletionResponse{Content: content}, nil
		},
	}
}

func failingProvider(name string, err error) *mockProvider {
	return &mockProvider{
		name: name,
		completeFunc: func(context.Context, domain.CompletionRequest) (*domain.CompletionResponse, error) {
			return nil, err
		},
	}
}
