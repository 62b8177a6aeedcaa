package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/domain"
	"salesdesk/internal/infra/logger"
)

func TestFailoverPrimarySuccess(t *testing.T) {
	fb := okProvider("fallback", "fallback response")
	f := NewFailoverProvider(okProvider("primary", "primary response"), []domain.CompletionProvider{fb}, logger.Discard())

	resp, err := f.Complete(context.Background(), domain.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "primary response", resp.Content)
	assert.Zero(t, fb.calls.Load())
}

func TestFailoverUsesFallbackInOrder(t *testing.T) {
	first := failingProvider("first", errors.New("first down"))
	second := okProvider("second", "from second")
	third := okProvider("third", "from third")
	primary := failingProvider("primary", domain.ErrRateLimit)
	f := NewFailoverProvider(primary, []domain.CompletionProvider{first, second, third}, logger.Discard())
	f.retryDelay = 0

	resp, err := f.Complete(context.Background(), domain.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "from second", resp.Content)
	assert.Equal(t, int32(2), primary.calls.Load(), "rate limit is retried once")
	assert.Equal(t, int32(1), first.calls.Load())
	assert.Zero(t, third.calls.Load())
}

func TestFailoverAllFail(t *testing.T) {
	f := NewFailoverProvider(failingProvider("primary", domain.ErrAuthInvalid),
		[]domain.CompletionProvider{failingProvider("backup", errors.New("backup down"))}, logger.Discard())

	_, err := f.Complete(context.Background(), domain.CompletionRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthInvalid)
	assert.Contains(t, err.Error(), "all providers failed")
	assert.Contains(t, err.Error(), "backup down")
}

func TestFailoverFailsOpenToCanned(t *testing.T) {
	f := NewFailoverProvider(failingProvider("openai", domain.ErrCircuitOpen),
		[]domain.CompletionProvider{NewCannedProvider()}, logger.Discard())

	resp, err := f.Complete(context.Background(), domain.CompletionRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Canned)
	assert.Equal(t, "openai+failover", f.Name())
}

func TestFailoverSkipsFallbacksWhenCallerGaveUp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fb := okProvider("fallback", "late")
	f := NewFailoverProvider(failingProvider("primary", context.Canceled), []domain.CompletionProvider{fb}, logger.Discard())

	_, err := f.Complete(ctx, domain.CompletionRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fb.calls.Load())
}

func TestFailoverRetriesTransientPrimaryFailure(t *testing.T) {
	var n atomic.Int32
	primary := &mockProvider{
		name: "primary",
		completeFunc: func(context.Context, domain.CompletionRequest) (*domain.CompletionResponse, error) {
			if n.Add(1) == 1 {
				return nil, domain.ErrRateLimit
			}
			return &domain.CompletionResponse{Content: "second try"}, nil
		},
	}
	fb := okProvider("fallback", "fallback response")
	f := NewFailoverProvider(primary, []domain.CompletionProvider{fb}, logger.Discard())
	f.retryDelay = 0

	resp, err := f.Complete(context.Background(), domain.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "second try", resp.Content)
	assert.Equal(t, int32(2), primary.calls.Load())
	assert.Zero(t, fb.calls.Load())
}

func TestFailoverDoesNotRetryPermanentFailure(t *testing.T) {
	primary := failingProvider("primary", domain.ErrAuthInvalid)
	fb := okProvider("fallback", "fallback response")
	f := NewFailoverProvider(primary, []domain.CompletionProvider{fb}, logger.Discard())
	f.retryDelay = 0

	resp, err := f.Complete(context.Background(), domain.CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "fallback response", resp.Content)
	assert.Equal(t, int32(1), primary.calls.Load())
}
