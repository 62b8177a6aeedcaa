package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"salesdesk/internal/domain"
)

// RateLimitedProvider spaces calls to a CompletionProvider with a token
// bucket. Callers wait for a token until their context ends.
type RateLimitedProvider struct {
	inner   domain.CompletionProvider
	limiter *rate.Limiter
}

// NewRateLimitedProvider allows requestsPerMinute calls per minute with the
// given burst. A non-positive rate disables limiting.
func NewRateLimitedProvider(inner domain.CompletionProvider, requestsPerMinute, burst int) *RateLimitedProvider {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Complete implements domain.CompletionProvider.
func (p *RateLimitedProvider) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRateLimit, err)
	}
	return p.inner.Complete(ctx, req)
}

// Name implements domain.CompletionProvider.
func (p *RateLimitedProvider) Name() string { return p.inner.Name() }

var _ domain.CompletionProvider = (*RateLimitedProvider)(nil)
