package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"salesdesk/internal/domain"
)

var _ domain.CompletionProvider = (*FailoverProvider)(nil)

// FailoverProvider wraps a primary provider with fallback providers.
// A transient primary failure is retried once; any other failure tries each
// fallback in order. With a CannedProvider as the last fallback the chain
// fails open.
type FailoverProvider struct {
	primary    domain.CompletionProvider
	fallbacks  []domain.CompletionProvider
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewFailoverProvider creates a failover-capable provider.
func NewFailoverProvider(primary domain.CompletionProvider, fallbacks []domain.CompletionProvider, logger *slog.Logger) *FailoverProvider {
	return &FailoverProvider{
		primary:    primary,
		fallbacks:  fallbacks,
		retryDelay: 200 * time.Millisecond,
		logger:     logger,
	}
}

// Complete tries the primary provider first, then each fallback on failure.
// A cancelled caller context is returned as is without trying fallbacks.
func (f *FailoverProvider) Complete(ctx context.Context, req domain.CompletionRequest) (*domain.CompletionResponse, error) {
	resp, err := f.primary.Complete(ctx, req)
	if err != nil && ctx.Err() == nil && domain.IsRetryableError(err) {
		f.logger.Debug("retrying primary LLM", "primary", f.primary.Name(), "code", domain.ErrorCodeOf(err))
		select {
		case <-time.After(f.retryDelay):
			resp, err = f.primary.Complete(ctx, req)
		case <-ctx.Done():
		}
	}
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	f.logger.Warn("primary LLM failed, trying fallbacks",
		"primary", f.primary.Name(),
		"code", domain.ErrorCodeOf(err),
		"error", err,
	)

	errs := []error{fmt.Errorf("%s: %w", f.primary.Name(), err)}
	for _, fb := range f.fallbacks {
		resp, err = fb.Complete(ctx, req)
		if err == nil {
			f.logger.Info("failover succeeded", "provider", fb.Name())
			return resp, nil
		}
		f.logger.Warn("fallback LLM failed", "provider", fb.Name(), "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", fb.Name(), err))
	}

	return nil, fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}

// Name returns a composite name.
func (f *FailoverProvider) Name() string {
	return f.primary.Name() + "+failover"
}
