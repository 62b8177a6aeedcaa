package llm

import (
	"fmt"
	"log/slog"

	"salesdesk/internal/domain"
	"salesdesk/internal/infra/config"
)

// NewProvider builds the completion chain described by cfg.
//
// For "openai" the client is rate limited, wrapped in a circuit breaker and
// fails open to the canned provider. For "canned" only the canned provider
// is used.
func NewProvider(cfg config.LLMConfig, logger *slog.Logger) (domain.CompletionProvider, error) {
	switch cfg.Provider {
	case "", "canned":
		return NewCannedProvider(), nil
	case "openai":
		var p domain.CompletionProvider = NewOpenAIProvider(cfg, logger)
		p = NewRateLimitedProvider(p, cfg.RequestsPerMinute, cfg.Burst)
		p = NewCircuitBreakerProvider(p, cfg.CircuitBreaker, logger)
		return NewFailoverProvider(p, []domain.CompletionProvider{NewCannedProvider()}, logger), nil
	default:
		return nil, fmt.Errorf("%w: llm provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}
