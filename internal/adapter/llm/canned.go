package llm

import (
	"context"

	"salesdesk/internal/domain"
)

// CannedProvider answers every request locally with an empty, Canned
// response. Workers treat a canned response as "use your built-in
// template", which keeps the assistant useful with no model configured.
type CannedProvider struct{}

// NewCannedProvider creates the offline provider.
func NewCannedProvider() *CannedProvider { return &CannedProvider{} }

// Complete implements domain.CompletionProvider.
func (CannedProvider) Complete(ctx context.Context, _ domain.CompletionRequest) (*domain.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &domain.CompletionResponse{
		ID:     domain.NewID(),
		Model:  "canned",
		Canned: true,
	}, nil
}

// Name implements domain.CompletionProvider.
func (CannedProvider) Name() string { return "canned" }

var _ domain.CompletionProvider = CannedProvider{}
