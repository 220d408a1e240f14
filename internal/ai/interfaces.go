package ai

import (
	"context"

	"hybridhunter/internal/types"
)

// Provider is a language model backend. All methods return token usage
// information; callers can ignore it if not needed.
type Provider interface {
	PlanSearch(ctx context.Context, input types.PlanSearchInput) (types.PlanSearchOutput, *TokenUsage, error)
	ScoreListing(ctx context.Context, input types.ScoreListingInput) (types.ScoreListingOutput, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
