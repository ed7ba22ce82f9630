package ports

import (
	"context"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
)

// RecommendationProvider fetches seeded track recommendations.
// Provider failures are reported as *domain.UpstreamError; a missing token is
// reported as domain.ErrTokenUnavailable.
type RecommendationProvider interface {
	GetRecommendations(ctx context.Context, q domain.RecommendationQuery) ([]domain.Track, error)
}
