package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/ports"
)

// RecommendationLimit is the fixed result-set size requested from the provider.
const RecommendationLimit = 20

// DefaultSeedGenres are used when the request carries no genre.
var DefaultSeedGenres = []string{"pop", "rock", "hip-hop"}

// Orchestrator coordinates the credential store and the recommendation provider.
type Orchestrator struct {
	provider    ports.RecommendationProvider
	credentials ports.CredentialStore
	logger      *zap.Logger
	intN        func(n int) int
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(provider ports.RecommendationProvider, credentials ports.CredentialStore, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		provider:    provider,
		credentials: credentials,
		logger:      logger,
		intN:        rand.Intn,
	}
}

// RandomTrack translates the request into a provider query, fetches
// recommendations and returns one of them chosen uniformly at random.
func (o *Orchestrator) RandomTrack(ctx context.Context, req domain.MusicRequest) (domain.Track, error) {
	// 1. Validate
	if isBlank(req.Mood) && isBlank(req.Genre) && isBlank(req.Language) {
		return domain.Track{}, domain.ErrInvalidRequest
	}
	if !o.credentials.Ready() {
		return domain.Track{}, domain.ErrServiceNotReady
	}

	// 2. Translate
	q := o.BuildQuery(req)
	o.logger.Debug("request to spotify",
		zap.Strings("seed_genres", q.SeedGenres),
		zap.String("market", q.Market),
		zap.Int("limit", q.Limit),
		zap.Any("features", q.Features),
	)

	// 3. Fetch
	tracks, err := o.provider.GetRecommendations(ctx, q)
	if err != nil {
		return domain.Track{}, o.classify(ctx, err)
	}
	if len(tracks) == 0 {
		return domain.Track{}, domain.ErrNoResultsFound
	}

	// 4. Pick
	return tracks[o.intN(len(tracks))], nil
}

// BuildQuery assembles the provider query for a request.
func (o *Orchestrator) BuildQuery(req domain.MusicRequest) domain.RecommendationQuery {
	q := domain.RecommendationQuery{Limit: RecommendationLimit}

	if genre := strings.ToLower(strings.TrimSpace(req.Genre)); genre != "" {
		q.SeedGenres = []string{genre}
	}

	if !isBlank(req.Mood) {
		features := domain.MoodToFeatures(req.Mood)
		q.Features = &features
	}

	if !isBlank(req.Language) {
		if market, ok := domain.LanguageToMarket(req.Language); ok {
			q.Market = market
		} else {
			o.logger.Warn("unknown language", zap.String("language", req.Language))
		}
	}

	if len(q.SeedGenres) == 0 {
		q.SeedGenres = append([]string(nil), DefaultSeedGenres...)
		o.logger.Info("using default genre seeds", zap.Strings("seed_genres", q.SeedGenres))
	}

	return q
}

func (o *Orchestrator) classify(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrTokenUnavailable) {
		return domain.ErrServiceNotReady
	}

	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) {
		o.logger.Error("spotify API error", zap.Error(err))
		return &domain.UpstreamError{Status: http.StatusInternalServerError, Message: err.Error()}
	}

	o.logger.Error("spotify API error", zap.Int("status", upErr.Status), zap.String("message", upErr.Message))

	switch upErr.Status {
	case http.StatusUnauthorized:
		o.logger.Warn("access token expired, refreshing")
		if rerr := o.credentials.Refresh(context.WithoutCancel(ctx)); rerr != nil {
			o.logger.Error("failed to refresh access token", zap.Error(rerr))
		}
		return domain.ErrTokenExpiredRetry
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %w", domain.ErrInvalidUpstreamParameters, upErr)
	default:
		return upErr
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
