// Package spotify adapts the Spotify Web API to the recommendation and
// credential ports.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	spotifyapi "github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/ports"
)

const defaultTimeout = 15 * time.Second

// Client fetches recommendations from the Spotify API.
type Client struct {
	api    *spotifyapi.Client
	logger *zap.Logger
}

// compile-time interface assertion
var _ ports.RecommendationProvider = (*Client)(nil)

// NewClient constructs a Spotify client that attaches the current token from
// source to every request. The source is consulted per request, so a token
// replaced by a refresh is picked up immediately.
func NewClient(source oauth2.TokenSource, logger *zap.Logger, opts ...spotifyapi.ClientOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{
		Timeout: defaultTimeout,
		Transport: &statusTransport{
			base: &oauth2.Transport{
				Source: source,
				Base:   http.DefaultTransport,
			},
		},
	}
	return &Client{
		api:    spotifyapi.New(httpClient, opts...),
		logger: logger,
	}
}

// NewClientWithBaseURL points the client at an alternative API root.
// baseURL must end with a slash.
func NewClientWithBaseURL(source oauth2.TokenSource, logger *zap.Logger, baseURL string) *Client {
	return NewClient(source, logger, spotifyapi.WithBaseURL(baseURL))
}

// GetRecommendations runs a seeded recommendation query and maps the result to domain tracks.
func (c *Client) GetRecommendations(ctx context.Context, q domain.RecommendationQuery) ([]domain.Track, error) {
	seeds := spotifyapi.Seeds{Genres: q.SeedGenres}

	attrs := spotifyapi.NewTrackAttributes()
	if q.Features != nil {
		attrs = attrs.
			TargetValence(q.Features.Valence).
			TargetEnergy(q.Features.Energy).
			TargetDanceability(q.Features.Danceability)
	}

	var opts []spotifyapi.RequestOption
	if q.Limit > 0 {
		opts = append(opts, spotifyapi.Limit(q.Limit))
	}
	if q.Market != "" {
		opts = append(opts, spotifyapi.Market(q.Market))
	}

	ctx, status := withStatusRecorder(ctx)
	recs, err := c.api.GetRecommendations(ctx, seeds, attrs, opts...)
	if err != nil {
		return nil, translateError(err, status.code)
	}

	c.logger.Debug("spotify recommendations received", zap.Int("tracks", len(recs.Tracks)))

	tracks := make([]domain.Track, 0, len(recs.Tracks))
	for _, st := range recs.Tracks {
		tracks = append(tracks, mapTrackToDomain(st))
	}
	return tracks, nil
}

// translateError turns API errors into *domain.UpstreamError and leaves
// transport failures wrapped. status is the HTTP status observed on the wire,
// zero when no response arrived; it wins over the status in the error body.
func translateError(err error, status int) error {
	var apiErr spotifyapi.Error
	if errors.As(err, &apiErr) {
		if status == 0 {
			status = apiErr.Status
		}
		return &domain.UpstreamError{Status: status, Message: apiErr.Message}
	}
	if status != 0 {
		return &domain.UpstreamError{Status: status, Message: err.Error()}
	}
	return fmt.Errorf("spotify adapter: %w", err)
}
