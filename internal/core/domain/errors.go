package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest means none of mood, genre or language was given.
	ErrInvalidRequest = errors.New("at least one parameter (mood, genre, or language) is required")
	// ErrServiceNotReady means no provider token has been obtained yet.
	ErrServiceNotReady = errors.New("spotify API not ready")
	// ErrNoResultsFound means the provider returned an empty result set.
	ErrNoResultsFound = errors.New("no tracks found")
	// ErrTokenExpiredRetry means the provider rejected the token; a refresh was
	// triggered and the client must resubmit.
	ErrTokenExpiredRetry = errors.New("spotify token expired")
	// ErrInvalidUpstreamParameters means the provider rejected the query with 400.
	ErrInvalidUpstreamParameters = errors.New("invalid parameters sent to spotify")
	// ErrTokenUnavailable is returned by the credential store before the first
	// successful token exchange.
	ErrTokenUnavailable = errors.New("token unavailable")
)

// UpstreamError is a failure reported by the recommendation provider.
type UpstreamError struct {
	Status  int // HTTP status from the provider, 0 for transport failures
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream: %s", e.Message)
	}
	return fmt.Sprintf("upstream: status %d: %s", e.Status, e.Message)
}
