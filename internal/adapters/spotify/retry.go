package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	defaultMaxRetries = 3
	defaultBackoffMs  = 500
)

// refreshWithRetry runs Refresh up to maxRetries times with exponential backoff.
func (c *Credentials) refreshWithRetry(ctx context.Context) error {
	var err error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("spotify credentials: refresh canceled: %w", ctxErr)
		}

		err = c.Refresh(ctx)
		if err == nil {
			return nil
		}

		delay, retry := shouldRetry(err, c.now())
		if !retry {
			return err
		}
		if attempt == c.maxRetries-1 {
			break
		}

		backoff := c.baseBackoff * time.Duration(1<<attempt)
		if delay > 0 {
			backoff = delay
		}
		c.logger.Warn("retrying token exchange",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", c.maxRetries),
			zap.Duration("backoff", backoff),
		)

		if err := pause(ctx, backoff); err != nil {
			return err
		}
	}

	return fmt.Errorf("spotify credentials: token exchange failed after %d attempts: %w", c.maxRetries, err)
}

// shouldRetry reports whether a failed exchange is worth repeating and how
// long the accounts service asked us to hold off. Rejected credentials are not
// retried; throttling, server errors and transport errors are.
func shouldRetry(err error, now time.Time) (time.Duration, bool) {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return 0, true
	}

	status := re.Response.StatusCode
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return retryAfter(re.Response.Header, now), true
	}
	return 0, false
}

// retryAfter reads Retry-After as delta-seconds or an HTTP date relative to
// now. Anything else, or a date in the past, yields zero.
func retryAfter(h http.Header, now time.Time) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		return max(time.Duration(seconds)*time.Second, 0)
	}
	if when, err := http.ParseTime(raw); err == nil {
		return max(when.Sub(now), 0)
	}
	return 0
}

// pause blocks for d unless ctx ends first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("spotify credentials: stopped during backoff: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
