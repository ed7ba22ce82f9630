package spotify

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/ports"
)

const (
	// refreshMargin is how long before expiry the next exchange is scheduled.
	refreshMargin = 60 * time.Second
	// defaultTokenLifetime applies when the provider omits expires_in.
	defaultTokenLifetime = time.Hour
	minRefreshInterval   = time.Second
	// retryCooldown is the wait after every attempt of a refresh cycle failed.
	retryCooldown = time.Minute
)

// CredentialsConfig configures the client-credentials exchange.
type CredentialsConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string // defaults to the Spotify accounts service
	MaxRetries   int
	RetryBackoff time.Duration
	HTTPClient   *http.Client
}

// Credentials obtains and refreshes the Spotify bearer token.
// The token is replaced atomically; readers may see a stale token until the
// next refresh lands.
type Credentials struct {
	config      clientcredentials.Config
	httpClient  *http.Client
	logger      *zap.Logger
	maxRetries  int
	baseBackoff time.Duration

	margin      time.Duration
	minInterval time.Duration
	cooldown    time.Duration
	now         func() time.Time

	token atomic.Pointer[oauth2.Token]
	// refreshed is signalled on every stored token so Run can reschedule.
	refreshed chan struct{}
}

var (
	_ ports.CredentialStore = (*Credentials)(nil)
	_ oauth2.TokenSource    = (*Credentials)(nil)
)

// NewCredentials constructs a credential manager. No exchange happens until
// Refresh or Run is called.
func NewCredentials(cfg CredentialsConfig, logger *zap.Logger) *Credentials {
	if logger == nil {
		logger = zap.NewNop()
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = spotifyauth.TokenURL
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Duration(defaultBackoffMs) * time.Millisecond
	}
	return &Credentials{
		config: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient:  cfg.HTTPClient,
		logger:      logger,
		maxRetries:  maxRetries,
		baseBackoff: backoff,
		margin:      refreshMargin,
		minInterval: minRefreshInterval,
		cooldown:    retryCooldown,
		now:         time.Now,
		refreshed:   make(chan struct{}, 1),
	}
}

// Token returns the current token, or domain.ErrTokenUnavailable before the
// first successful exchange. An expired token is still returned.
func (c *Credentials) Token() (*oauth2.Token, error) {
	tok := c.token.Load()
	if tok == nil {
		return nil, domain.ErrTokenUnavailable
	}
	return tok, nil
}

// Ready reports whether a token has been obtained.
func (c *Credentials) Ready() bool {
	return c.token.Load() != nil
}

// Refresh performs a single client-credentials exchange. On failure the
// previous token stays in place.
func (c *Credentials) Refresh(ctx context.Context) error {
	if c.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}

	tok, err := c.config.Token(ctx)
	if err != nil {
		c.logger.Error("failed to retrieve spotify access token", zap.Error(err))
		return fmt.Errorf("spotify credentials: %w", err)
	}

	c.token.Store(tok)
	select {
	case c.refreshed <- struct{}{}:
	default:
	}
	c.logger.Info("access token obtained", zap.Duration("expires_in", c.lifetime(tok)))
	return nil
}

// Run refreshes the token now and then again ahead of each expiry until ctx
// is cancelled. Failed cycles are retried with backoff, then after a cool-down.
// A token stored by a direct Refresh call moves the next cycle to that
// token's expiry.
func (c *Credentials) Run(ctx context.Context) error {
	for {
		wait := c.cooldown
		if err := c.refreshWithRetry(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("token refresh cycle failed", zap.Duration("next_attempt_in", wait), zap.Error(err))
		} else {
			c.drainRefreshed()
			wait = c.nextRefresh()
			c.logger.Debug("next token refresh scheduled", zap.Duration("in", wait))
		}

		if err := c.waitForNextCycle(ctx, wait); err != nil {
			return nil
		}
	}
}

func (c *Credentials) waitForNextCycle(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case <-c.refreshed:
			wait = c.nextRefresh()
			c.logger.Debug("token replaced outside the refresh loop, rescheduled", zap.Duration("in", wait))
			timer.Reset(wait)
		}
	}
}

func (c *Credentials) drainRefreshed() {
	select {
	case <-c.refreshed:
	default:
	}
}

func (c *Credentials) nextRefresh() time.Duration {
	tok := c.token.Load()
	if tok == nil {
		return c.cooldown
	}
	wait := c.lifetime(tok) - c.margin
	if wait < c.minInterval {
		wait = c.minInterval
	}
	return wait
}

func (c *Credentials) lifetime(tok *oauth2.Token) time.Duration {
	if tok.Expiry.IsZero() {
		return defaultTokenLifetime
	}
	return tok.Expiry.Sub(c.now())
}
