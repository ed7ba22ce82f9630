package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ewilliams-labs/moodmix/internal/adapters/rest"
	"github.com/ewilliams-labs/moodmix/internal/adapters/spotify"
	"github.com/ewilliams-labs/moodmix/internal/config"
	"github.com/ewilliams-labs/moodmix/internal/core/services"
	"github.com/ewilliams-labs/moodmix/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration (.env, then environment)
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// 2. Driven adapters: token manager and Spotify client
	creds := spotify.NewCredentials(spotify.CredentialsConfig{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, logger.Named("credentials"))
	spotifyClient := spotify.NewClient(creds, logger.Named("spotify"))

	// 3. Core logic
	svc := services.NewOrchestrator(spotifyClient, creds, logger.Named("orchestrator"))

	// 4. Driving adapter
	handler := rest.NewHandler(svc, creds, logger.Named("http"))

	// 5. Start the server and the token refresher
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return creds.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
