package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tumbuh/backend/config"
	httpDelivery "github.com/tumbuh/backend/internal/delivery/http"
	"github.com/tumbuh/backend/internal/domain"
	"github.com/tumbuh/backend/internal/infrastructure/cache"
	"github.com/tumbuh/backend/internal/infrastructure/dataset"
	"github.com/tumbuh/backend/internal/infrastructure/feedback"
	"github.com/tumbuh/backend/internal/infrastructure/predictor"
	"github.com/tumbuh/backend/internal/logging"
	"github.com/tumbuh/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Caller: cfg.Log.Caller,
	})

	logging.Info().
		Str("version", httpDelivery.Version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("Starting TUMBUH backend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	opts := dataset.Options{Sheet: cfg.Data.Sheet, Table: cfg.Data.Table}

	// Reference table for the recommender
	observations, err := dataset.Load(cfg.Data.DatasetPath, opts)
	if err != nil {
		return fmt.Errorf("load dataset %s: %w", cfg.Data.DatasetPath, err)
	}
	recommender := usecase.NewRecommender()
	if err := recommender.Fit(observations); err != nil {
		return fmt.Errorf("fit dataset %s: %w", cfg.Data.DatasetPath, err)
	}

	lookup, err := dataset.LoadLookup(cfg.Data.LookupPath, lookupOptions(cfg))
	if err != nil {
		return fmt.Errorf("load lookup table %s: %w", cfg.Data.LookupPath, err)
	}
	logging.Info().
		Int("observations", recommender.Size()).
		Int("locations", lookup.Len()).
		Msg("Reference data loaded")

	// Predictions are optional; keep the interface nil when disabled
	var models domain.Predictor
	client, err := predictor.NewClient(predictor.Config{
		BaseURL:          cfg.Predictor.BaseURL,
		Timeout:          cfg.Predictor.Timeout,
		RateLimit:        cfg.Predictor.RateLimit,
		Burst:            cfg.Predictor.Burst,
		MaxRetries:       cfg.Predictor.MaxRetries,
		RetryInterval:    cfg.Predictor.RetryInterval,
		BreakerFailures:  cfg.Predictor.BreakerFailures,
		BreakerOpenDelay: cfg.Predictor.BreakerOpenDelay,
	})
	switch {
	case errors.Is(err, domain.ErrPredictorDisabled):
		logging.Warn().Msg("Prediction service not configured - advisories will carry no yield or cost predictions")
	case err != nil:
		return fmt.Errorf("create predictor client: %w", err)
	default:
		models = client
		logging.Info().Str("base_url", cfg.Predictor.BaseURL).Msg("Prediction service configured")
	}

	memoryCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval)
	defer memoryCache.Close()

	store, err := feedback.Open(ctx, cfg.Feedback.DBPath)
	if err != nil {
		return fmt.Errorf("open feedback store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close feedback store")
		}
	}()

	// Initialize usecase layer
	advisoryService := usecase.NewAdvisoryService(recommender, lookup, models, memoryCache,
		usecase.AdvisoryServiceConfig{CacheTTL: cfg.Cache.TTL})
	feedbackService := usecase.NewFeedbackService(store)

	handler := httpDelivery.NewHandler(advisoryService, feedbackService)
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// lookupOptions selects the lookup table inside its file; the observation
// sheet and table settings do not apply to it
func lookupOptions(cfg *config.Config) dataset.Options {
	return dataset.Options{Sheet: cfg.Data.LookupSheet, Table: cfg.Data.LookupTable}
}
