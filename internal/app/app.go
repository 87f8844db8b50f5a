// Package app wires the application together and exposes one Run method per
// operational mode:
//
//   - API mode: the REST surface with JWT auth and the metrics endpoint
//   - Scraper mode: scheduled ingestion of articles, papers, and videos
//   - Sweep mode: the preference-alert sweep plus stored-record gauges
//
// Modes run as separate processes against the same database.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/aipulse/aipulse/internal/alerts"
	"github.com/aipulse/aipulse/internal/api"
	"github.com/aipulse/aipulse/internal/auth"
	"github.com/aipulse/aipulse/internal/core/nlp"
	"github.com/aipulse/aipulse/internal/dashboard"
	"github.com/aipulse/aipulse/internal/ingest"
	"github.com/aipulse/aipulse/internal/platform/config"
	"github.com/aipulse/aipulse/internal/platform/observability"
	"github.com/aipulse/aipulse/internal/platform/worker"
	db "github.com/aipulse/aipulse/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// App holds the application dependencies and provides methods to run
// different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// RunAPI serves the REST surface until the context is canceled.
func (a *App) RunAPI(ctx context.Context) error {
	authSvc := auth.NewService(a.cfg.JWTSecret, a.cfg.JWTTTL, a.cfg.ResetTTL, a.cfg.BcryptCost)
	composer := dashboard.New(a.database, a.cfg.DashboardDefaultLimit, a.cfg.TrendingWindowDays)
	server := api.New(a.database, authSvc, composer, a.logger)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	a.logger.Info().Int("port", a.cfg.HTTPPort).Msg("starting API server")

	err := server.Start(fmt.Sprintf(":%d", a.cfg.HTTPPort))
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}

	return ctx.Err()
}

// RunScraper runs every configured scraper on the scrape interval, starting
// with an immediate pass.
func (a *App) RunScraper(ctx context.Context) error {
	nlpClient := a.newNLPClient()
	runner := ingest.NewRunner(a.database, a.logger)

	var scrapers []ingest.Scraper

	if len(a.cfg.ArticleFeeds) > 0 {
		scrapers = append(scrapers,
			ingest.NewRSSScraper(a.cfg.ArticleFeeds, a.cfg.WebFetchRPS, nlpClient, a.database, a.logger))
	}

	if len(a.cfg.ArxivCategories) > 0 {
		scrapers = append(scrapers,
			ingest.NewArxivScraper(a.cfg.ArxivCategories, a.cfg.ArxivMaxResults, nlpClient, a.database, a.logger))
	}

	if len(a.cfg.YouTubeChannels) > 0 {
		scrapers = append(scrapers,
			ingest.NewYouTubeScraper(a.cfg.YouTubeChannels, a.database, a.logger))
	}

	if len(scrapers) == 0 {
		return errors.New("no ingestion sources configured")
	}

	return worker.Loop(ctx, worker.Config{
		Name:       "scraper",
		Interval:   a.cfg.ScrapeInterval,
		RunOnStart: true,
		Logger:     a.logger,
		OnTick: func(ctx context.Context) {
			defer worker.RecoverPanic(a.logger, "scraper tick")

			for _, scraper := range scrapers {
				if ctx.Err() != nil {
					return
				}

				if err := runner.Run(ctx, scraper); err != nil {
					a.logger.Error().Err(err).Str("scraper", scraper.Name()).Msg("scraper run failed")
				}
			}
		},
	})
}

// RunSweep runs the preference-alert sweep on its interval and refreshes the
// stored-record gauges on a faster secondary tick.
func (a *App) RunSweep(ctx context.Context) error {
	sweeper := alerts.New(a.database, alerts.NewLogNotifier(a.logger), a.cfg.AlertLookback, a.logger)

	return worker.Loop(ctx, worker.Config{
		Name:       "sweep",
		Interval:   a.cfg.AlertSweepInterval,
		RunOnStart: true,
		Logger:     a.logger,
		OnTick: func(ctx context.Context) {
			defer worker.RecoverPanic(a.logger, "alert sweep")

			if err := sweeper.Sweep(ctx); err != nil {
				a.logger.Error().Err(err).Msg("alert sweep failed")
			}
		},
		SecondaryInterval: a.cfg.GaugeSweepInterval,
		OnSecondaryTick: func(ctx context.Context) {
			defer worker.RecoverPanic(a.logger, "gauge refresh")

			a.refreshGauges(ctx)
		},
	})
}

// refreshGauges publishes the stored-record totals. Failures are logged and
// the stale gauge value stands until the next tick.
func (a *App) refreshGauges(ctx context.Context) {
	if count, err := a.database.CountArticles(ctx); err == nil {
		observability.StoredArticles.Set(float64(count))
	} else {
		a.logger.Warn().Err(err).Msg("article count failed")
	}

	if count, err := a.database.CountScientificArticles(ctx); err == nil {
		observability.StoredScientificArticles.Set(float64(count))
	} else {
		a.logger.Warn().Err(err).Msg("scientific article count failed")
	}

	if count, err := a.database.CountVideos(ctx); err == nil {
		observability.StoredVideos.Set(float64(count))
	} else {
		a.logger.Warn().Err(err).Msg("video count failed")
	}
}

// newNLPClient picks the NLP boundary implementation. Without an API key the
// deterministic mock keeps ingestion working in development.
func (a *App) newNLPClient() nlp.Client {
	if a.cfg.NLPAPIKey == "" || a.cfg.NLPAPIKey == "mock" {
		a.logger.Warn().Msg("no NLP API key configured, using mock client")

		return nlp.NewMock()
	}

	return nlp.NewOpenAI(a.cfg.NLPAPIKey, a.cfg.NLPModel, a.cfg.RateLimitRPS, a.logger)
}
