// Package ingest contains the scheduled scrapers that pull articles, papers,
// and videos from external sources into the store, plus the runner that
// records per-run monitoring entries.
package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aipulse/aipulse/internal/core/domain"
	"github.com/aipulse/aipulse/internal/platform/observability"
)

// Store is the storage surface scrapers write to.
type Store interface {
	UpsertArticle(ctx context.Context, a *domain.Article) error
	UpsertScientificArticle(ctx context.Context, a *domain.ScientificArticle) error
	UpsertVideo(ctx context.Context, v *domain.Video) error
	InsertRun(ctx context.Context, entry domain.MonitoringLogEntry) error
}

// Stats accumulates counters over one scraper run.
type Stats struct {
	Processed    int
	Skipped      int
	EmptyContent int
	Summaries    int
	KeywordTotal int
}

// AverageKeywords is the mean keyword count per processed record.
func (s Stats) AverageKeywords() float64 {
	if s.Processed == 0 {
		return 0
	}

	return float64(s.KeywordTotal) / float64(s.Processed)
}

// Scraper is one ingestion source. Run processes every configured feed and
// reports counters; partial failures inside a run are logged and counted,
// not returned, so one broken feed never aborts the rest.
type Scraper interface {
	Name() string
	Run(ctx context.Context) (Stats, error)
}

// Runner executes scrapers and records each run in the monitoring log and
// the metrics registry.
type Runner struct {
	store  Store
	logger *zerolog.Logger
	now    func() time.Time
}

// NewRunner creates a runner.
func NewRunner(store Store, logger *zerolog.Logger) *Runner {
	return &Runner{store: store, logger: logger, now: time.Now}
}

// Run executes one scraper and records the outcome. A failed run is still
// recorded; retrying the same run never duplicates the log entry.
func (r *Runner) Run(ctx context.Context, scraper Scraper) error {
	started := r.now()

	r.logger.Info().Str("scraper", scraper.Name()).Msg("scraper run started")

	stats, err := scraper.Run(ctx)
	elapsed := r.now().Sub(started)

	observability.ScrapeDuration.WithLabelValues(scraper.Name()).Observe(elapsed.Seconds())
	observability.RecordsIngested.WithLabelValues(scraper.Name()).Add(float64(stats.Processed))
	observability.RecordsSkipped.WithLabelValues(scraper.Name()).Add(float64(stats.Skipped))

	entry := domain.MonitoringLogEntry{
		Timestamp:          started,
		Script:             scraper.Name(),
		Duration:           elapsed,
		ArticlesProcessed:  stats.Processed,
		EmptyContentCount:  stats.EmptyContent,
		AverageKeywords:    stats.AverageKeywords(),
		SummariesGenerated: stats.Summaries,
	}

	if insertErr := r.store.InsertRun(ctx, entry); insertErr != nil {
		r.logger.Error().Err(insertErr).
			Str("scraper", scraper.Name()).
			Msg("failed to record scraper run")
	}

	event := r.logger.Info()
	if err != nil {
		event = r.logger.Error().Err(err)
	}

	event.
		Str("scraper", scraper.Name()).
		Dur("duration", elapsed).
		Int("processed", stats.Processed).
		Int("skipped", stats.Skipped).
		Msg("scraper run finished")

	return err
}
