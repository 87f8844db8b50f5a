// Package alerts implements the background preference-check sweep: on a
// fixed period it matches recently ingested articles against every user's
// keyword preferences and hands the hits to a notifier.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aipulse/aipulse/internal/platform/observability"
	"github.com/aipulse/aipulse/internal/storage"
)

// Store is the storage surface the sweep reads from. Reads may race with
// concurrent scraper writes; the sweep tolerates stale data and simply picks
// missed rows up on the next pass.
type Store interface {
	ListUsersWithKeywordPreferences(ctx context.Context) (map[string][]string, error)
	RecentArticlesMatchingKeywords(ctx context.Context, keywords []string, since time.Time) ([]storage.Row, error)
}

// Notifier delivers preference matches to a user.
type Notifier interface {
	Notify(ctx context.Context, userID string, matches []storage.Row) error
}

// Sweeper runs one preference-check pass at a time.
type Sweeper struct {
	store    Store
	notifier Notifier
	lookback time.Duration
	logger   *zerolog.Logger
	now      func() time.Time
}

// New creates a sweeper. lookback bounds how far back each pass scans.
func New(store Store, notifier Notifier, lookback time.Duration, logger *zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		notifier: notifier,
		lookback: lookback,
		logger:   logger,
		now:      time.Now,
	}
}

// Sweep matches the lookback window's new articles against every user's
// keyword preferences. A failed notification is logged and the pass
// continues with the remaining users.
func (s *Sweeper) Sweep(ctx context.Context) error {
	users, err := s.store.ListUsersWithKeywordPreferences(ctx)
	if err != nil {
		return fmt.Errorf("list users with keyword preferences: %w", err)
	}

	since := s.now().Add(-s.lookback)

	for id, keywords := range users {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		matches, err := s.store.RecentArticlesMatchingKeywords(ctx, keywords, since)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", id).Msg("preference match query failed")
			continue
		}

		if len(matches) == 0 {
			continue
		}

		observability.AlertsMatched.Add(float64(len(matches)))

		if err := s.notifier.Notify(ctx, id, matches); err != nil {
			s.logger.Error().Err(err).Str("user_id", id).Msg("alert notification failed")
		}
	}

	return nil
}

// LogNotifier records matches in the application log. Stands in for a mail
// or push delivery channel.
type LogNotifier struct {
	logger *zerolog.Logger
}

// NewLogNotifier creates the log-backed notifier.
func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, userID string, matches []storage.Row) error {
	n.logger.Info().
		Str("user_id", userID).
		Int("matches", len(matches)).
		Msg("preference matches found")

	return nil
}
