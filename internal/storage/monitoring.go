package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
)

// InsertRun appends one scraper run to the monitoring log. Re-inserting the
// same (run_at, script) pair is a no-op, so retried runs never duplicate.
func (db *DB) InsertRun(ctx context.Context, entry domain.MonitoringLogEntry) error {
	const query = `INSERT INTO monitoring_log
			(run_at, script, duration_ms, articles_processed, empty_content_count, avg_keywords, summaries_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_at, script) DO NOTHING`

	_, err := db.q.Exec(ctx, query,
		toTimestamptz(entry.Timestamp), entry.Script, entry.Duration.Milliseconds(),
		entry.ArticlesProcessed, entry.EmptyContentCount, entry.AverageKeywords, entry.SummariesGenerated)
	if err != nil {
		return fmt.Errorf("insert monitoring run: %w", err)
	}

	return nil
}

// RecentRuns returns the newest monitoring entries, most recent first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]domain.MonitoringLogEntry, error) {
	const query = `SELECT run_at, script, duration_ms, articles_processed, empty_content_count, avg_keywords, summaries_generated
		FROM monitoring_log ORDER BY run_at DESC LIMIT $1`

	rows, err := db.q.Query(ctx, query, limit)
	if err != nil {
		return nil, coreerrors.NewQuery(query, err)
	}
	defer rows.Close()

	var out []domain.MonitoringLogEntry

	for rows.Next() {
		var (
			entry      domain.MonitoringLogEntry
			durationMS int64
		)

		err := rows.Scan(&entry.Timestamp, &entry.Script, &durationMS,
			&entry.ArticlesProcessed, &entry.EmptyContentCount,
			&entry.AverageKeywords, &entry.SummariesGenerated)
		if err != nil {
			return nil, coreerrors.NewQuery(query, err)
		}

		entry.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, coreerrors.NewQuery(query, err)
	}

	return out, nil
}
