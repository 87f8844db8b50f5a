package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/aipulse/aipulse/internal/core/domain"
	"github.com/aipulse/aipulse/internal/core/queryfilter"
)

var videoColumns = []string{
	"id", "title", "description", "publication_date", "source",
	"video_url", "channel_name", "channel_id",
}

// UpsertVideo inserts a video or overwrites the row sharing its video_url.
func (db *DB) UpsertVideo(ctx context.Context, v *domain.Video) error {
	query := `INSERT INTO videos
			(title, description, publication_date, source, video_url, channel_name, channel_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (video_url) DO UPDATE
		SET title = EXCLUDED.title,
			description = EXCLUDED.description,
			publication_date = EXCLUDED.publication_date,
			source = EXCLUDED.source,
			channel_name = EXCLUDED.channel_name,
			channel_id = EXCLUDED.channel_id,
			updated_at = now()`

	_, err := db.q.Exec(ctx, query,
		v.Title,
		toText(v.Description),
		toDate(v.PublicationDate),
		v.Source,
		v.VideoURL,
		toText(v.ChannelName),
		toText(v.ChannelID),
	)
	if err != nil {
		return fmt.Errorf("upsert video: %w", err)
	}

	return nil
}

// ListVideos fetches video rows matching the filter, newest first.
func (db *DB) ListVideos(ctx context.Context, filter *queryfilter.Builder) ([]Row, error) {
	pred, err := filter.Predicate()
	if err != nil {
		return nil, err
	}

	return db.FetchSelect(ctx, psql.
		Select(videoColumns...).
		From("videos").
		Where(pred).
		OrderBy("publication_date DESC"))
}

// VideosByChannels fetches a capped preview of videos from any of the given
// channels, matching on channel name or id, newest first.
func (db *DB) VideosByChannels(ctx context.Context, channels []string, limit int) ([]Row, error) {
	if len(channels) == 0 {
		return nil, nil
	}

	return db.FetchSelect(ctx, psql.
		Select(videoColumns...).
		From("videos").
		Where(channelMatch(channels)).
		OrderBy("publication_date DESC").
		Limit(uint64(limit)))
}

// CountVideosByChannels counts the full matching set, uncapped.
func (db *DB) CountVideosByChannels(ctx context.Context, channels []string) (int64, error) {
	if len(channels) == 0 {
		return 0, nil
	}

	return db.CountSelect(ctx, psql.
		Select("COUNT(*)").
		From("videos").
		Where(channelMatch(channels)))
}

// CountVideos returns the total number of video rows.
func (db *DB) CountVideos(ctx context.Context) (int64, error) {
	return db.CountSelect(ctx, psql.Select("COUNT(*)").From("videos"))
}

func channelMatch(channels []string) sq.Or {
	return sq.Or{
		sq.Eq{"channel_name": channels},
		sq.Eq{"channel_id": channels},
	}
}
