package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
	"github.com/aipulse/aipulse/internal/core/prefs"
)

// PreferenceUpdate carries the per-field additions or removals of one
// preference request. Nil slices leave a field untouched.
type PreferenceUpdate struct {
	Sources       []string
	VideoChannels []string
	Keywords      []string
}

// Empty reports whether the update names no values at all.
func (u PreferenceUpdate) Empty() bool {
	return len(u.Sources) == 0 && len(u.VideoChannels) == 0 && len(u.Keywords) == 0
}

// GetPreferences fetches a user's stored preference sets. Fails with
// ErrPreferencesNotFound when the user has no preferences row at all;
// callers treat that as a distinct, reportable state.
func (db *DB) GetPreferences(ctx context.Context, userID string) (*domain.UserPreferences, error) {
	const query = `SELECT source_preferences, video_channel_preferences, keyword_preferences
		FROM user_preferences WHERE user_id = $1`

	var sources, channels, keywords pgtype.Text

	err := db.q.QueryRow(ctx, query, userID).Scan(&sources, &channels, &keywords)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coreerrors.ErrPreferencesNotFound
		}

		return nil, fmt.Errorf("get preferences: %w", err)
	}

	return &domain.UserPreferences{
		UserID:        userID,
		Sources:       prefs.Decode(fromTextPtr(sources)),
		VideoChannels: prefs.Decode(fromTextPtr(channels)),
		Keywords:      prefs.Decode(fromTextPtr(keywords)),
	}, nil
}

// MergePreferences unions the update into the user's stored sets, creating
// the row when absent. Updates are additive only; values are never replaced.
// The read-merge-write sequence is not atomic across concurrent requests for
// the same user; the last merged write wins.
func (db *DB) MergePreferences(ctx context.Context, userID string, update PreferenceUpdate) error {
	current, err := db.GetPreferences(ctx, userID)
	if err != nil {
		if !errors.Is(err, coreerrors.ErrPreferencesNotFound) {
			return err
		}

		current = &domain.UserPreferences{UserID: userID}
	}

	merged := encodedPreferences{
		sources:  prefs.Merge(prefs.Encode(current.Sources), update.Sources),
		channels: prefs.Merge(prefs.Encode(current.VideoChannels), update.VideoChannels),
		keywords: prefs.Merge(prefs.Encode(current.Keywords), update.Keywords),
	}

	return db.writePreferences(ctx, userID, merged)
}

// SubtractPreferences removes the update's values from the user's stored
// sets. An update naming no values wipes every preference field for the
// user; that total wipe is deliberate, not a no-op. Fails with
// ErrPreferencesNotFound when the user has no preferences row.
func (db *DB) SubtractPreferences(ctx context.Context, userID string, update PreferenceUpdate) error {
	current, err := db.GetPreferences(ctx, userID)
	if err != nil {
		return err
	}

	if update.Empty() {
		return db.writePreferences(ctx, userID, encodedPreferences{})
	}

	reduced := encodedPreferences{
		sources:  prefs.Subtract(prefs.Encode(current.Sources), update.Sources),
		channels: prefs.Subtract(prefs.Encode(current.VideoChannels), update.VideoChannels),
		keywords: prefs.Subtract(prefs.Encode(current.Keywords), update.Keywords),
	}

	return db.writePreferences(ctx, userID, reduced)
}

// ListUsersWithKeywordPreferences returns every user id with a non-null
// keyword preference field together with the decoded set. Used by the alert
// sweep.
func (db *DB) ListUsersWithKeywordPreferences(ctx context.Context) (map[string][]string, error) {
	const query = `SELECT user_id, keyword_preferences FROM user_preferences
		WHERE keyword_preferences IS NOT NULL`

	rows, err := db.q.Query(ctx, query)
	if err != nil {
		return nil, coreerrors.NewQuery(query, err)
	}
	defer rows.Close()

	out := make(map[string][]string)

	for rows.Next() {
		var (
			userID   string
			keywords string
		)

		if err := rows.Scan(&userID, &keywords); err != nil {
			return nil, coreerrors.NewQuery(query, err)
		}

		out[userID] = prefs.Decode(&keywords)
	}

	if err := rows.Err(); err != nil {
		return nil, coreerrors.NewQuery(query, err)
	}

	return out, nil
}

type encodedPreferences struct {
	sources  *string
	channels *string
	keywords *string
}

func (db *DB) writePreferences(ctx context.Context, userID string, p encodedPreferences) error {
	const query = `INSERT INTO user_preferences
			(user_id, source_preferences, video_channel_preferences, keyword_preferences)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET source_preferences = EXCLUDED.source_preferences,
			video_channel_preferences = EXCLUDED.video_channel_preferences,
			keyword_preferences = EXCLUDED.keyword_preferences,
			updated_at = now()`

	_, err := db.q.Exec(ctx, query, userID,
		toTextPtr(p.sources), toTextPtr(p.channels), toTextPtr(p.keywords))
	if err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}

	return nil
}
