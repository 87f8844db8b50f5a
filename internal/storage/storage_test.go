package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
)

func newMockDB(t *testing.T) (pgxmock.PgxPoolIface, *DB) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(mock.Close)

	logger := zerolog.Nop()

	return mock, NewFromQuerier(mock, &logger)
}

func TestUpsertArticleConflictsOnLink(t *testing.T) {
	mock, db := newMockDB(t)

	article := &domain.Article{
		Title:           "Transformer scaling revisited",
		Source:          "example-blog",
		PublicationDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Link:            "https://example.com/post",
		Author:          "A. Writer",
		Summary:         "short",
		FullContent:     "long",
		Language:        "en",
		Keywords:        []string{"AI", "scaling"},
	}

	mock.ExpectExec(`(?s)INSERT INTO articles.+ON CONFLICT \(link\) DO UPDATE`).
		WithArgs(
			article.Title,
			article.Source,
			toDate(article.PublicationDate),
			article.Link,
			article.Author,
			article.Summary,
			article.FullContent,
			toText("en"),
			pgtype.Text{String: "AI;scaling", Valid: true},
			pgtype.Text{Valid: false},
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, db.UpsertArticle(context.Background(), article))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRowsNormalizesDates(t *testing.T) {
	mock, db := newMockDB(t)

	published := time.Date(2024, 3, 7, 15, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM articles`).
		WillReturnRows(pgxmock.NewRows([]string{"title", "publication_date", "keywords"}).
			AddRow("a", published, pgtype.Text{Valid: false}).
			AddRow("b", pgtype.Date{Time: published, Valid: true}, pgtype.Text{String: "AI", Valid: true}))

	rows, err := db.FetchRows(context.Background(), "SELECT title, publication_date, keywords FROM articles")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2024-03-07", rows[0]["publication_date"])
	assert.Nil(t, rows[0]["keywords"])
	assert.Equal(t, "2024-03-07", rows[1]["publication_date"])
	assert.Equal(t, "AI", rows[1]["keywords"])
}

func TestFetchRowsEmptyResultIsNotAnError(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`SELECT .+ FROM videos`).
		WillReturnRows(pgxmock.NewRows([]string{"title"}))

	rows, err := db.FetchRows(context.Background(), "SELECT title FROM videos")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestFetchRowsWrapsFailureWithQueryShape(t *testing.T) {
	mock, db := newMockDB(t)

	const query = `SELECT title FROM articles WHERE source = $1`

	mock.ExpectQuery(`SELECT title FROM articles`).
		WithArgs("secret-source").
		WillReturnError(errors.New("connection reset"))

	_, err := db.FetchRows(context.Background(), query, "secret-source")
	require.Error(t, err)

	var qerr *coreerrors.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, query, qerr.Query)
	assert.NotContains(t, err.Error(), "secret-source")
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("sam", "sam@example.com", "hash").
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	err := db.CreateUser(context.Background(), &domain.User{
		Username:     "sam",
		Email:        "sam@example.com",
		PasswordHash: "hash",
	})
	require.ErrorIs(t, err, coreerrors.ErrEmailTaken)
}

func TestGetUserByEmailNotFound(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`SELECT id, username, email, password_hash FROM users WHERE email`).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := db.GetUserByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, coreerrors.ErrUserNotFound)
}

func TestDeleteUserMissingRow(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectExec(`DELETE FROM users`).
		WithArgs("11111111-1111-1111-1111-111111111111").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := db.DeleteUser(context.Background(), "11111111-1111-1111-1111-111111111111")
	require.ErrorIs(t, err, coreerrors.ErrUserNotFound)
}

func TestGetPreferencesNoRow(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`SELECT source_preferences, video_channel_preferences, keyword_preferences`).
		WithArgs("u1").
		WillReturnError(pgx.ErrNoRows)

	_, err := db.GetPreferences(context.Background(), "u1")
	require.ErrorIs(t, err, coreerrors.ErrPreferencesNotFound)
}

func TestMergePreferencesUnionsWithStoredValues(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`SELECT source_preferences, video_channel_preferences, keyword_preferences`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"source_preferences", "video_channel_preferences", "keyword_preferences"}).
			AddRow(
				pgtype.Text{String: "TechCrunch", Valid: true},
				pgtype.Text{Valid: false},
				pgtype.Text{String: "AI", Valid: true},
			))

	mock.ExpectExec(`(?s)INSERT INTO user_preferences.+ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs("u1",
			pgtype.Text{String: "TechCrunch;Wired", Valid: true},
			pgtype.Text{Valid: false},
			pgtype.Text{String: "AI", Valid: true},
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := db.MergePreferences(context.Background(), "u1", PreferenceUpdate{
		Sources:  []string{"Wired", "TechCrunch"},
		Keywords: []string{"AI"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMergePreferencesCreatesMissingRow(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`SELECT source_preferences, video_channel_preferences, keyword_preferences`).
		WithArgs("u2").
		WillReturnError(pgx.ErrNoRows)

	mock.ExpectExec(`INSERT INTO user_preferences`).
		WithArgs("u2",
			pgtype.Text{String: "ArsTechnica", Valid: true},
			pgtype.Text{Valid: false},
			pgtype.Text{Valid: false},
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := db.MergePreferences(context.Background(), "u2", PreferenceUpdate{
		Sources: []string{"ArsTechnica"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubtractPreferencesEmptyUpdateWipesEveryField(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`SELECT source_preferences, video_channel_preferences, keyword_preferences`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"source_preferences", "video_channel_preferences", "keyword_preferences"}).
			AddRow(
				pgtype.Text{String: "TechCrunch;Wired", Valid: true},
				pgtype.Text{String: "two-minute-papers", Valid: true},
				pgtype.Text{String: "AI;ML", Valid: true},
			))

	mock.ExpectExec(`INSERT INTO user_preferences`).
		WithArgs("u1",
			pgtype.Text{Valid: false},
			pgtype.Text{Valid: false},
			pgtype.Text{Valid: false},
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := db.SubtractPreferences(context.Background(), "u1", PreferenceUpdate{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubtractPreferencesRemovesExactValuesOnly(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`SELECT source_preferences, video_channel_preferences, keyword_preferences`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"source_preferences", "video_channel_preferences", "keyword_preferences"}).
			AddRow(
				pgtype.Text{Valid: false},
				pgtype.Text{Valid: false},
				pgtype.Text{String: "AI;ai;machine learning", Valid: true},
			))

	mock.ExpectExec(`INSERT INTO user_preferences`).
		WithArgs("u1",
			pgtype.Text{Valid: false},
			pgtype.Text{Valid: false},
			pgtype.Text{String: "ai;machine learning", Valid: true},
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := db.SubtractPreferences(context.Background(), "u1", PreferenceUpdate{
		Keywords: []string{"AI"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubtractPreferencesMissingRow(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`SELECT source_preferences, video_channel_preferences, keyword_preferences`).
		WithArgs("u9").
		WillReturnError(pgx.ErrNoRows)

	err := db.SubtractPreferences(context.Background(), "u9", PreferenceUpdate{Keywords: []string{"AI"}})
	require.ErrorIs(t, err, coreerrors.ErrPreferencesNotFound)
}

func TestGetResetTokenNotFound(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery(`SELECT user_id, token, expires_at FROM password_reset_tokens`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := db.GetResetToken(context.Background(), "missing")
	require.ErrorIs(t, err, coreerrors.ErrResetTokenNotFound)
}

func TestRecentRunsMapsDuration(t *testing.T) {
	mock, db := newMockDB(t)

	runAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT .+FROM monitoring_log ORDER BY run_at DESC`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{
			"run_at", "script", "duration_ms", "articles_processed",
			"empty_content_count", "avg_keywords", "summaries_generated",
		}).AddRow(runAt, "rss", int64(2500), 10, 1, 4.5, 9))

	runs, err := db.RecentRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, "rss", runs[0].Script)
	assert.Equal(t, 2500*time.Millisecond, runs[0].Duration)
	assert.Equal(t, 10, runs[0].ArticlesProcessed)
}

func TestArticleKeywordFieldsSkipsNothingInsideWindow(t *testing.T) {
	mock, db := newMockDB(t)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT keywords FROM articles.+keywords IS NOT NULL`).
		WithArgs(toDate(start), toDate(end)).
		WillReturnRows(pgxmock.NewRows([]string{"keywords"}).
			AddRow("AI;ML").
			AddRow("AI"))

	fields, err := db.ArticleKeywordFields(context.Background(), start, end)
	require.NoError(t, err)
	assert.Equal(t, []string{"AI;ML", "AI"}, fields)
}

func TestKeywordMatchBindsTermsAsParameters(t *testing.T) {
	pred := keywordMatch("keywords", []string{"AI", "x' OR '1'='1"})

	sql, args, err := pred.ToSql()
	require.NoError(t, err)

	assert.Equal(t, "(keywords ILIKE ? OR keywords ILIKE ?)", sql)
	assert.Equal(t, []any{"%AI%", "%x' OR '1'='1%"}, args)
	assert.False(t, strings.Contains(sql, "OR '1'='1"))
}
