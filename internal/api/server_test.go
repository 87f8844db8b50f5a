package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aipulse/aipulse/internal/auth"
	"github.com/aipulse/aipulse/internal/core/domain"
	"github.com/aipulse/aipulse/internal/dashboard"
	"github.com/aipulse/aipulse/internal/storage"
)

func newTestServer(t *testing.T) (pgxmock.PgxPoolIface, *Server) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(mock.Close)

	logger := zerolog.Nop()
	db := storage.NewFromQuerier(mock, &logger)
	authSvc := auth.NewService("test-secret", time.Hour, time.Hour, bcrypt.MinCost)
	composer := dashboard.New(db, 10, 30)

	return mock, New(db, authSvc, composer, &logger)
}

func doRequest(s *Server, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echoHeaderContentType, "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	return rec
}

const echoHeaderContentType = "Content-Type"

func bearer(t *testing.T, s *Server, id string) map[string]string {
	t.Helper()

	token, err := s.auth.IssueToken(&domain.User{ID: id})
	require.NoError(t, err)

	return map[string]string{"Authorization": "Bearer " + token}
}

func TestListArticlesMalformedDateNamesValue(t *testing.T) {
	_, s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/v1/articles?start_date=2024-13-40", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024-13-40")
}

func TestListArticlesEmptyResultIs404(t *testing.T) {
	mock, s := newTestServer(t)

	mock.ExpectQuery(`SELECT .+ FROM articles WHERE \(1=1\)`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title"}))

	rec := doRequest(s, http.MethodGet, "/v1/articles", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListArticlesNormalizesDates(t *testing.T) {
	mock, s := newTestServer(t)

	mock.ExpectQuery(`SELECT .+ FROM articles WHERE \(1=1 AND source = \$1\)`).
		WithArgs("TechCrunch").
		WillReturnRows(pgxmock.NewRows([]string{"title", "publication_date"}).
			AddRow("a", pgtype.Date{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Valid: true}))

	rec := doRequest(s, http.MethodGet, "/v1/articles?source=TechCrunch", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"publication_date":"2024-05-01"`)
}

func TestScientificArticlesEmptyIs200(t *testing.T) {
	mock, s := newTestServer(t)

	mock.ExpectQuery(`SELECT .+ FROM scientific_articles`).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	rec := doRequest(s, http.MethodGet, "/v1/scientific-articles", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestTrendingKeywordsRequiresWindow(t *testing.T) {
	_, s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/v1/trends/keywords", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrendingKeywordsRanked(t *testing.T) {
	mock, s := newTestServer(t)

	mock.ExpectQuery(`(?s)SELECT keywords FROM articles`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"keywords"}).
			AddRow("AI;ML").
			AddRow("ML"))

	rec := doRequest(s, http.MethodGet, "/v1/trends/keywords?last_days=7&limit=1", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var counts []domain.KeywordCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counts))
	assert.Equal(t, []domain.KeywordCount{{Keyword: "ML", Count: 2}}, counts)
}

func TestTrendingKeywordsInvertedRange(t *testing.T) {
	_, s := newTestServer(t)

	rec := doRequest(s, http.MethodGet,
		"/v1/trends/keywords?start_date=2025-01-01&end_date=2024-01-01", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "start_date is after end_date")
}

func TestRegisterIssuesToken(t *testing.T) {
	mock, s := newTestServer(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("sam", "sam@example.com", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("user-1"))

	rec := doRequest(s, http.MethodPost, "/v1/auth/register",
		`{"username":"sam","email":"sam@example.com","password":"longenough"}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	id, err := s.auth.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	_, s := newTestServer(t)

	rec := doRequest(s, http.MethodPost, "/v1/auth/register",
		`{"username":"sam","email":"sam@example.com","password":"short"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	mock, s := newTestServer(t)

	hash, err := s.auth.HashPassword("correct-password")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, username, email, password_hash FROM users WHERE email`).
		WithArgs("sam@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "email", "password_hash"}).
			AddRow("user-1", "sam", "sam@example.com", hash))

	rec := doRequest(s, http.MethodPost, "/v1/auth/login",
		`{"email":"sam@example.com","password":"wrong-password"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmailIndistinguishable(t *testing.T) {
	mock, s := newTestServer(t)

	mock.ExpectQuery(`SELECT id, username, email, password_hash FROM users WHERE email`).
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	rec := doRequest(s, http.MethodPost, "/v1/auth/login",
		`{"email":"nobody@example.com","password":"whatever-long"}`, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardRequiresToken(t *testing.T) {
	_, s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/v1/dashboard", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardNoPreferencesRowIs404(t *testing.T) {
	mock, s := newTestServer(t)

	mock.ExpectQuery(`SELECT source_preferences, video_channel_preferences, keyword_preferences`).
		WithArgs("user-1").
		WillReturnError(pgx.ErrNoRows)

	rec := doRequest(s, http.MethodGet, "/v1/dashboard", "", bearer(t, s, "user-1"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPreferences(t *testing.T) {
	mock, s := newTestServer(t)

	mock.ExpectQuery(`SELECT source_preferences, video_channel_preferences, keyword_preferences`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"source_preferences", "video_channel_preferences", "keyword_preferences"}).
			AddRow(
				pgtype.Text{String: "TechCrunch;Wired", Valid: true},
				pgtype.Text{Valid: false},
				pgtype.Text{String: "AI", Valid: true},
			))

	rec := doRequest(s, http.MethodGet, "/v1/user-preferences", "", bearer(t, s, "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"sources":["TechCrunch","Wired"],"video_channels":[],"keywords":["AI"]}`,
		rec.Body.String())
}

func TestDeletePreferencesEmptyBodyWipes(t *testing.T) {
	mock, s := newTestServer(t)

	prefsColumns := []string{"source_preferences", "video_channel_preferences", "keyword_preferences"}

	mock.ExpectQuery(`SELECT source_preferences`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(prefsColumns).
			AddRow(
				pgtype.Text{String: "TechCrunch", Valid: true},
				pgtype.Text{Valid: false},
				pgtype.Text{String: "AI", Valid: true},
			))

	mock.ExpectExec(`INSERT INTO user_preferences`).
		WithArgs("user-1",
			pgtype.Text{Valid: false},
			pgtype.Text{Valid: false},
			pgtype.Text{Valid: false},
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(`SELECT source_preferences`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(prefsColumns).
			AddRow(pgtype.Text{Valid: false}, pgtype.Text{Valid: false}, pgtype.Text{Valid: false}))

	rec := doRequest(s, http.MethodDelete, "/v1/user-preferences", `{}`, bearer(t, s, "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sources":[],"video_channels":[],"keywords":[]}`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthz(t *testing.T) {
	_, s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
