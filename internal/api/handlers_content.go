package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aipulse/aipulse/internal/core/queryfilter"
	"github.com/aipulse/aipulse/internal/core/trends"
)

const (
	defaultTrendLimit = 10
	maxTrendLimit     = 100
	defaultRunsLimit  = 20
)

// handleListArticles serves filtered articles, newest first. An empty result
// is a 404: emptiness is meaningful on this route.
func (s *Server) handleListArticles(c echo.Context) error {
	filter := queryfilter.New().
		DateRange("publication_date", c.QueryParam("start_date"), c.QueryParam("end_date")).
		Equals("source", c.QueryParam("source")).
		AnyContains("keywords", c.QueryParam("keywords"))

	rows, err := s.db.ListArticles(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	if len(rows) == 0 {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "no articles match the given filters"})
	}

	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleListScientificArticles(c echo.Context) error {
	filter := queryfilter.New().
		DateRange("publication_date", c.QueryParam("start_date"), c.QueryParam("end_date")).
		AnyContains("authors", c.QueryParam("authors")).
		AnyContains("keywords", c.QueryParam("keywords"))

	rows, err := s.db.ListScientificArticles(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleListVideos(c echo.Context) error {
	filter := queryfilter.New().
		DateRange("publication_date", c.QueryParam("start_date"), c.QueryParam("end_date")).
		Equals("source", c.QueryParam("source"))

	rows, err := s.db.ListVideos(c.Request().Context(), filter)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, rows)
}

func (s *Server) handleArticlesBySource(c echo.Context) error {
	rows, err := s.db.ArticleSourceCounts(c.Request().Context())
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, rows)
}

// handleKeywordFrequency counts keyword occurrences per distinct term across
// articles, optionally restricted to a date window.
func (s *Server) handleKeywordFrequency(c echo.Context) error {
	window, err := keywordWindow(c.QueryParam("start_date"), c.QueryParam("end_date"))
	if err != nil {
		return writeError(c, s.logger, err)
	}

	fields, err := s.db.ArticleKeywordFields(c.Request().Context(), window.Start, window.End)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	counts := trends.Rank(trends.CountKeywords(fields), maxTrendLimit, 0)

	return c.JSON(http.StatusOK, counts)
}

// keywordWindow resolves an optional date window, defaulting to all time.
func keywordWindow(start, end string) (trends.Window, error) {
	if start == "" && end == "" {
		return trends.Window{Start: time.Unix(0, 0), End: time.Now()}, nil
	}

	return trends.ResolveWindow(start, end, 0, time.Now())
}

func (s *Server) handleIngestRuns(c echo.Context) error {
	limit := intParam(c, "limit", defaultRunsLimit)

	runs, err := s.db.RecentRuns(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	return c.JSON(http.StatusOK, runs)
}

// handleTrendingKeywords ranks trending terms inside the requested window.
// last_days takes precedence over explicit dates; one of the two modes is
// required.
func (s *Server) handleTrendingKeywords(c echo.Context) error {
	lastDays := intParam(c, "last_days", 0)

	window, err := trends.ResolveWindow(
		c.QueryParam("start_date"), c.QueryParam("end_date"), lastDays, time.Now())
	if err != nil {
		return writeError(c, s.logger, err)
	}

	fields, err := s.db.ArticleKeywordFields(c.Request().Context(), window.Start, window.End)
	if err != nil {
		return writeError(c, s.logger, err)
	}

	limit := intParam(c, "limit", defaultTrendLimit)
	if limit < 1 {
		limit = defaultTrendLimit
	}

	if limit > maxTrendLimit {
		limit = maxTrendLimit
	}

	offset := intParam(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	ranked := trends.Rank(trends.CountKeywords(fields), limit, offset)

	return c.JSON(http.StatusOK, ranked)
}

func intParam(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return value
}
