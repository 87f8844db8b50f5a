// Package dashboard assembles the per-user composed view: capped previews of
// each preferred category, uncapped match totals, and a trailing trending
// window narrowed to the user's keyword preferences.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/aipulse/aipulse/internal/core/domain"
	"github.com/aipulse/aipulse/internal/core/trends"
	"github.com/aipulse/aipulse/internal/storage"
)

const (
	minLimit = 1
	maxLimit = 50
)

// Repository is the storage surface the composer reads from.
type Repository interface {
	GetPreferences(ctx context.Context, userID string) (*domain.UserPreferences, error)
	ArticlesBySources(ctx context.Context, sources []string, limit int) ([]storage.Row, error)
	CountArticlesBySources(ctx context.Context, sources []string) (int64, error)
	ArticlesByKeywords(ctx context.Context, keywords []string, limit int) ([]storage.Row, error)
	CountArticlesByKeywords(ctx context.Context, keywords []string) (int64, error)
	ScientificArticlesByKeywords(ctx context.Context, keywords []string, limit int) ([]storage.Row, error)
	CountScientificArticlesByKeywords(ctx context.Context, keywords []string) (int64, error)
	VideosByChannels(ctx context.Context, channels []string, limit int) ([]storage.Row, error)
	CountVideosByChannels(ctx context.Context, channels []string) (int64, error)
	ArticleKeywordFields(ctx context.Context, start, end time.Time) ([]string, error)
}

// Category is one preview block: a capped slice of rows plus the uncapped
// size of the full matching set.
type Category struct {
	Items []storage.Row `json:"items"`
	Total int64         `json:"total"`
}

// Payload is the full composed response for one user.
type Payload struct {
	ArticlesBySource   Category              `json:"articles_by_source"`
	ArticlesByKeyword  Category              `json:"articles_by_keyword"`
	ScientificArticles Category              `json:"scientific_articles"`
	Videos             Category              `json:"videos"`
	TrendingKeywords   []domain.KeywordCount `json:"trending_keywords"`
}

// Composer builds dashboard payloads.
type Composer struct {
	repo         Repository
	defaultLimit int
	windowDays   int
	now          func() time.Time
}

// New creates a composer. windowDays fixes the trailing trending window.
func New(repo Repository, defaultLimit, windowDays int) *Composer {
	return &Composer{
		repo:         repo,
		defaultLimit: defaultLimit,
		windowDays:   windowDays,
		now:          time.Now,
	}
}

// ClampLimit normalizes a caller-supplied preview cap. Zero or negative
// falls back to the default; anything above the ceiling is cut to it.
func (c *Composer) ClampLimit(limit int) int {
	if limit <= 0 {
		limit = c.defaultLimit
	}

	if limit < minLimit {
		limit = minLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return limit
}

// Compose assembles the payload for one user. Fails with
// ErrPreferencesNotFound when the user has stored no preferences at all; an
// empty category inside an existing preference row is not an error. Any
// sub-fetch failure fails the whole payload; emptiness never does.
func (c *Composer) Compose(ctx context.Context, userID string, limit int) (*Payload, error) {
	prefs, err := c.repo.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit = c.ClampLimit(limit)

	payload := &Payload{}

	payload.ArticlesBySource, err = c.fetchCategory(ctx, prefs.Sources, limit,
		c.repo.ArticlesBySources, c.repo.CountArticlesBySources)
	if err != nil {
		return nil, fmt.Errorf("articles by source: %w", err)
	}

	payload.ArticlesByKeyword, err = c.fetchCategory(ctx, prefs.Keywords, limit,
		c.repo.ArticlesByKeywords, c.repo.CountArticlesByKeywords)
	if err != nil {
		return nil, fmt.Errorf("articles by keyword: %w", err)
	}

	payload.ScientificArticles, err = c.fetchCategory(ctx, prefs.Keywords, limit,
		c.repo.ScientificArticlesByKeywords, c.repo.CountScientificArticlesByKeywords)
	if err != nil {
		return nil, fmt.Errorf("scientific articles: %w", err)
	}

	payload.Videos, err = c.fetchCategory(ctx, prefs.VideoChannels, limit,
		c.repo.VideosByChannels, c.repo.CountVideosByChannels)
	if err != nil {
		return nil, fmt.Errorf("videos: %w", err)
	}

	payload.TrendingKeywords, err = c.trending(ctx, prefs.Keywords, limit)
	if err != nil {
		return nil, fmt.Errorf("trending keywords: %w", err)
	}

	return payload, nil
}

type fetchFunc func(ctx context.Context, values []string, limit int) ([]storage.Row, error)

type countFunc func(ctx context.Context, values []string) (int64, error)

func (c *Composer) fetchCategory(ctx context.Context, values []string, limit int, fetch fetchFunc, count countFunc) (Category, error) {
	if len(values) == 0 {
		return Category{Items: []storage.Row{}}, nil
	}

	items, err := fetch(ctx, values, limit)
	if err != nil {
		return Category{}, err
	}

	if items == nil {
		items = []storage.Row{}
	}

	total, err := count(ctx, values)
	if err != nil {
		return Category{}, err
	}

	return Category{Items: items, Total: total}, nil
}

// trending ranks keyword counts over the trailing window from all articles,
// then narrows the ranked list to the user's keyword preferences. Narrowing
// happens after ranking, so the result is a filtered top-N, not a re-ranked
// subset.
func (c *Composer) trending(ctx context.Context, allowList []string, limit int) ([]domain.KeywordCount, error) {
	end := c.now()
	start := end.AddDate(0, 0, -c.windowDays)

	fields, err := c.repo.ArticleKeywordFields(ctx, start, end)
	if err != nil {
		return nil, err
	}

	ranked := trends.Rank(trends.CountKeywords(fields), limit, 0)

	return trends.IntersectAllowList(ranked, allowList), nil
}
