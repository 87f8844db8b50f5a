package storage

import (
	"context"
	"fmt"

	"github.com/aipulse/aipulse/internal/core/domain"
	"github.com/aipulse/aipulse/internal/core/prefs"
	"github.com/aipulse/aipulse/internal/core/queryfilter"
)

var scientificColumns = []string{
	"id", "title", "authors", "publication_date", "abstract",
	"article_url", "external_id", "keywords", "source",
}

// UpsertScientificArticle inserts a paper or overwrites the row sharing its
// external_id.
func (db *DB) UpsertScientificArticle(ctx context.Context, a *domain.ScientificArticle) error {
	query := `INSERT INTO scientific_articles
			(title, authors, publication_date, abstract, article_url, external_id, keywords, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (external_id) DO UPDATE
		SET title = EXCLUDED.title,
			authors = EXCLUDED.authors,
			publication_date = EXCLUDED.publication_date,
			abstract = EXCLUDED.abstract,
			article_url = EXCLUDED.article_url,
			keywords = EXCLUDED.keywords,
			source = EXCLUDED.source,
			updated_at = now()`

	_, err := db.q.Exec(ctx, query,
		a.Title,
		a.Authors,
		toDate(a.PublicationDate),
		a.Abstract,
		a.ArticleURL,
		a.ExternalID,
		toTextPtr(prefs.Encode(a.Keywords)),
		a.Source,
	)
	if err != nil {
		return fmt.Errorf("upsert scientific article: %w", err)
	}

	return nil
}

// ListScientificArticles fetches paper rows matching the filter, newest first.
func (db *DB) ListScientificArticles(ctx context.Context, filter *queryfilter.Builder) ([]Row, error) {
	pred, err := filter.Predicate()
	if err != nil {
		return nil, err
	}

	return db.FetchSelect(ctx, psql.
		Select(scientificColumns...).
		From("scientific_articles").
		Where(pred).
		OrderBy("publication_date DESC"))
}

// ScientificArticlesByKeywords fetches a capped preview of papers whose
// keyword field contains any of the given terms, newest first.
func (db *DB) ScientificArticlesByKeywords(ctx context.Context, keywords []string, limit int) ([]Row, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	return db.FetchSelect(ctx, psql.
		Select(scientificColumns...).
		From("scientific_articles").
		Where(keywordMatch("keywords", keywords)).
		OrderBy("publication_date DESC").
		Limit(uint64(limit)))
}

// CountScientificArticlesByKeywords counts the full matching set, uncapped.
func (db *DB) CountScientificArticlesByKeywords(ctx context.Context, keywords []string) (int64, error) {
	if len(keywords) == 0 {
		return 0, nil
	}

	return db.CountSelect(ctx, psql.
		Select("COUNT(*)").
		From("scientific_articles").
		Where(keywordMatch("keywords", keywords)))
}

// CountScientificArticles returns the total number of paper rows.
func (db *DB) CountScientificArticles(ctx context.Context) (int64, error) {
	return db.CountSelect(ctx, psql.Select("COUNT(*)").From("scientific_articles"))
}
