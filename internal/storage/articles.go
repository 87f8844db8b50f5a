package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/aipulse/aipulse/internal/core/domain"
	coreerrors "github.com/aipulse/aipulse/internal/core/errors"
	"github.com/aipulse/aipulse/internal/core/prefs"
	"github.com/aipulse/aipulse/internal/core/queryfilter"
)

// articleColumns are the columns returned by article list queries.
// full_content stays out of list responses.
var articleColumns = []string{
	"id", "title", "source", "publication_date", "link",
	"author", "summary", "language", "keywords", "focus_tech",
}

// UpsertArticle inserts an article or, when a row with the same link already
// exists, overwrites it with the new values.
func (db *DB) UpsertArticle(ctx context.Context, a *domain.Article) error {
	query := `INSERT INTO articles
			(title, source, publication_date, link, author, summary, full_content, language, keywords, focus_tech)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (link) DO UPDATE
		SET title = EXCLUDED.title,
			source = EXCLUDED.source,
			publication_date = EXCLUDED.publication_date,
			author = EXCLUDED.author,
			summary = EXCLUDED.summary,
			full_content = EXCLUDED.full_content,
			language = EXCLUDED.language,
			keywords = EXCLUDED.keywords,
			focus_tech = EXCLUDED.focus_tech,
			updated_at = now()`

	_, err := db.q.Exec(ctx, query,
		a.Title,
		a.Source,
		toDate(a.PublicationDate),
		a.Link,
		a.Author,
		a.Summary,
		a.FullContent,
		toText(a.Language),
		toTextPtr(prefs.Encode(a.Keywords)),
		toTextPtr(prefs.Encode(a.FocusTech)),
	)
	if err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}

	return nil
}

// ListArticles fetches article rows matching the filter, newest first.
func (db *DB) ListArticles(ctx context.Context, filter *queryfilter.Builder) ([]Row, error) {
	pred, err := filter.Predicate()
	if err != nil {
		return nil, err
	}

	return db.FetchSelect(ctx, psql.
		Select(articleColumns...).
		From("articles").
		Where(pred).
		OrderBy("publication_date DESC"))
}

// ArticlesBySources fetches a capped preview of articles from any of the
// given sources, newest first.
func (db *DB) ArticlesBySources(ctx context.Context, sources []string, limit int) ([]Row, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	return db.FetchSelect(ctx, psql.
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"source": sources}).
		OrderBy("publication_date DESC").
		Limit(uint64(limit)))
}

// CountArticlesBySources counts the full matching set, uncapped.
func (db *DB) CountArticlesBySources(ctx context.Context, sources []string) (int64, error) {
	if len(sources) == 0 {
		return 0, nil
	}

	return db.CountSelect(ctx, psql.
		Select("COUNT(*)").
		From("articles").
		Where(sq.Eq{"source": sources}))
}

// ArticlesByKeywords fetches a capped preview of articles whose keyword field
// contains any of the given terms, newest first.
func (db *DB) ArticlesByKeywords(ctx context.Context, keywords []string, limit int) ([]Row, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	return db.FetchSelect(ctx, psql.
		Select(articleColumns...).
		From("articles").
		Where(keywordMatch("keywords", keywords)).
		OrderBy("publication_date DESC").
		Limit(uint64(limit)))
}

// CountArticlesByKeywords counts the full matching set, uncapped.
func (db *DB) CountArticlesByKeywords(ctx context.Context, keywords []string) (int64, error) {
	if len(keywords) == 0 {
		return 0, nil
	}

	return db.CountSelect(ctx, psql.
		Select("COUNT(*)").
		From("articles").
		Where(keywordMatch("keywords", keywords)))
}

// ArticleSourceCounts returns per-source article counts, largest first.
func (db *DB) ArticleSourceCounts(ctx context.Context) ([]Row, error) {
	return db.FetchRows(ctx,
		`SELECT source, COUNT(*) AS count FROM articles GROUP BY source ORDER BY count DESC, source`)
}

// ArticleKeywordFields returns the raw delimiter-encoded keyword fields of
// all articles published inside the window. Rows with no keywords are
// skipped.
func (db *DB) ArticleKeywordFields(ctx context.Context, start, end time.Time) ([]string, error) {
	const query = `SELECT keywords FROM articles
		WHERE publication_date >= $1 AND publication_date <= $2 AND keywords IS NOT NULL`

	rows, err := db.q.Query(ctx, query, toDate(start), toDate(end))
	if err != nil {
		return nil, coreerrors.NewQuery(query, err)
	}
	defer rows.Close()

	fields := make([]string, 0)

	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, coreerrors.NewQuery(query, err)
		}

		fields = append(fields, kw)
	}

	if err := rows.Err(); err != nil {
		return nil, coreerrors.NewQuery(query, err)
	}

	return fields, nil
}

// RecentArticlesMatchingKeywords returns articles created since the cutoff
// whose keyword field contains any of the terms. Used by the alert sweep.
func (db *DB) RecentArticlesMatchingKeywords(ctx context.Context, keywords []string, since time.Time) ([]Row, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	return db.FetchSelect(ctx, psql.
		Select("id", "title", "source", "link", "keywords", "publication_date").
		From("articles").
		Where(sq.And{
			sq.GtOrEq{"created_at": toTimestamptz(since)},
			keywordMatch("keywords", keywords),
		}).
		OrderBy("publication_date DESC"))
}

// CountArticles returns the total number of article rows.
func (db *DB) CountArticles(ctx context.Context) (int64, error) {
	return db.CountSelect(ctx, psql.Select("COUNT(*)").From("articles"))
}

// keywordMatch builds one ORed group of case-insensitive substring matches
// over a delimiter-encoded column.
func keywordMatch(column string, terms []string) sq.Or {
	group := sq.Or{}
	for _, term := range terms {
		group = append(group, sq.ILike{column: "%" + term + "%"})
	}

	return group
}
