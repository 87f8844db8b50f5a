package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/aipulse/aipulse/internal/core/domain"
	"github.com/aipulse/aipulse/internal/core/nlp"
)

const (
	arxivScraperName = "arxiv"
	arxivQueryFormat = "https://export.arxiv.org/api/query?search_query=cat:%s&sortBy=submittedDate&sortOrder=descending&max_results=%d"
)

// ArxivScraper ingests preprints from the arXiv Atom API per configured
// category. The arXiv entry id is the dedup key; a revised paper with the
// same id overwrites the stored row.
type ArxivScraper struct {
	categories []string
	maxResults int
	client     *feedClient
	nlp        nlp.Client
	store      Store
	logger     *zerolog.Logger
}

// NewArxivScraper creates the preprint scraper.
func NewArxivScraper(categories []string, maxResults int, nlpClient nlp.Client, store Store, logger *zerolog.Logger) *ArxivScraper {
	return &ArxivScraper{
		categories: categories,
		maxResults: maxResults,
		// arXiv asks for no more than one request every three seconds.
		client: newFeedClient(1.0 / 3.0),
		nlp:    nlpClient,
		store:  store,
		logger: logger,
	}
}

func (s *ArxivScraper) Name() string { return arxivScraperName }

func (s *ArxivScraper) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	for _, category := range s.categories {
		queryURL := fmt.Sprintf(arxivQueryFormat, category, s.maxResults)

		feed, err := s.client.fetch(ctx, queryURL)
		if err != nil {
			s.logger.Warn().Err(err).Str("category", category).Msg("arxiv query failed")
			continue
		}

		s.processCategory(ctx, category, feed, &stats)
	}

	return stats, ctx.Err()
}

func (s *ArxivScraper) processCategory(ctx context.Context, category string, feed *gofeed.Feed, stats *Stats) {
	for _, item := range feed.Items {
		if ctx.Err() != nil {
			return
		}

		paper := s.buildPaper(ctx, category, item)
		if paper.Title == "" || paper.ExternalID == "" || paper.PublicationDate.IsZero() {
			stats.Skipped++
			continue
		}

		if paper.Abstract == "" {
			stats.EmptyContent++
		}

		if err := s.store.UpsertScientificArticle(ctx, paper); err != nil {
			s.logger.Error().Err(err).Str("external_id", paper.ExternalID).Msg("paper upsert failed")
			stats.Skipped++

			continue
		}

		stats.Processed++
		stats.KeywordTotal += len(paper.Keywords)
	}
}

func (s *ArxivScraper) buildPaper(ctx context.Context, category string, item *gofeed.Item) *domain.ScientificArticle {
	paper := &domain.ScientificArticle{
		Title:           strings.TrimSpace(strings.ReplaceAll(item.Title, "\n", " ")),
		Authors:         joinAuthors(item),
		PublicationDate: itemPublished(item),
		Abstract:        strings.TrimSpace(item.Description),
		ArticleURL:      item.Link,
		ExternalID:      externalID(item),
		Source:          "arxiv:" + category,
	}

	if paper.Abstract != "" {
		tags, err := s.nlp.ExtractTags(ctx, paper.Abstract)
		if err != nil {
			s.logger.Warn().Err(err).Str("external_id", paper.ExternalID).Msg("tag extraction failed")
		} else {
			paper.Keywords = tags
		}
	}

	return paper
}

// externalID prefers the Atom entry id over the link; both carry the
// versioned arXiv identifier.
func externalID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}

	return item.Link
}

func joinAuthors(item *gofeed.Item) string {
	names := make([]string, 0, len(item.Authors))

	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			names = append(names, author.Name)
		}
	}

	return strings.Join(names, ", ")
}
