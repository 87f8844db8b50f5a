package ingest

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/aipulse/aipulse/internal/core/domain"
	"github.com/aipulse/aipulse/internal/core/lang"
	"github.com/aipulse/aipulse/internal/core/nlp"
)

const (
	rssScraperName  = "rss"
	maxItemsPerFeed = 50
)

// RSSScraper ingests news and blog articles from configured RSS/Atom feeds.
// Full content comes from a readability pass over the linked page; keywords
// and the summary come from the NLP boundary. Records missing any required
// field are skipped, not stored.
type RSSScraper struct {
	feeds  []string
	client *feedClient
	nlp    nlp.Client
	store  Store
	logger *zerolog.Logger
}

// NewRSSScraper creates the article scraper. rps caps outbound page and
// feed fetches per second.
func NewRSSScraper(feeds []string, rps float64, nlpClient nlp.Client, store Store, logger *zerolog.Logger) *RSSScraper {
	return &RSSScraper{
		feeds:  feeds,
		client: newFeedClient(rps),
		nlp:    nlpClient,
		store:  store,
		logger: logger,
	}
}

func (s *RSSScraper) Name() string { return rssScraperName }

// Run processes every configured feed. A feed that fails to fetch or parse
// is logged and skipped; the run continues with the rest.
func (s *RSSScraper) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	for _, feedURL := range s.feeds {
		feed, err := s.client.fetch(ctx, feedURL)
		if err != nil {
			s.logger.Warn().Err(err).Str("feed", feedURL).Msg("feed fetch failed")
			continue
		}

		s.processFeed(ctx, feed, &stats)
	}

	return stats, ctx.Err()
}

func (s *RSSScraper) processFeed(ctx context.Context, feed *gofeed.Feed, stats *Stats) {
	for i, item := range feed.Items {
		if i >= maxItemsPerFeed || ctx.Err() != nil {
			return
		}

		article, err := s.buildArticle(ctx, feed, item)
		if err != nil {
			s.logger.Warn().Err(err).Str("link", item.Link).Msg("article build failed")
			stats.Skipped++

			continue
		}

		if article.FullContent == "" {
			stats.EmptyContent++
		}

		if !article.Complete() {
			s.logger.Debug().Str("link", item.Link).Msg("incomplete article skipped")
			stats.Skipped++

			continue
		}

		if err := s.store.UpsertArticle(ctx, article); err != nil {
			s.logger.Error().Err(err).Str("link", article.Link).Msg("article upsert failed")
			stats.Skipped++

			continue
		}

		stats.Processed++
		stats.KeywordTotal += len(article.Keywords)
	}
}

func (s *RSSScraper) buildArticle(ctx context.Context, feed *gofeed.Feed, item *gofeed.Item) (*domain.Article, error) {
	article := &domain.Article{
		Title:           strings.TrimSpace(item.Title),
		Source:          sourceName(feed, item.Link),
		PublicationDate: itemPublished(item),
		Link:            item.Link,
		Author:          itemAuthor(item),
		Summary:         strings.TrimSpace(item.Description),
	}

	content, byline := s.extractContent(ctx, item.Link)
	article.FullContent = content

	if article.Author == "" {
		article.Author = byline
	}

	text := article.FullContent
	if text == "" {
		text = article.Summary
	}

	article.Language = lang.Detect(article.Title + " " + text)

	if text != "" {
		tags, err := s.nlp.ExtractTags(ctx, text)
		if err != nil {
			s.logger.Warn().Err(err).Str("link", item.Link).Msg("tag extraction failed")
		} else {
			article.Keywords = tags
		}
	}

	if article.Summary == "" && article.FullContent != "" {
		summary, err := s.nlp.Summarize(ctx, article.FullContent)
		if err != nil {
			s.logger.Warn().Err(err).Str("link", item.Link).Msg("summarization failed")
		} else {
			article.Summary = summary
		}
	}

	return article, nil
}

// extractContent runs a readability pass over the linked page and returns
// the text content plus the page byline. Both are empty when the fetch or
// the extraction fails; the caller decides whether that makes the record
// incomplete.
func (s *RSSScraper) extractContent(ctx context.Context, link string) (content, byline string) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", ""
	}

	body, err := s.client.fetchPage(ctx, link)
	if err != nil {
		s.logger.Debug().Err(err).Str("link", link).Msg("page fetch failed")

		return "", ""
	}

	page, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		s.logger.Debug().Err(err).Str("link", link).Msg("readability extraction failed")

		return "", ""
	}

	return strings.TrimSpace(page.TextContent), strings.TrimSpace(page.Byline)
}

// sourceName labels a record with the feed title, falling back to the link
// host for feeds that omit one.
func sourceName(feed *gofeed.Feed, link string) string {
	if feed.Title != "" {
		return feed.Title
	}

	if parsed, err := url.Parse(link); err == nil && parsed.Host != "" {
		return parsed.Host
	}

	return "unknown"
}
