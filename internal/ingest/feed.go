package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

const (
	feedFetchTimeout = 30 * time.Second
	maxFeedBodySize  = 10 * 1024 * 1024 // 10MB
	userAgent        = "aipulse/1.0 (+https://github.com/aipulse/aipulse)"
)

var errFeedHTTPStatus = errors.New("feed HTTP error")

// feedClient fetches and parses RSS/Atom feeds with a shared rate limit so
// back-to-back scraper runs stay polite to upstream hosts.
type feedClient struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	limiter    *rate.Limiter
}

func newFeedClient(rps float64) *feedClient {
	return &feedClient{
		httpClient: &http.Client{Timeout: feedFetchTimeout},
		parser:     gofeed.NewParser(),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *feedClient) fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errFeedHTTPStatus, resp.StatusCode)
	}

	feed, err := c.parser.Parse(io.LimitReader(resp.Body, maxFeedBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return feed, nil
}

// fetchPage downloads a single page body for content extraction.
func (c *feedClient) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errFeedHTTPStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

// itemPublished resolves an item's publication time. Falls back to the
// feed-supplied raw string for formats gofeed does not parse itself.
func itemPublished(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}

	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}

	if item.Published != "" {
		if t, err := dateparse.ParseAny(item.Published); err == nil {
			return t
		}
	}

	return time.Time{}
}

// itemAuthor resolves an item's author name, empty when the feed omits it.
func itemAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		return item.Authors[0].Name
	}

	if item.Author != nil {
		return item.Author.Name
	}

	return ""
}
