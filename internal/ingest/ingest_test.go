package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aipulse/aipulse/internal/core/domain"
	"github.com/aipulse/aipulse/internal/core/nlp"
)

type fakeStore struct {
	articles []*domain.Article
	papers   []*domain.ScientificArticle
	videos   []*domain.Video
	runs     []domain.MonitoringLogEntry
}

func (f *fakeStore) UpsertArticle(_ context.Context, a *domain.Article) error {
	f.articles = append(f.articles, a)

	return nil
}

func (f *fakeStore) UpsertScientificArticle(_ context.Context, a *domain.ScientificArticle) error {
	f.papers = append(f.papers, a)

	return nil
}

func (f *fakeStore) UpsertVideo(_ context.Context, v *domain.Video) error {
	f.videos = append(f.videos, v)

	return nil
}

func (f *fakeStore) InsertRun(_ context.Context, entry domain.MonitoringLogEntry) error {
	f.runs = append(f.runs, entry)

	return nil
}

type fakeScraper struct {
	stats Stats
	err   error
}

func (f *fakeScraper) Name() string { return "fake" }

func (f *fakeScraper) Run(_ context.Context) (Stats, error) { return f.stats, f.err }

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()

	return &logger
}

func TestRunnerRecordsMonitoringEntry(t *testing.T) {
	store := &fakeStore{}
	runner := NewRunner(store, nopLogger())

	scraper := &fakeScraper{stats: Stats{
		Processed:    4,
		Skipped:      1,
		EmptyContent: 1,
		Summaries:    2,
		KeywordTotal: 12,
	}}

	require.NoError(t, runner.Run(context.Background(), scraper))
	require.Len(t, store.runs, 1)

	entry := store.runs[0]
	assert.Equal(t, "fake", entry.Script)
	assert.Equal(t, 4, entry.ArticlesProcessed)
	assert.Equal(t, 1, entry.EmptyContentCount)
	assert.Equal(t, 2, entry.SummariesGenerated)
	assert.InDelta(t, 3.0, entry.AverageKeywords, 0.001)
}

func TestRunnerRecordsFailedRun(t *testing.T) {
	store := &fakeStore{}
	runner := NewRunner(store, nopLogger())

	err := runner.Run(context.Background(), &fakeScraper{err: assert.AnError})
	require.Error(t, err)
	assert.Len(t, store.runs, 1)
}

func TestStatsAverageKeywordsZeroProcessed(t *testing.T) {
	assert.Zero(t, Stats{KeywordTotal: 10}.AverageKeywords())
}

const youtubeFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Two Minute Papers</title>
  <entry>
    <title>New AI paper explained</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=abc123"/>
    <published>2024-05-01T10:00:00+00:00</published>
    <content type="text">A walkthrough of the paper.</content>
  </entry>
  <entry>
    <title></title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=missing"/>
    <published>2024-05-02T10:00:00+00:00</published>
  </entry>
</feed>`

func TestYouTubeScraperUpsertsCompleteVideos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, youtubeFeedXML)
	}))
	defer server.Close()

	store := &fakeStore{}
	scraper := NewYouTubeScraper([]string{"UCtest"}, store, nopLogger())
	scraper.client.httpClient = server.Client()

	// Point the scraper at the test server instead of youtube.com.
	scraper.channelIDs = nil

	feed, err := scraper.client.fetch(context.Background(), server.URL)
	require.NoError(t, err)

	var stats Stats

	scraper.processChannel(context.Background(), "UCtest", feed, &stats)

	require.Len(t, store.videos, 1)
	assert.Equal(t, "New AI paper explained", store.videos[0].Title)
	assert.Equal(t, "Two Minute Papers", store.videos[0].ChannelName)
	assert.Equal(t, "UCtest", store.videos[0].ChannelID)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
}

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query: search_query=cat:cs.AI</title>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <title>Scaling Laws
 Revisited</title>
    <link rel="alternate" href="http://arxiv.org/abs/2401.00001v1"/>
    <published>2024-01-02T00:00:00Z</published>
    <summary>We revisit scaling laws for transformer training and transformer inference.</summary>
    <author><name>A. Researcher</name></author>
    <author><name>B. Researcher</name></author>
  </entry>
</feed>`

func TestArxivScraperUpsertsPapers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, arxivFeedXML)
	}))
	defer server.Close()

	store := &fakeStore{}
	scraper := NewArxivScraper([]string{"cs.AI"}, 50, nlp.NewMock(), store, nopLogger())

	feed, err := scraper.client.fetch(context.Background(), server.URL)
	require.NoError(t, err)

	var stats Stats

	scraper.processCategory(context.Background(), "cs.AI", feed, &stats)

	require.Len(t, store.papers, 1)

	paper := store.papers[0]
	assert.Equal(t, "Scaling Laws  Revisited", paper.Title)
	assert.Equal(t, "http://arxiv.org/abs/2401.00001v1", paper.ExternalID)
	assert.Equal(t, "A. Researcher, B. Researcher", paper.Authors)
	assert.Equal(t, "arxiv:cs.AI", paper.Source)
	assert.Equal(t, 1, stats.Processed)
}

func articlePage() string {
	var b strings.Builder

	b.WriteString("<html><head><title>Post</title></head><body><article>")

	for i := 0; i < 12; i++ {
		b.WriteString("<p>Transformer models keep improving on language benchmarks while the training budgets keep growing, and practitioners keep debating whether the gains come from data quality or raw scale.</p>")
	}

	b.WriteString("</article></body></html>")

	return b.String()
}

func rssFeedXML(pageURL string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Example AI Blog</title>
    <item>
      <title>Why scale still matters</title>
      <link>%s</link>
      <pubDate>Mon, 06 May 2024 08:00:00 GMT</pubDate>
      <dc:creator>Jordan Writer</dc:creator>
      <description>A look at scaling trends.</description>
    </item>
    <item>
      <title>Broken item</title>
      <link>%s/missing</link>
      <pubDate>Tue, 07 May 2024 08:00:00 GMT</pubDate>
      <dc:creator>Jordan Writer</dc:creator>
      <description>Goes nowhere.</description>
    </item>
  </channel>
</rss>`, pageURL, pageURL)
}

func TestRSSScraperSkipsIncompleteArticles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/post", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articlePage())
	})
	mux.HandleFunc("/post/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/feed", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssFeedXML(server.URL+"/post"))
	})

	store := &fakeStore{}
	scraper := NewRSSScraper([]string{server.URL + "/feed"}, 1000, nlp.NewMock(), store, nopLogger())

	stats, err := scraper.Run(context.Background())
	require.NoError(t, err)

	// The first item resolves to real page content; the second item's page
	// 404s, leaving full content empty, so it is skipped.
	require.Len(t, store.articles, 1)

	article := store.articles[0]
	assert.Equal(t, "Why scale still matters", article.Title)
	assert.Equal(t, "Example AI Blog", article.Source)
	assert.Equal(t, "Jordan Writer", article.Author)
	assert.Equal(t, "en", article.Language)
	assert.NotEmpty(t, article.FullContent)
	assert.Equal(t, time.Date(2024, 5, 6, 8, 0, 0, 0, time.UTC), article.PublicationDate.UTC())

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.EmptyContent)
}

func TestSourceNameFallsBackToHost(t *testing.T) {
	assert.Equal(t, "Example AI Blog", sourceName(&gofeed.Feed{Title: "Example AI Blog"}, "https://example.com/a"))
	assert.Equal(t, "example.com", sourceName(&gofeed.Feed{}, "https://example.com/a"))
}
