package ingest

import (
	"context"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/aipulse/aipulse/internal/core/domain"
)

const (
	youtubeScraperName = "youtube"
	youtubeFeedFormat  = "https://www.youtube.com/feeds/videos.xml?channel_id="
)

// YouTubeScraper ingests videos from per-channel YouTube Atom feeds. The
// video URL is the dedup key.
type YouTubeScraper struct {
	channelIDs []string
	client     *feedClient
	store      Store
	logger     *zerolog.Logger
}

// NewYouTubeScraper creates the video scraper.
func NewYouTubeScraper(channelIDs []string, store Store, logger *zerolog.Logger) *YouTubeScraper {
	return &YouTubeScraper{
		channelIDs: channelIDs,
		client:     newFeedClient(1),
		store:      store,
		logger:     logger,
	}
}

func (s *YouTubeScraper) Name() string { return youtubeScraperName }

func (s *YouTubeScraper) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	for _, channelID := range s.channelIDs {
		feed, err := s.client.fetch(ctx, youtubeFeedFormat+channelID)
		if err != nil {
			s.logger.Warn().Err(err).Str("channel_id", channelID).Msg("channel feed fetch failed")
			continue
		}

		s.processChannel(ctx, channelID, feed, &stats)
	}

	return stats, ctx.Err()
}

func (s *YouTubeScraper) processChannel(ctx context.Context, channelID string, feed *gofeed.Feed, stats *Stats) {
	for _, item := range feed.Items {
		if ctx.Err() != nil {
			return
		}

		video := &domain.Video{
			Title:           strings.TrimSpace(item.Title),
			Description:     strings.TrimSpace(item.Description),
			PublicationDate: itemPublished(item),
			Source:          youtubeScraperName,
			VideoURL:        item.Link,
			ChannelName:     feed.Title,
			ChannelID:       channelID,
		}

		if video.Title == "" || video.VideoURL == "" || video.PublicationDate.IsZero() {
			stats.Skipped++
			continue
		}

		if video.Description == "" {
			stats.EmptyContent++
		}

		if err := s.store.UpsertVideo(ctx, video); err != nil {
			s.logger.Error().Err(err).Str("video_url", video.VideoURL).Msg("video upsert failed")
			stats.Skipped++

			continue
		}

		stats.Processed++
	}
}
