package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"coursenova-backend/internal/models"
)

// YouTubeSearcher finds embeddable videos with the YouTube Data API v3.
type YouTubeSearcher struct {
	svc *youtube.Service
}

func NewYouTubeSearcher(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeSearcher, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube client: %w", err)
	}
	return &YouTubeSearcher{svc: svc}, nil
}

func (s *YouTubeSearcher) SearchVideos(ctx context.Context, query string, limit int) ([]models.Video, error) {
	resp, err := s.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoEmbeddable("true").
		SafeSearch("strict").
		RelevanceLanguage("en").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("YouTube search failed: %w", err)
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		id := item.Id.VideoId
		videos = append(videos, models.Video{
			Title:        strings.TrimSpace(item.Snippet.Title),
			URL:          "https://www.youtube.com/watch?v=" + id,
			VideoID:      id,
			Description:  strings.TrimSpace(item.Snippet.Description),
			ThumbnailURL: thumbnailURL(id, item.Snippet.Thumbnails),
			Channel:      item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
		})
	}
	return videos, nil
}

func thumbnailURL(videoID string, thumbs *youtube.ThumbnailDetails) string {
	if thumbs != nil {
		for _, t := range []*youtube.Thumbnail{thumbs.High, thumbs.Medium, thumbs.Default} {
			if t != nil && t.Url != "" {
				return t.Url
			}
		}
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", videoID)
}
