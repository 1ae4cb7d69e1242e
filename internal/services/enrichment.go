package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/models"
)

const (
	defaultEnrichmentTimeout = 5 * time.Second
	articleLimit             = 6
	videoLimit               = 6
)

type ArticleSearcher interface {
	SearchArticles(ctx context.Context, query string, limit int) ([]models.Article, error)
}

type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string, limit int) ([]models.Video, error)
}

type ImageSearcher interface {
	SearchImage(ctx context.Context, query string) (string, error)
}

type EnrichmentCache interface {
	Get(ctx context.Context, key string) (*Enrichment, bool)
	Set(ctx context.Context, key string, e *Enrichment)
}

// Enrichment is the best-effort resource bundle for a topic. Degraded names the
// lookups that fell back to their defaults.
type Enrichment struct {
	Articles []models.Article `json:"articles"`
	Videos   []models.Video   `json:"videos"`
	ImageURL string           `json:"image_url"`
	Degraded []string         `json:"-"`
}

// FallbackImageURL is the deterministic cover image used when image search is
// unavailable.
func FallbackImageURL(topic string) string {
	return "https://placehold.co/1200x630/png?text=" + url.QueryEscape(strings.TrimSpace(topic))
}

func enrichmentCacheKey(topic string) string {
	return "enrichment:" + strings.ToLower(strings.Join(strings.Fields(topic), " "))
}

// Enricher fans out to the article, video and image sources. A nil source is
// treated as unconfigured and degrades immediately.
type Enricher struct {
	articles ArticleSearcher
	videos   VideoSearcher
	images   ImageSearcher
	cache    EnrichmentCache
	timeout  time.Duration
	log      *logger.Logger
}

func NewEnricher(articles ArticleSearcher, videos VideoSearcher, images ImageSearcher, cache EnrichmentCache, timeout time.Duration, log *logger.Logger) *Enricher {
	if timeout <= 0 {
		timeout = defaultEnrichmentTimeout
	}
	return &Enricher{
		articles: articles,
		videos:   videos,
		images:   images,
		cache:    cache,
		timeout:  timeout,
		log:      log,
	}
}

// Enrich looks up articles, videos and a cover image for topic. It never fails.
func (e *Enricher) Enrich(ctx context.Context, topic string) Enrichment {
	return e.enrich(ctx, topic, true)
}

// EnrichResources is Enrich without the image lookup, for subtopic pages.
func (e *Enricher) EnrichResources(ctx context.Context, query string) Enrichment {
	return e.enrich(ctx, query, false)
}

func (e *Enricher) enrich(ctx context.Context, topic string, withImage bool) Enrichment {
	key := enrichmentCacheKey(topic)
	if !withImage {
		key += ":resources"
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, key); ok {
			return *cached
		}
	}

	res := Enrichment{
		Articles: []models.Article{},
		Videos:   []models.Video{},
		ImageURL: FallbackImageURL(topic),
	}
	var articlesFailed, videosFailed, imageFailed bool

	// Each goroutine owns one field of res.
	var g errgroup.Group

	g.Go(func() error {
		if e.articles == nil {
			articlesFailed = true
			return nil
		}
		items, err := runBounded(ctx, e.timeout, func(ctx context.Context) ([]models.Article, error) {
			return e.articles.SearchArticles(ctx, topic, articleLimit)
		})
		if err != nil {
			e.log.Warn("Article enrichment degraded", "topic", topic, "error", err)
			articlesFailed = true
			return nil
		}
		if items != nil {
			res.Articles = items
		}
		return nil
	})

	g.Go(func() error {
		if e.videos == nil {
			videosFailed = true
			return nil
		}
		items, err := runBounded(ctx, e.timeout, func(ctx context.Context) ([]models.Video, error) {
			return e.videos.SearchVideos(ctx, topic, videoLimit)
		})
		if err != nil {
			e.log.Warn("Video enrichment degraded", "topic", topic, "error", err)
			videosFailed = true
			return nil
		}
		if items != nil {
			res.Videos = items
		}
		return nil
	})

	if withImage {
		g.Go(func() error {
			if e.images == nil {
				imageFailed = true
				return nil
			}
			link, err := runBounded(ctx, e.timeout, func(ctx context.Context) (string, error) {
				return e.images.SearchImage(ctx, topic)
			})
			if err != nil || link == "" {
				e.log.Warn("Image enrichment degraded", "topic", topic, "error", err)
				imageFailed = true
				return nil
			}
			res.ImageURL = link
			return nil
		})
	}

	_ = g.Wait()

	if articlesFailed {
		res.Degraded = append(res.Degraded, "articles")
	}
	if videosFailed {
		res.Degraded = append(res.Degraded, "videos")
	}
	if imageFailed {
		res.Degraded = append(res.Degraded, "image")
	}

	if len(res.Degraded) > 0 {
		e.log.Info("Enrichment degraded", "topic", topic, "degraded", res.Degraded)
	} else if e.cache != nil {
		e.cache.Set(ctx, key, &res)
	}

	return res
}

// runBounded runs call with a deadline and returns when either the call or the
// deadline finishes, so a source that ignores its context cannot stall the caller.
func runBounded[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("panic in enrichment source: %v", r)}
			}
		}()
		v, err := call(ctx)
		ch <- result{val: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
