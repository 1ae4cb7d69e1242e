package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coursenova-backend/internal/models"
)

const newsAPIEverythingURL = "https://newsapi.org/v2/everything"

// NewsSearcher finds articles through NewsAPI's /v2/everything endpoint.
type NewsSearcher struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewNewsSearcher(apiKey string) *NewsSearcher {
	return &NewsSearcher{
		apiKey:     apiKey,
		baseURL:    newsAPIEverythingURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (s *NewsSearcher) SearchArticles(ctx context.Context, query string, limit int) ([]models.Article, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build NewsAPI request: %w", err)
	}
	req.Header.Set("X-Api-Key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("NewsAPI request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read NewsAPI response: %w", err)
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode NewsAPI response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || payload.Status != "ok" {
		return nil, fmt.Errorf("NewsAPI returned status %d: %s %s", resp.StatusCode, payload.Code, payload.Message)
	}

	articles := make([]models.Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		// NewsAPI tombstones deleted articles with the literal title "[Removed]".
		if a.URL == "" || strings.TrimSpace(a.Title) == "" || a.Title == "[Removed]" {
			continue
		}
		articles = append(articles, models.Article{
			Title:       strings.TrimSpace(a.Title),
			URL:         a.URL,
			Description: strings.TrimSpace(a.Description),
			ImageURL:    a.URLToImage,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
		if len(articles) == limit {
			break
		}
	}
	return articles, nil
}
