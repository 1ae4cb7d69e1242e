package services

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// ImageSearch picks a course cover image with the Programmable Search JSON API.
type ImageSearch struct {
	svc *customsearch.Service
	cx  string
}

func NewImageSearch(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*ImageSearch, error) {
	if cx == "" {
		return nil, errors.New("search engine id (cx) is required for image search")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create custom search client: %w", err)
	}
	return &ImageSearch{svc: svc, cx: cx}, nil
}

func (s *ImageSearch) SearchImage(ctx context.Context, query string) (string, error) {
	resp, err := s.svc.Cse.List().
		Cx(s.cx).
		Q(query).
		SearchType("image").
		ImgSize("xlarge").
		Safe("active").
		Num(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("image search failed: %w", err)
	}

	for _, item := range resp.Items {
		if item.Link != "" {
			return item.Link, nil
		}
	}
	return "", errors.New("image search returned no results")
}
