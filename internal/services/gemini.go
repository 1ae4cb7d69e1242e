package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"coursenova-backend/internal/config"
	"coursenova-backend/internal/logger"
)

const systemInstruction = "You are an expert curriculum creator and interactive tutor for CourseNova, an AI-powered learning platform. Generate educational content that is engaging, structured, and pedagogically sound."

// TextGenerator is the LLM client contract: one prompt in, raw text out.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, modelID string) (string, error)
}

type GeminiService struct {
	client   *genai.Client
	timeout  time.Duration
	log      *logger.Logger
	rateChan chan struct{} // Token bucket
}

func NewGeminiService(ctx context.Context, cfg *config.Config, log *logger.Logger) (*GeminiService, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required for course generation")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	concurrentReqs := cfg.GeminiConcurrentReqs
	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:   client,
		timeout:  cfg.GenerationTimeout,
		log:      log,
		rateChan: rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Generate sends a single prompt to the given model and returns its text.
// Every failure, including an empty or safety-blocked answer, is a *GenerationError.
func (s *GeminiService) Generate(ctx context.Context, prompt, modelID string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", &GenerationError{Err: err}
	}
	defer s.releaseRate()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	model := s.client.GenerativeModel(modelID)
	model.SetTemperature(0.4)
	model.SetTopP(0.95)
	model.SetMaxOutputTokens(8192)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		s.log.Error("Gemini request failed", "model", modelID, "error", err)
		return "", &GenerationError{Err: fmt.Errorf("Gemini API error: %w", err)}
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", &GenerationError{Err: fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)}
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			s.log.Warn("Gemini candidate did not finish cleanly", "candidate", i, "finish_reason", cand.FinishReason.String())
		}
	}

	text := strings.TrimSpace(extractText(resp))
	if text == "" {
		return "", &GenerationError{Err: errors.New("Gemini returned an empty response")}
	}

	s.log.Debug("Gemini response received", "model", modelID, "chars", len(text), "elapsed", time.Since(start).String())
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
