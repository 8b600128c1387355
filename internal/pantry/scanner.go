package pantry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"budget-meal-planner/internal/llm"
	"budget-meal-planner/internal/normalize"
	"budget-meal-planner/internal/prompt"
)

// ErrVisionUnavailable is returned when no vision backend is configured.
var ErrVisionUnavailable = errors.New("pantry photo analysis is not configured")

// Scanner detects pantry items in a photo.
type Scanner struct {
	vision  llm.VisionGenerator
	prompts *prompt.Builder
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func NewScanner(vision llm.VisionGenerator, prompts *prompt.Builder, timeout time.Duration, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{vision: vision, prompts: prompts, timeout: timeout, now: time.Now, logger: logger}
}

// ScanImage returns the detected items, triaged by confidence. An
// unreadable response yields no items rather than an error.
func (s *Scanner) ScanImage(ctx context.Context, img llm.Image) (Triaged, llm.CallMeta, error) {
	meta := llm.CallMeta{Operation: prompt.PantryImageAnalysis.String()}
	if s.vision == nil {
		return Triaged{}, meta, ErrVisionUnavailable
	}
	p, err := s.prompts.Build(prompt.PantryImageAnalysis, prompt.Request{})
	if err != nil {
		return Triaged{}, meta, err
	}

	start := time.Now()
	resp, err := llm.GenerateFromImage(ctx, s.vision, p, img, s.timeout)
	meta.Latency = time.Since(start)
	meta.Usage = resp.Usage
	if err != nil {
		meta.Failed = true
		return Triaged{}, meta, fmt.Errorf("failed to analyze pantry photo: %w", err)
	}

	now := s.now()
	candidates := normalize.PantryItems(resp.Content)
	for i := range candidates {
		candidates[i] = NewItem(candidates[i], now)
	}
	t := Triage(candidates)
	s.logger.Info("pantry photo analyzed",
		zap.Int("accepted", len(t.Accepted)),
		zap.Int("needs_review", len(t.NeedsReview)))
	return t, meta, nil
}
