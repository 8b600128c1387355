// Package app composes the planner's collaborators into the operations the
// front-ends call.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"budget-meal-planner/internal/config"
	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/llm"
	"budget-meal-planner/internal/logging"
	"budget-meal-planner/internal/metrics"
	"budget-meal-planner/internal/pantry"
	"budget-meal-planner/internal/planner"
	"budget-meal-planner/internal/prompt"
	"budget-meal-planner/internal/recipe"
	"budget-meal-planner/internal/storage"
)

// ErrNoProfile is returned by operations that need a saved household.
var ErrNoProfile = errors.New("household profile not set")

// Service holds the application's dependencies.
type Service struct {
	repo     *storage.Repository
	text     llm.TextGenerator
	prompts  *prompt.Builder
	engine   *planner.Engine
	recipes  *recipe.Cache
	scanner  *pantry.Scanner
	barcodes *pantry.BarcodeLookup
	metrics  *metrics.Store
	ring     *logging.RingBuffer
	timeouts config.Timeouts
	logger   *zap.Logger
	now      func() time.Time
}

// Deps are the collaborators built by the composition root. Vision, Metrics
// and Ring may be nil.
type Deps struct {
	KV      storage.KV
	Text    llm.TextGenerator
	Vision  llm.VisionGenerator
	Metrics *metrics.Store
	Ring    *logging.RingBuffer
	Logger  *zap.Logger
}

// NewService creates and initializes a new Service instance.
func NewService(cfg *config.Config, deps Deps) (*Service, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prompts, err := prompt.NewBuilder(cfg.BudgetTiers)
	if err != nil {
		return nil, err
	}

	s := &Service{
		repo:     storage.NewRepository(deps.KV),
		text:     deps.Text,
		prompts:  prompts,
		engine:   planner.NewEngine(planner.WithLogger(logger.Named("planner"))),
		metrics:  deps.Metrics,
		ring:     deps.Ring,
		timeouts: cfg.Timeouts,
		logger:   logger,
		now:      time.Now,
	}
	s.recipes = recipe.NewCache(deps.KV,
		recipe.NewLLMExpander(deps.Text, prompts, cfg.Timeouts.Recipe),
		recipe.WithPolicy(recipe.ParsePolicy(cfg.InstructionPolicy)),
		recipe.WithBatchSize(cfg.PrefetchBatchSize),
		recipe.WithLogger(logger.Named("recipes")),
		recipe.WithCallRecorder(s.record),
	)
	if deps.Vision != nil {
		s.scanner = pantry.NewScanner(deps.Vision, prompts, cfg.Timeouts.Image, logger.Named("pantry"))
	}
	s.barcodes = pantry.NewBarcodeLookup(cfg.BarcodeAPIURL, cfg.Timeouts.Barcode, logger.Named("barcode"))
	return s, nil
}

// record stores the call metrics; failures only produce a warning.
func (s *Service) record(ctx context.Context, meta llm.CallMeta) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.RecordCall(ctx, meta); err != nil {
		s.logger.Warn("failed to record metrics", zap.String("operation", meta.Operation), zap.Error(err))
	}
}

// generate runs one text completion and records it.
func (s *Service) generate(ctx context.Context, kind prompt.Kind, req prompt.Request, timeout time.Duration) (string, error) {
	p, err := s.prompts.Build(kind, req)
	if err != nil {
		return "", err
	}
	start := time.Now()
	resp, err := llm.Generate(ctx, s.text, p, timeout)
	s.record(ctx, llm.CallMeta{
		Operation: kind.String(),
		Usage:     resp.Usage,
		Latency:   time.Since(start),
		Failed:    err != nil,
	})
	if err != nil {
		return "", fmt.Errorf("%v request failed: %w", kind, err)
	}
	return resp.Content, nil
}

// Subscribe registers fn for plan and shopping list events.
func (s *Service) Subscribe(fn func(planner.Event)) (unsubscribe func()) {
	return s.engine.Bus().Subscribe(fn)
}

// DebugLog returns the most recent log lines, oldest first.
func (s *Service) DebugLog() []string {
	if s.ring == nil {
		return nil
	}
	return s.ring.Lines()
}

func (s *Service) SaveProfile(ctx context.Context, p domain.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	s.logger.Info("profile saved",
		zap.Int("servings", p.Servings()),
		zap.Float64("weekly_budget", p.WeeklyBudget),
		zap.String("prep_style", string(p.PrepStyle)))
	return nil
}

func (s *Service) Profile(ctx context.Context) (domain.Profile, error) {
	p, ok, err := s.repo.Profile(ctx)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if !ok {
		return domain.Profile{}, ErrNoProfile
	}
	return p, nil
}
