package app

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"budget-meal-planner/internal/config"
	"budget-meal-planner/internal/database"
	"budget-meal-planner/internal/llm"
	"budget-meal-planner/internal/logging"
	"budget-meal-planner/internal/metrics"
	"budget-meal-planner/internal/storage"
)

// Runtime bundles the process-wide resources a front-end needs.
type Runtime struct {
	Service *Service
	Metrics *metrics.Store
	Logger  *zap.Logger
	Ring    *logging.RingBuffer
	KV      storage.KV

	closers []func() error
}

// Bootstrap builds the logger, database, key-value store and generators
// selected by cfg and wires them into a Service.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{Ring: logging.NewRingBuffer(cfg.LogRingSize)}
	logger, err := logging.New(cfg.LogLevel, rt.Ring)
	if err != nil {
		return nil, err
	}
	rt.Logger = logger
	rt.closers = append(rt.closers, func() error {
		_ = logger.Sync()
		return nil
	})

	db, err := database.NewDB(cfg.DatabasePath, logger.Named("database"))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	rt.closers = append(rt.closers, db.Close)
	rt.Metrics = metrics.NewStore(db.SQL)

	switch cfg.StorageDriver {
	case config.StorageSQLite:
		rt.KV = storage.NewSQLiteStore(db.SQL)
	case config.StorageRedis:
		rs, err := storage.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, rs.Close)
		rt.KV = rs
	default:
		fs, err := storage.NewFileStore(filepath.Join(cfg.DataDir, "store"))
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.KV = fs
	}

	var gemini *llm.GeminiClient
	if cfg.VisionEnabled() {
		gemini, err = llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, gemini.Close)
	}

	deps := Deps{KV: rt.KV, Metrics: rt.Metrics, Ring: rt.Ring, Logger: logger}
	switch cfg.LLMProvider {
	case config.ProviderGroq:
		deps.Text = llm.NewGroqClient(cfg)
	default:
		deps.Text = gemini
	}
	if gemini != nil {
		deps.Vision = gemini
	}

	rt.Service, err = NewService(cfg, deps)
	if err != nil {
		rt.Close()
		return nil, err
	}
	logger.Info("application ready",
		zap.String("llm_provider", cfg.LLMProvider),
		zap.String("storage_driver", cfg.StorageDriver),
		zap.Bool("vision", deps.Vision != nil))
	return rt, nil
}

// Close releases resources in reverse order of creation.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && r.Logger != nil {
			r.Logger.Warn("failed to close resource", zap.Error(err))
		}
	}
	r.closers = nil
}
