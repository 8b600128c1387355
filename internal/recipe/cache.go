package recipe

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/llm"
	"budget-meal-planner/internal/storage"
)

// DefaultBatchSize caps concurrent expansions during a prefetch.
const DefaultBatchSize = 3

// Cache maps the exact meal string to its recipe. The whole map is stored as
// one JSON document and loaded on first use.
type Cache struct {
	kv        storage.KV
	expander  Expander
	policy    InstructionPolicy
	batchSize int
	logger    *zap.Logger
	onCall    func(context.Context, llm.CallMeta)

	mu      sync.Mutex
	loaded  bool
	recipes map[string]domain.Recipe
}

type Option func(*Cache)

func WithPolicy(p InstructionPolicy) Option {
	return func(c *Cache) { c.policy = p }
}

func WithBatchSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithCallRecorder registers fn to receive the meta of every expansion,
// failed ones included.
func WithCallRecorder(fn func(context.Context, llm.CallMeta)) Option {
	return func(c *Cache) { c.onCall = fn }
}

func NewCache(kv storage.KV, expander Expander, opts ...Option) *Cache {
	c := &Cache{
		kv:        kv,
		expander:  expander,
		policy:    RequireInstructions,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}
	recipes, _, err := storage.GetJSON[map[string]domain.Recipe](ctx, c.kv, storage.KeyRecipeCache)
	if err != nil {
		return fmt.Errorf("failed to load recipe cache: %w", err)
	}
	if recipes == nil {
		recipes = make(map[string]domain.Recipe)
	}
	c.recipes = recipes
	c.loaded = true
	return nil
}

func (c *Cache) lookup(name string) (domain.Recipe, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.recipes[name]
	return r, ok
}

func (c *Cache) store(name string, r domain.Recipe) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recipes[name] = r
}

func (c *Cache) persist(ctx context.Context) error {
	c.mu.Lock()
	snapshot := make(map[string]domain.Recipe, len(c.recipes))
	for k, v := range c.recipes {
		snapshot[k] = v
	}
	c.mu.Unlock()
	return storage.SetJSON(ctx, c.kv, storage.KeyRecipeCache, snapshot)
}

// Cached reports whether name is already expanded.
func (c *Cache) Cached(ctx context.Context, name string) (bool, error) {
	if err := c.load(ctx); err != nil {
		return false, err
	}
	_, ok := c.lookup(name)
	return ok, nil
}

// Get returns the cached recipe or expands, caches and persists it.
func (c *Cache) Get(ctx context.Context, req Request) (domain.Recipe, error) {
	if err := c.load(ctx); err != nil {
		return domain.Recipe{}, err
	}
	if r, ok := c.lookup(req.Name); ok {
		return r, nil
	}

	r, err := c.expand(ctx, req)
	if err != nil {
		return domain.Recipe{}, err
	}
	c.store(req.Name, r)
	if err := c.persist(ctx); err != nil {
		c.logger.Warn("failed to persist recipe cache", zap.String("meal", req.Name), zap.Error(err))
	}
	return r, nil
}

func (c *Cache) expand(ctx context.Context, req Request) (domain.Recipe, error) {
	r, meta, err := c.expander.Expand(ctx, req)
	if c.onCall != nil {
		c.onCall(ctx, meta)
	}
	if err != nil {
		return domain.Recipe{}, err
	}
	if len(r.Instructions) == 0 {
		if c.policy != FabricateInstructions {
			return domain.Recipe{}, fmt.Errorf("%q: %w", req.Name, ErrMissingInstructions)
		}
		r.Instructions = append([]string(nil), genericSteps...)
	}
	return r, nil
}

// PrefetchReport summarizes one PrefetchAll run.
type PrefetchReport struct {
	Requested []string
	Fetched   []string
	Failed    map[string]error
	Batches   int
}

// PrefetchAll expands every cooked meal of plan that is not cached yet, in
// batches of at most batchSize concurrent calls. The cache is written after
// each batch, so an interruption loses at most the batch in flight. A failed
// expansion is logged and skipped.
func (c *Cache) PrefetchAll(ctx context.Context, plan domain.MealPlan, profile domain.Profile) (PrefetchReport, error) {
	report := PrefetchReport{Failed: make(map[string]error)}
	if err := c.load(ctx); err != nil {
		return report, err
	}

	for _, name := range plan.CookedMealNames() {
		if _, ok := c.lookup(name); !ok {
			report.Requested = append(report.Requested, name)
		}
	}

	base := profile.Servings()
	for start := 0; start < len(report.Requested); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		end := min(start+c.batchSize, len(report.Requested))
		batch := report.Requested[start:end]

		results := make([]error, len(batch))
		var g errgroup.Group
		g.SetLimit(c.batchSize)
		for i, name := range batch {
			g.Go(func() error {
				r, err := c.expand(ctx, Request{
					Name:     name,
					Profile:  profile,
					Servings: Servings(plan, name, base, profile.PrepStyle),
				})
				if err != nil {
					results[i] = err
					return nil
				}
				c.store(name, r)
				return nil
			})
		}
		_ = g.Wait()
		report.Batches++

		for i, name := range batch {
			if err := results[i]; err != nil {
				report.Failed[name] = err
				c.logger.Warn("recipe prefetch failed", zap.String("meal", name), zap.Error(err))
				continue
			}
			report.Fetched = append(report.Fetched, name)
		}
		if err := c.persist(ctx); err != nil {
			return report, fmt.Errorf("failed to persist recipe cache: %w", err)
		}
	}

	c.logger.Info("recipe prefetch finished",
		zap.Int("requested", len(report.Requested)),
		zap.Int("fetched", len(report.Fetched)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("batches", report.Batches))
	return report, nil
}
