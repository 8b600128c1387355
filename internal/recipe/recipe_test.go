package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/llm"
	"budget-meal-planner/internal/prompt"
	"budget-meal-planner/internal/storage"
)

// fakeExpander returns a one-step recipe for every name except those listed
// in fail, and tracks how many calls were in flight at once.
type fakeExpander struct {
	mu       sync.Mutex
	calls    []Request
	fail     map[string]bool
	noSteps  bool
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeExpander) Expand(ctx context.Context, req Request) (domain.Recipe, llm.CallMeta, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	meta := llm.CallMeta{Operation: "RecipeExpansion"}
	if f.fail[req.Name] {
		meta.Failed = true
		return domain.Recipe{}, meta, fmt.Errorf("expand %s: %w", req.Name, llm.ErrTransport)
	}
	r := domain.Recipe{Name: req.Name, Servings: req.Servings}
	if !f.noSteps {
		r.Instructions = []string{"Cook " + req.Name}
	}
	return r, meta, nil
}

func (f *fakeExpander) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// snapshotKV records the size of the recipe cache on every write.
type snapshotKV struct {
	*storage.MemoryStore
	mu    sync.Mutex
	sizes []int
}

func (s *snapshotKV) Set(ctx context.Context, key, value string) error {
	if key == storage.KeyRecipeCache {
		var m map[string]domain.Recipe
		if err := json.Unmarshal([]byte(value), &m); err != nil {
			return err
		}
		s.mu.Lock()
		s.sizes = append(s.sizes, len(m))
		s.mu.Unlock()
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func testProfile() domain.Profile {
	return domain.Profile{Adults: 2, WeeklyBudget: 100, PrepStyle: domain.PrepCookEveryMeal}
}

func sevenDinnerPlan() domain.MealPlan {
	plan := domain.MealPlan{ID: "p"}
	for i, d := range domain.WeekDays {
		plan.Days = append(plan.Days, domain.DayPlan{Day: d, Meals: domain.Meals{
			Dinner: fmt.Sprintf("Meal %d", i+1),
			Snacks: []string{"Chips"},
		}})
	}
	return plan
}

func TestServings(t *testing.T) {
	plan := domain.MealPlan{}
	for _, d := range domain.WeekDays {
		plan.Days = append(plan.Days, domain.DayPlan{Day: d, Meals: domain.Meals{Dinner: "Chili"}})
	}
	plan.Days[6].Meals.Lunch = "Soup"

	assert.Equal(t, 14, Servings(plan, "Chili", 2, domain.PrepWeeklyMealPrep))
	assert.Equal(t, 2, Servings(plan, "Soup", 2, domain.PrepWeeklyMealPrep))
	assert.Equal(t, 2, Servings(plan, "Chili", 2, domain.PrepCookOnceDaily))
	assert.Equal(t, 3, Servings(plan, "Unknown", 3, domain.PrepWeeklyMealPrep))
}

func TestCacheGet(t *testing.T) {
	ctx := context.Background()

	t.Run("MissThenHit", func(t *testing.T) {
		kv := storage.NewMemoryStore()
		exp := &fakeExpander{}
		c := NewCache(kv, exp, WithLogger(zaptest.NewLogger(t)))

		r, err := c.Get(ctx, Request{Name: "Chili", Profile: testProfile(), Servings: 4})
		require.NoError(t, err)
		assert.Equal(t, "Chili", r.Name)
		assert.Equal(t, 4, r.Servings)

		_, err = c.Get(ctx, Request{Name: "Chili", Profile: testProfile()})
		require.NoError(t, err)
		assert.Equal(t, 1, exp.callCount())

		// a fresh cache over the same store loads lazily
		other := NewCache(kv, exp)
		ok, err := other.Cached(ctx, "Chili")
		require.NoError(t, err)
		assert.True(t, ok)
		_, err = other.Get(ctx, Request{Name: "Chili"})
		require.NoError(t, err)
		assert.Equal(t, 1, exp.callCount())
	})

	t.Run("KeyIsExactString", func(t *testing.T) {
		exp := &fakeExpander{}
		c := NewCache(storage.NewMemoryStore(), exp)
		_, err := c.Get(ctx, Request{Name: "Chili"})
		require.NoError(t, err)
		_, err = c.Get(ctx, Request{Name: "chili"})
		require.NoError(t, err)
		assert.Equal(t, 2, exp.callCount())
	})

	t.Run("RequireInstructions", func(t *testing.T) {
		kv := storage.NewMemoryStore()
		c := NewCache(kv, &fakeExpander{noSteps: true})
		_, err := c.Get(ctx, Request{Name: "Toast"})
		assert.ErrorIs(t, err, ErrMissingInstructions)
		ok, err := c.Cached(ctx, "Toast")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("FabricateInstructions", func(t *testing.T) {
		c := NewCache(storage.NewMemoryStore(), &fakeExpander{noSteps: true}, WithPolicy(ParsePolicy("fabricate")))
		r, err := c.Get(ctx, Request{Name: "Toast"})
		require.NoError(t, err)
		assert.Equal(t, genericSteps, r.Instructions)
	})

	t.Run("FailuresAreRecordedAndNotCached", func(t *testing.T) {
		var metas []llm.CallMeta
		exp := &fakeExpander{fail: map[string]bool{"Stew": true}}
		c := NewCache(storage.NewMemoryStore(), exp, WithCallRecorder(func(_ context.Context, m llm.CallMeta) {
			metas = append(metas, m)
		}))
		_, err := c.Get(ctx, Request{Name: "Stew"})
		assert.ErrorIs(t, err, llm.ErrTransport)
		require.Len(t, metas, 1)
		assert.True(t, metas[0].Failed)
		ok, _ := c.Cached(ctx, "Stew")
		assert.False(t, ok)
	})
}

func TestPrefetchBatchDurability(t *testing.T) {
	ctx := context.Background()
	kv := &snapshotKV{MemoryStore: storage.NewMemoryStore()}
	exp := &fakeExpander{fail: map[string]bool{"Meal 5": true}}
	c := NewCache(kv, exp, WithLogger(zaptest.NewLogger(t)))

	report, err := c.PrefetchAll(ctx, sevenDinnerPlan(), testProfile())
	require.NoError(t, err)

	assert.Len(t, report.Requested, 7)
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, []int{3, 5, 6}, kv.sizes)
	assert.Len(t, report.Fetched, 6)
	require.Contains(t, report.Failed, "Meal 5")
	assert.ErrorIs(t, report.Failed["Meal 5"], llm.ErrTransport)
	assert.LessOrEqual(t, exp.peak.Load(), int32(DefaultBatchSize))
	assert.Equal(t, 7, exp.callCount())

	for _, call := range exp.calls {
		assert.NotEqual(t, "Chips", call.Name)
	}

	stored, ok, err := storage.GetJSON[map[string]domain.Recipe](ctx, kv, storage.KeyRecipeCache)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, stored, 6)
	assert.NotContains(t, stored, "Meal 5")

	t.Run("SecondRunOnlyRetriesMissing", func(t *testing.T) {
		exp.fail = nil
		report, err := c.PrefetchAll(ctx, sevenDinnerPlan(), testProfile())
		require.NoError(t, err)
		assert.Equal(t, []string{"Meal 5"}, report.Requested)
		assert.Equal(t, 1, report.Batches)
		assert.Equal(t, 8, exp.callCount())
	})
}

func TestPrefetchScalesMealPrepServings(t *testing.T) {
	exp := &fakeExpander{}
	c := NewCache(storage.NewMemoryStore(), exp)
	plan := domain.MealPlan{}
	for _, d := range domain.WeekDays {
		plan.Days = append(plan.Days, domain.DayPlan{Day: d, Meals: domain.Meals{Breakfast: "Oats", Dinner: "Chili"}})
	}
	p := testProfile()
	p.PrepStyle = domain.PrepWeeklyMealPrep
	p.Kids = 1

	_, err := c.PrefetchAll(context.Background(), plan, p)
	require.NoError(t, err)
	require.Len(t, exp.calls, 2)
	for _, call := range exp.calls {
		assert.Equal(t, 21, call.Servings)
	}
}

func TestPrefetchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exp := &fakeExpander{}
	c := NewCache(storage.NewMemoryStore(), exp)
	_, err := c.PrefetchAll(ctx, sevenDinnerPlan(), testProfile())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, exp.callCount())
}

type stubGenerator struct {
	content string
	err     error
	prompt  string
}

func (s *stubGenerator) GenerateContent(_ context.Context, p string) (llm.ContentResponse, error) {
	s.prompt = p
	if s.err != nil {
		return llm.ContentResponse{}, s.err
	}
	return llm.ContentResponse{Content: s.content, Usage: llm.Usage{Model: "stub", TotalTokens: 42}}, nil
}

func TestLLMExpander(t *testing.T) {
	prompts, err := prompt.NewBuilder(nil)
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		gen := &stubGenerator{content: "```json\n{\"title\":\"Other\",\"ingredients\":[\"1 cup rice\"],\"steps\":[\"Boil\",\"Serve\"]}\n```"}
		e := NewLLMExpander(gen, prompts, time.Second)
		r, meta, err := e.Expand(context.Background(), Request{Name: "Rice Bowl", Profile: testProfile(), Servings: 6})
		require.NoError(t, err)
		assert.Equal(t, "Rice Bowl", r.Name)
		assert.Equal(t, []string{"Boil", "Serve"}, r.Instructions)
		assert.Equal(t, 6, r.Servings)
		assert.Equal(t, "RecipeExpansion", meta.Operation)
		assert.Equal(t, 42, meta.Usage.TotalTokens)
		assert.False(t, meta.Failed)
		assert.Contains(t, gen.prompt, "make 6 servings")
	})

	t.Run("TransportFailure", func(t *testing.T) {
		e := NewLLMExpander(&stubGenerator{err: errors.New("connection refused")}, prompts, time.Second)
		_, meta, err := e.Expand(context.Background(), Request{Name: "Rice Bowl", Profile: testProfile()})
		assert.ErrorIs(t, err, llm.ErrTransport)
		assert.True(t, meta.Failed)
	})

	t.Run("InvalidProfile", func(t *testing.T) {
		e := NewLLMExpander(&stubGenerator{}, prompts, time.Second)
		_, _, err := e.Expand(context.Background(), Request{Name: "Rice Bowl"})
		assert.ErrorIs(t, err, domain.ErrInvalidProfile)
	})
}
