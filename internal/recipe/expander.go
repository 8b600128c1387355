package recipe

import (
	"context"
	"fmt"
	"time"

	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/llm"
	"budget-meal-planner/internal/normalize"
	"budget-meal-planner/internal/prompt"
)

// LLMExpander renders the RecipeExpansion prompt and normalizes whatever the
// generator returns.
type LLMExpander struct {
	gen     llm.TextGenerator
	prompts *prompt.Builder
	timeout time.Duration
}

func NewLLMExpander(gen llm.TextGenerator, prompts *prompt.Builder, timeout time.Duration) *LLMExpander {
	return &LLMExpander{gen: gen, prompts: prompts, timeout: timeout}
}

func (e *LLMExpander) Expand(ctx context.Context, req Request) (domain.Recipe, llm.CallMeta, error) {
	meta := llm.CallMeta{Operation: prompt.RecipeExpansion.String()}

	p, err := e.prompts.Build(prompt.RecipeExpansion, prompt.Request{
		Profile:  req.Profile,
		MealName: req.Name,
		Servings: req.Servings,
	})
	if err != nil {
		return domain.Recipe{}, meta, err
	}

	start := time.Now()
	resp, err := llm.Generate(ctx, e.gen, p, e.timeout)
	meta.Latency = time.Since(start)
	meta.Usage = resp.Usage
	if err != nil {
		meta.Failed = true
		return domain.Recipe{}, meta, fmt.Errorf("failed to expand %q: %w", req.Name, err)
	}

	r, _ := normalize.Recipe(resp.Content, req.Name)
	if r.Servings == 0 {
		r.Servings = req.Servings
	}
	return r, meta, nil
}
