package app

import (
	"context"
	"strings"

	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/normalize"
	"budget-meal-planner/internal/planner"
	"budget-meal-planner/internal/prompt"
	"budget-meal-planner/internal/recipe"
)

const quickMealName = "Pantry Meal"

// Recipe returns the recipe for a meal of the current plan, expanding it on
// first use. Servings are scaled for Weekly Meal Prep.
func (s *Service) Recipe(ctx context.Context, name string) (domain.Recipe, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return domain.Recipe{}, err
	}
	sess, err := s.CurrentSession(ctx)
	if err != nil {
		return domain.Recipe{}, err
	}
	servings := profile.Servings()
	if sess.Plan != nil {
		servings = recipe.Servings(*sess.Plan, name, servings, profile.PrepStyle)
	}
	return s.recipes.Get(ctx, recipe.Request{Name: name, Profile: profile, Servings: servings})
}

// PrefetchRecipes expands every cooked meal of the current plan that is not
// cached yet.
func (s *Service) PrefetchRecipes(ctx context.Context) (recipe.PrefetchReport, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return recipe.PrefetchReport{}, err
	}
	sess, err := s.CurrentSession(ctx)
	if err != nil {
		return recipe.PrefetchReport{}, err
	}
	if sess.Plan == nil {
		return recipe.PrefetchReport{}, planner.ErrNoPlan
	}
	return s.recipes.PrefetchAll(ctx, *sess.Plan, profile)
}

// QuickPantryMeal suggests one meal cooked mostly from the pantry. The result
// is not cached.
func (s *Service) QuickPantryMeal(ctx context.Context) (domain.Recipe, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return domain.Recipe{}, err
	}
	items, err := s.Pantry(ctx)
	if err != nil {
		return domain.Recipe{}, err
	}
	raw, err := s.generate(ctx, prompt.QuickPantryMeal, prompt.Request{Profile: profile, Pantry: items}, s.timeouts.Recipe)
	if err != nil {
		return domain.Recipe{}, err
	}
	r, _ := normalize.Recipe(raw, "")
	if strings.TrimSpace(r.Name) == "" {
		r.Name = quickMealName
	}
	if r.Servings == 0 {
		r.Servings = profile.Servings()
	}
	return r, nil
}
