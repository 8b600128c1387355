package storage

import (
	"context"
	"fmt"

	"budget-meal-planner/internal/domain"
)

// Repository gives typed access to the planner's records.
type Repository struct {
	kv KV
}

func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// KV exposes the underlying store for collaborators that keep their own
// records, such as the recipe cache.
func (r *Repository) KV() KV {
	return r.kv
}

func (r *Repository) Profile(ctx context.Context) (domain.Profile, bool, error) {
	return GetJSON[domain.Profile](ctx, r.kv, KeyProfile)
}

func (r *Repository) SaveProfile(ctx context.Context, p domain.Profile) error {
	return SetJSON(ctx, r.kv, KeyProfile, p)
}

// Pantry returns the inventory; a missing record is an empty pantry.
func (r *Repository) Pantry(ctx context.Context) ([]domain.PantryItem, error) {
	items, _, err := GetJSON[[]domain.PantryItem](ctx, r.kv, KeyPantry)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.PantryItem{}
	}
	return items, nil
}

func (r *Repository) SavePantry(ctx context.Context, items []domain.PantryItem) error {
	return SetJSON(ctx, r.kv, KeyPantry, items)
}

func (r *Repository) CurrentPlan(ctx context.Context) (*domain.MealPlan, error) {
	plan, ok, err := GetJSON[domain.MealPlan](ctx, r.kv, KeyCurrentPlan)
	if err != nil || !ok {
		return nil, err
	}
	return &plan, nil
}

// SaveCurrentPlan writes plan, or removes the record when plan is nil.
func (r *Repository) SaveCurrentPlan(ctx context.Context, plan *domain.MealPlan) error {
	if plan == nil {
		return r.kv.Remove(ctx, KeyCurrentPlan)
	}
	return SetJSON(ctx, r.kv, KeyCurrentPlan, plan)
}

func (r *Repository) Accepted(ctx context.Context) (bool, error) {
	v, _, err := GetJSON[bool](ctx, r.kv, KeyPlanAccepted)
	return v, err
}

func (r *Repository) SetAccepted(ctx context.Context, accepted bool) error {
	return SetJSON(ctx, r.kv, KeyPlanAccepted, accepted)
}

func (r *Repository) ShoppingList(ctx context.Context) (*domain.ShoppingList, error) {
	list, ok, err := GetJSON[domain.ShoppingList](ctx, r.kv, KeyShoppingList)
	if err != nil || !ok {
		return nil, err
	}
	return &list, nil
}

// SaveShoppingList writes list, or removes the record when list is nil.
func (r *Repository) SaveShoppingList(ctx context.Context, list *domain.ShoppingList) error {
	if list == nil {
		return r.kv.Remove(ctx, KeyShoppingList)
	}
	return SetJSON(ctx, r.kv, KeyShoppingList, list)
}

// Plans returns every finalized plan, oldest first.
func (r *Repository) Plans(ctx context.Context) ([]domain.MealPlan, error) {
	plans, _, err := GetJSON[[]domain.MealPlan](ctx, r.kv, KeyAllPlans)
	return plans, err
}

func (r *Repository) AppendPlan(ctx context.Context, plan domain.MealPlan) error {
	plans, err := r.Plans(ctx)
	if err != nil {
		return fmt.Errorf("failed to load plan history: %w", err)
	}
	return SetJSON(ctx, r.kv, KeyAllPlans, append(plans, plan))
}
