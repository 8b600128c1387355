// Package storage persists the planner's records in a durable key-value
// store. Values are JSON documents; the backends only see strings.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Keys used by the planner.
const (
	KeyProfile      = "household-profile"
	KeyPantry       = "pantry-items"
	KeyCurrentPlan  = "current-meal-plan"
	KeyAllPlans     = "all-meal-plans"
	KeyPlanAccepted = "meal-plan-accepted"
	KeyShoppingList = "shopping-list"
	KeyRecipeCache  = "recipe-cache"
)

// KV is the durable key-value collaborator. Get reports a missing key with
// ok == false and a nil error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// GetJSON loads key into a value of type T.
func GetJSON[T any](ctx context.Context, kv KV, key string) (T, bool, error) {
	var v T
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return v, true, nil
}

// SetJSON stores v under key.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, string(data))
}
