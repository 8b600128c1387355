// Package recipe expands meal names into full recipes and keeps them in a
// durable cache keyed by the exact meal string.
package recipe

import (
	"context"
	"errors"

	"budget-meal-planner/internal/domain"
	"budget-meal-planner/internal/llm"
)

// ErrMissingInstructions is returned when an expansion came back without any
// steps and the cache is configured to require them.
var ErrMissingInstructions = errors.New("recipe has no instructions")

// InstructionPolicy decides what happens to an expansion without steps.
type InstructionPolicy int

const (
	// RequireInstructions treats the expansion as failed; nothing is cached.
	RequireInstructions InstructionPolicy = iota
	// FabricateInstructions fills in a generic step list.
	FabricateInstructions
)

// ParsePolicy maps the configuration value to a policy. Anything other than
// "fabricate" requires instructions.
func ParsePolicy(s string) InstructionPolicy {
	if s == "fabricate" {
		return FabricateInstructions
	}
	return RequireInstructions
}

var genericSteps = []string{
	"Gather and prepare all of the ingredients listed above.",
	"Cook the main components over medium heat until done, stirring occasionally.",
	"Combine everything, season to taste and adjust the consistency.",
	"Serve warm and refrigerate any leftovers in airtight containers.",
}

// Request identifies one expansion.
type Request struct {
	Name     string
	Profile  domain.Profile
	Servings int
}

// Expander turns a meal name into a recipe. The meta is returned even when
// the call fails so callers can record it.
type Expander interface {
	Expand(ctx context.Context, req Request) (domain.Recipe, llm.CallMeta, error)
}

// Servings is the batch size a recipe must yield. Under Weekly Meal Prep one
// cooking session feeds every day the exact meal appears on.
func Servings(plan domain.MealPlan, name string, base int, style domain.PrepStyle) int {
	if style != domain.PrepWeeklyMealPrep {
		return base
	}
	if n := plan.Occurrences(name); n > 0 {
		return base * n
	}
	return base
}
