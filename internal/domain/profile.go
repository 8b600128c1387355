package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProfile is wrapped by every profile validation failure.
var ErrInvalidProfile = errors.New("invalid household profile")

// ValidationError describes the first profile field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid household profile: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidProfile
}

type CookingTool string

const (
	ToolStove      CookingTool = "Stove"
	ToolOven       CookingTool = "Oven"
	ToolMicrowave  CookingTool = "Microwave"
	ToolAirFryer   CookingTool = "Air Fryer"
	ToolInstantPot CookingTool = "Instant Pot"
	ToolSlowCooker CookingTool = "Slow Cooker"
	ToolGrill      CookingTool = "Grill"
	// ToolSmoker is never selectable in a profile; it only appears in the
	// forbidden-equipment superset.
	ToolSmoker CookingTool = "Smoker"
)

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillAdvanced     SkillLevel = "Advanced"
)

type MealDifficulty string

const (
	DifficultyEasy   MealDifficulty = "Easy"
	DifficultyMedium MealDifficulty = "Medium"
	DifficultyHard   MealDifficulty = "Hard"
)

// PrepStyle controls how often the household cooks.
type PrepStyle string

const (
	PrepCookEveryMeal  PrepStyle = "Cook Every Meal"
	PrepCookOnceDaily  PrepStyle = "Cook Once Daily"
	PrepWeeklyMealPrep PrepStyle = "Weekly Meal Prep"
)

const (
	DietNone  = "None"
	DietOther = "Other"
)

// Profile is the household description every prompt is built from.
type Profile struct {
	Adults              int            `json:"adults"`
	Kids                int            `json:"kids"`
	KidAges             []int          `json:"kidAges,omitempty"`
	WeeklyBudget        float64        `json:"weeklyBudget"`
	CookingTools        []CookingTool  `json:"cookingTools"`
	SkillLevel          SkillLevel     `json:"skillLevel"`
	MealDifficulty      MealDifficulty `json:"mealDifficulty"`
	PrepStyle           PrepStyle      `json:"prepStyle"`
	CuisineTypes        []string       `json:"cuisineTypes,omitempty"`
	DietType            string         `json:"dietType"`
	CustomDiet          string         `json:"customDiet,omitempty"`
	DietaryRestrictions string         `json:"dietaryRestrictions,omitempty"`
	FoodGoals           []string       `json:"foodGoals,omitempty"`
	MealTypes           []MealType     `json:"mealTypes"`
	SnackTypes          []string       `json:"snackTypes,omitempty"`
}

// Validate rejects profiles the prompt builder cannot work with.
func (p Profile) Validate() error {
	if p.Adults < 1 {
		return &ValidationError{Field: "adults", Reason: "must be at least 1"}
	}
	if p.Kids < 0 {
		return &ValidationError{Field: "kids", Reason: "must not be negative"}
	}
	if p.WeeklyBudget <= 0 {
		return &ValidationError{Field: "weeklyBudget", Reason: "must be greater than 0"}
	}
	switch p.PrepStyle {
	case "", PrepCookEveryMeal, PrepCookOnceDaily, PrepWeeklyMealPrep:
	default:
		return &ValidationError{Field: "prepStyle", Reason: fmt.Sprintf("unknown value %q", p.PrepStyle)}
	}
	for _, mt := range p.MealTypes {
		if !mt.Valid() {
			return &ValidationError{Field: "mealTypes", Reason: fmt.Sprintf("unknown meal type %q", mt)}
		}
	}
	return nil
}

// EffectiveDiet returns the diet the household must comply with, or "" when
// no diet rules apply.
func (p Profile) EffectiveDiet() string {
	diet := strings.TrimSpace(p.DietType)
	switch {
	case diet == "" || strings.EqualFold(diet, DietNone):
		return ""
	case strings.EqualFold(diet, DietOther):
		return strings.TrimSpace(p.CustomDiet)
	default:
		return diet
	}
}

// Servings is the number of people one meal must feed.
func (p Profile) Servings() int {
	return p.Adults + p.Kids
}

func (p Profile) HasTool(tool CookingTool) bool {
	for _, t := range p.CookingTools {
		if strings.EqualFold(string(t), string(tool)) {
			return true
		}
	}
	return false
}

// PlannedMealTypes returns the requested slots, defaulting to all three.
func (p Profile) PlannedMealTypes() []MealType {
	if len(p.MealTypes) == 0 {
		return []MealType{Breakfast, Lunch, Dinner}
	}
	return p.MealTypes
}

func (p Profile) IsMealPrep() bool {
	return p.PrepStyle == PrepWeeklyMealPrep
}
