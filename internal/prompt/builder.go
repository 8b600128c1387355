// Package prompt renders the instruction text sent to the generative
// backend. Rendering is deterministic and has no side effects.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"budget-meal-planner/internal/budget"
	"budget-meal-planner/internal/domain"
)

//go:embed templates/*.md
var templateFS embed.FS

// Kind selects the request being rendered.
type Kind int

const (
	FullPlanGeneration Kind = iota
	MealReplacement
	RecipeExpansion
	ShoppingListGeneration
	QuickPantryMeal
	PantryImageAnalysis
)

var kindTemplates = map[Kind]string{
	FullPlanGeneration:     "full_plan.md",
	MealReplacement:        "meal_replacement.md",
	RecipeExpansion:        "recipe_expansion.md",
	ShoppingListGeneration: "shopping_list.md",
	QuickPantryMeal:        "quick_pantry_meal.md",
	PantryImageAnalysis:    "pantry_image.md",
}

func (k Kind) String() string {
	switch k {
	case FullPlanGeneration:
		return "FullPlanGeneration"
	case MealReplacement:
		return "MealReplacement"
	case RecipeExpansion:
		return "RecipeExpansion"
	case ShoppingListGeneration:
		return "ShoppingListGeneration"
	case QuickPantryMeal:
		return "QuickPantryMeal"
	case PantryImageAnalysis:
		return "PantryImageAnalysis"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// optionalTools are the appliances a household may lack. Anything here that
// is not in the profile is forbidden in generated recipes.
var optionalTools = []domain.CookingTool{
	domain.ToolSlowCooker,
	domain.ToolInstantPot,
	domain.ToolAirFryer,
	domain.ToolGrill,
	domain.ToolSmoker,
}

// ReplaceContext describes the meal slot being replaced.
type ReplaceContext struct {
	Day      string
	MealType domain.MealType
	Current  string
	// Avoid lists meals already in the plan so the replacement differs.
	Avoid []string
}

// Request carries the kind-specific payload.
type Request struct {
	Profile  domain.Profile
	Pantry   []domain.PantryItem
	Replace  *ReplaceContext
	MealName string
	Servings int
	Plan     *domain.MealPlan
}

type Builder struct {
	tiers TierTable
	tmpl  *template.Template
}

func NewBuilder(tiers TierTable) (*Builder, error) {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	if err := tiers.Validate(); err != nil {
		return nil, err
	}
	tmpl, err := template.New("prompts").Funcs(template.FuncMap{
		"join":  strings.Join,
		"money": func(f float64) string { return fmt.Sprintf("%.2f", f) },
	}).ParseFS(templateFS, "templates/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	return &Builder{tiers: tiers, tmpl: tmpl}, nil
}

// Tiers exposes the table the builder was configured with.
func (b *Builder) Tiers() TierTable {
	return b.tiers
}

type templateData struct {
	Profile       domain.Profile
	Diet          string
	Servings      int
	WeeklyBudget  float64
	DailyBudget   float64
	TargetMin     float64
	Tier          Tier
	OwnedTools    []string
	ForbiddenTool []string
	MealTypes     []string
	MealPrep      bool
	OnceDaily     bool
	Pantry        []domain.PantryItem
	Replace       *ReplaceContext
	MealName      string
	Plan          *domain.MealPlan
}

// Build renders the prompt for kind. The profile is validated before anything
// is rendered; image analysis is the only kind that does not need one.
func (b *Builder) Build(kind Kind, req Request) (string, error) {
	name, ok := kindTemplates[kind]
	if !ok {
		return "", fmt.Errorf("unknown prompt kind %v", kind)
	}
	if kind != PantryImageAnalysis {
		if err := req.Profile.Validate(); err != nil {
			return "", err
		}
	}
	switch kind {
	case MealReplacement:
		if req.Replace == nil {
			return "", fmt.Errorf("%v requires a replace context", kind)
		}
	case RecipeExpansion:
		if strings.TrimSpace(req.MealName) == "" {
			return "", fmt.Errorf("%v requires a meal name", kind)
		}
	case ShoppingListGeneration:
		if req.Plan == nil {
			return "", fmt.Errorf("%v requires a meal plan", kind)
		}
	}

	data := b.data(req)
	var buf bytes.Buffer
	if err := b.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %v prompt: %w", kind, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func (b *Builder) data(req Request) templateData {
	p := req.Profile
	d := templateData{
		Profile:      p,
		Diet:         p.EffectiveDiet(),
		Servings:     p.Servings(),
		WeeklyBudget: budget.Round2(p.WeeklyBudget),
		DailyBudget:  budget.Round2(p.WeeklyBudget / domain.DaysPerPlan),
		TargetMin:    budget.Round2(p.WeeklyBudget * budget.TargetFloor),
		Tier:         b.tiers.Lookup(p.WeeklyBudget),
		MealPrep:     p.IsMealPrep(),
		OnceDaily:    p.PrepStyle == domain.PrepCookOnceDaily,
		Pantry:       req.Pantry,
		Replace:      req.Replace,
		MealName:     req.MealName,
		Plan:         req.Plan,
	}
	if req.Servings > 0 {
		d.Servings = req.Servings
	}
	for _, t := range p.CookingTools {
		d.OwnedTools = append(d.OwnedTools, string(t))
	}
	d.ForbiddenTool = ForbiddenTools(p)
	for _, mt := range p.PlannedMealTypes() {
		d.MealTypes = append(d.MealTypes, strings.ToLower(string(mt)))
	}
	return d
}

// ForbiddenTools lists the optional appliances the household does not own.
func ForbiddenTools(p domain.Profile) []string {
	var out []string
	for _, t := range optionalTools {
		if !p.HasTool(t) {
			out = append(out, string(t))
		}
	}
	return out
}
