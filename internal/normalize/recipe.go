package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"budget-meal-planner/internal/budget"
	"budget-meal-planner/internal/domain"
)

// InstructionKeys are the accepted names for a recipe's step list, in
// lookup order.
var InstructionKeys = []string{
	"instructions", "steps", "directions", "method", "procedure",
	"cooking_instructions", "preparation", "how_to_make", "recipe_steps",
}

// StepTextKeys are the accepted names for the text of a single step object.
var StepTextKeys = []string{
	"details", "instruction", "text", "step", "description", "content", "action", "procedure",
}

var ingredientNameKeys = []string{"name", "item", "ingredient", "product"}

// Recipe normalizes an expansion response. The meal name keys the recipe and
// always wins over any title the generator chose. The second result reports
// whether any instructions were found; none are ever fabricated here.
func Recipe(raw, name string) (domain.Recipe, bool) {
	r := domain.Recipe{Name: name}
	v, ok := Extract(raw)
	if !ok {
		return r, false
	}
	obj := recipeObject(v)
	if obj == nil {
		return r, false
	}

	if r.Name == "" {
		if nv, ok := obj.lookup("name", "title", "recipe_name", "recipeName"); ok {
			r.Name = asString(nv)
		}
	}
	if iv, ok := obj.get("ingredients"); ok {
		r.Ingredients = ingredients(iv)
	}
	r.Instructions = findInstructions(obj)
	r.PrepTime = textField(obj, "prepTime", "prep_time")
	r.CookTime = textField(obj, "cookTime", "cook_time")
	r.TotalTime = textField(obj, "totalTime", "total_time")
	if sv, ok := obj.lookup("servings", "serves", "yield"); ok {
		r.Servings = intValue(sv)
	}
	if cv, ok := obj.lookup("cost", "estimatedCost", "estimated_cost", "totalCost", "price"); ok {
		r.Cost = budget.ParsePrice(cv)
	}
	if nv, ok := obj.lookup("nutrition", "nutrition_info", "nutritionalInfo"); ok {
		if nobj, ok := nv.(*object); ok {
			r.Nutrition = nutrition(nobj)
		}
	}
	r.Tips = joinedText(obj, "tips", "chef_tips", "notes")
	r.Storage = joinedText(obj, "storage", "storage_instructions", "storageInstructions")
	r.Reheating = joinedText(obj, "reheating", "reheating_instructions", "reheatingInstructions")
	if yv, ok := obj.lookup("youtubeLinks", "youtube_links", "youtubeSearches", "youtube_searches", "videos"); ok {
		r.YoutubeLinks = stringList(yv, "query", "search", "title", "url")
	}
	return r, len(r.Instructions) > 0
}

// recipeObject unwraps the common envelopes: a bare array, {"recipe": {...}}
// and {"recipes": [...]}.
func recipeObject(v any) *object {
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			if obj, ok := e.(*object); ok {
				return obj
			}
		}
	case *object:
		if inner, ok := t.lookup("recipe", "recipes"); ok {
			if obj := recipeObject(inner); obj != nil {
				return obj
			}
		}
		return t
	}
	return nil
}

// findInstructions searches top-level synonym keys first, then one level of
// nesting inside object-valued fields, first match wins.
func findInstructions(obj *object) []string {
	for _, k := range InstructionKeys {
		if v, ok := obj.get(k); ok {
			if steps := instructionList(v); len(steps) > 0 {
				return steps
			}
		}
	}
	for _, key := range obj.keys {
		nested, ok := obj.vals[key].(*object)
		if !ok {
			continue
		}
		for _, k := range InstructionKeys {
			if v, ok := nested.get(k); ok {
				if steps := instructionList(v); len(steps) > 0 {
					return steps
				}
			}
		}
	}
	return nil
}

func instructionList(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for i, e := range t {
			if s := stepText(e, i); s != "" {
				out = append(out, s)
			}
		}
	case string:
		out = SplitSteps(t)
	case *object:
		for i, k := range t.keys {
			if s := stepText(t.vals[k], i); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func stepText(v any, index int) string {
	if s := asString(v); s != "" {
		return s
	}
	if obj, ok := v.(*object); ok {
		for _, k := range StepTextKeys {
			if sv, ok := obj.get(k); ok {
				if s := asString(sv); s != "" {
					return s
				}
			}
		}
		return fmt.Sprintf("Step %d", index+1)
	}
	return ""
}

// SplitSteps splits a block of text on newlines or, for single-line text, on
// a period followed (after optional whitespace) by a capital letter.
func SplitSteps(text string) []string {
	var out []string
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > 1 {
		for _, l := range lines {
			if l = strings.TrimSpace(l); l != "" {
				out = append(out, l)
			}
		}
		return out
	}
	return splitSentences(strings.TrimSpace(text))
}

func splitSentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j >= len(runes) || !unicode.IsUpper(runes[j]) {
			continue
		}
		// "1. Preheat" is a numbered step, not a sentence boundary.
		if isDigits(strings.TrimSpace(string(runes[start:i]))) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = j
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func ingredients(v any) []string {
	switch t := v.(type) {
	case string:
		return SplitSteps(t)
	case []any:
		var out []string
		for _, e := range t {
			if s := asString(e); s != "" {
				out = append(out, s)
				continue
			}
			obj, ok := e.(*object)
			if !ok {
				continue
			}
			var parts []string
			for _, k := range []string{"amount", "quantity", "qty"} {
				if av, ok := obj.get(k); ok {
					if s := asString(av); s != "" {
						parts = append(parts, s)
						break
					}
				}
			}
			if uv, ok := obj.get("unit"); ok {
				if s := asString(uv); s != "" {
					parts = append(parts, s)
				}
			}
			if nv, ok := obj.lookup(ingredientNameKeys...); ok {
				if s := asString(nv); s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				out = append(out, strings.Join(parts, " "))
			}
		}
		return out
	case *object:
		var out []string
		for _, k := range t.keys {
			if s := asString(t.vals[k]); s != "" {
				out = append(out, s+" "+k)
			} else {
				out = append(out, k)
			}
		}
		return out
	}
	return nil
}

func nutrition(obj *object) domain.Nutrition {
	num := func(keys ...string) float64 {
		if v, ok := obj.lookup(keys...); ok {
			return floatValue(v)
		}
		return 0
	}
	return domain.Nutrition{
		Calories: num("calories", "kcal"),
		Protein:  num("protein", "protein_g"),
		Carbs:    num("carbs", "carbohydrates", "carbs_g"),
		Fat:      num("fat", "fat_g"),
	}
}

func textField(obj *object, keys ...string) string {
	if v, ok := obj.lookup(keys...); ok {
		return asString(v)
	}
	return ""
}

func joinedText(obj *object, keys ...string) string {
	v, ok := obj.lookup(keys...)
	if !ok {
		return ""
	}
	if s := asString(v); s != "" {
		return s
	}
	return strings.Join(stringList(v, StepTextKeys...), " ")
}

var leadingNumber = regexp.MustCompile(`\d+(\.\d+)?`)

// floatValue reads a number or the first number of a string such as "12g".
func floatValue(v any) float64 {
	switch t := v.(type) {
	case float64:
		return max(t, 0)
	case string:
		f, _ := strconv.ParseFloat(leadingNumber.FindString(t), 64)
		return f
	}
	return 0
}

func intValue(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		digits := strings.FieldsFunc(t, func(r rune) bool { return !unicode.IsDigit(r) })
		if len(digits) == 0 {
			return 0
		}
		n, _ := strconv.Atoi(digits[0])
		return n
	}
	return 0
}
