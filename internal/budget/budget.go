// Package budget computes the authoritative cost of a shopping list and
// classifies it against the household's weekly budget.
package budget

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"budget-meal-planner/internal/domain"
)

// priceKeys are the item fields a generator may put a price under, in
// lookup order.
var priceKeys = []string{"price", "estimatedPrice", "estimated_price", "cost"}

// TargetFloor is the fraction of the budget below which a plan undershoots.
const TargetFloor = 0.95

// Status classifies a total against the budget window.
type Status string

const (
	StatusOver   Status = "over"
	StatusWithin Status = "within"
	StatusUnder  Status = "under"
)

// Evaluation is the result of checking a list against a weekly budget.
type Evaluation struct {
	Total       float64
	UnderBudget bool
	Difference  float64
	Status      Status
}

// decimalPattern is a single decimal, optionally with comma thousands
// separators.
var decimalPattern = regexp.MustCompile(`^-?(\d{1,3}(,\d{3})+|\d+)?(\.\d+)?$`)

// ParsePrice converts a number or a currency formatted string into a price.
// Strings lose their currency symbols and whitespace and must then be one
// decimal; "2 for $5" is not a price. Unparseable and negative values yield 0.
func ParsePrice(v any) float64 {
	var f float64
	switch p := v.(type) {
	case float64:
		f = p
	case float32:
		f = float64(p)
	case int:
		f = float64(p)
	case int64:
		f = float64(p)
	case string:
		s := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
				return -1
			}
			return r
		}, p)
		if !decimalPattern.MatchString(s) {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// ItemPrice extracts the price of a raw item object.
func ItemPrice(item map[string]any) float64 {
	for _, k := range priceKeys {
		if v, ok := item[k]; ok && v != nil {
			return ParsePrice(v)
		}
	}
	return 0
}

// Total sums every item price. The model-declared total is used only when no
// item carries a parseable price.
func Total(list domain.ShoppingList) float64 {
	var sum float64
	for _, s := range list.Sections {
		for _, it := range s.Items {
			if it.Price > 0 {
				sum += it.Price
			}
		}
	}
	sum = Round2(sum)
	if sum == 0 {
		return Round2(list.DeclaredTotal)
	}
	return sum
}

// Evaluate classifies the list total against weeklyBudget.
func Evaluate(list domain.ShoppingList, weeklyBudget float64) Evaluation {
	total := Total(list)
	return Classify(total, weeklyBudget)
}

// Classify compares an already computed total with the budget.
func Classify(total, weeklyBudget float64) Evaluation {
	ev := Evaluation{
		Total:       total,
		UnderBudget: total <= weeklyBudget,
		Difference:  Round2(math.Abs(weeklyBudget - total)),
	}
	switch {
	case !ev.UnderBudget:
		ev.Status = StatusOver
	case total >= TargetFloor*weeklyBudget:
		ev.Status = StatusWithin
	default:
		ev.Status = StatusUnder
	}
	return ev
}

// Apply writes the evaluation into a copy of the list.
func Apply(list domain.ShoppingList, weeklyBudget float64) domain.ShoppingList {
	ev := Evaluate(list, weeklyBudget)
	list.TotalCost = ev.Total
	list.UnderBudget = ev.UnderBudget
	list.Difference = ev.Difference
	return list
}

// Round2 rounds half away from zero to cents.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
