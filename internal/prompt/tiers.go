package prompt

import (
	"errors"
	"fmt"
)

// Tier is one pricing-guidance bracket. MaxWeekly is inclusive; zero means
// the tier has no upper bound.
type Tier struct {
	Name           string   `mapstructure:"name" json:"name"`
	MaxWeekly      float64  `mapstructure:"max_weekly" json:"maxWeekly"`
	ServingPrice   string   `mapstructure:"serving_price" json:"servingPrice"`
	Proteins       []string `mapstructure:"proteins" json:"proteins"`
	ForbiddenFoods []string `mapstructure:"forbidden_foods" json:"forbiddenFoods"`
}

// TierTable is ordered by ascending MaxWeekly with the unbounded tier last.
type TierTable []Tier

// DefaultTiers is the stock pricing policy: up to $100 a week is tight, up to
// $150 moderate, anything above comfortable.
func DefaultTiers() TierTable {
	return TierTable{
		{
			Name:         "Tight",
			MaxWeekly:    100,
			ServingPrice: "$1.00-$2.50 per serving",
			Proteins:     []string{"eggs", "dried beans", "lentils", "chicken thighs", "canned tuna", "peanut butter"},
			ForbiddenFoods: []string{
				"steak", "seafood", "lamb", "pre-cut produce", "specialty cheeses",
			},
		},
		{
			Name:           "Moderate",
			MaxWeekly:      150,
			ServingPrice:   "$2.50-$4.00 per serving",
			Proteins:       []string{"chicken breast", "ground beef", "pork loin", "eggs", "canned salmon"},
			ForbiddenFoods: []string{"steak", "fresh seafood", "premium cuts"},
		},
		{
			Name:         "Comfortable",
			ServingPrice: "$4.00-$7.00 per serving",
			Proteins:     []string{"salmon", "shrimp", "lean beef", "chicken breast", "pork tenderloin"},
		},
	}
}

// Lookup returns the first tier whose bound covers weeklyBudget.
func (t TierTable) Lookup(weeklyBudget float64) Tier {
	for _, tier := range t {
		if tier.MaxWeekly == 0 || weeklyBudget <= tier.MaxWeekly {
			return tier
		}
	}
	if len(t) == 0 {
		return Tier{}
	}
	return t[len(t)-1]
}

// Validate checks ordering and that only the last tier is unbounded.
func (t TierTable) Validate() error {
	if len(t) == 0 {
		return errors.New("budget tier table is empty")
	}
	prev := 0.0
	for i, tier := range t {
		if tier.Name == "" {
			return fmt.Errorf("budget tier %d has no name", i)
		}
		last := i == len(t)-1
		if tier.MaxWeekly == 0 {
			if !last {
				return fmt.Errorf("budget tier %q is unbounded but not last", tier.Name)
			}
			continue
		}
		if tier.MaxWeekly <= prev {
			return fmt.Errorf("budget tier %q bound %.2f is not ascending", tier.Name, tier.MaxWeekly)
		}
		prev = tier.MaxWeekly
	}
	return nil
}
