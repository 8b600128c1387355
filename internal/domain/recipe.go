package domain

import "time"

type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Recipe is the expanded detail of a meal, keyed by the meal string as it
// appears in the plan.
type Recipe struct {
	Name         string    `json:"name"`
	Ingredients  []string  `json:"ingredients"`
	Instructions []string  `json:"instructions"`
	PrepTime     string    `json:"prepTime,omitempty"`
	CookTime     string    `json:"cookTime,omitempty"`
	TotalTime    string    `json:"totalTime,omitempty"`
	Servings     int       `json:"servings,omitempty"`
	Cost         float64   `json:"cost"`
	Nutrition    Nutrition `json:"nutrition"`
	Tips         string    `json:"tips,omitempty"`
	Storage      string    `json:"storage,omitempty"`
	Reheating    string    `json:"reheating,omitempty"`
	YoutubeLinks []string  `json:"youtubeLinks,omitempty"`
}

// ShoppingItem is one purchasable line.
type ShoppingItem struct {
	Quantity string  `json:"quantity"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
}

type ShoppingSection struct {
	Category string         `json:"category"`
	Items    []ShoppingItem `json:"items"`
}

// ShoppingList is owned by at most one current meal plan.
type ShoppingList struct {
	Sections      []ShoppingSection `json:"sections"`
	TotalCost     float64           `json:"totalCost"`
	DeclaredTotal float64           `json:"declaredTotal,omitempty"`
	UnderBudget   bool              `json:"underBudget"`
	Difference    float64           `json:"difference"`
	SavingTips    []string          `json:"savingTips,omitempty"`
	GeneratedAt   time.Time         `json:"generatedAt"`
}

func (l ShoppingList) ItemCount() int {
	n := 0
	for _, s := range l.Sections {
		n += len(s.Items)
	}
	return n
}
