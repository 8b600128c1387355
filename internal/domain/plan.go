package domain

import (
	"fmt"
	"strings"
	"time"
)

// DaysPerPlan is the fixed length of every meal plan.
const DaysPerPlan = 7

// WeekDays is the positional day naming used whenever a response omits it.
var WeekDays = [DaysPerPlan]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// MealType names a cooked meal slot of a day.
type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
)

func (m MealType) Valid() bool {
	switch m {
	case Breakfast, Lunch, Dinner:
		return true
	}
	return false
}

// ParseMealType accepts any casing of breakfast, lunch or dinner.
func ParseMealType(s string) (MealType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breakfast":
		return Breakfast, nil
	case "lunch":
		return Lunch, nil
	case "dinner":
		return Dinner, nil
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// ParseDay resolves a day name (any casing, three-letter prefix allowed) to
// its index in WeekDays.
func ParseDay(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) >= 3 {
		for i, d := range WeekDays {
			if strings.HasPrefix(strings.ToLower(d), s) {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("unknown day %q", s)
}

// PlanStatus represents the lifecycle state of a meal plan.
type PlanStatus string

const (
	StatusGenerated PlanStatus = "GENERATED"
	StatusAccepted  PlanStatus = "ACCEPTED"
	StatusModified  PlanStatus = "MODIFIED"
)

// Meals holds the slot assignments of one day. Empty strings mean the slot
// was not planned.
type Meals struct {
	Breakfast string   `json:"breakfast"`
	Lunch     string   `json:"lunch"`
	Dinner    string   `json:"dinner"`
	Snacks    []string `json:"snacks,omitempty"`
}

func (m Meals) Get(slot MealType) string {
	switch slot {
	case Breakfast:
		return m.Breakfast
	case Lunch:
		return m.Lunch
	case Dinner:
		return m.Dinner
	}
	return ""
}

func (m *Meals) Set(slot MealType, name string) {
	switch slot {
	case Breakfast:
		m.Breakfast = name
	case Lunch:
		m.Lunch = name
	case Dinner:
		m.Dinner = name
	}
}

func (m Meals) Clone() Meals {
	c := m
	if m.Snacks != nil {
		c.Snacks = append([]string(nil), m.Snacks...)
	}
	return c
}

// DayPlan represents the plan for a single day.
type DayPlan struct {
	Day   string `json:"day"`
	Meals Meals  `json:"meals"`
}

// MealPlan represents a full weekly meal plan.
type MealPlan struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"createdAt"`
	WeekBudget float64    `json:"weekBudget"`
	Status     PlanStatus `json:"status"`
	Days       []DayPlan  `json:"days"`
}

// Clone returns a deep copy so callers can mutate without touching the
// snapshot other readers may still hold.
func (p MealPlan) Clone() MealPlan {
	c := p
	c.Days = make([]DayPlan, len(p.Days))
	for i, d := range p.Days {
		c.Days[i] = DayPlan{Day: d.Day, Meals: d.Meals.Clone()}
	}
	return c
}

// CookedMealNames returns the distinct breakfast, lunch and dinner names in
// plan order. Snacks are bought ready-to-eat and are not included.
func (p MealPlan) CookedMealNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, d := range p.Days {
		for _, slot := range []MealType{Breakfast, Lunch, Dinner} {
			name := d.Meals.Get(slot)
			if strings.TrimSpace(name) == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// Occurrences counts the days on which name is scheduled in any cooked slot.
func (p MealPlan) Occurrences(name string) int {
	n := 0
	for _, d := range p.Days {
		if d.Meals.Breakfast == name || d.Meals.Lunch == name || d.Meals.Dinner == name {
			n++
		}
	}
	return n
}
