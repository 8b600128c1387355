package normalize

import (
	"fmt"
	"strings"

	"budget-meal-planner/internal/domain"
)

var (
	planEnvelopeKeys = []string{"days", "meal_plan", "mealPlan"}
	mealNameKeys     = []string{"name", "meal", "title", "dish"}
	snackKeys        = []string{"snacks", "snack"}
)

// MealPlan normalizes a generated plan into exactly seven days. Unparseable
// input yields seven empty days named Monday..Sunday.
func MealPlan(raw string) []domain.DayPlan {
	v, _ := Extract(raw)
	return padDays(planDays(v))
}

func planDays(v any) []domain.DayPlan {
	switch t := v.(type) {
	case []any:
		return daysFromArray(t)
	case *object:
		if inner, ok := t.lookup(planEnvelopeKeys...); ok {
			switch it := inner.(type) {
			case []any:
				return daysFromArray(it)
			case *object:
				if days := daysFromMap(it); len(days) > 0 {
					return days
				}
				// {"meal_plan": {"days": [...]}}
				return planDays(it)
			}
		}
		return daysFromMap(t)
	}
	return nil
}

func daysFromArray(arr []any) []domain.DayPlan {
	days := make([]domain.DayPlan, 0, len(arr))
	for i, e := range arr {
		obj, ok := e.(*object)
		if !ok {
			days = append(days, domain.DayPlan{Day: positionalDay(i)})
			continue
		}
		days = append(days, dayFromObject(obj, i))
	}
	return days
}

// daysFromMap converts {"day_1": {...}, ..., "day_7": {...}} or a map keyed
// by weekday names into an ordered slice.
func daysFromMap(obj *object) []domain.DayPlan {
	var days []domain.DayPlan
	found := false
	for i := 0; i < domain.DaysPerPlan; i++ {
		candidates := []string{
			fmt.Sprintf("day_%d", i+1),
			fmt.Sprintf("day%d", i+1),
			fmt.Sprintf("Day %d", i+1),
			domain.WeekDays[i],
			strings.ToLower(domain.WeekDays[i]),
		}
		v, ok := obj.lookup(candidates...)
		if !ok {
			days = append(days, domain.DayPlan{Day: domain.WeekDays[i]})
			continue
		}
		found = true
		day := domain.DayPlan{Day: domain.WeekDays[i]}
		if dobj, ok := v.(*object); ok {
			day = dayFromObject(dobj, i)
			day.Day = domain.WeekDays[i]
		}
		days = append(days, day)
	}
	if !found {
		return nil
	}
	return days
}

// dayFromObject accepts {day, meals:{...}} and flat {breakfast, lunch, dinner}.
// A day label that is not a weekday name falls back to the position.
func dayFromObject(obj *object, index int) domain.DayPlan {
	day := domain.DayPlan{Day: positionalDay(index)}
	if d, ok := obj.get("day"); ok {
		if idx, err := domain.ParseDay(asString(d)); err == nil {
			day.Day = domain.WeekDays[idx]
		}
	}
	source := obj
	if m, ok := obj.get("meals"); ok {
		if mobj, ok := m.(*object); ok {
			source = mobj
		}
	}
	day.Meals = mealsFromObject(source)
	return day
}

func mealsFromObject(obj *object) domain.Meals {
	var m domain.Meals
	m.Breakfast = mealValue(obj, "breakfast", "Breakfast")
	m.Lunch = mealValue(obj, "lunch", "Lunch")
	m.Dinner = mealValue(obj, "dinner", "Dinner")
	if v, ok := obj.lookup(snackKeys...); ok {
		m.Snacks = stringList(v, mealNameKeys...)
	}
	return m
}

func mealValue(obj *object, keys ...string) string {
	v, ok := obj.lookup(keys...)
	if !ok {
		return ""
	}
	if s := asString(v); s != "" {
		return s
	}
	if mobj, ok := v.(*object); ok {
		if nv, ok := mobj.lookup(mealNameKeys...); ok {
			return asString(nv)
		}
	}
	return ""
}

func positionalDay(i int) string {
	if i >= 0 && i < domain.DaysPerPlan {
		return domain.WeekDays[i]
	}
	return fmt.Sprintf("Day %d", i+1)
}

// padDays forces the fixed plan length.
func padDays(days []domain.DayPlan) []domain.DayPlan {
	if len(days) > domain.DaysPerPlan {
		days = days[:domain.DaysPerPlan]
	}
	for i := len(days); i < domain.DaysPerPlan; i++ {
		days = append(days, domain.DayPlan{Day: domain.WeekDays[i]})
	}
	return days
}
