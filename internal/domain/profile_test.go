package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileValidate(t *testing.T) {
	valid := Profile{Adults: 2, WeeklyBudget: 100, PrepStyle: PrepWeeklyMealPrep}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("NoAdults", func(t *testing.T) {
		p := valid
		p.Adults = 0
		err := p.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidProfile))

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "adults", vErr.Field)
	})

	t.Run("ZeroBudget", func(t *testing.T) {
		p := valid
		p.WeeklyBudget = 0
		assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)
	})

	t.Run("UnknownPrepStyle", func(t *testing.T) {
		p := valid
		p.PrepStyle = "Whenever"
		assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)
	})

	t.Run("UnknownMealType", func(t *testing.T) {
		p := valid
		p.MealTypes = []MealType{"Brunch"}
		assert.ErrorIs(t, p.Validate(), ErrInvalidProfile)
	})
}

func TestEffectiveDiet(t *testing.T) {
	cases := []struct {
		name   string
		diet   string
		custom string
		want   string
	}{
		{"Empty", "", "", ""},
		{"None", "None", "", ""},
		{"Named", "Vegetarian", "", "Vegetarian"},
		{"OtherWithCustom", "Other", "Low FODMAP", "Low FODMAP"},
		{"OtherWithoutCustom", "Other", "  ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Profile{DietType: tc.diet, CustomDiet: tc.custom}
			assert.Equal(t, tc.want, p.EffectiveDiet())
		})
	}
}

func TestParseDay(t *testing.T) {
	i, err := ParseDay("monday")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = ParseDay("Sun")
	require.NoError(t, err)
	assert.Equal(t, 6, i)

	_, err = ParseDay("mo")
	assert.Error(t, err)
}

func TestMealPlanHelpers(t *testing.T) {
	plan := MealPlan{Days: []DayPlan{
		{Day: "Monday", Meals: Meals{Breakfast: "Oats", Lunch: "Soup", Dinner: "Stew", Snacks: []string{"Apple"}}},
		{Day: "Tuesday", Meals: Meals{Breakfast: "Oats", Lunch: "Salad", Dinner: "Soup"}},
	}}

	assert.Equal(t, []string{"Oats", "Soup", "Stew", "Salad"}, plan.CookedMealNames())
	assert.Equal(t, 2, plan.Occurrences("Soup"))
	assert.Equal(t, 0, plan.Occurrences("Apple"))

	clone := plan.Clone()
	clone.Days[0].Meals.Snacks[0] = "Pear"
	clone.Days[1].Meals.Set(Lunch, "Wrap")
	assert.Equal(t, "Apple", plan.Days[0].Meals.Snacks[0])
	assert.Equal(t, "Salad", plan.Days[1].Meals.Lunch)
}
