package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget-meal-planner/internal/domain"
)

func canonicalDays() []domain.DayPlan {
	days := make([]domain.DayPlan, domain.DaysPerPlan)
	for i := range days {
		days[i] = domain.DayPlan{
			Day: domain.WeekDays[i],
			Meals: domain.Meals{
				Breakfast: "Oatmeal " + domain.WeekDays[i],
				Lunch:     "Soup",
				Dinner:    "Pasta",
				Snacks:    []string{"Apple", "Yogurt"},
			},
		}
	}
	return days
}

func TestExtract(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"PlainJSON", `{"a": 1}`, true},
		{"Prose", `Sure! Here is your plan: {"a": 1} Enjoy.`, true},
		{"Fenced", "Here:\n```json\n{\"a\": 1}\n```\n", true},
		{"BracketInsideString", `note {"a": "x}y"} end`, true},
		{"SkipsUnbalancedPrefix", `use [brackets like this] then {"a": 1}`, true},
		{"Garbage", "no json here", false},
		{"Empty", "   ", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Extract(tc.raw)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

func TestMealPlan(t *testing.T) {
	t.Run("IdempotentOnCanonicalDays", func(t *testing.T) {
		want := canonicalDays()
		raw, err := json.Marshal(map[string]any{"days": want})
		require.NoError(t, err)

		got := MealPlan(string(raw))
		assert.Equal(t, want, got)

		again, err := json.Marshal(map[string]any{"days": got})
		require.NoError(t, err)
		assert.Equal(t, got, MealPlan(string(again)))
	})

	t.Run("MealPlanMapKeyedByDayN", func(t *testing.T) {
		raw := `{"meal_plan": {
			"day_1": {"breakfast": "A", "lunch": "B", "dinner": "C"},
			"day_2": {"breakfast": "D", "lunch": "E", "dinner": "F"},
			"day_3": {"breakfast": "A", "lunch": "B", "dinner": "C"},
			"day_4": {"breakfast": "A", "lunch": "B", "dinner": "C"},
			"day_5": {"breakfast": "A", "lunch": "B", "dinner": "C"},
			"day_6": {"breakfast": "A", "lunch": "B", "dinner": "C"},
			"day_7": {"breakfast": "G", "lunch": "H", "dinner": "I"}
		}}`
		days := MealPlan(raw)
		require.Len(t, days, 7)
		assert.Equal(t, domain.DayPlan{Day: "Monday", Meals: domain.Meals{Breakfast: "A", Lunch: "B", Dinner: "C"}}, days[0])
		assert.Equal(t, "Tuesday", days[1].Day)
		assert.Equal(t, "E", days[1].Meals.Lunch)
		assert.Equal(t, "Sunday", days[6].Day)
		assert.Equal(t, "I", days[6].Meals.Dinner)
	})

	t.Run("FlatDaysArePositional", func(t *testing.T) {
		raw := `[{"breakfast": "A", "lunch": "B"}, {"dinner": {"name": "Stew"}}]`
		days := MealPlan(raw)
		require.Len(t, days, 7)
		assert.Equal(t, "Monday", days[0].Day)
		assert.Equal(t, "A", days[0].Meals.Breakfast)
		assert.Equal(t, "", days[0].Meals.Dinner)
		assert.Equal(t, "Tuesday", days[1].Day)
		assert.Equal(t, "Stew", days[1].Meals.Dinner)
		assert.Equal(t, domain.DayPlan{Day: "Sunday"}, days[6])
	})

	t.Run("DayLabelsAreCanonical", func(t *testing.T) {
		raw := `{"days": [
			{"day": "Day 1", "dinner": "A"},
			{"day": "tuesday", "dinner": "B"},
			{"day": "WED", "dinner": "C"},
			{"day": "Someday", "dinner": "D"}
		]}`
		days := MealPlan(raw)
		require.Len(t, days, 7)
		assert.Equal(t, "Monday", days[0].Day)
		assert.Equal(t, "Tuesday", days[1].Day)
		assert.Equal(t, "Wednesday", days[2].Day)
		assert.Equal(t, "Thursday", days[3].Day)
		assert.Equal(t, "D", days[3].Meals.Dinner)
	})

	t.Run("TruncatesExtraDays", func(t *testing.T) {
		var arr []map[string]string
		for i := 0; i < 9; i++ {
			arr = append(arr, map[string]string{"dinner": "X"})
		}
		raw, _ := json.Marshal(map[string]any{"days": arr})
		assert.Len(t, MealPlan(string(raw)), 7)
	})

	t.Run("UnparseableYieldsEmptyWeek", func(t *testing.T) {
		days := MealPlan("sorry, I cannot help with that")
		require.Len(t, days, 7)
		for i, d := range days {
			assert.Equal(t, domain.WeekDays[i], d.Day)
			assert.Equal(t, domain.Meals{}, d.Meals)
		}
	})
}

func TestRecipe(t *testing.T) {
	t.Run("NameArgumentWins", func(t *testing.T) {
		r, ok := Recipe(`{"name": "Something Else", "instructions": ["Boil water"]}`, "Pasta")
		assert.True(t, ok)
		assert.Equal(t, "Pasta", r.Name)
	})

	t.Run("InstructionSynonyms", func(t *testing.T) {
		for _, key := range InstructionKeys {
			raw := `{"` + key + `": ["Chop", "Fry"]}`
			r, ok := Recipe(raw, "x")
			assert.True(t, ok, key)
			assert.Equal(t, []string{"Chop", "Fry"}, r.Instructions, key)
		}
	})

	t.Run("TopLevelBeatsNested", func(t *testing.T) {
		raw := `{"details": {"steps": ["nested"]}, "method": ["top"]}`
		r, _ := Recipe(raw, "x")
		assert.Equal(t, []string{"top"}, r.Instructions)
	})

	t.Run("NestedOneLevel", func(t *testing.T) {
		raw := `{"recipe": {"info": {"cooking_instructions": "Heat pan.Add oil."}}}`
		r, ok := Recipe(raw, "x")
		assert.True(t, ok)
		assert.Equal(t, []string{"Heat pan.", "Add oil."}, r.Instructions)
	})

	t.Run("StepObjects", func(t *testing.T) {
		raw := `{"steps": [{"number": 1, "text": "Boil"}, {"action": "Drain"}, {"number": 3}]}`
		r, _ := Recipe(raw, "x")
		assert.Equal(t, []string{"Boil", "Drain", "Step 3"}, r.Instructions)
	})

	t.Run("ObjectValuesInDocumentOrder", func(t *testing.T) {
		raw := `{"directions": {"z": "First", "a": "Second", "m": "Third"}}`
		r, _ := Recipe(raw, "x")
		assert.Equal(t, []string{"First", "Second", "Third"}, r.Instructions)
	})

	t.Run("StringSplitting", func(t *testing.T) {
		assert.Equal(t, []string{"Mix", "Bake"}, SplitSteps("Mix\n\nBake\n"))
		assert.Equal(t, []string{"1. Preheat oven.", "Bake 20 min."}, SplitSteps("1. Preheat oven. Bake 20 min."))
		assert.Equal(t, []string{"Add 2.5 cups flour."}, SplitSteps("Add 2.5 cups flour."))
	})

	t.Run("NoInstructionsIsNotFabricated", func(t *testing.T) {
		r, ok := Recipe(`{"ingredients": ["1 cup rice"]}`, "Rice")
		assert.False(t, ok)
		assert.Empty(t, r.Instructions)
		assert.Equal(t, []string{"1 cup rice"}, r.Ingredients)
	})

	t.Run("Fields", func(t *testing.T) {
		raw := "```json\n" + `{
			"ingredients": [{"amount": "2", "unit": "cups", "name": "rice"}, "1 onion"],
			"steps": "Cook rice",
			"prepTime": "10 min",
			"servings": "4 servings",
			"cost": "$6.40",
			"nutrition": {"calories": 420, "protein": "12g"},
			"tips": ["Rinse rice", "Use stock"],
			"youtubeSearches": ["how to cook rice"]
		}` + "\n```"
		r, ok := Recipe(raw, "Rice Pilaf")
		require.True(t, ok)
		assert.Equal(t, []string{"2 cups rice", "1 onion"}, r.Ingredients)
		assert.Equal(t, "10 min", r.PrepTime)
		assert.Equal(t, 4, r.Servings)
		assert.Equal(t, 6.40, r.Cost)
		assert.Equal(t, 420.0, r.Nutrition.Calories)
		assert.Equal(t, 12.0, r.Nutrition.Protein)
		assert.Equal(t, "Rinse rice Use stock", r.Tips)
		assert.Equal(t, []string{"how to cook rice"}, r.YoutubeLinks)
	})
}

func TestShoppingList(t *testing.T) {
	t.Run("CanonicalSections", func(t *testing.T) {
		raw := `{"sections": [{"category": "Produce", "items": [
			{"quantity": "2 lb", "name": "Apples", "price": "$11.97"},
			{"quantity": "1", "name": "Onion", "price": 4},
			{"quantity": "1", "name": "Mystery", "price": "bad"}
		]}], "totalCost": 999, "savingTips": ["Buy store brand"]}`
		list := ShoppingList(raw)
		require.Len(t, list.Sections, 1)
		assert.Equal(t, "Produce", list.Sections[0].Category)
		assert.Len(t, list.Sections[0].Items, 3)
		assert.Equal(t, 15.97, list.TotalCost)
		assert.Equal(t, 999.0, list.DeclaredTotal)
		assert.Equal(t, []string{"Buy store brand"}, list.SavingTips)
	})

	t.Run("PriceOnlyItemsCount", func(t *testing.T) {
		raw := `{"sections": [{"category": "Produce", "items": [{"price": "$11.97"}, {"price": 4}, {"price": "bad"}]}]}`
		list := ShoppingList(raw)
		require.Len(t, list.Sections, 1)
		items := list.Sections[0].Items
		require.Len(t, items, 3)
		assert.Equal(t, "Item 1", items[0].Name)
		assert.Equal(t, "Item 3", items[2].Name)
		assert.Equal(t, 15.97, list.TotalCost)
	})

	t.Run("ItemNameSynonyms", func(t *testing.T) {
		raw := `{"sections": [{"category": "Pantry", "items": [
			{"item_name": "Rice", "price": "$3.00"},
			{"name": "Eggs", "price": 2},
			{"product_name": "Beans", "price": "1.25"},
			{}
		]}]}`
		list := ShoppingList(raw)
		require.Len(t, list.Sections, 1)
		items := list.Sections[0].Items
		require.Len(t, items, 3)
		assert.Equal(t, "Rice", items[0].Name)
		assert.Equal(t, "Beans", items[2].Name)
		assert.Equal(t, 6.25, list.TotalCost)
	})

	t.Run("CategoryMapUnderSynonym", func(t *testing.T) {
		for _, key := range []string{"shopping_list", "store_sections", "shoppingList", "sections"} {
			raw := `{"` + key + `": {"Produce": [{"name": "Apples", "price": 3.5}], "Dairy": [{"item": "Milk", "cost": "$2"}]}}`
			list := ShoppingList(raw)
			require.Len(t, list.Sections, 2, key)
			assert.Equal(t, "Produce", list.Sections[0].Category, key)
			assert.Equal(t, "Dairy", list.Sections[1].Category, key)
			assert.Equal(t, "Milk", list.Sections[1].Items[0].Name, key)
			assert.Equal(t, 5.5, list.TotalCost, key)
		}
	})

	t.Run("BareItemArray", func(t *testing.T) {
		list := ShoppingList(`[{"name": "Rice", "estimatedPrice": "4.00"}, "Salt"]`)
		require.Len(t, list.Sections, 1)
		assert.Equal(t, "Other", list.Sections[0].Category)
		assert.Equal(t, 2, list.ItemCount())
		assert.Equal(t, 4.0, list.TotalCost)
	})

	t.Run("DeclaredTotalFallback", func(t *testing.T) {
		raw := `{"sections": [{"category": "Pantry", "items": ["Rice"]}], "totals": {"estimated": "$40"}}`
		list := ShoppingList(raw)
		assert.Equal(t, 40.0, list.TotalCost)
	})

	t.Run("UnparseableIsEmpty", func(t *testing.T) {
		list := ShoppingList("I could not build a list")
		assert.NotNil(t, list.Sections)
		assert.Empty(t, list.Sections)
		assert.Zero(t, list.TotalCost)
	})
}

func TestMealName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"  Turkey Wrap \n", "Turkey Wrap"},
		{`"Turkey Wrap"`, "Turkey Wrap"},
		{`{"meal": "Turkey Wrap"}`, "Turkey Wrap"},
		{`{"replacement": "Turkey Wrap", "reason": "cheaper"}`, "Turkey Wrap"},
		{"\n\n**Turkey Wrap**\nA quick lunch.", "Turkey Wrap"},
	}
	for _, tc := range cases {
		got, err := MealName(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, got)
	}

	for _, raw := range []string{"", "   \n\t", `""`, `{"reason": "none"}`, `{"meal": "  "}`} {
		_, err := MealName(raw)
		assert.ErrorIs(t, err, ErrEmptyMealName, "input %q", raw)
	}
}

func TestPantryItems(t *testing.T) {
	raw := `Found these: {"items": [
		{"name": "Black Beans", "brand": "Goya", "quantity": "2 cans", "category": "Canned", "confidence": 9},
		{"name": "Rice", "confidence": 0.4},
		{"name": "Mystery", "confidence": 42},
		{"brand": "nameless"}
	]}`
	items := PantryItems(raw)
	require.Len(t, items, 3)
	assert.Equal(t, "Goya", items[0].Brand)
	assert.Equal(t, 9, items[0].Confidence)
	assert.Equal(t, 4, items[1].Confidence)
	assert.Equal(t, domain.MaxConfidence, items[2].Confidence)

	assert.Empty(t, PantryItems("nothing recognizable"))
}
