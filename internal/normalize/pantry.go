package normalize

import (
	"strings"

	"budget-meal-planner/internal/domain"
)

var pantryEnvelopeKeys = []string{"items", "pantry_items", "pantryItems", "products"}

// PantryItems normalizes an image-analysis response into candidate items.
// IDs, timestamps and status are assigned by the pantry package.
func PantryItems(raw string) []domain.PantryItem {
	items := []domain.PantryItem{}
	v, ok := Extract(raw)
	if !ok {
		return items
	}
	arr, ok := v.([]any)
	if !ok {
		obj, isObj := v.(*object)
		if !isObj {
			return items
		}
		inner, found := obj.lookup(pantryEnvelopeKeys...)
		if !found {
			return items
		}
		if arr, ok = inner.([]any); !ok {
			return items
		}
	}
	for _, e := range arr {
		obj, ok := e.(*object)
		if !ok {
			if s := asString(e); s != "" {
				items = append(items, domain.PantryItem{Name: s})
			}
			continue
		}
		item := domain.PantryItem{
			Name:     textField(obj, "name", "item", "product"),
			Brand:    textField(obj, "brand"),
			Quantity: textField(obj, "quantity", "amount", "qty"),
			Category: textField(obj, "category"),
		}
		if item.Name == "" {
			continue
		}
		if cv, ok := obj.get("confidence"); ok {
			item.Confidence = confidence(cv)
		}
		items = append(items, item)
	}
	return items
}

// confidence clamps a 0-10 score; fractional scores in [0,1] are scaled.
func confidence(v any) int {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		f = float64(intValue(strings.TrimSpace(t)))
	}
	if f > 0 && f < 1 {
		f *= 10
	}
	switch {
	case f < 0:
		return 0
	case f > domain.MaxConfidence:
		return domain.MaxConfidence
	}
	return int(f + 0.5)
}
