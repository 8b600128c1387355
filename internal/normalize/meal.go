package normalize

import (
	"errors"
	"strings"
)

// ErrEmptyMealName is returned when a replacement response holds no usable
// meal name. There is no safe empty default for a single meal slot.
var ErrEmptyMealName = errors.New("replacement meal name is empty")

var replacementKeys = []string{"meal", "name", "mealName", "meal_name", "replacement", "title"}

// MealName extracts a replacement meal name from a short text response.
func MealName(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyMealName
	}
	if v, err := decode(text); err == nil {
		switch t := v.(type) {
		case string:
			text = t
		case *object:
			nv, ok := t.lookup(replacementKeys...)
			if !ok {
				return "", ErrEmptyMealName
			}
			text = asString(nv)
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if name := cleanName(line); name != "" {
			return name, nil
		}
	}
	return "", ErrEmptyMealName
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`*")
	return strings.TrimSpace(s)
}
