// Package pantry manages the household inventory: manual edits, photo
// ingestion and barcode lookups.
package pantry

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"budget-meal-planner/internal/domain"
)

var ErrItemNotFound = errors.New("pantry item not found")

// NewID returns a time-ordered unique id (UUIDv7).
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewItem completes a candidate record: id, date added, status and a
// confidence clamped to 0..10.
func NewItem(item domain.PantryItem, now time.Time) domain.PantryItem {
	item.Name = strings.TrimSpace(item.Name)
	item.Brand = strings.TrimSpace(item.Brand)
	item.Quantity = strings.TrimSpace(item.Quantity)
	if item.Quantity == "" {
		item.Quantity = "1"
	}
	if item.ID == "" {
		item.ID = NewID()
	}
	if item.DateAdded.IsZero() {
		item.DateAdded = now
	}
	item.Confidence = max(0, min(domain.MaxConfidence, item.Confidence))
	item.Status = statusFor(item.Quantity)
	return item
}

var magnitudePattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)(.*)$`)

func statusFor(quantity string) domain.PantryStatus {
	m := magnitudePattern.FindStringSubmatch(quantity)
	if m == nil {
		return domain.StatusInStock
	}
	n, err := strconv.ParseFloat(m[1], 64)
	switch {
	case err != nil:
		return domain.StatusInStock
	case n <= 0:
		return domain.StatusOutOfStock
	case n <= 1:
		return domain.StatusLowStock
	}
	return domain.StatusInStock
}

// AdjustQuantity changes the leading magnitude of the item's quantity by
// delta, never going below zero, and keeps the unit text. A quantity without
// a leading number counts as one.
func AdjustQuantity(items []domain.PantryItem, id string, delta int) ([]domain.PantryItem, error) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	out := append([]domain.PantryItem(nil), items...)
	out[idx].Quantity = adjust(out[idx].Quantity, delta)
	out[idx].Status = statusFor(out[idx].Quantity)
	return out, nil
}

func adjust(quantity string, delta int) string {
	n, unit := 1.0, quantity
	if m := magnitudePattern.FindStringSubmatch(quantity); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			n, unit = v, m[2]
		}
	} else if unit != "" {
		unit = " " + unit
	}
	n = math.Max(0, n+float64(delta))
	return strconv.FormatFloat(n, 'f', -1, 64) + unit
}

func Remove(items []domain.PantryItem, id string) ([]domain.PantryItem, error) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	out := make([]domain.PantryItem, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...), nil
}

func indexOf(items []domain.PantryItem, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Triaged splits detected items by the auto-accept threshold.
type Triaged struct {
	Accepted    []domain.PantryItem
	NeedsReview []domain.PantryItem
}

// Triage routes candidates with confidence of at least 7 to Accepted and the
// rest to NeedsReview. Nothing is compared against the existing pantry.
func Triage(candidates []domain.PantryItem) Triaged {
	var t Triaged
	for _, c := range candidates {
		if c.NeedsVerification() {
			t.NeedsReview = append(t.NeedsReview, c)
			continue
		}
		t.Accepted = append(t.Accepted, c)
	}
	return t
}
