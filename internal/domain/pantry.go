package domain

import "time"

// AutoAcceptConfidence is the lowest detection confidence that skips manual
// verification.
const AutoAcceptConfidence = 7

// MaxConfidence is assigned to definitive sources such as barcode lookups.
const MaxConfidence = 10

type PantryStatus string

const (
	StatusInStock    PantryStatus = "in_stock"
	StatusLowStock   PantryStatus = "low_stock"
	StatusOutOfStock PantryStatus = "out_of_stock"
)

// PantryItem is one inventory entry.
type PantryItem struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Brand      string       `json:"brand,omitempty"`
	Quantity   string       `json:"quantity"`
	Category   string       `json:"category,omitempty"`
	Confidence int          `json:"confidence"`
	DateAdded  time.Time    `json:"dateAdded"`
	Status     PantryStatus `json:"status"`
}

func (i PantryItem) NeedsVerification() bool {
	return i.Confidence < AutoAcceptConfidence
}
