package receipt

import (
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// ParseStrategy extracts structured receipt data from one text candidate.
// Parse returns nil when the candidate yields nothing usable; the selector
// treats that as a discarded attempt, not an error.
type ParseStrategy interface {
	Name() string
	Parse(text string) *models.ReceiptData
}

// DefaultStrategies returns the strategies the selector runs, in preference
// order for tie-breaking.
func DefaultStrategies() []ParseStrategy {
	return []ParseStrategy{
		&LineItemStrategy{},
		&InvoiceStrategy{},
	}
}
