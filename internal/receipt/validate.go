package receipt

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// DefaultThreshold is the tolerance for math validation, in currency units.
var DefaultThreshold = decimal.NewFromFloat(0.05)

// ValidationResult reports whether a receipt's numbers reconcile, with the
// specific mismatch reasons and the raw figures. Validation never fixes the
// receipt: correction is the posting builder's job, downstream and explicit.
type ValidationResult struct {
	Valid    bool
	Reasons  []string
	ItemsSum decimal.Decimal
	Subtotal *decimal.Decimal
	Tax      *decimal.Decimal
	Total    *decimal.Decimal
}

// Validate checks items-sum against subtotal and subtotal+tax against total
// within DefaultThreshold.
func Validate(data *models.ReceiptData) ValidationResult {
	return ValidateWithThreshold(data, DefaultThreshold)
}

// ValidateWithThreshold is Validate with an explicit tolerance.
func ValidateWithThreshold(data *models.ReceiptData, threshold decimal.Decimal) ValidationResult {
	result := ValidationResult{
		Valid:    true,
		ItemsSum: data.ItemsSum(),
		Subtotal: data.Subtotal,
		Tax:      data.Tax,
		Total:    data.Total,
	}

	if data.Subtotal != nil {
		diff := result.ItemsSum.Sub(*data.Subtotal).Abs()
		if diff.GreaterThan(threshold) {
			result.Valid = false
			result.Reasons = append(result.Reasons, fmt.Sprintf(
				"items sum %s does not match subtotal %s (difference %s)",
				result.ItemsSum, data.Subtotal, diff))
		}
	}

	if data.Subtotal != nil && data.Tax != nil && data.Total != nil {
		expected := data.Subtotal.Add(*data.Tax)
		diff := expected.Sub(*data.Total).Abs()
		if diff.GreaterThan(threshold) {
			result.Valid = false
			result.Reasons = append(result.Reasons, fmt.Sprintf(
				"subtotal %s + tax %s = %s does not match total %s (difference %s)",
				data.Subtotal, data.Tax, expected, data.Total, diff))
		}
	}

	return result
}
