package receipt

import (
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

var (
	// maxImpliedTaxRate bounds tax inference: an implied rate above 35% of
	// subtotal is more likely an OCR misread than a real tax.
	maxImpliedTaxRate = decimal.NewFromFloat(0.35)

	// minSubtotalRatio bounds subtotal inference: an inferred subtotal
	// materially below the raw items-sum is rejected.
	minSubtotalRatio = decimal.NewFromFloat(0.80)
)

// Coalesce fills in a missing subtotal, tax, or total when exactly one of
// the three is absent, within sanity bounds. It is deliberately
// conservative: under-inference is preferred over a wrong inferred value
// feeding the validator. Idempotent.
func Coalesce(data *models.ReceiptData) {
	switch {
	case data.Subtotal != nil && data.Total != nil && data.Tax == nil:
		// Infer tax only if the implied rate is plausible.
		tax := data.Total.Sub(*data.Subtotal)
		if tax.IsNegative() || data.Subtotal.IsZero() {
			return
		}
		if tax.Div(*data.Subtotal).GreaterThan(maxImpliedTaxRate) {
			return
		}
		data.Tax = &tax

	case data.Total != nil && data.Tax != nil && data.Subtotal == nil:
		// Infer subtotal only if it is not materially below the items-sum.
		subtotal := data.Total.Sub(*data.Tax)
		itemsSum := data.ItemsSum()
		if itemsSum.IsPositive() && subtotal.LessThan(itemsSum.Mul(minSubtotalRatio)) {
			return
		}
		if subtotal.IsNegative() {
			return
		}
		data.Subtotal = &subtotal

	case data.Subtotal != nil && data.Tax != nil && data.Total == nil:
		// No ambiguity here: total is always the sum.
		total := data.Subtotal.Add(*data.Tax)
		data.Total = &total
	}
}
