package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// ErrUnbalanceable indicates a posting set that cannot be auto-balanced,
// e.g. more than one unknown-amount line.
var ErrUnbalanceable = errors.New("posting set cannot be balanced")

// AutoBalance forces a typed posting list to net to zero. At most one line
// may have an unknown amount; that line absorbs the negated sum of all
// others. With no unknown line and a residual beyond tolerance, the final
// line is adjusted. Accounts are never changed, only amounts.
func AutoBalance(postings []models.UnbalancedPosting) ([]models.Posting, error) {
	if len(postings) == 0 {
		return nil, fmt.Errorf("%w: empty posting list", ErrUnbalanceable)
	}

	unknown := -1
	known := decimal.Zero
	for i, p := range postings {
		if p.Amount == nil {
			if unknown != -1 {
				return nil, fmt.Errorf(
					"%w: more than one unknown amount (current total of known lines is %s)",
					ErrUnbalanceable, known)
			}
			unknown = i
			continue
		}
		known = known.Add(*p.Amount)
	}

	balanced := make([]models.Posting, len(postings))
	for i, p := range postings {
		amount := decimal.Zero
		if p.Amount != nil {
			amount = *p.Amount
		}
		balanced[i] = models.Posting{Account: p.Account, Amount: amount, Currency: p.Currency}
	}

	if unknown != -1 {
		balanced[unknown].Amount = known.Neg()
		return balanced, nil
	}

	if known.Abs().GreaterThan(models.BalanceEpsilon) {
		last := len(balanced) - 1
		balanced[last].Amount = balanced[last].Amount.Sub(known)
	}

	return balanced, nil
}
