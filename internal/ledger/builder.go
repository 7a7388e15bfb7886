// Package ledger assembles balanced double-entry postings from structured
// receipt data and repairs unbalanced posting sets.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/receipt-ledger/internal/logger"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// MiscAccount is the catch-all expense account used when no positive
// posting exists to absorb a rounding residual.
const MiscAccount = "Expenses:Misc"

// DefaultTaxAccount receives the tax posting when the caller opts in.
const DefaultTaxAccount = "Expenses:Tax"

// AccountResolver maps one free-text item description to an account path.
// Implementations are expected to degrade internally and always return an
// account; an error here is a programmer-error condition, not a miss.
type AccountResolver interface {
	ResolveAccount(ctx context.Context, description, vendor string, price decimal.Decimal) (string, error)
}

// ResolverFunc adapts a function to the AccountResolver interface.
type ResolverFunc func(ctx context.Context, description, vendor string, price decimal.Decimal) (string, error)

// ResolveAccount implements AccountResolver.
func (f ResolverFunc) ResolveAccount(ctx context.Context, description, vendor string, price decimal.Decimal) (string, error) {
	return f(ctx, description, vendor, price)
}

// BuildOptions tune posting construction.
type BuildOptions struct {
	// Vendor is passed through to the resolver for vendor-tier matching.
	Vendor string
	// IncludeTaxPosting appends a separate tax-category posting when the
	// receipt carries a tax line.
	IncludeTaxPosting bool
	// TaxAccount overrides DefaultTaxAccount.
	TaxAccount string
}

// BuildPostings converts a receipt into a balanced posting set: one
// positive posting per item, an optional tax posting, and one negative
// posting for the total against the payment account. The returned set
// always nets to zero within models.BalanceEpsilon.
//
// Item resolutions run concurrently; posting order always matches the
// original item order.
func BuildPostings(
	ctx context.Context,
	data *models.ReceiptData,
	resolver AccountResolver,
	paymentAccount, currency string,
	opts BuildOptions,
) ([]models.Posting, error) {
	if currency == "" {
		currency = models.DefaultCurrency
	}

	accounts, err := resolveAll(ctx, data.Items, resolver, opts.Vendor)
	if err != nil {
		return nil, err
	}

	postings := make([]models.Posting, 0, len(data.Items)+2)
	for i, item := range data.Items {
		postings = append(postings, models.Posting{
			Account:  accounts[i],
			Amount:   item.Price,
			Currency: currency,
		})
	}

	if opts.IncludeTaxPosting && data.Tax != nil && data.Tax.IsPositive() {
		taxAccount := opts.TaxAccount
		if taxAccount == "" {
			taxAccount = DefaultTaxAccount
		}
		postings = append(postings, models.Posting{
			Account:  taxAccount,
			Amount:   *data.Tax,
			Currency: currency,
		})
	}

	// The payment posting covers the receipt total when known, else
	// whatever the positive postings add up to.
	total := decimal.Zero
	for _, p := range postings {
		total = total.Add(p.Amount)
	}
	if data.Total != nil {
		total = *data.Total
	}

	postings = append(postings, models.Posting{
		Account:  paymentAccount,
		Amount:   total.Neg(),
		Currency: currency,
	})

	return absorbResidual(postings, currency), nil
}

// resolveAll resolves every item's account concurrently, preserving item
// order in the result.
func resolveAll(ctx context.Context, items []models.ReceiptItem, resolver AccountResolver, vendor string) ([]string, error) {
	accounts := make([]string, len(items))
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, description string, price decimal.Decimal) {
			defer wg.Done()
			accounts[i], errs[i] = resolver.ResolveAccount(ctx, description, vendor, price)
		}(i, item.Description, item.Price)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to resolve account for item %d: %w", i, err)
		}
	}
	return accounts, nil
}

// absorbResidual forces the posting set to net to zero. The
// smallest-magnitude positive posting takes the correction, chosen
// deterministically so rounding noise never concentrates in a large line.
func absorbResidual(postings []models.Posting, currency string) []models.Posting {
	residual := decimal.Zero
	for _, p := range postings {
		residual = residual.Add(p.Amount)
	}

	if residual.Abs().LessThanOrEqual(models.BalanceEpsilon) {
		return postings
	}

	smallest := -1
	for i, p := range postings {
		if !p.Amount.IsPositive() {
			continue
		}
		if smallest == -1 || p.Amount.LessThan(postings[smallest].Amount) {
			smallest = i
		}
	}

	if smallest == -1 {
		// Nothing positive to adjust: synthesize a catch-all posting.
		logger.Log.Warn().
			Str("residual", residual.String()).
			Msg("no positive posting to absorb residual, synthesizing misc posting")
		return append(postings, models.Posting{
			Account:  MiscAccount,
			Amount:   residual.Neg(),
			Currency: currency,
		})
	}

	logger.Log.Debug().
		Str("residual", residual.String()).
		Str("account", postings[smallest].Account).
		Msg("absorbing rounding residual into smallest positive posting")

	postings[smallest].Amount = postings[smallest].Amount.Sub(residual)
	return postings
}
