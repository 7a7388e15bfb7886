// Package pipeline wires the parsing, resolution, posting and tagging
// stages into the operations the surrounding product layers call.
package pipeline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/receipt-ledger/internal/ledger"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
	"gitlab.com/yelinaung/receipt-ledger/internal/receipt"
	"gitlab.com/yelinaung/receipt-ledger/internal/resolver"
	"gitlab.com/yelinaung/receipt-ledger/internal/tagging"
)

// MappingSaver persists a user's confirmed categorization as their own
// top-tier rule. Implemented by repository.UserMappingRepository.
type MappingSaver interface {
	Save(ctx context.Context, m *models.UserMapping) error
}

// learnedMappingPriority ranks learned rules above typical admin seeds so a
// user's own confirmation wins next time.
const learnedMappingPriority = 10

// Options configure a Pipeline. Zero-value fields fall back to defaults:
// the built-in parse strategies, a store-less resolver, and the stock
// payment account and currency.
type Options struct {
	Strategies     []receipt.ParseStrategy
	Resolver       *resolver.Resolver
	Tagger         *tagging.Tagger
	Mappings       MappingSaver
	PaymentAccount string
	Currency       string
}

// Pipeline exposes the receipt-to-ledger operations.
type Pipeline struct {
	selector       *receipt.Selector
	resolver       *resolver.Resolver
	tagger         *tagging.Tagger
	mappings       MappingSaver
	paymentAccount string
	currency       string
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	res := opts.Resolver
	if res == nil {
		res = resolver.New(resolver.Options{})
	}
	paymentAccount := opts.PaymentAccount
	if paymentAccount == "" {
		paymentAccount = "Assets:Cash"
	}
	currency := opts.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	return &Pipeline{
		selector:       receipt.NewSelector(opts.Strategies...),
		resolver:       res,
		tagger:         opts.Tagger,
		mappings:       opts.Mappings,
		paymentAccount: paymentAccount,
		currency:       currency,
	}
}

// ParseReceipt runs every parse strategy over every candidate text and
// returns the best structured result, or receipt.ErrNoParse when nothing
// yields items.
func (p *Pipeline) ParseReceipt(candidates []string) (*receipt.Result, error) {
	return p.selector.Parse(candidates)
}

// EntryOptions scope one entry's resolution and posting construction.
type EntryOptions struct {
	Vendor            string
	BusinessContext   string
	UserID            int64
	IncludeTaxPosting bool
}

// ResolveAccount maps one free-text description to an account path.
func (p *Pipeline) ResolveAccount(ctx context.Context, description string, opts EntryOptions) models.MappingResult {
	return p.resolver.Resolve(ctx, resolver.Request{
		Description:     description,
		Vendor:          opts.Vendor,
		BusinessContext: opts.BusinessContext,
		UserID:          opts.UserID,
	})
}

// BuildPostings converts parsed receipt data into a balanced posting set,
// resolving each item's account through the tier chain. The returned set is
// guaranteed to net to zero within models.BalanceEpsilon.
func (p *Pipeline) BuildPostings(ctx context.Context, data *models.ReceiptData, opts EntryOptions) ([]models.Posting, error) {
	accountResolver := ledger.ResolverFunc(func(ctx context.Context, description, vendor string, _ decimal.Decimal) (string, error) {
		result := p.resolver.Resolve(ctx, resolver.Request{
			Description:     description,
			Vendor:          vendor,
			BusinessContext: opts.BusinessContext,
			UserID:          opts.UserID,
		})
		return result.Account, nil
	})

	return ledger.BuildPostings(ctx, data, accountResolver, p.paymentAccount, p.currency, ledger.BuildOptions{
		Vendor:            opts.Vendor,
		IncludeTaxPosting: opts.IncludeTaxPosting,
	})
}

// AutoBalance fills the single unknown amount in a typed posting list, or
// adjusts the final line of a fully typed one.
func (p *Pipeline) AutoBalance(postings []models.UnbalancedPosting) ([]models.Posting, error) {
	return ledger.AutoBalance(postings)
}

// AutoTagEntry suggests entry-level and posting-level tags. Without a
// configured tagger it returns an empty result.
func (p *Pipeline) AutoTagEntry(ctx context.Context, req tagging.Request) *tagging.Result {
	if p.tagger == nil {
		return &tagging.Result{PostingTags: make(map[int][]tagging.ScoredTag)}
	}
	return p.tagger.AutoTagEntry(ctx, req)
}

// ListTags returns the tag vocabulary for manual tag selection. Without a
// configured tagger it returns nothing.
func (p *Pipeline) ListTags(ctx context.Context) ([]models.Tag, error) {
	if p.tagger == nil {
		return nil, nil
	}
	return p.tagger.AvailableTags(ctx)
}

// ApplyTags records usage for the suggested tags, best-effort.
func (p *Pipeline) ApplyTags(ctx context.Context, result *tagging.Result) int {
	if p.tagger == nil {
		return 0
	}
	return p.tagger.Apply(ctx, result)
}

// LearnMapping saves a user's confirmed description-to-account choice as a
// personal rule, so the next resolution short-circuits at the user tier.
func (p *Pipeline) LearnMapping(ctx context.Context, userID int64, description, accountPath, businessContext string) error {
	if p.mappings == nil {
		return fmt.Errorf("no mapping store configured")
	}
	if description == "" || accountPath == "" {
		return fmt.Errorf("description and account path are required")
	}

	return p.mappings.Save(ctx, &models.UserMapping{
		UserID:          userID,
		Pattern:         description,
		PatternType:     models.PatternContains,
		AccountPath:     accountPath,
		AccountType:     models.AccountExpense,
		Priority:        learnedMappingPriority,
		BusinessContext: businessContext,
		IsActive:        true,
	})
}
