// Package models defines the domain entities for the receipt-to-ledger pipeline.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency assumed when the caller does not supply one.
const DefaultCurrency = "THB"

// BalanceEpsilon is the tolerance within which a set of postings is
// considered balanced, in currency units.
var BalanceEpsilon = decimal.NewFromFloat(0.005)

// ReceiptItem is a single purchased line recovered from OCR text.
// Price is always non-negative at parse time; sign is applied by the
// posting builder.
type ReceiptItem struct {
	Description string
	Price       decimal.Decimal
}

// LineRanges records where the parser located the item and summary blocks,
// as half-open line indexes into RawLines. Kept for debuggability.
type LineRanges struct {
	ItemsStart   int
	ItemsEnd     int
	SummaryStart int
	SummaryEnd   int
}

// ReceiptData is the structured result of parsing one OCR text candidate.
// Subtotal, Tax and Total are nil when the field was not found on the
// receipt and could not be conservatively inferred.
type ReceiptData struct {
	Items    []ReceiptItem
	Subtotal *decimal.Decimal
	Tax      *decimal.Decimal
	Total    *decimal.Decimal
	RawLines []string
	Ranges   LineRanges
}

// ItemsSum returns the sum of all item prices.
func (r *ReceiptData) ItemsSum() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range r.Items {
		sum = sum.Add(item.Price)
	}
	return sum
}

// Posting is one signed-amount line of a double-entry transaction.
type Posting struct {
	// Account is a colon-delimited hierarchy, e.g. "Expenses:Personal:Food".
	Account  string
	Amount   decimal.Decimal
	Currency string
}

// UnbalancedPosting is a posting whose amount may still be unknown.
// Input type for auto-balancing free-form entries.
type UnbalancedPosting struct {
	Account  string
	Amount   *decimal.Decimal
	Currency string
}

// PatternType determines how a mapping pattern is matched against text.
type PatternType string

// Pattern type constants.
const (
	PatternExact    PatternType = "exact"
	PatternContains PatternType = "contains"
	PatternRegex    PatternType = "regex"
)

// AccountType classifies the ledger account a mapping resolves to.
type AccountType string

// Account type constants.
const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
)

// AccountPattern is a shared/global rule mapping a description pattern to an
// account path. Rows are long-lived and read-only to the resolver.
type AccountPattern struct {
	ID              int
	Pattern         string
	PatternType     PatternType
	AccountPath     string
	AccountType     AccountType
	Priority        int
	BusinessContext string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// VendorMapping maps a vendor/merchant name to a default account path.
type VendorMapping struct {
	ID              int
	Pattern         string
	PatternType     PatternType
	AccountPath     string
	AccountType     AccountType
	Priority        int
	BusinessContext string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// UserMapping is a per-user override rule. It belongs to exactly one user
// and outranks every shared rule.
type UserMapping struct {
	ID              int
	UserID          int64
	Pattern         string
	PatternType     PatternType
	AccountPath     string
	AccountType     AccountType
	Priority        int
	BusinessContext string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Tag is a global label attachable to entries and postings. Usage counters
// are updated as a side effect of tagging.
type Tag struct {
	ID         int
	Name       string
	Category   string
	Priority   int
	UsageCount int
	CreatedAt  time.Time
}

// MappingSource identifies which resolver tier produced a result.
type MappingSource string

// Mapping source constants, ordered from most to least specific.
const (
	SourceUser            MappingSource = "user"
	SourceVendor          MappingSource = "vendor"
	SourcePattern         MappingSource = "pattern"
	SourceBusinessDefault MappingSource = "business_default"
	SourceStaticFallback  MappingSource = "static_fallback"
)

// MappingResult is the transient outcome of one account resolution.
// Produced fresh per call; never persisted.
type MappingResult struct {
	Account         string
	AccountType     AccountType
	Confidence      float64
	Source          MappingSource
	BusinessContext string
}
