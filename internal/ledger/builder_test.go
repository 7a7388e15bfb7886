package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

func staticResolver(account string) AccountResolver {
	return ResolverFunc(func(_ context.Context, _, _ string, _ decimal.Decimal) (string, error) {
		return account, nil
	})
}

func sumPostings(postings []models.Posting) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range postings {
		sum = sum.Add(p.Amount)
	}
	return sum
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func thaiReceiptData() *models.ReceiptData {
	return &models.ReceiptData{
		Items: []models.ReceiptItem{
			{Description: "Tom Yum Kung", Price: decimal.RequireFromString("265")},
			{Description: "Pad Thai", Price: decimal.RequireFromString("180")},
			{Description: "Thai Iced Tea", Price: decimal.RequireFromString("80")},
		},
		Subtotal: dec("525"),
		Tax:      dec("36.75"),
		Total:    dec("561.75"),
	}
}

func TestBuildPostings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("builds zero-sum postings for thai receipt", func(t *testing.T) {
		postings, err := BuildPostings(ctx, thaiReceiptData(),
			staticResolver("Expenses:Personal:Food"), "Assets:Cash", "THB", BuildOptions{})
		require.NoError(t, err)
		require.Len(t, postings, 4)

		// Three positive item postings in original order.
		require.Equal(t, "Expenses:Personal:Food", postings[0].Account)
		require.True(t, postings[0].Amount.Equal(decimal.RequireFromString("265")))
		require.True(t, postings[1].Amount.Equal(decimal.RequireFromString("180")))
		require.True(t, postings[2].Amount.IsPositive())

		// One negative payment posting for the total.
		require.Equal(t, "Assets:Cash", postings[3].Account)
		require.True(t, postings[3].Amount.Equal(decimal.RequireFromString("-561.75")))

		// The set nets to... not zero here (tax is unposted), so the
		// smallest positive posting absorbed the difference.
		require.True(t, sumPostings(postings).Abs().LessThanOrEqual(models.BalanceEpsilon))
	})

	t.Run("optional tax posting keeps balance without correction", func(t *testing.T) {
		postings, err := BuildPostings(ctx, thaiReceiptData(),
			staticResolver("Expenses:Personal:Food"), "Assets:Cash", "THB",
			BuildOptions{IncludeTaxPosting: true})
		require.NoError(t, err)
		require.Len(t, postings, 5)

		require.Equal(t, DefaultTaxAccount, postings[3].Account)
		require.True(t, postings[3].Amount.Equal(decimal.RequireFromString("36.75")))
		require.True(t, sumPostings(postings).IsZero())

		// Item amounts untouched: no residual existed.
		require.True(t, postings[0].Amount.Equal(decimal.RequireFromString("265")))
	})

	t.Run("smallest positive posting absorbs residual", func(t *testing.T) {
		data := thaiReceiptData()
		postings, err := BuildPostings(ctx, data,
			staticResolver("Expenses:Personal:Food"), "Assets:Cash", "THB", BuildOptions{})
		require.NoError(t, err)

		// Tax 36.75 was not posted, so the 80.00 iced tea (smallest
		// positive) takes the correction, not the last or largest line.
		require.True(t, postings[0].Amount.Equal(decimal.RequireFromString("265")))
		require.True(t, postings[1].Amount.Equal(decimal.RequireFromString("180")))
		require.True(t, postings[2].Amount.Equal(decimal.RequireFromString("116.75")))
	})

	t.Run("correction is deterministic across runs", func(t *testing.T) {
		for range 10 {
			postings, err := BuildPostings(ctx, thaiReceiptData(),
				staticResolver("Expenses:Personal:Food"), "Assets:Cash", "THB", BuildOptions{})
			require.NoError(t, err)
			require.True(t, postings[2].Amount.Equal(decimal.RequireFromString("116.75")))
		}
	})

	t.Run("synthesizes misc posting when no positive lines exist", func(t *testing.T) {
		data := &models.ReceiptData{Total: dec("50")}
		postings, err := BuildPostings(ctx, data,
			staticResolver("unused"), "Assets:Cash", "THB", BuildOptions{})
		require.NoError(t, err)
		require.Len(t, postings, 2)
		require.Equal(t, MiscAccount, postings[1].Account)
		require.True(t, sumPostings(postings).IsZero())
	})

	t.Run("single item zero tax receipt balances", func(t *testing.T) {
		data := &models.ReceiptData{
			Items: []models.ReceiptItem{{Description: "Coffee", Price: decimal.RequireFromString("3.50")}},
		}
		postings, err := BuildPostings(ctx, data,
			staticResolver("Expenses:Personal:Food:Coffee"), "Assets:Cash", "THB", BuildOptions{})
		require.NoError(t, err)
		require.Len(t, postings, 2)
		require.True(t, sumPostings(postings).IsZero())
	})

	t.Run("resolver called per item with order preserved", func(t *testing.T) {
		resolver := ResolverFunc(func(_ context.Context, description, _ string, _ decimal.Decimal) (string, error) {
			return "Expenses:" + description, nil
		})
		postings, err := BuildPostings(ctx, thaiReceiptData(), resolver, "Assets:Cash", "THB", BuildOptions{})
		require.NoError(t, err)
		require.Equal(t, "Expenses:Tom Yum Kung", postings[0].Account)
		require.Equal(t, "Expenses:Pad Thai", postings[1].Account)
		require.Equal(t, "Expenses:Thai Iced Tea", postings[2].Account)
	})

	t.Run("resolver error propagates", func(t *testing.T) {
		boom := errors.New("boom")
		resolver := ResolverFunc(func(_ context.Context, _, _ string, _ decimal.Decimal) (string, error) {
			return "", boom
		})
		_, err := BuildPostings(ctx, thaiReceiptData(), resolver, "Assets:Cash", "THB", BuildOptions{})
		require.ErrorIs(t, err, boom)
	})

	t.Run("defaults currency when empty", func(t *testing.T) {
		postings, err := BuildPostings(ctx, thaiReceiptData(),
			staticResolver("Expenses:Food"), "Assets:Cash", "", BuildOptions{})
		require.NoError(t, err)
		require.Equal(t, models.DefaultCurrency, postings[0].Currency)
	})
}

// TestBuildPostings_BalanceInvariant checks the zero-sum guarantee over
// randomly generated receipts.
func TestBuildPostings_BalanceInvariant(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		itemCount := rapid.IntRange(0, 12).Draw(rt, "itemCount")
		data := &models.ReceiptData{}
		for i := 0; i < itemCount; i++ {
			cents := rapid.Int64Range(1, 5_000_00).Draw(rt, "price")
			data.Items = append(data.Items, models.ReceiptItem{
				Description: "item",
				Price:       decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)),
			})
		}

		if rapid.Bool().Draw(rt, "hasTotal") {
			cents := rapid.Int64Range(1, 10_000_00).Draw(rt, "total")
			total := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
			data.Total = &total
		}
		if rapid.Bool().Draw(rt, "hasTax") {
			cents := rapid.Int64Range(0, 500_00).Draw(rt, "tax")
			tax := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
			data.Tax = &tax
		}

		postings, err := BuildPostings(ctx, data,
			staticResolver("Expenses:Fuzz"), "Assets:Cash", "THB",
			BuildOptions{IncludeTaxPosting: rapid.Bool().Draw(rt, "postTax")})
		if err != nil {
			rt.Fatalf("BuildPostings failed: %v", err)
		}

		if sum := sumPostings(postings); sum.Abs().GreaterThan(models.BalanceEpsilon) {
			rt.Fatalf("postings sum to %s, want 0 within %s", sum, models.BalanceEpsilon)
		}
	})
}
