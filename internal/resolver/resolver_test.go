package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/receipt-ledger/internal/gemini"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

type fakePatternStore struct {
	patterns []models.AccountPattern
	err      error
	calls    int
}

func (f *fakePatternStore) ActivePatterns(_ context.Context, _ string) ([]models.AccountPattern, error) {
	f.calls++
	return f.patterns, f.err
}

type fakeVendorStore struct {
	mappings []models.VendorMapping
	err      error
	calls    int
}

func (f *fakeVendorStore) ActiveVendorMappings(_ context.Context, _ string) ([]models.VendorMapping, error) {
	f.calls++
	return f.mappings, f.err
}

type fakeUserStore struct {
	mappings []models.UserMapping
	err      error
	calls    int
}

func (f *fakeUserStore) ActiveUserMappings(_ context.Context, _ int64, _ string) ([]models.UserMapping, error) {
	f.calls++
	return f.mappings, f.err
}

type fakeRefiner struct {
	refinement *gemini.CategoryRefinement
	err        error
	calls      int
}

func (f *fakeRefiner) RefineCategory(_ context.Context, _, _, _, _ string) (*gemini.CategoryRefinement, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.refinement, nil
}

func TestResolverTiers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("user mapping outranks global pattern", func(t *testing.T) {
		t.Parallel()
		users := &fakeUserStore{mappings: []models.UserMapping{
			{UserID: 7, Pattern: "coffee", PatternType: models.PatternContains,
				AccountPath: "Expenses:Work:Meetings", AccountType: models.AccountExpense,
				Priority: 1, IsActive: true},
		}}
		r := New(Options{Users: users})

		result := r.Resolve(ctx, Request{Description: "iced coffee", UserID: 7})
		require.Equal(t, "Expenses:Work:Meetings", result.Account)
		require.Equal(t, models.SourceUser, result.Source)
		require.InDelta(t, ConfidenceUser, result.Confidence, 1e-9)
	})

	t.Run("static seed matches without any store", func(t *testing.T) {
		t.Parallel()
		r := New(Options{})

		result := r.Resolve(ctx, Request{Description: "Iced Coffee"})
		require.Equal(t, "Expenses:Food:Coffee", result.Account)
		require.Equal(t, models.SourcePattern, result.Source)
		require.InDelta(t, ConfidencePattern, result.Confidence, 1e-9)
	})

	t.Run("higher priority store pattern beats static seed", func(t *testing.T) {
		t.Parallel()
		patterns := &fakePatternStore{patterns: []models.AccountPattern{
			{Pattern: "coffee", PatternType: models.PatternContains,
				AccountPath: "Expenses:Office:Coffee", AccountType: models.AccountExpense,
				Priority: 20, IsActive: true},
		}}
		r := New(Options{Patterns: patterns})

		result := r.Resolve(ctx, Request{Description: "coffee beans"})
		require.Equal(t, "Expenses:Office:Coffee", result.Account)
	})

	t.Run("highest priority wins among user matches", func(t *testing.T) {
		t.Parallel()
		users := &fakeUserStore{mappings: []models.UserMapping{
			{UserID: 7, Pattern: "coffee", PatternType: models.PatternContains,
				AccountPath: "Expenses:A", Priority: 1, IsActive: true},
			{UserID: 7, Pattern: "coffee", PatternType: models.PatternContains,
				AccountPath: "Expenses:B", Priority: 9, IsActive: true},
		}}
		r := New(Options{Users: users})

		result := r.Resolve(ctx, Request{Description: "coffee", UserID: 7})
		require.Equal(t, "Expenses:B", result.Account)
	})

	t.Run("regex user mapping matches", func(t *testing.T) {
		t.Parallel()
		users := &fakeUserStore{mappings: []models.UserMapping{
			{UserID: 7, Pattern: `^aws .*`, PatternType: models.PatternRegex,
				AccountPath: "Expenses:Cloud:AWS", Priority: 5, IsActive: true},
		}}
		r := New(Options{Users: users})

		result := r.Resolve(ctx, Request{Description: "AWS EC2 hosting", UserID: 7})
		require.Equal(t, "Expenses:Cloud:AWS", result.Account)
	})

	t.Run("invalid store regex is skipped", func(t *testing.T) {
		t.Parallel()
		patterns := &fakePatternStore{patterns: []models.AccountPattern{
			{Pattern: `([`, PatternType: models.PatternRegex,
				AccountPath: "Expenses:Broken", Priority: 50, IsActive: true},
		}}
		r := New(Options{Patterns: patterns})

		result := r.Resolve(ctx, Request{Description: "coffee"})
		require.Equal(t, "Expenses:Food:Coffee", result.Account)
	})

	t.Run("inactive mappings never match", func(t *testing.T) {
		t.Parallel()
		users := &fakeUserStore{mappings: []models.UserMapping{
			{UserID: 7, Pattern: "coffee", PatternType: models.PatternContains,
				AccountPath: "Expenses:Disabled", Priority: 99, IsActive: false},
		}}
		r := New(Options{Users: users})

		result := r.Resolve(ctx, Request{Description: "coffee", UserID: 7})
		require.Equal(t, "Expenses:Food:Coffee", result.Account)
	})

	t.Run("vendor exact match when description says nothing", func(t *testing.T) {
		t.Parallel()
		vendors := &fakeVendorStore{mappings: []models.VendorMapping{
			{Pattern: "Starbucks", PatternType: models.PatternExact,
				AccountPath: "Expenses:Food:Coffee", Priority: 5, IsActive: true},
		}}
		r := New(Options{Vendors: vendors})

		result := r.Resolve(ctx, Request{Description: "order 8812", Vendor: "starbucks"})
		require.Equal(t, "Expenses:Food:Coffee", result.Account)
		require.Equal(t, models.SourceVendor, result.Source)
		require.InDelta(t, ConfidenceVendor, result.Confidence, 1e-9)
	})

	t.Run("vendor exact outranks vendor regex", func(t *testing.T) {
		t.Parallel()
		vendors := &fakeVendorStore{mappings: []models.VendorMapping{
			{Pattern: `.*mart.*`, PatternType: models.PatternRegex,
				AccountPath: "Expenses:Shopping", Priority: 9, IsActive: true},
			{Pattern: "FamilyMart", PatternType: models.PatternExact,
				AccountPath: "Expenses:Food:Convenience", Priority: 1, IsActive: true},
		}}
		r := New(Options{Vendors: vendors})

		result := r.Resolve(ctx, Request{Description: "order 8812", Vendor: "FamilyMart"})
		require.Equal(t, "Expenses:Food:Convenience", result.Account)
	})

	t.Run("vendor regex used when no exact match", func(t *testing.T) {
		t.Parallel()
		vendors := &fakeVendorStore{mappings: []models.VendorMapping{
			{Pattern: `.*mart.*`, PatternType: models.PatternRegex,
				AccountPath: "Expenses:Shopping", Priority: 9, IsActive: true},
		}}
		r := New(Options{Vendors: vendors})

		result := r.Resolve(ctx, Request{Description: "order 8812", Vendor: "SuperMart Asok"})
		require.Equal(t, "Expenses:Shopping", result.Account)
	})

	t.Run("business default when nothing matches", func(t *testing.T) {
		t.Parallel()
		r := New(Options{})

		result := r.Resolve(ctx, Request{Description: "zzqx 9000", BusinessContext: "Cafe"})
		require.Equal(t, "Expenses:Cafe:General", result.Account)
		require.Equal(t, models.SourceBusinessDefault, result.Source)
		require.InDelta(t, ConfidenceBusinessDefault, result.Confidence, 1e-9)
	})

	t.Run("static fallback is the terminal tier", func(t *testing.T) {
		t.Parallel()
		r := New(Options{})

		result := r.Resolve(ctx, Request{Description: "zzqx 9000"})
		require.Equal(t, FallbackAccount, result.Account)
		require.Equal(t, models.SourceStaticFallback, result.Source)
		require.InDelta(t, ConfidenceStaticFallback, result.Confidence, 1e-9)
	})

	t.Run("store failure degrades to static seed", func(t *testing.T) {
		t.Parallel()
		patterns := &fakePatternStore{err: errors.New("connection refused")}
		r := New(Options{Patterns: patterns})

		result := r.Resolve(ctx, Request{Description: "coffee"})
		require.Equal(t, "Expenses:Food:Coffee", result.Account)
	})

	t.Run("user store failure falls through to pattern tier", func(t *testing.T) {
		t.Parallel()
		users := &fakeUserStore{err: errors.New("connection refused")}
		r := New(Options{Users: users})

		result := r.Resolve(ctx, Request{Description: "coffee", UserID: 7})
		require.Equal(t, models.SourcePattern, result.Source)
	})
}

func TestResolverBusinessContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("splices context after Expenses segment", func(t *testing.T) {
		t.Parallel()
		r := New(Options{})

		result := r.Resolve(ctx, Request{Description: "latte", BusinessContext: "Personal"})
		require.Equal(t, "Expenses:Personal:Food:Coffee", result.Account)
		require.Equal(t, "Personal", result.BusinessContext)
	})

	t.Run("mapping with explicit context is not respliced", func(t *testing.T) {
		t.Parallel()
		users := &fakeUserStore{mappings: []models.UserMapping{
			{UserID: 7, Pattern: "coffee", PatternType: models.PatternContains,
				AccountPath: "Expenses:Cafe:Supplies:Coffee", BusinessContext: "Cafe",
				Priority: 5, IsActive: true},
		}}
		r := New(Options{Users: users})

		result := r.Resolve(ctx, Request{Description: "coffee", UserID: 7, BusinessContext: "Cafe"})
		require.Equal(t, "Expenses:Cafe:Supplies:Coffee", result.Account)
	})

	t.Run("no double splice when context already present", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "Expenses:Personal:Food",
			spliceBusinessContext("Expenses:Personal:Food", "Personal"))
	})

	t.Run("non-expense paths left alone", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "Assets:Cash", spliceBusinessContext("Assets:Cash", "Personal"))
	})
}

func TestResolverCaching(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("pattern lookups cached for the TTL", func(t *testing.T) {
		t.Parallel()
		current := time.Now()
		patterns := &fakePatternStore{}
		r := New(Options{
			Patterns:  patterns,
			LookupTTL: 5 * time.Minute,
			Clock:     func() time.Time { return current },
		})

		r.Resolve(ctx, Request{Description: "coffee"})
		r.Resolve(ctx, Request{Description: "tea"})
		require.Equal(t, 1, patterns.calls)

		current = current.Add(6 * time.Minute)
		r.Resolve(ctx, Request{Description: "coffee"})
		require.Equal(t, 2, patterns.calls)
	})

	t.Run("user lookups cached per user and context", func(t *testing.T) {
		t.Parallel()
		users := &fakeUserStore{}
		r := New(Options{Users: users})

		r.Resolve(ctx, Request{Description: "coffee", UserID: 1})
		r.Resolve(ctx, Request{Description: "coffee", UserID: 1})
		require.Equal(t, 1, users.calls)

		r.Resolve(ctx, Request{Description: "coffee", UserID: 2})
		require.Equal(t, 2, users.calls)
	})
}

func TestResolverEnhancement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("broad category refined on confident answer", func(t *testing.T) {
		t.Parallel()
		refiner := &fakeRefiner{refinement: &gemini.CategoryRefinement{
			Category: "Fruit:Tropical:Mango", Confidence: 0.9,
		}}
		r := New(Options{Refiner: refiner})

		result := r.Resolve(ctx, Request{Description: "mango 3 pcs"})
		require.Equal(t, "Expenses:Groceries:Fruit:Tropical:Mango", result.Account)
	})

	t.Run("low confidence keeps broad category", func(t *testing.T) {
		t.Parallel()
		refiner := &fakeRefiner{refinement: &gemini.CategoryRefinement{
			Category: "Fruit:Tropical:Mango", Confidence: 0.5,
		}}
		r := New(Options{Refiner: refiner})

		result := r.Resolve(ctx, Request{Description: "mango 3 pcs"})
		require.Equal(t, "Expenses:Groceries:Fruit", result.Account)
	})

	t.Run("refiner failure keeps broad category", func(t *testing.T) {
		t.Parallel()
		refiner := &fakeRefiner{err: errors.New("timeout")}
		r := New(Options{Refiner: refiner})

		result := r.Resolve(ctx, Request{Description: "mango 3 pcs"})
		require.Equal(t, "Expenses:Groceries:Fruit", result.Account)
	})

	t.Run("non-broad categories skip the refiner", func(t *testing.T) {
		t.Parallel()
		refiner := &fakeRefiner{}
		r := New(Options{Refiner: refiner})

		r.Resolve(ctx, Request{Description: "latte"})
		require.Zero(t, refiner.calls)
	})

	t.Run("accepted refinements cached across calls", func(t *testing.T) {
		t.Parallel()
		current := time.Now()
		refiner := &fakeRefiner{refinement: &gemini.CategoryRefinement{
			Category: "Fruit:Tropical:Mango", Confidence: 0.9,
		}}
		r := New(Options{
			Refiner:        refiner,
			EnhancementTTL: 24 * time.Hour,
			Clock:          func() time.Time { return current },
		})

		r.Resolve(ctx, Request{Description: "mango 3 pcs"})
		r.Resolve(ctx, Request{Description: "mango 3 pcs"})
		require.Equal(t, 1, refiner.calls)

		current = current.Add(25 * time.Hour)
		r.Resolve(ctx, Request{Description: "mango 3 pcs"})
		require.Equal(t, 2, refiner.calls)
	})

	t.Run("rejected refinements are not cached", func(t *testing.T) {
		t.Parallel()
		refiner := &fakeRefiner{refinement: &gemini.CategoryRefinement{
			Category: "Fruit:Tropical", Confidence: 0.2,
		}}
		r := New(Options{Refiner: refiner})

		r.Resolve(ctx, Request{Description: "mango 3 pcs"})
		r.Resolve(ctx, Request{Description: "mango 3 pcs"})
		require.Equal(t, 2, refiner.calls)
	})
}

func TestGraftRefinement(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Expenses:Groceries:Fruit:Tropical:Mango",
		graftRefinement("Expenses:Groceries:Fruit", "Fruit:Tropical:Mango"))
	// Model answers missing the broad root are re-rooted under it.
	require.Equal(t, "Expenses:Groceries:Fruit:Tropical:Mango",
		graftRefinement("Expenses:Groceries:Fruit", "Tropical:Mango"))
	require.Equal(t, "Expenses:Electronics:Computer",
		graftRefinement("Expenses:Electronics", "Electronics:Computer"))
}

func TestIsBroadCategory(t *testing.T) {
	t.Parallel()

	for _, segment := range []string{"Fruit", "vegetables", "MEAT", "Electronics", "Clothing", "Supplies", "Software", "Entertainment"} {
		require.True(t, IsBroadCategory(segment), segment)
	}
	require.False(t, IsBroadCategory("Coffee"))
	require.False(t, IsBroadCategory("Misc"))
}
