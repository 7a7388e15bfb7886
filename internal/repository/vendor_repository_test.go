package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/receipt-ledger/internal/database"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

func TestVendorRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create and list active mappings", func(t *testing.T) {
		t.Parallel()
		repo := NewVendorRepository(database.TestTx(t))

		id, err := repo.Create(ctx, &models.VendorMapping{
			Pattern:     "Starbucks",
			PatternType: models.PatternExact,
			AccountPath: "Expenses:Food:Coffee",
			AccountType: models.AccountExpense,
			Priority:    5,
			IsActive:    true,
		})
		require.NoError(t, err)
		require.Positive(t, id)

		mappings, err := repo.ActiveVendorMappings(ctx, "")
		require.NoError(t, err)

		found := false
		for _, m := range mappings {
			if m.ID == id {
				found = true
				require.Equal(t, "Starbucks", m.Pattern)
				require.Equal(t, models.PatternExact, m.PatternType)
			}
		}
		require.True(t, found)
	})

	t.Run("inactive mappings are hidden", func(t *testing.T) {
		t.Parallel()
		repo := NewVendorRepository(database.TestTx(t))

		id, err := repo.Create(ctx, &models.VendorMapping{
			Pattern: "Closed Shop", PatternType: models.PatternExact,
			AccountPath: "Expenses:Misc", AccountType: models.AccountExpense,
			IsActive: false,
		})
		require.NoError(t, err)

		mappings, err := repo.ActiveVendorMappings(ctx, "")
		require.NoError(t, err)
		for _, m := range mappings {
			require.NotEqual(t, id, m.ID)
		}
	})
}
