package receipt

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	items := []models.ReceiptItem{
		{Description: "Tom Yum Kung", Price: decimal.RequireFromString("265")},
		{Description: "Pad Thai", Price: decimal.RequireFromString("180")},
		{Description: "Thai Iced Tea", Price: decimal.RequireFromString("80")},
	}

	t.Run("valid receipt passes", func(t *testing.T) {
		data := &models.ReceiptData{
			Items: items, Subtotal: dec("525"), Tax: dec("36.75"), Total: dec("561.75"),
		}
		result := Validate(data)
		require.True(t, result.Valid)
		require.Empty(t, result.Reasons)
		require.True(t, result.ItemsSum.Equal(decimal.RequireFromString("525")))
	})

	t.Run("items sum mismatch reported", func(t *testing.T) {
		data := &models.ReceiptData{Items: items, Subtotal: dec("530")}
		result := Validate(data)
		require.False(t, result.Valid)
		require.Len(t, result.Reasons, 1)
		require.Contains(t, result.Reasons[0], "items sum")
		require.Contains(t, result.Reasons[0], "525")
		require.Contains(t, result.Reasons[0], "530")
	})

	t.Run("total mismatch reported", func(t *testing.T) {
		data := &models.ReceiptData{
			Items: items, Subtotal: dec("525"), Tax: dec("36.75"), Total: dec("570"),
		}
		result := Validate(data)
		require.False(t, result.Valid)
		require.Len(t, result.Reasons, 1)
		require.Contains(t, result.Reasons[0], "does not match total")
	})

	t.Run("both mismatches reported together", func(t *testing.T) {
		data := &models.ReceiptData{
			Items: items, Subtotal: dec("600"), Tax: dec("10"), Total: dec("700"),
		}
		result := Validate(data)
		require.False(t, result.Valid)
		require.Len(t, result.Reasons, 2)
	})

	t.Run("within tolerance passes", func(t *testing.T) {
		data := &models.ReceiptData{Items: items, Subtotal: dec("525.04")}
		result := Validate(data)
		require.True(t, result.Valid)
	})

	t.Run("just over tolerance fails", func(t *testing.T) {
		data := &models.ReceiptData{Items: items, Subtotal: dec("525.06")}
		result := Validate(data)
		require.False(t, result.Valid)
	})

	t.Run("missing fields skip their checks", func(t *testing.T) {
		data := &models.ReceiptData{Items: items}
		result := Validate(data)
		require.True(t, result.Valid)
	})

	t.Run("never mutates the receipt", func(t *testing.T) {
		data := &models.ReceiptData{Items: items, Subtotal: dec("600")}
		_ = Validate(data)
		require.True(t, data.Subtotal.Equal(decimal.RequireFromString("600")))
		require.Len(t, data.Items, 3)
	})

	t.Run("custom threshold respected", func(t *testing.T) {
		data := &models.ReceiptData{Items: items, Subtotal: dec("526")}
		require.False(t, Validate(data).Valid)
		require.True(t, ValidateWithThreshold(data, decimal.NewFromInt(2)).Valid)
	})
}
