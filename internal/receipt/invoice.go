package receipt

import (
	"strings"

	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// InvoiceStrategy parses invoice-style documents: multi-column item rows
// (description, quantity, unit price, line amount) where the line amount is
// the last money token, and a summary block that may appear without any
// subtotal keyword. Shares the money-token grammar and cleanup rules with
// LineItemStrategy so monetary parsing stays consistent.
type InvoiceStrategy struct{}

// Name identifies the strategy in selector output.
func (s *InvoiceStrategy) Name() string { return "invoice" }

// Parse walks all lines once. A line is a summary line when it carries a
// summary keyword anywhere, not just as its description prefix; any other
// line with at least one money token and a leading description is an item
// row whose amount is the last column.
func (s *InvoiceStrategy) Parse(text string) *models.ReceiptData {
	lines := splitLines(text)
	data := &models.ReceiptData{
		RawLines: lines,
		Ranges:   models.LineRanges{ItemsStart: -1, ItemsEnd: -1, SummaryStart: -1, SummaryEnd: -1},
	}

	doneSummary := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		upper := strings.ToUpper(trimmed)
		if hasSummaryKeyword(upper) {
			if data.Ranges.SummaryStart == -1 {
				data.Ranges.SummaryStart = i
			}
			if !doneSummary {
				doneSummary = parseSummaryLine(trimmed, data)
				data.Ranges.SummaryEnd = i + 1
			}
			continue
		}

		if doneSummary {
			continue
		}

		if item, ok := parseInvoiceRow(trimmed); ok {
			if data.Ranges.ItemsStart == -1 {
				data.Ranges.ItemsStart = i
			}
			data.Items = append(data.Items, item)
			data.Ranges.ItemsEnd = i + 1
		}
	}

	if len(data.Items) == 0 {
		return nil
	}
	return data
}

// hasSummaryKeyword matches summary keywords anywhere in the line, which
// suits invoices where labels are right-aligned ("      Sales Tax   12.34").
func hasSummaryKeyword(upper string) bool {
	for _, keyword := range summaryKeywords {
		if strings.Contains(upper, keyword) {
			return true
		}
	}
	return false
}

// headerWords mark document-header rows ("INVOICE #2041", "Page 1 of 2")
// that carry numbers but are not purchased lines.
var headerWords = []string{"INVOICE", "RECEIPT", "ORDER", "PAGE", "DATE", "CUSTOMER", "ACCOUNT NO"}

// parseInvoiceRow extracts an item from a multi-column row: description is
// the text before the first money token, amount is the last money token.
func parseInvoiceRow(line string) (models.ReceiptItem, bool) {
	loc := moneyTokenRe.FindStringIndex(line)
	if loc == nil {
		return models.ReceiptItem{}, false
	}

	desc := cleanDescription(line[:loc[0]])
	if desc == "" || !containsLetter(desc) || isSummaryKeyword(desc) {
		return models.ReceiptItem{}, false
	}

	upperDesc := strings.ToUpper(desc)
	for _, word := range headerWords {
		if strings.Contains(upperDesc, word) {
			return models.ReceiptItem{}, false
		}
	}

	amount, ok := lastMoneyToken(line)
	if !ok {
		return models.ReceiptItem{}, false
	}

	return models.ReceiptItem{Description: desc, Price: amount}, true
}
