package receipt

import (
	"regexp"
	"strings"

	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// summaryKeywords mark the transition from the item block to the summary
// block. Checked against the uppercased line.
var summaryKeywords = []string{
	"SUBTOTAL", "SUB-TOTAL", "SUB TOTAL", "TOTAL", "TAX", "VAT",
	"CASH", "CHANGE", "AMOUNT DUE", "BALANCE", "TENDER",
}

var totalFollowedByTaxRe = regexp.MustCompile(`TOTAL\s+TAX`)

// isSummaryKeyword reports whether the text is a known summary keyword, so
// item extraction never mistakes "TOTAL 561.75" for a purchased line.
func isSummaryKeyword(text string) bool {
	upper := strings.ToUpper(strings.TrimSpace(text))
	for _, keyword := range summaryKeywords {
		if strings.HasPrefix(upper, keyword) {
			return true
		}
	}
	return false
}

func isSubtotalLine(upper string) bool {
	return strings.Contains(upper, "SUBTOTAL") ||
		strings.Contains(upper, "SUB-TOTAL") ||
		strings.Contains(upper, "SUB TOTAL")
}

func isTaxLine(upper string) bool {
	return strings.Contains(upper, "TAX") || strings.Contains(upper, "VAT")
}

// isGrandTotalLine matches the first TOTAL that is not a subtotal and not
// immediately followed by TAX ("TOTAL TAX 36.75" is a tax line on some
// receipt formats). Invoice-style labels for the same figure are accepted
// too.
func isGrandTotalLine(upper string) bool {
	if strings.Contains(upper, "AMOUNT DUE") || strings.Contains(upper, "BALANCE DUE") {
		return true
	}
	return strings.Contains(upper, "TOTAL") &&
		!isSubtotalLine(upper) &&
		!totalFollowedByTaxRe.MatchString(upper)
}

// parseSummaryLine folds one summary-block line into data. Returns true
// when the grand total was found, which terminates the summary scan.
func parseSummaryLine(line string, data *models.ReceiptData) (done bool) {
	upper := strings.ToUpper(line)

	switch {
	case isSubtotalLine(upper):
		if data.Subtotal == nil {
			// The amount sits adjacent to the keyword.
			rest := line[keywordEnd(upper):]
			if amount, ok := firstMoneyToken(rest); ok {
				data.Subtotal = &amount
			} else if amount, ok := firstMoneyToken(line); ok {
				data.Subtotal = &amount
			}
		}

	case isGrandTotalLine(upper):
		if data.Total == nil {
			if amount, ok := lastMoneyToken(line); ok {
				data.Total = &amount
				return true
			}
		}

	case isTaxLine(upper):
		if data.Tax == nil {
			// Take the last money token: handles "VAT 7% 12.34" where the
			// rate precedes the amount.
			if amount, ok := lastMoneyToken(line); ok {
				data.Tax = &amount
			}
		}
	}

	return false
}

// keywordEnd returns the index just past the subtotal keyword in an
// uppercased line, so the adjacent money token can be read.
func keywordEnd(upper string) int {
	for _, keyword := range []string{"SUB-TOTAL", "SUB TOTAL", "SUBTOTAL"} {
		if idx := strings.Index(upper, keyword); idx >= 0 {
			return idx + len(keyword)
		}
	}
	return 0
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func splitLines(text string) []string {
	var lines []string
	for line := range strings.SplitSeq(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		lines = append(lines, line)
	}
	return lines
}
