// Package receipt recovers structured line items and summary fields from
// noisy OCR text. The money-token grammar and cleanup rules here are shared
// by every parse strategy so that monetary parsing stays consistent.
package receipt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// moneyTokenRe matches a fixed-point amount, with optional thousands
	// separators and an optional fractional part of one or two digits.
	moneyTokenRe = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?`)

	// trailingMoneyRe anchors a money token at the end of a line, allowing a
	// 1-3 character currency/flag suffix that OCR engines commonly emit
	// after the amount (e.g. "265.00 B", "180 *T").
	trailingMoneyRe = regexp.MustCompile(
		`(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)\s*([^\d\s]{1,3})?\s*$`)

	// currencyGlyphs are stripped from tokens before numeric parsing.
	currencyGlyphs = "฿$€£¥₹"
)

// parseMoney converts one money token to a decimal amount. Thousands
// separators and currency glyphs are stripped; the result is rounded to two
// decimals using standard half-up rounding, not banker's rounding.
func parseMoney(token string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(token), ",", "")
	cleaned = strings.TrimFunc(cleaned, func(r rune) bool {
		return strings.ContainsRune(currencyGlyphs, r)
	})
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty money token")
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid money token %q: %w", token, err)
	}

	// decimal.Round is half away from zero, which is what receipts use.
	return amount.Round(2), nil
}

// splitTrailingMoney extracts a trailing money token from a line, returning
// the preceding text and the parsed amount. Returns ok=false when the line
// does not end in a money token.
func splitTrailingMoney(line string) (desc string, amount decimal.Decimal, ok bool) {
	loc := trailingMoneyRe.FindStringSubmatchIndex(line)
	if loc == nil {
		return "", decimal.Zero, false
	}

	token := line[loc[2]:loc[3]]
	amount, err := parseMoney(token)
	if err != nil {
		return "", decimal.Zero, false
	}

	return strings.TrimSpace(line[:loc[2]]), amount, true
}

// lastMoneyToken returns the last money token on the line, parsed. Used for
// tax lines where a percentage precedes the amount ("VAT 7% 12.34").
func lastMoneyToken(line string) (decimal.Decimal, bool) {
	tokens := moneyTokenRe.FindAllString(line, -1)
	if len(tokens) == 0 {
		return decimal.Zero, false
	}
	amount, err := parseMoney(tokens[len(tokens)-1])
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// firstMoneyToken returns the first money token on the line, parsed. Used
// for subtotal lines where the amount sits adjacent to the keyword.
func firstMoneyToken(line string) (decimal.Decimal, bool) {
	token := moneyTokenRe.FindString(line)
	if token == "" {
		return decimal.Zero, false
	}
	amount, err := parseMoney(token)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// cleanDescription strips a trailing OCR flag and collapses internal
// whitespace. A flag is a 1-3 character trailing token that is either a
// lone uppercase letter or contains a non-alphanumeric character ("*T",
// "#", "B%"); real short words like "Tea" are left alone.
func cleanDescription(desc string) string {
	fields := strings.Fields(desc)
	if len(fields) > 1 && isOCRFlag(fields[len(fields)-1]) {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func isOCRFlag(token string) bool {
	if len(token) > 3 {
		return false
	}
	if len(token) == 1 && token[0] >= 'A' && token[0] <= 'Z' {
		return true
	}
	for _, r := range token {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !alnum {
			return true
		}
	}
	return false
}
