// Package ocr scores raw recognized text for structural plausibility before
// parsing is attempted. The score is advisory: a low score is logged by the
// caller, never used to block processing.
package ocr

import (
	"regexp"
	"strings"
)

// Report is the outcome of assessing one raw OCR text candidate.
type Report struct {
	Confidence float64
	Issues     []string
}

// Thresholds for structural plausibility checks.
const (
	minTextLength = 20
	minLineCount  = 3
)

var (
	moneyTokenRe = regexp.MustCompile(`\d+[.,]\d{2}\b|\b\d{2,}\b`)
	dateRe       = regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`)

	receiptKeywords = []string{
		"TOTAL", "SUBTOTAL", "SUB-TOTAL", "TAX", "VAT", "CASH", "CHANGE", "RECEIPT",
	}

	businessSuffixes = []string{
		"LTD", "LLC", "INC", "CO.", "CO,", "COMPANY", "RESTAURANT", "CAFE", "STORE", "SHOP", "MARKET",
	}
)

// Assess computes a [0,1] confidence that the text looks like a receipt,
// plus the list of issues that lowered the score.
func Assess(text string) Report {
	report := Report{}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		report.Issues = append(report.Issues, "empty text")
		return report
	}

	lines := nonEmptyLines(trimmed)
	upper := strings.ToUpper(trimmed)

	// Each structural signal contributes its weight when present; the
	// weights sum to 1.0 for a fully receipt-shaped text.
	score := 0.0

	if len(trimmed) >= minTextLength {
		score += 0.15
	} else {
		report.Issues = append(report.Issues, "text too short")
	}

	if len(lines) >= minLineCount {
		score += 0.15
	} else {
		report.Issues = append(report.Issues, "too few lines")
	}

	moneyCount := len(moneyTokenRe.FindAllString(trimmed, -1))
	switch {
	case moneyCount >= 3:
		score += 0.35
	case moneyCount > 0:
		score += 0.20
	default:
		report.Issues = append(report.Issues, "no money amounts found")
	}

	if containsAny(upper, receiptKeywords) {
		score += 0.20
	} else {
		report.Issues = append(report.Issues, "no receipt keywords found")
	}

	if dateRe.MatchString(trimmed) {
		score += 0.075
	} else {
		report.Issues = append(report.Issues, "no date found")
	}

	if containsAny(upper, businessSuffixes) {
		score += 0.075
	} else {
		report.Issues = append(report.Issues, "no business name indicators")
	}

	report.Confidence = score
	return report
}

func nonEmptyLines(text string) []string {
	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
