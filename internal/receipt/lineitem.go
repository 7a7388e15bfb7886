package receipt

import (
	"regexp"
	"strings"

	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// LineItemStrategy parses classic thermal-printer receipts: a block of item
// lines each ending in a money token, then a summary block introduced by a
// subtotal keyword.
type LineItemStrategy struct{}

// Name identifies the strategy in selector output.
func (s *LineItemStrategy) Name() string { return "line-item" }

// strictItemRe is the preferred item grammar: an optional single-letter
// flag, an optional 5+ digit SKU, a description, and a trailing money token
// with optional OCR flag suffix.
var strictItemRe = regexp.MustCompile(
	`^(?:[A-Za-z]\s+)?(?:\d{5,}\s+)?(\S.*?)\s+` +
		`(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)\s*([^\d\s]{1,3})?\s*$`)

// Parse extracts items and summary fields using a two-block scan, falling
// back to a single pass over all lines when no clean block boundary exists.
func (s *LineItemStrategy) Parse(text string) *models.ReceiptData {
	lines := splitLines(text)
	data := &models.ReceiptData{
		RawLines: lines,
		Ranges:   models.LineRanges{ItemsStart: -1, ItemsEnd: -1, SummaryStart: -1, SummaryEnd: -1},
	}

	// Locate the item block: the first line with a trailing money token
	// whose description is not a summary keyword.
	itemsStart := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if desc, _, ok := splitTrailingMoney(trimmed); ok &&
			desc != "" && containsLetter(desc) && !isSummaryKeyword(desc) {
			itemsStart = i
			break
		}
	}

	if itemsStart == -1 {
		return s.parseSinglePass(lines, data)
	}

	data.Ranges.ItemsStart = itemsStart

	inSummary := false
	for i := itemsStart; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}

		if !inSummary && isSummaryKeyword(trimmed) {
			inSummary = true
			data.Ranges.ItemsEnd = i
			data.Ranges.SummaryStart = i
		}

		if inSummary {
			if parseSummaryLine(trimmed, data) {
				data.Ranges.SummaryEnd = i + 1
				break
			}
			data.Ranges.SummaryEnd = i + 1
			continue
		}

		if item, ok := parseItemLine(trimmed); ok {
			data.Items = append(data.Items, item)
			data.Ranges.ItemsEnd = i + 1
		}
	}

	if len(data.Items) == 0 {
		return nil
	}
	return data
}

// parseSinglePass is the secondary fallback for receipts with no clean item
// block boundary: everything before the first summary keyword is treated as
// a potential item, everything after as summary.
func (s *LineItemStrategy) parseSinglePass(lines []string, data *models.ReceiptData) *models.ReceiptData {
	inSummary := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !inSummary && isSummaryKeyword(trimmed) {
			inSummary = true
			data.Ranges.SummaryStart = i
		}

		if inSummary {
			if parseSummaryLine(trimmed, data) {
				data.Ranges.SummaryEnd = i + 1
				break
			}
			data.Ranges.SummaryEnd = i + 1
			continue
		}

		if item, ok := parseItemLine(trimmed); ok {
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

// parseItemLine parses one candidate item line. The strict grammar is tried
// first; when it fails, a looser trailing-money fallback still extracts
// description and price, provided the description is not itself a summary
// keyword.
func parseItemLine(line string) (models.ReceiptItem, bool) {
	if m := strictItemRe.FindStringSubmatch(line); m != nil {
		desc := cleanDescription(m[1])
		if desc != "" && containsLetter(desc) && !isSummaryKeyword(desc) {
			if price, err := parseMoney(m[2]); err == nil {
				return models.ReceiptItem{Description: desc, Price: price}, true
			}
		}
	}

	desc, price, ok := splitTrailingMoney(line)
	if !ok {
		return models.ReceiptItem{}, false
	}
	desc = cleanDescription(desc)
	if desc == "" || !containsLetter(desc) || isSummaryKeyword(desc) {
		return models.ReceiptItem{}, false
	}
	return models.ReceiptItem{Description: desc, Price: price}, true
}
