// Package tagging derives entry-level and posting-level tag suggestions with
// contextual relevance scoring, so a coffee posting can carry a "coffee" tag
// without the whole entry drowning in redundant labels.
package tagging

import (
	"strings"
	"unicode"
)

// stopWords are tokens too common to carry tagging signal.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "was": true, "are": true, "has": true,
	"ltd": true, "llc": true, "inc": true, "co": true, "shop": true,
	"store": true, "pcs": true, "per": true, "each": true,
}

// genericSegments are account path segments that describe structure rather
// than content; they never produce posting keywords on their own.
var genericSegments = map[string]bool{
	"expenses": true, "assets": true, "liabilities": true, "equity": true,
	"income": true, "misc": true, "general": true, "personal": true,
	"other": true,
}

// ExtractKeywords lowercases the given texts, splits them on
// non-alphanumeric runes, and keeps unique tokens longer than two
// characters that are not stop words. Order of first appearance is kept.
func ExtractKeywords(texts ...string) []string {
	var keywords []string
	seen := make(map[string]bool)

	for _, text := range texts {
		for _, token := range splitTokens(text) {
			if len(token) <= 2 || stopWords[token] || seen[token] {
				continue
			}
			seen[token] = true
			keywords = append(keywords, token)
		}
	}
	return keywords
}

// AccountKeywords extracts keywords from an account path: the last, most
// specific segment alone when it yields anything, otherwise all non-generic
// segments.
func AccountKeywords(account string) []string {
	segments := strings.Split(account, ":")
	if len(segments) == 0 {
		return nil
	}

	last := segments[len(segments)-1]
	if !genericSegments[strings.ToLower(last)] {
		if kws := ExtractKeywords(last); len(kws) > 0 {
			return kws
		}
	}

	var fallback []string
	for _, segment := range segments {
		if genericSegments[strings.ToLower(segment)] {
			continue
		}
		fallback = append(fallback, segment)
	}
	return ExtractKeywords(fallback...)
}

// splitTokens lowercases text and splits it on any non-alphanumeric rune.
func splitTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stem applies a crude suffix-stripping stem so "groceries" and "grocery"
// or "taxis" and "taxi" land on the same token.
func stem(word string) string {
	switch {
	case len(word) > 5 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 4 && strings.HasSuffix(word, "ing"):
		return word[:len(word)-3]
	case len(word) > 3 && strings.HasSuffix(word, "es"):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "s"):
		return word[:len(word)-1]
	default:
		return word
	}
}

// stemSet returns the set of stems for a token list.
func stemSet(tokens []string) map[string]bool {
	stems := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		stems[stem(token)] = true
	}
	return stems
}
