package tagging

import (
	"context"
	"sort"
	"strings"

	"gitlab.com/yelinaung/receipt-ledger/internal/logger"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// Scoring cutoffs. Scores run 0-100.
const (
	// MinScore drops weak candidates regardless of relevance.
	MinScore = 40.0
	// MinRelevance applies when no account context is available.
	MinRelevance = 0.3
	// MinRelevanceWithAccount is the stricter floor once account paths are
	// known, which is what suppresses redundant entry-level tags.
	MinRelevanceWithAccount = 0.5
	// MaxTags caps survivors per entry and per posting.
	MaxTags = 3

	// maxPriority normalizes tag priority into the score blend.
	maxPriority = 10.0
)

// Relevance for a tag that near-duplicates the account path. Desired on the
// posting itself, noise at the entry level.
const (
	redundantPostingRelevance = 1.0
	redundantEntryRelevance   = 0.1
)

// neutralRelevance is used when there is no account context to judge
// against.
const neutralRelevance = 0.5

// incompatibleTags lists account-segment/tag pairs that are contextually
// wrong even when keywords overlap, with the relevance they are pinned to.
var incompatibleTags = map[string]map[string]float64{
	"pantry":    {"street-food": 0.1, "dining": 0.2},
	"groceries": {"street-food": 0.1, "dining": 0.2},
	"office":    {"entertainment": 0.2},
	"software":  {"groceries": 0.0},
}

// TagStore provides candidate tags, the full vocabulary, and usage
// bookkeeping. Implemented by repository.TagRepository.
type TagStore interface {
	SearchByKeywords(ctx context.Context, keywords []string) ([]models.Tag, error)
	GetAll(ctx context.Context) ([]models.Tag, error)
	IncrementUsage(ctx context.Context, tagIDs []int) error
}

// ScoredTag is one tag suggestion with its scoring breakdown.
type ScoredTag struct {
	Tag        models.Tag
	Confidence float64 // fraction of keywords the tag matched
	Relevance  float64 // contextual fit against the account paths
	Score      float64 // combined 0-100
}

// Request describes one entry to tag.
type Request struct {
	Description string
	Memo        string
	Business    string
	Postings    []models.Posting
}

// Result carries entry-level suggestions plus per-posting suggestions keyed
// by posting index.
type Result struct {
	EntryTags   []ScoredTag
	PostingTags map[int][]ScoredTag
}

// TagIDs returns the distinct tag IDs across entry and posting suggestions.
func (r *Result) TagIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, st := range r.EntryTags {
		if !seen[st.Tag.ID] {
			seen[st.Tag.ID] = true
			ids = append(ids, st.Tag.ID)
		}
	}
	for _, tags := range r.PostingTags {
		for _, st := range tags {
			if !seen[st.Tag.ID] {
				seen[st.Tag.ID] = true
				ids = append(ids, st.Tag.ID)
			}
		}
	}
	return ids
}

// Tagger scores tag candidates against entries and postings.
type Tagger struct {
	store TagStore
}

// New creates a Tagger backed by the given store.
func New(store TagStore) *Tagger {
	return &Tagger{store: store}
}

// AutoTagEntry suggests tags for an entry and each of its postings. It is
// best-effort throughout: store failures log a warning and produce an empty
// suggestion set, never an error.
func (t *Tagger) AutoTagEntry(ctx context.Context, req Request) *Result {
	result := &Result{PostingTags: make(map[int][]ScoredTag)}

	// Account keywords from every posting give entry-level scoring its
	// context for the redundancy penalty.
	var accountWords []string
	for _, p := range req.Postings {
		accountWords = append(accountWords, AccountKeywords(p.Account)...)
	}

	entryKeywords := ExtractKeywords(req.Description, req.Memo, req.Business)
	result.EntryTags = t.scoreKeywords(ctx, entryKeywords, accountWords, false)

	for i, p := range req.Postings {
		postingKeywords := AccountKeywords(p.Account)
		result.PostingTags[i] = t.scoreKeywords(ctx, postingKeywords, postingKeywords, true)
	}

	return result
}

// AvailableTags lists the tag vocabulary, for callers that let users pick
// or override tags manually instead of accepting suggestions.
func (t *Tagger) AvailableTags(ctx context.Context) ([]models.Tag, error) {
	return t.store.GetAll(ctx)
}

// Apply records usage for every suggested tag. Failures are logged and
// swallowed; tagging must never break the entry that triggered it. Returns
// the number of tags whose usage was recorded.
func (t *Tagger) Apply(ctx context.Context, result *Result) int {
	ids := result.TagIDs()
	if len(ids) == 0 {
		return 0
	}
	if err := t.store.IncrementUsage(ctx, ids); err != nil {
		logger.Log.Warn().Err(err).Int("tag_count", len(ids)).
			Msg("failed to record tag usage, continuing")
		return 0
	}
	return len(ids)
}

// scoreKeywords fetches candidates for the keywords and scores each against
// the account context. postingLevel flips the redundancy handling.
func (t *Tagger) scoreKeywords(ctx context.Context, keywords, accountWords []string, postingLevel bool) []ScoredTag {
	if len(keywords) == 0 {
		return nil
	}

	candidates, err := t.store.SearchByKeywords(ctx, keywords)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("tag candidate lookup failed, skipping suggestions")
		return nil
	}

	minRelevance := MinRelevance
	if len(accountWords) > 0 {
		minRelevance = MinRelevanceWithAccount
	}

	var scored []ScoredTag
	for _, tag := range candidates {
		confidence := keywordConfidence(tag.Name, keywords)
		if confidence == 0 {
			continue
		}

		relevance := t.relevance(tag, accountWords, postingLevel)
		score := 0.5*(confidence*100) + 0.3*(relevance*100) + 0.2*priorityPercent(tag.Priority)

		if score < MinScore || relevance < minRelevance {
			continue
		}
		scored = append(scored, ScoredTag{
			Tag:        tag,
			Confidence: confidence,
			Relevance:  relevance,
			Score:      score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > MaxTags {
		scored = scored[:MaxTags]
	}
	return scored
}

// keywordConfidence is the fraction of keywords the tag name matches, where
// a match is a substring relation in either direction.
func keywordConfidence(tagName string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	tagName = strings.ToLower(tagName)

	matched := 0
	for _, kw := range keywords {
		if strings.Contains(tagName, kw) || strings.Contains(kw, tagName) {
			matched++
		}
	}
	return float64(matched) / float64(len(keywords))
}

// relevance judges a tag against the account context: incompatible pairs
// are pinned low, near-duplicates of the account are ideal on the posting
// but redundant on the entry, everything else scores by stem overlap.
func (t *Tagger) relevance(tag models.Tag, accountWords []string, postingLevel bool) float64 {
	if len(accountWords) == 0 {
		return neutralRelevance
	}

	tagName := strings.ToLower(tag.Name)
	for _, word := range accountWords {
		if pinned, ok := incompatibleTags[word][tagName]; ok {
			return pinned
		}
	}

	if isRedundant(tagName, accountWords) {
		if postingLevel {
			return redundantPostingRelevance
		}
		return redundantEntryRelevance
	}

	return stemOverlap(tagName, accountWords)
}

// isRedundant reports whether the tag near-duplicates an account segment.
func isRedundant(tagName string, accountWords []string) bool {
	for _, word := range accountWords {
		if word == tagName || strings.Contains(word, tagName) || strings.Contains(tagName, word) {
			return true
		}
	}
	return false
}

// stemOverlap is the fraction of the tag's word stems present among the
// account word stems.
func stemOverlap(tagName string, accountWords []string) float64 {
	tagStems := stemSet(splitTokens(tagName))
	if len(tagStems) == 0 {
		return 0
	}
	accountStems := stemSet(accountWords)

	overlap := 0
	for s := range tagStems {
		if accountStems[s] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(tagStems))
}

func priorityPercent(priority int) float64 {
	p := float64(priority)
	if p > maxPriority {
		p = maxPriority
	}
	if p < 0 {
		p = 0
	}
	return p / maxPriority * 100
}
