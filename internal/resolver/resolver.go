package resolver

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"gitlab.com/yelinaung/receipt-ledger/internal/logger"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// Tier confidences, ordered from most to least specific.
const (
	ConfidenceUser            = 0.95
	ConfidencePattern         = 0.8
	ConfidenceVendor          = 0.7
	ConfidenceBusinessDefault = 0.5
	ConfidenceStaticFallback  = 0.3
)

// FallbackAccount is the terminal account when no tier matches.
const FallbackAccount = "Expenses:Misc"

// DefaultLookupTTL bounds load on the backing store for tier lookups.
const DefaultLookupTTL = 5 * time.Minute

// DefaultEnhancementTTL caches accepted external refinements.
const DefaultEnhancementTTL = 24 * time.Hour

// PatternStore provides active global account patterns, optionally scoped to
// a business context, ordered by priority descending.
type PatternStore interface {
	ActivePatterns(ctx context.Context, businessContext string) ([]models.AccountPattern, error)
}

// VendorStore provides active vendor mappings, optionally scoped to a
// business context, ordered by priority descending.
type VendorStore interface {
	ActiveVendorMappings(ctx context.Context, businessContext string) ([]models.VendorMapping, error)
}

// UserMappingStore provides one user's active mappings, optionally scoped to
// a business context, ordered by priority descending.
type UserMappingStore interface {
	ActiveUserMappings(ctx context.Context, userID int64, businessContext string) ([]models.UserMapping, error)
}

// Request is one account-resolution call. Description is required; the rest
// widen or narrow the tiers that apply.
type Request struct {
	Description     string
	Vendor          string
	BusinessContext string
	UserID          int64
}

// Resolver maps a free-text description to an account path by walking a
// chain of tiers, short-circuiting on the first hit. It never fails: store
// or refinement errors degrade to the next tier, and the terminal tier is a
// static fallback.
type Resolver struct {
	patterns PatternStore
	vendors  VendorStore
	users    UserMappingStore
	refiner  CategoryRefiner

	userCache    *TTLCache[[]models.UserMapping]
	patternCache *TTLCache[[]models.AccountPattern]
	vendorCache  *TTLCache[[]models.VendorMapping]
	enhanceCache *TTLCache[string]

	mu      sync.RWMutex
	regexes map[string]*regexp.Regexp
}

// Options configure a Resolver. All stores and the refiner are optional:
// a nil store simply disables its tier.
type Options struct {
	Patterns PatternStore
	Vendors  VendorStore
	Users    UserMappingStore
	Refiner  CategoryRefiner

	LookupTTL      time.Duration
	EnhancementTTL time.Duration
	// Clock overrides time.Now for cache expiry in tests.
	Clock func() time.Time
}

// New creates a Resolver with its caches.
func New(opts Options) *Resolver {
	if opts.LookupTTL <= 0 {
		opts.LookupTTL = DefaultLookupTTL
	}
	if opts.EnhancementTTL <= 0 {
		opts.EnhancementTTL = DefaultEnhancementTTL
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Resolver{
		patterns:     opts.Patterns,
		vendors:      opts.Vendors,
		users:        opts.Users,
		refiner:      opts.Refiner,
		userCache:    NewTTLCacheWithClock[[]models.UserMapping](opts.LookupTTL, clock),
		patternCache: NewTTLCacheWithClock[[]models.AccountPattern](opts.LookupTTL, clock),
		vendorCache:  NewTTLCacheWithClock[[]models.VendorMapping](opts.LookupTTL, clock),
		enhanceCache: NewTTLCacheWithClock[string](opts.EnhancementTTL, clock),
		regexes:      make(map[string]*regexp.Regexp),
	}
}

// Resolve walks the tier chain for one description and returns the winning
// mapping. The result is produced fresh per call and never persisted.
func (r *Resolver) Resolve(ctx context.Context, req Request) models.MappingResult {
	result, ok := r.resolveUserTier(ctx, req)
	if !ok {
		result, ok = r.resolvePatternTier(ctx, req)
	}
	if !ok {
		result, ok = r.resolveVendorTier(ctx, req)
	}
	if !ok {
		result, ok = r.resolveBusinessDefault(req)
	}
	if !ok {
		result = models.MappingResult{
			Account:     FallbackAccount,
			AccountType: models.AccountExpense,
			Confidence:  ConfidenceStaticFallback,
			Source:      models.SourceStaticFallback,
		}
	}

	result = r.applyBusinessContext(result, req)
	result = r.maybeRefine(ctx, req, result)

	logger.Log.Debug().
		Str("description_hash", logger.HashText(req.Description)).
		Str("account", result.Account).
		Str("source", string(result.Source)).
		Float64("confidence", result.Confidence).
		Msg("resolved account")

	return result
}

// resolveUserTier matches the user's own saved mappings. Highest priority
// among matches wins.
func (r *Resolver) resolveUserTier(ctx context.Context, req Request) (models.MappingResult, bool) {
	if r.users == nil || req.UserID == 0 {
		return models.MappingResult{}, false
	}

	key := cacheKey("user", req.BusinessContext, strconv.FormatInt(req.UserID, 10))
	mappings, ok := r.userCache.Get(key)
	if !ok {
		var err error
		mappings, err = r.users.ActiveUserMappings(ctx, req.UserID, req.BusinessContext)
		if err != nil {
			logger.Log.Warn().Err(err).
				Str("user_hash", logger.HashUserID(req.UserID)).
				Msg("user mapping lookup failed, falling through")
			return models.MappingResult{}, false
		}
		r.userCache.Set(key, mappings)
	}

	var best *models.UserMapping
	for i := range mappings {
		m := &mappings[i]
		if !m.IsActive || !r.matches(m.Pattern, m.PatternType, req.Description) {
			continue
		}
		if best == nil || m.Priority > best.Priority {
			best = m
		}
	}
	if best == nil {
		return models.MappingResult{}, false
	}

	return models.MappingResult{
		Account:         best.AccountPath,
		AccountType:     best.AccountType,
		Confidence:      ConfidenceUser,
		Source:          models.SourceUser,
		BusinessContext: best.BusinessContext,
	}, true
}

// resolvePatternTier matches the global pattern table: admin-managed rows
// first, then the static seed, with priority breaking ties across both.
func (r *Resolver) resolvePatternTier(ctx context.Context, req Request) (models.MappingResult, bool) {
	patterns := r.loadPatterns(ctx, req.BusinessContext)

	var best *models.AccountPattern
	for i := range patterns {
		p := &patterns[i]
		if !p.IsActive || !r.matches(p.Pattern, p.PatternType, req.Description) {
			continue
		}
		// Strict comparison: on equal priority the earlier row wins,
		// and store rows are ordered before the static seed.
		if best == nil || p.Priority > best.Priority {
			best = p
		}
	}
	if best == nil {
		return models.MappingResult{}, false
	}

	return models.MappingResult{
		Account:         best.AccountPath,
		AccountType:     best.AccountType,
		Confidence:      ConfidencePattern,
		Source:          models.SourcePattern,
		BusinessContext: best.BusinessContext,
	}, true
}

// loadPatterns merges store-managed patterns with the static seed. A store
// failure degrades to the seed alone.
func (r *Resolver) loadPatterns(ctx context.Context, businessContext string) []models.AccountPattern {
	if r.patterns == nil {
		return staticPatterns
	}

	key := cacheKey("patterns", businessContext)
	stored, ok := r.patternCache.Get(key)
	if !ok {
		var err error
		stored, err = r.patterns.ActivePatterns(ctx, businessContext)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("pattern lookup failed, using static seed only")
			return staticPatterns
		}
		r.patternCache.Set(key, stored)
	}

	merged := make([]models.AccountPattern, 0, len(stored)+len(staticPatterns))
	merged = append(merged, stored...)
	merged = append(merged, staticPatterns...)
	return merged
}

// resolveVendorTier matches the vendor name: exact mappings first, then
// pattern mappings, as a fallback when the description alone said nothing.
func (r *Resolver) resolveVendorTier(ctx context.Context, req Request) (models.MappingResult, bool) {
	if r.vendors == nil || req.Vendor == "" {
		return models.MappingResult{}, false
	}

	key := cacheKey("vendors", req.BusinessContext)
	mappings, ok := r.vendorCache.Get(key)
	if !ok {
		var err error
		mappings, err = r.vendors.ActiveVendorMappings(ctx, req.BusinessContext)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("vendor mapping lookup failed, falling through")
			return models.MappingResult{}, false
		}
		r.vendorCache.Set(key, mappings)
	}

	best := r.bestVendorMatch(mappings, req.Vendor, models.PatternExact)
	if best == nil {
		best = r.bestVendorMatch(mappings, req.Vendor, "")
	}
	if best == nil {
		return models.MappingResult{}, false
	}

	return models.MappingResult{
		Account:         best.AccountPath,
		AccountType:     best.AccountType,
		Confidence:      ConfidenceVendor,
		Source:          models.SourceVendor,
		BusinessContext: best.BusinessContext,
	}, true
}

// bestVendorMatch returns the highest-priority active mapping matching the
// vendor name. An empty wantType accepts any pattern type except exact,
// which has already had its pass.
func (r *Resolver) bestVendorMatch(mappings []models.VendorMapping, vendor string, wantType models.PatternType) *models.VendorMapping {
	var best *models.VendorMapping
	for i := range mappings {
		m := &mappings[i]
		if !m.IsActive {
			continue
		}
		if wantType != "" && m.PatternType != wantType {
			continue
		}
		if wantType == "" && m.PatternType == models.PatternExact {
			continue
		}
		if !r.matches(m.Pattern, m.PatternType, vendor) {
			continue
		}
		if best == nil || m.Priority > best.Priority {
			best = m
		}
	}
	return best
}

// resolveBusinessDefault routes unmatched items into the business context's
// general expense bucket.
func (r *Resolver) resolveBusinessDefault(req Request) (models.MappingResult, bool) {
	if req.BusinessContext == "" {
		return models.MappingResult{}, false
	}
	return models.MappingResult{
		Account:         "Expenses:" + req.BusinessContext + ":General",
		AccountType:     models.AccountExpense,
		Confidence:      ConfidenceBusinessDefault,
		Source:          models.SourceBusinessDefault,
		BusinessContext: req.BusinessContext,
	}, true
}

// applyBusinessContext splices the request's business context into the
// account path right after the Expenses segment, unless the winning mapping
// already carried an explicit context of its own.
func (r *Resolver) applyBusinessContext(result models.MappingResult, req Request) models.MappingResult {
	if req.BusinessContext == "" || result.BusinessContext != "" {
		return result
	}

	result.Account = spliceBusinessContext(result.Account, req.BusinessContext)
	result.BusinessContext = req.BusinessContext
	return result
}

// spliceBusinessContext inserts context after the leading Expenses segment:
// "Expenses:Food:Coffee" + "Personal" -> "Expenses:Personal:Food:Coffee".
func spliceBusinessContext(account, businessContext string) string {
	segments := strings.Split(account, ":")
	if len(segments) == 0 || segments[0] != "Expenses" {
		return account
	}
	if len(segments) > 1 && strings.EqualFold(segments[1], businessContext) {
		return account
	}

	spliced := make([]string, 0, len(segments)+1)
	spliced = append(spliced, segments[0], businessContext)
	spliced = append(spliced, segments[1:]...)
	return strings.Join(spliced, ":")
}

// matches applies one mapping pattern to text. Invalid store-sourced regexes
// are skipped with a warning rather than failing the resolution.
func (r *Resolver) matches(pattern string, patternType models.PatternType, text string) bool {
	switch patternType {
	case models.PatternExact:
		return strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(pattern))
	case models.PatternContains:
		return strings.Contains(normalizeToken(text), normalizeToken(pattern))
	case models.PatternRegex:
		re := r.compileRegex(pattern)
		if re == nil {
			return false
		}
		return re.MatchString(text)
	default:
		return false
	}
}

// compileRegex compiles a case-insensitive pattern once and memoizes it.
func (r *Resolver) compileRegex(pattern string) *regexp.Regexp {
	r.mu.RLock()
	re, ok := r.regexes[pattern]
	r.mu.RUnlock()
	if ok {
		return re
	}

	compiled, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		logger.Log.Warn().Err(err).Str("pattern", pattern).Msg("skipping invalid mapping regex")
		compiled = nil
	}

	r.mu.Lock()
	r.regexes[pattern] = compiled
	r.mu.Unlock()
	return compiled
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
