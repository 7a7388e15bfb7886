package resolver

import (
	"context"
	"strings"

	"gitlab.com/yelinaung/receipt-ledger/internal/gemini"
	"gitlab.com/yelinaung/receipt-ledger/internal/logger"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// CategoryRefiner asks an external completion service to replace a broad
// category with a more specific hierarchy. Implemented by *gemini.Client.
type CategoryRefiner interface {
	RefineCategory(ctx context.Context, description, vendor, businessContext, broadCategory string) (*gemini.CategoryRefinement, error)
}

// maybeRefine runs the external enhancement path when the resolved account
// terminates in a broad category. It fails open: any error, low confidence,
// or malformed answer leaves the broad category standing.
func (r *Resolver) maybeRefine(ctx context.Context, req Request, result models.MappingResult) models.MappingResult {
	if r.refiner == nil {
		return result
	}

	segments := strings.Split(result.Account, ":")
	broad := segments[len(segments)-1]
	if !IsBroadCategory(broad) {
		return result
	}

	key := cacheKey(req.Description, req.Vendor, req.BusinessContext)
	if refined, ok := r.enhanceCache.Get(key); ok {
		result.Account = refined
		return result
	}

	refinement, err := r.refiner.RefineCategory(ctx, req.Description, req.Vendor, req.BusinessContext, broad)
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("description_hash", logger.HashText(req.Description)).
			Str("broad_category", broad).
			Msg("category refinement failed, keeping broad category")
		return result
	}
	if refinement.Confidence < gemini.MinRefinementConfidence {
		logger.Log.Debug().
			Str("description_hash", logger.HashText(req.Description)).
			Float64("confidence", refinement.Confidence).
			Msg("category refinement below confidence floor, keeping broad category")
		return result
	}

	refined := graftRefinement(result.Account, refinement.Category)
	r.enhanceCache.Set(key, refined)
	result.Account = refined
	return result
}

// graftRefinement replaces the trailing broad segment of an account path
// with the refined hierarchy, which starts at the broad category itself:
// "Expenses:Groceries:Fruit" + "Fruit:Tropical:Mango" ->
// "Expenses:Groceries:Fruit:Tropical:Mango".
func graftRefinement(account, refinement string) string {
	segments := strings.Split(account, ":")
	parent := segments[:len(segments)-1]

	refinedSegments := strings.Split(refinement, ":")
	// Keep the path rooted at the broad segment even when the model
	// answered without repeating it.
	if !strings.EqualFold(refinedSegments[0], segments[len(segments)-1]) {
		refinedSegments = append([]string{segments[len(segments)-1]}, refinedSegments...)
	}

	return strings.Join(append(parent, refinedSegments...), ":")
}
