package receipt

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gitlab.com/yelinaung/receipt-ledger/internal/logger"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
	"gitlab.com/yelinaung/receipt-ledger/internal/ocr"
)

// ErrNoParse indicates that no (strategy, candidate) pair produced any
// items. Surfaced as an explicit failure, never an empty ReceiptData.
var ErrNoParse = errors.New("no parser produced any items from the candidate texts")

// Scoring weights. Item count dominates, math validity second, then field
// completeness and description-length plausibility.
const (
	weightItemCount    = 0.4
	weightMathValid    = 0.3
	weightCompleteness = 0.2
	weightDescLength   = 0.1

	itemCountSaturation = 5
	idealDescLength     = 15
)

// Attempt is one scored (strategy, candidate) parse.
type Attempt struct {
	Data           *models.ReceiptData
	Validation     ValidationResult
	Score          float64
	ParserUsed     string
	CandidateIndex int
}

// Result is the selected best parse across all attempts.
type Result struct {
	Data           *models.ReceiptData
	Confidence     float64
	MathValid      bool
	ParserUsed     string
	CandidateIndex int
	Attempts       int
}

// Selector runs every parse strategy against every text candidate and picks
// the best result by validity, then score.
type Selector struct {
	strategies []ParseStrategy
}

// NewSelector builds a selector over the given strategies, defaulting to
// DefaultStrategies when none are supplied.
func NewSelector(strategies ...ParseStrategy) *Selector {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Selector{strategies: strategies}
}

// Parse runs the strategy grid over the candidates. Attempts yielding zero
// items are discarded; if none survive, ErrNoParse is returned.
func (s *Selector) Parse(candidates []string) (*Result, error) {
	var attempts []Attempt

	for ci, candidate := range candidates {
		// Quality assessment is advisory only: logged, never blocking.
		report := ocr.Assess(candidate)
		if report.Confidence < 0.5 {
			logger.Log.Debug().
				Int("candidate", ci).
				Float64("quality", report.Confidence).
				Strs("issues", report.Issues).
				Msg("low OCR quality score, proceeding anyway")
		}

		for _, strategy := range s.strategies {
			data := strategy.Parse(candidate)
			if data == nil || len(data.Items) == 0 {
				continue
			}

			Coalesce(data)
			validation := Validate(data)

			attempt := Attempt{
				Data:           data,
				Validation:     validation,
				ParserUsed:     strategy.Name(),
				CandidateIndex: ci,
			}
			attempt.Score = scoreAttempt(attempt)
			attempts = append(attempts, attempt)
		}
	}

	if len(attempts) == 0 {
		return nil, fmt.Errorf("%w: %d candidates, %d strategies",
			ErrNoParse, len(candidates), len(s.strategies))
	}

	// Math-valid results first, then highest score. The sort is stable so
	// equal attempts keep strategy/candidate order.
	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].Validation.Valid != attempts[j].Validation.Valid {
			return attempts[i].Validation.Valid
		}
		return attempts[i].Score > attempts[j].Score
	})

	best := attempts[0]
	logger.Log.Debug().
		Str("parser", best.ParserUsed).
		Int("candidate", best.CandidateIndex).
		Float64("score", best.Score).
		Bool("math_valid", best.Validation.Valid).
		Int("items", len(best.Data.Items)).
		Int("attempts", len(attempts)).
		Msg("selected best parse attempt")

	return &Result{
		Data:           best.Data,
		Confidence:     best.Score,
		MathValid:      best.Validation.Valid,
		ParserUsed:     best.ParserUsed,
		CandidateIndex: best.CandidateIndex,
		Attempts:       len(attempts),
	}, nil
}

// scoreAttempt computes the weighted quality score for one parse attempt.
func scoreAttempt(attempt Attempt) float64 {
	data := attempt.Data

	itemCount := float64(len(data.Items))
	if itemCount > itemCountSaturation {
		itemCount = itemCountSaturation
	}
	score := weightItemCount * (itemCount / itemCountSaturation)

	if attempt.Validation.Valid {
		score += weightMathValid
	}

	present := 0
	for _, field := range []bool{data.Subtotal != nil, data.Tax != nil, data.Total != nil} {
		if field {
			present++
		}
	}
	score += weightCompleteness * (float64(present) / 3)

	score += weightDescLength * descLengthPlausibility(data)

	return score
}

// descLengthPlausibility penalizes average description lengths far from the
// 15-character ideal, linearly down to zero.
func descLengthPlausibility(data *models.ReceiptData) float64 {
	if len(data.Items) == 0 {
		return 0
	}

	total := 0
	for _, item := range data.Items {
		total += len(item.Description)
	}
	avg := float64(total) / float64(len(data.Items))

	plausibility := 1 - math.Abs(avg-idealDescLength)/idealDescLength
	if plausibility < 0 {
		return 0
	}
	return plausibility
}
