package gemini

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/receipt-ledger/internal/logger"
	"google.golang.org/genai"
)

// MaxDescriptionLength is the maximum allowed length for item descriptions
// embedded in prompts.
const MaxDescriptionLength = 200

// MaxVendorLength is the maximum allowed length for vendor names embedded
// in prompts.
const MaxVendorLength = 100

// MinRefinementConfidence is the confidence below which a refinement is
// rejected and the original category stands.
const MinRefinementConfidence = 0.7

// CategoryRefinement is a more specific account hierarchy suggested for an
// overly broad category.
type CategoryRefinement struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// RefineCategory asks Gemini to replace a broad category (e.g. "Electronics")
// with a more specific 2-4 level colon-delimited hierarchy based on the item
// description and vendor. The result is validated strictly: malformed JSON,
// out-of-range confidence, or a non-hierarchical answer all return an error
// so the caller can fall back to the broad category.
func (c *Client) RefineCategory(ctx context.Context, description, vendor, businessContext, broadCategory string) (*CategoryRefinement, error) {
	descHash := hashForLog(description)
	logger.Log.Debug().
		Str("description_hash", descHash).
		Str("broad_category", broadCategory).
		Msg("RefineCategory called")

	if c.generator == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if broadCategory == "" {
		return nil, fmt.Errorf("broad category is required")
	}

	prompt := buildRefinementPrompt(
		SanitizeForPrompt(description, MaxDescriptionLength),
		SanitizeForPrompt(vendor, MaxVendorLength),
		SanitizeForPrompt(businessContext, MaxVendorLength),
		SanitizeForPrompt(broadCategory, MaxVendorLength),
	)

	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	temp := float32(0.3)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(500),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "You are a JSON API. You MUST respond with ONLY valid JSON, no preamble or explanation. Output a single JSON object."},
			},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category": {
					Type:        genai.TypeString,
					Description: "A colon-delimited account hierarchy of 2 to 4 levels, e.g. Food:Fruit:Tropical",
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "Confidence score between 0 and 1",
				},
				"reasoning": {
					Type:        genai.TypeString,
					Description: "Brief explanation for the refinement",
				},
			},
			Required: []string{"category", "confidence", "reasoning"},
		},
	}

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, contents, config)
	if err != nil {
		logger.Log.Warn().Err(err).
			Str("description_hash", descHash).
			Msg("RefineCategory: Gemini API call failed")
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}

	fullText := resp.Text()
	if fullText == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	jsonText := extractJSON(fullText)
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var refinement CategoryRefinement
	if err := json.Unmarshal([]byte(jsonText), &refinement); err != nil {
		logger.Log.Warn().Err(err).
			Str("description_hash", descHash).
			Msg("RefineCategory: failed to parse JSON response")
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if refinement.Confidence < 0.0 || refinement.Confidence > 1.0 {
		return nil, fmt.Errorf("confidence out of range: %f", refinement.Confidence)
	}

	refinement.Category = sanitizeCategoryPath(refinement.Category)
	if err := validateHierarchy(refinement.Category); err != nil {
		logger.Log.Warn().
			Str("description_hash", descHash).
			Str("category", refinement.Category).
			Msg("RefineCategory: rejected non-hierarchical category")
		return nil, err
	}

	refinement.Reasoning = sanitizeReasoning(refinement.Reasoning)

	logger.Log.Debug().
		Str("description_hash", descHash).
		Str("category", refinement.Category).
		Float64("confidence", refinement.Confidence).
		Msg("RefineCategory: accepted refinement")

	return &refinement, nil
}

// buildRefinementPrompt creates the prompt for category refinement.
func buildRefinementPrompt(description, vendor, businessContext, broadCategory string) string {
	var context strings.Builder
	if vendor != "" {
		fmt.Fprintf(&context, "\nVendor: %q", vendor)
	}
	if businessContext != "" {
		fmt.Fprintf(&context, "\nBusiness: %q", businessContext)
	}

	return fmt.Sprintf(`The category %q is too broad for this purchase: %q%s

Suggest a more specific category as a colon-delimited hierarchy of 2 to 4 levels,
starting from the broad category. Examples:
- "Fruit" -> "Fruit:Tropical:Mango"
- "Electronics" -> "Electronics:Computer:Accessories"

Rules:
- Keep the first level equal to the broad category
- Use singular nouns, no punctuation other than colons
- Higher confidence (0.8-1.0) for obvious refinements, lower (0.5-0.7) for guesses

Return JSON only:
{"category": "Level1:Level2", "confidence": 0.0-1.0, "reasoning": "brief explanation"}`,
		broadCategory, description, context.String())
}

// validateHierarchy checks that a refined category is a 2-4 level
// colon-delimited path with non-empty lettered segments.
func validateHierarchy(category string) error {
	segments := strings.Split(category, ":")
	if len(segments) < 2 || len(segments) > 4 {
		return fmt.Errorf("refined category must have 2-4 levels, got %d", len(segments))
	}
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			return fmt.Errorf("refined category has an empty segment")
		}
	}
	return nil
}

// sanitizeCategoryPath normalizes a model-produced category path: trims
// whitespace around segments and drops stray leading/trailing colons.
func sanitizeCategoryPath(category string) string {
	category = strings.Trim(strings.TrimSpace(category), ":")
	segments := strings.Split(category, ":")
	for i, segment := range segments {
		segments[i] = strings.TrimSpace(segment)
	}
	return strings.Join(segments, ":")
}

// extractJSON extracts a JSON object from text that may contain preamble.
// Gemini sometimes returns responses like "Here is the JSON:\n{...}" even
// when ResponseMIMEType is set to application/json.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(text, "}")
	if end == -1 || end <= start {
		return ""
	}

	return text[start : end+1]
}

// SanitizeForPrompt sanitizes user input to prevent prompt injection attacks.
// It removes or escapes characters that could break prompt structure,
// and truncates to the given maxLength.
func SanitizeForPrompt(input string, maxLength int) string {
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")
	input = strings.ReplaceAll(input, "\x00", "")

	// Normalize whitespace: splits on any whitespace and rejoins with
	// single spaces, which also handles newline injection.
	input = strings.Join(strings.Fields(input), " ")

	if len(input) > maxLength {
		input = strings.TrimSpace(input[:maxLength])
	}

	return input
}

// sanitizeReasoning sanitizes the reasoning field from the model response
// before it is logged or persisted.
func sanitizeReasoning(reasoning string) string {
	reasoning = strings.Join(strings.Fields(reasoning), " ")

	const maxReasoningLength = 500
	if len(reasoning) > maxReasoningLength {
		reasoning = strings.TrimSpace(reasoning[:maxReasoningLength])
	}

	return reasoning
}

// hashForLog creates a short SHA256 hash of user text for secure logging.
func hashForLog(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:8])
}
