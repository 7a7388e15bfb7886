package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// minSaltLength is the minimum accepted length for the log hash salt.
const minSaltLength = 32

var hashSalt string

// InitHashSalt loads the hash salt from the LOG_HASH_SALT environment
// variable. It panics if the salt is missing or too short: logging hashed
// identifiers with a guessable salt defeats the point.
func InitHashSalt() {
	salt := os.Getenv("LOG_HASH_SALT")
	if salt == "" {
		panic("LOG_HASH_SALT environment variable is required")
	}
	if len(salt) < minSaltLength {
		panic(fmt.Sprintf("LOG_HASH_SALT must be at least %d characters", minSaltLength))
	}
	hashSalt = salt
}

// InitHashSaltForTesting sets the hash salt directly, bypassing validation.
// Only for use in tests.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// HashUserID creates a privacy-preserving hash of a user ID.
// This allows tracking resolution behaviour without exposing actual user IDs.
func HashUserID(userID int64) string {
	data := fmt.Sprintf("%d:%s", userID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	// Return first 8 characters for readability
	return hex.EncodeToString(hash[:])[:8]
}

// HashText creates a privacy-preserving hash of free text such as an item
// description or a vendor name, so correlated log lines can be grouped
// without logging receipt contents.
func HashText(text string) string {
	data := text + ":" + hashSalt
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeDescription removes or truncates sensitive information from descriptions.
// This redacts the description but preserves length information for debugging.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}

	// Preserve length info but redact content
	words := strings.Fields(desc)
	wordCount := len(words)
	charCount := len(desc)

	return fmt.Sprintf("<redacted: %d words, %d chars>", wordCount, charCount)
}

// SanitizeText is a general-purpose sanitizer for any OCR-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	// For short text, show first few characters
	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}

	// For longer text, show prefix and length
	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}
