// Package repository implements the data access layer over the four mapping
// tables consumed by the resolver and tagger.
package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/receipt-ledger/internal/database"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// PatternRepository handles account_patterns database operations.
type PatternRepository struct {
	db database.PGXDB
}

// NewPatternRepository creates a new PatternRepository.
func NewPatternRepository(db database.PGXDB) *PatternRepository {
	return &PatternRepository{db: db}
}

// ActivePatterns retrieves active patterns visible in a business context:
// global rows plus rows scoped to that context, highest priority first.
func (r *PatternRepository) ActivePatterns(ctx context.Context, businessContext string) ([]models.AccountPattern, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, pattern, pattern_type, account_path, account_type,
		       priority, COALESCE(business_context, ''), is_active, created_at, updated_at
		FROM account_patterns
		WHERE is_active = TRUE
		  AND (business_context IS NULL OR business_context = '' OR business_context = $1)
		ORDER BY priority DESC, id
	`, businessContext)
	if err != nil {
		return nil, fmt.Errorf("failed to query account patterns: %w", err)
	}
	defer rows.Close()

	var patterns []models.AccountPattern
	for rows.Next() {
		var p models.AccountPattern
		if err := rows.Scan(
			&p.ID, &p.Pattern, &p.PatternType, &p.AccountPath, &p.AccountType,
			&p.Priority, &p.BusinessContext, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account patterns: %w", err)
	}
	return patterns, nil
}

// Create inserts a new account pattern and returns its ID.
func (r *PatternRepository) Create(ctx context.Context, p *models.AccountPattern) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO account_patterns (pattern, pattern_type, account_path, account_type, priority, business_context, is_active)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id
	`, p.Pattern, p.PatternType, p.AccountPath, p.AccountType, p.Priority, p.BusinessContext, p.IsActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert account pattern: %w", err)
	}
	return id, nil
}

// Deactivate soft-deletes a pattern so it stops matching without losing
// its history.
func (r *PatternRepository) Deactivate(ctx context.Context, id int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE account_patterns SET is_active = FALSE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate account pattern: %w", err)
	}
	return nil
}
