package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gitlab.com/yelinaung/receipt-ledger/internal/database"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// UserMappingRepository handles user_mappings database operations.
type UserMappingRepository struct {
	db database.PGXDB
}

// NewUserMappingRepository creates a new UserMappingRepository.
func NewUserMappingRepository(db database.PGXDB) *UserMappingRepository {
	return &UserMappingRepository{db: db}
}

// ActiveUserMappings retrieves one user's active mappings visible in a
// business context, highest priority first.
func (r *UserMappingRepository) ActiveUserMappings(ctx context.Context, userID int64, businessContext string) ([]models.UserMapping, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, pattern, pattern_type, account_path, account_type,
		       priority, COALESCE(business_context, ''), is_active, created_at, updated_at
		FROM user_mappings
		WHERE user_id = $1
		  AND is_active = TRUE
		  AND (business_context IS NULL OR business_context = '' OR business_context = $2)
		ORDER BY priority DESC, id
	`, userID, businessContext)
	if err != nil {
		return nil, fmt.Errorf("failed to query user mappings: %w", err)
	}
	defer rows.Close()

	var mappings []models.UserMapping
	for rows.Next() {
		var m models.UserMapping
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.Pattern, &m.PatternType, &m.AccountPath, &m.AccountType,
			&m.Priority, &m.BusinessContext, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user mappings: %w", err)
	}
	return mappings, nil
}

// Save upserts a user mapping keyed by (user, pattern, business context), so
// a user's confirmed categorization becomes their top-tier rule next time.
func (r *UserMappingRepository) Save(ctx context.Context, m *models.UserMapping) error {
	var id int
	err := r.db.QueryRow(ctx, `
		SELECT id FROM user_mappings
		WHERE user_id = $1 AND pattern = $2
		  AND COALESCE(business_context, '') = $3
	`, m.UserID, m.Pattern, m.BusinessContext).Scan(&id)

	switch {
	case err == nil:
		_, err = r.db.Exec(ctx, `
			UPDATE user_mappings
			SET account_path = $1, account_type = $2, priority = $3,
			    pattern_type = $4, is_active = TRUE, updated_at = NOW()
			WHERE id = $5
		`, m.AccountPath, m.AccountType, m.Priority, m.PatternType, id)
		if err != nil {
			return fmt.Errorf("failed to update user mapping: %w", err)
		}
		m.ID = id
		return nil

	case errors.Is(err, pgx.ErrNoRows):
		err = r.db.QueryRow(ctx, `
			INSERT INTO user_mappings (user_id, pattern, pattern_type, account_path, account_type, priority, business_context, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), TRUE)
			RETURNING id
		`, m.UserID, m.Pattern, m.PatternType, m.AccountPath, m.AccountType, m.Priority, m.BusinessContext).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("failed to insert user mapping: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("failed to look up user mapping: %w", err)
	}
}

// Deactivate soft-deletes a user mapping.
func (r *UserMappingRepository) Deactivate(ctx context.Context, userID int64, id int) error {
	_, err := r.db.Exec(ctx, `
		UPDATE user_mappings SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate user mapping: %w", err)
	}
	return nil
}
