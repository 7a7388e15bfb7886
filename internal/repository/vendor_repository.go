package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/receipt-ledger/internal/database"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// VendorRepository handles vendor_mappings database operations.
type VendorRepository struct {
	db database.PGXDB
}

// NewVendorRepository creates a new VendorRepository.
func NewVendorRepository(db database.PGXDB) *VendorRepository {
	return &VendorRepository{db: db}
}

// ActiveVendorMappings retrieves active vendor mappings visible in a
// business context, highest priority first.
func (r *VendorRepository) ActiveVendorMappings(ctx context.Context, businessContext string) ([]models.VendorMapping, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, pattern, pattern_type, account_path, account_type,
		       priority, COALESCE(business_context, ''), is_active, created_at, updated_at
		FROM vendor_mappings
		WHERE is_active = TRUE
		  AND (business_context IS NULL OR business_context = '' OR business_context = $1)
		ORDER BY priority DESC, id
	`, businessContext)
	if err != nil {
		return nil, fmt.Errorf("failed to query vendor mappings: %w", err)
	}
	defer rows.Close()

	var mappings []models.VendorMapping
	for rows.Next() {
		var m models.VendorMapping
		if err := rows.Scan(
			&m.ID, &m.Pattern, &m.PatternType, &m.AccountPath, &m.AccountType,
			&m.Priority, &m.BusinessContext, &m.IsActive, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vendor mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vendor mappings: %w", err)
	}
	return mappings, nil
}

// Create inserts a new vendor mapping and returns its ID.
func (r *VendorRepository) Create(ctx context.Context, m *models.VendorMapping) (int, error) {
	var id int
	err := r.db.QueryRow(ctx, `
		INSERT INTO vendor_mappings (pattern, pattern_type, account_path, account_type, priority, business_context, is_active)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
		RETURNING id
	`, m.Pattern, m.PatternType, m.AccountPath, m.AccountType, m.Priority, m.BusinessContext, m.IsActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert vendor mapping: %w", err)
	}
	return id, nil
}
