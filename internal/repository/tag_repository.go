package repository

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/receipt-ledger/internal/database"
	"gitlab.com/yelinaung/receipt-ledger/internal/models"
)

// TagRepository handles tag database operations.
type TagRepository struct {
	db database.PGXDB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db database.PGXDB) *TagRepository {
	return &TagRepository{db: db}
}

// SearchByKeywords retrieves tags whose name contains any of the keywords,
// case-insensitively. Used by the auto-tagger to gather candidates.
func (r *TagRepository) SearchByKeywords(ctx context.Context, keywords []string) ([]models.Tag, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	patterns := make([]string, len(keywords))
	for i, kw := range keywords {
		patterns[i] = "%" + kw + "%"
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, category, priority, usage_count, created_at
		FROM tags
		WHERE name ILIKE ANY($1)
		ORDER BY priority DESC, name
	`, patterns)
	if err != nil {
		return nil, fmt.Errorf("failed to search tags: %w", err)
	}
	defer rows.Close()

	return scanTags(rows)
}

// GetOrCreate inserts a tag if it doesn't exist and returns it.
func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	_, err := r.db.Exec(ctx, `INSERT INTO tags (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}

	var tag models.Tag
	err = r.db.QueryRow(ctx, `
		SELECT id, name, category, priority, usage_count, created_at
		FROM tags WHERE name = $1
	`, name).Scan(&tag.ID, &tag.Name, &tag.Category, &tag.Priority, &tag.UsageCount, &tag.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// IncrementUsage bumps the usage counter of the given tags. Called as a
// side effect of applying tags to an entry.
func (r *TagRepository) IncrementUsage(ctx context.Context, tagIDs []int) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE tags SET usage_count = usage_count + 1 WHERE id = ANY($1)
	`, tagIDs)
	if err != nil {
		return fmt.Errorf("failed to increment tag usage: %w", err)
	}
	return nil
}

// GetAll retrieves all tags, limited to 100.
func (r *TagRepository) GetAll(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, category, priority, usage_count, created_at
		FROM tags ORDER BY name LIMIT 100
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	return scanTags(rows)
}

// scanTags is a helper to scan tag rows.
func scanTags(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
},
) ([]models.Tag, error) {
	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Category, &tag.Priority, &tag.UsageCount, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}
	return tags, nil
}
