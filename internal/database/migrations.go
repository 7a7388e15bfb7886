package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS account_patterns (
			id SERIAL PRIMARY KEY,
			pattern TEXT NOT NULL,
			pattern_type TEXT NOT NULL DEFAULT 'contains',
			account_path TEXT NOT NULL,
			account_type TEXT NOT NULL DEFAULT 'expense',
			priority INTEGER NOT NULL DEFAULT 0,
			business_context TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS vendor_mappings (
			id SERIAL PRIMARY KEY,
			pattern TEXT NOT NULL,
			pattern_type TEXT NOT NULL DEFAULT 'exact',
			account_path TEXT NOT NULL,
			account_type TEXT NOT NULL DEFAULT 'expense',
			priority INTEGER NOT NULL DEFAULT 0,
			business_context TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS user_mappings (
			id SERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			pattern TEXT NOT NULL,
			pattern_type TEXT NOT NULL DEFAULT 'regex',
			account_path TEXT NOT NULL,
			account_type TEXT NOT NULL DEFAULT 'expense',
			priority INTEGER NOT NULL DEFAULT 0,
			business_context TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS tags (
			id SERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL DEFAULT '',
			priority INTEGER NOT NULL DEFAULT 0,
			usage_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_account_patterns_active
			ON account_patterns(is_active, priority DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_vendor_mappings_active
			ON vendor_mappings(is_active, priority DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_user_mappings_user
			ON user_mappings(user_id, is_active, priority DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_tags_name ON tags(name)`,
	}

	for i, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	return nil
}

// seedTags are the tags shipped with a fresh database. Administrators can
// add more; the pipeline only reads them and bumps usage counters.
var seedTags = []struct {
	Name     string
	Category string
	Priority int
}{
	{"coffee", "food", 5},
	{"groceries", "food", 5},
	{"street-food", "food", 3},
	{"dining", "food", 4},
	{"pantry", "food", 3},
	{"transport", "travel", 4},
	{"taxi", "travel", 3},
	{"software", "business", 4},
	{"subscription", "business", 3},
	{"office", "business", 3},
	{"hardware", "business", 3},
	{"utilities", "household", 3},
	{"clothing", "personal", 2},
	{"entertainment", "leisure", 2},
	{"health", "personal", 4},
}

// SeedTags inserts the default tag set if not already present.
func SeedTags(ctx context.Context, pool *pgxpool.Pool) error {
	for _, tag := range seedTags {
		_, err := pool.Exec(ctx, `
			INSERT INTO tags (name, category, priority)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
		`, tag.Name, tag.Category, tag.Priority)
		if err != nil {
			return fmt.Errorf("failed to seed tag %q: %w", tag.Name, err)
		}
	}
	return nil
}
