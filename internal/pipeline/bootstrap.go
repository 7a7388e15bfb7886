package pipeline

import (
	"context"
	"fmt"

	"gitlab.com/yelinaung/receipt-ledger/internal/config"
	"gitlab.com/yelinaung/receipt-ledger/internal/database"
	"gitlab.com/yelinaung/receipt-ledger/internal/gemini"
	"gitlab.com/yelinaung/receipt-ledger/internal/logger"
	"gitlab.com/yelinaung/receipt-ledger/internal/repository"
	"gitlab.com/yelinaung/receipt-ledger/internal/resolver"
	"gitlab.com/yelinaung/receipt-ledger/internal/tagging"
)

// Bootstrap builds a fully wired Pipeline from environment configuration:
// database pool with migrations and tag seed, the four repositories, the
// tiered resolver with its caches, the Gemini refiner when an API key is
// configured, and the auto-tagger. The returned cleanup closes the pool.
func Bootstrap(ctx context.Context) (*Pipeline, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.SetLevel(cfg.LogLevel)
	logger.InitHashSalt()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanup := func() { pool.Close() }

	if err := database.RunMigrations(ctx, pool); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := database.SeedTags(ctx, pool); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to seed tags: %w", err)
	}

	var refiner resolver.CategoryRefiner
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		refiner = client
	} else {
		logger.Log.Info().Msg("GEMINI_API_KEY not set, broad-category refinement disabled")
	}

	res := resolver.New(resolver.Options{
		Patterns:       repository.NewPatternRepository(pool),
		Vendors:        repository.NewVendorRepository(pool),
		Users:          repository.NewUserMappingRepository(pool),
		Refiner:        refiner,
		LookupTTL:      cfg.LookupCacheTTL,
		EnhancementTTL: cfg.EnhancementCacheTTL,
	})

	p := New(Options{
		Resolver:       res,
		Tagger:         tagging.New(repository.NewTagRepository(pool)),
		Mappings:       repository.NewUserMappingRepository(pool),
		PaymentAccount: cfg.PaymentAccount,
		Currency:       cfg.DefaultCurrency,
	})

	return p, cleanup, nil
}
