// Package bootstrap wires the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"codelearn/internal/cache"
	"codelearn/internal/config"
	"codelearn/internal/database"
	"codelearn/internal/models"
	"codelearn/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData loads the demo dataset into an empty database.
	SeedDemoData bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
// The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemoData {
		if err := SeedIfEmpty(context.Background(), cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// SeedIfEmpty seeds the default dataset when no users exist. It never runs
// against a production config.
func SeedIfEmpty(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to seed demo data in %q", cfg.Env)
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		log.Printf("database already has %d users; skipping demo seed", users)
		return nil
	}

	opts := seed.DefaultOptions
	opts.ProblemSet = cfg.SeedProblemSet
	opts.FastHash = true
	_, err := seed.NewSeeder(db, opts).Seed(ctx)
	return err
}
