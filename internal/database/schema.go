package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"codelearn/internal/config"
	"codelearn/internal/middleware"

	"gorm.io/gorm"
)

// SchemaMode selects how the schema is brought up to date at startup.
type SchemaMode string

const (
	// SchemaModeHybrid runs SQL migrations, then AutoMigrate outside prod-like envs.
	SchemaModeHybrid SchemaMode = "hybrid"
	SchemaModeSQL    SchemaMode = "sql"
	// SchemaModeAuto runs only AutoMigrate.
	SchemaModeAuto SchemaMode = "auto"
)

// SchemaPlan is what ApplySchema will do for a config.
type SchemaPlan struct {
	Mode        SchemaMode
	Environment string
	RunSQL      bool
	RunAuto     bool
}

func prodLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// PlanSchema resolves the schema mode for cfg. Auto mode in a prod-like
// environment needs DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	mode := SchemaMode(strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	plan := SchemaPlan{Mode: mode, Environment: cfg.Env}
	prod := prodLike(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		plan.RunSQL = true
	case SchemaModeHybrid:
		plan.RunSQL, plan.RunAuto = true, !prod
	case SchemaModeAuto:
		if prod && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("DB_SCHEMA_MODE=auto in %q requires DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.RunAuto = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
	return plan, nil
}

// ApplySchema brings the schema up to date according to PlanSchema.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunSQL {
		migrator, err := NewMigrator(db)
		if err != nil {
			return err
		}
		applied, err := migrator.Up(ctx)
		if err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
		middleware.Logger.Info("SQL migrations done", slog.Int("applied", len(applied)))
	}

	if plan.RunAuto {
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", string(plan.Mode)), slog.String("env", plan.Environment))
		if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}
