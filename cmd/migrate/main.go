// Command migrate manages the CodeLearn database schema.
//
//	migrate up              apply pending SQL migrations
//	migrate auto            run GORM AutoMigrate for every model
//	migrate status          show the schema plan and pending migrations
//	migrate down <version>  roll back one migration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"codelearn/internal/config"
	"codelearn/internal/database"

	"gorm.io/gorm"
)

var errUsage = errors.New("usage: migrate <up|auto|status|down <version>>")

func main() {
	flag.Parse()
	if err := run(context.Background(), flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "up":
		return up(ctx, db)
	case "auto":
		cfg.DBSchemaMode = string(database.SchemaModeAuto)
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return err
		}
		log.Println("automigrate complete")
		return nil
	case "status":
		return status(ctx, db, cfg)
	case "down":
		if len(args) < 2 {
			return errUsage
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		return down(ctx, db, version)
	default:
		return errUsage
	}
}

func up(ctx context.Context, db *gorm.DB) error {
	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	applied, err := m.Up(ctx)
	for _, mig := range applied {
		log.Printf("applied %s", mig)
	}
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		log.Println("schema is up to date")
	}
	return nil
}

func down(ctx context.Context, db *gorm.DB, version int) error {
	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Down(ctx, version); err != nil {
		return err
	}
	log.Printf("rolled back %06d", version)
	return nil
}

func status(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := database.PlanSchema(cfg)
	if err != nil {
		return err
	}
	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	pending, applied, err := m.Pending(ctx)
	if err != nil {
		return err
	}

	log.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d",
		plan.Mode, plan.Environment, plan.RunSQL, plan.RunAuto, len(applied), len(pending))
	for _, mig := range pending {
		log.Printf("pending: %s", mig)
	}
	return nil
}
