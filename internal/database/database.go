// Package database opens the PostgreSQL connection and keeps its schema
// current through embedded SQL migrations and GORM AutoMigrate.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codelearn/internal/config"
	"codelearn/internal/middleware"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const schemaTimeout = 2 * time.Minute

// Pool defaults when the DB_* pool settings are unset.
const (
	defaultMaxOpenConns = 25
	defaultMaxIdleConns = 5
	defaultConnLifetime = 5 * time.Minute
)

// DB is the connection opened by the last successful Connect.
var DB *gorm.DB

// GormConfig is shared by every connection, test databases included.
// AutoMigrate emits no foreign keys; cascades run in service transactions.
func GormConfig(l logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                                   l,
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// ConnectOptions tunes ConnectWithOptions.
type ConnectOptions struct {
	ApplySchema bool
}

// Connect opens the database and brings its schema up to date.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, ConnectOptions{ApplySchema: true})
}

// DSN renders cfg as a libpq keyword/value connection string.
func DSN(cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, sslMode)
}

// ConfigFromURL fills the DB_* fields of a copy of base from a postgres://
// URL or keyword/value DSN.
func ConfigFromURL(base config.Config, dsn string) (*config.Config, error) {
	pc, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	base.DBHost = pc.Host
	base.DBPort = fmt.Sprint(pc.Port)
	base.DBUser = pc.User
	base.DBPassword = pc.Password
	base.DBName = pc.Database
	if pc.TLSConfig == nil {
		base.DBSSLMode = "disable"
	} else if base.DBSSLMode == "" {
		base.DBSSLMode = "require"
	}
	return &base, nil
}

// ConnectWithOptions opens PostgreSQL, sizes the pool and sets DB.
func ConnectWithOptions(cfg *config.Config, opts ConnectOptions) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(DSN(cfg)), GormConfig(NewGormLogger(middleware.Logger)))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}
	middleware.Logger.Info("database connected",
		slog.String("host", cfg.DBHost),
		slog.String("name", cfg.DBName),
	)

	if opts.ApplySchema {
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := ApplySchema(ctx, db, cfg); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		middleware.Logger.Info("database schema ready", slog.String("mode", cfg.DBSchemaMode))
	}

	DB = db
	return db, nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(orDefault(cfg.DBMaxOpenConns, defaultMaxOpenConns))
	sqlDB.SetMaxIdleConns(orDefault(cfg.DBMaxIdleConns, defaultMaxIdleConns))
	sqlDB.SetConnMaxLifetime(orDefault(time.Duration(cfg.DBConnMaxLifetimeMinutes)*time.Minute, defaultConnLifetime))
	return nil
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// GetDB returns DB.
func GetDB() *gorm.DB {
	return DB
}
