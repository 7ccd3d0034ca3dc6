package database

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"slices"
	"sync"
	"time"

	"codelearn/internal/middleware"

	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrationName = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.up\.sql$`)

// Migration is one versioned SQL script pair.
type Migration struct {
	Version  int
	Name     string
	Up       string
	Down     string
	Checksum string
}

func (m Migration) String() string {
	return fmt.Sprintf("%06d_%s", m.Version, m.Name)
}

// LoadMigrations reads every NNNNNN_name.up.sql under dir in fsys together
// with its .down.sql partner, ordered by version.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	ups, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}

	out := make([]Migration, 0, len(ups))
	seen := map[int]string{}
	for _, file := range ups {
		match := migrationName.FindStringSubmatch(path.Base(file))
		if match == nil {
			return nil, fmt.Errorf("migration %s: name must look like 000001_name.up.sql", file)
		}
		var version int
		if _, err := fmt.Sscanf(match[1], "%d", &version); err != nil {
			return nil, fmt.Errorf("migration %s: %w", file, err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration version %06d used by both %s and %s", version, prev, file)
		}
		seen[version] = file

		up, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		down, err := fs.ReadFile(fsys, path.Join(dir, fmt.Sprintf("%s_%s.down.sql", match[1], match[2])))
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down script: %w", file, err)
		}
		sum := sha256.Sum256(up)
		out = append(out, Migration{
			Version:  version,
			Name:     match[2],
			Up:       string(up),
			Down:     string(down),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}

	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

var embeddedMigrations = sync.OnceValues(func() ([]Migration, error) {
	return LoadMigrations(migrationFS, "migrations")
})

// Migrations returns the migrations compiled into the binary.
func Migrations() ([]Migration, error) {
	return embeddedMigrations()
}

// migrationRecord is one row of the applied-migrations log.
type migrationRecord struct {
	Version   int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"size:255;not null"`
	Checksum  string `gorm:"size:64;not null"`
	AppliedAt time.Time
}

func (migrationRecord) TableName() string {
	return "schema_migrations"
}

// Migrator applies and rolls back versioned SQL migrations, recording each in
// schema_migrations. Every script runs in the same transaction as its log row.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	ms, err := Migrations()
	if err != nil {
		return nil, err
	}
	return NewMigratorWith(db, ms), nil
}

func NewMigratorWith(db *gorm.DB, migrations []Migration) *Migrator {
	return &Migrator{db: db, migrations: migrations}
}

func (m *Migrator) applied(ctx context.Context) (map[int]migrationRecord, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&migrationRecord{}); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}
	var rows []migrationRecord
	if err := m.db.WithContext(ctx).Order("version").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	out := make(map[int]migrationRecord, len(rows))
	for _, r := range rows {
		out[r.Version] = r
	}
	return out, nil
}

// verify rejects logged versions the binary does not know and scripts edited
// after they were applied.
func (m *Migrator) verify(applied map[int]migrationRecord) error {
	known := make(map[int]Migration, len(m.migrations))
	for _, mig := range m.migrations {
		known[mig.Version] = mig
	}
	versions := make([]int, 0, len(applied))
	for v := range applied {
		versions = append(versions, v)
	}
	slices.Sort(versions)
	for _, v := range versions {
		mig, ok := known[v]
		if !ok {
			return fmt.Errorf("schema_migrations has version %06d which this build does not ship", v)
		}
		if rec := applied[v]; rec.Checksum != "" && rec.Checksum != mig.Checksum {
			return fmt.Errorf("migration %s was modified after it was applied", mig)
		}
	}
	return nil
}

// Up applies every pending migration in version order and returns them.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.verify(applied); err != nil {
		return nil, err
	}

	var done []Migration
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		middleware.Logger.Info("Applying migration", slog.String("migration", mig.String()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&migrationRecord{
				Version:   mig.Version,
				Name:      mig.Name,
				Checksum:  mig.Checksum,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return done, fmt.Errorf("apply %s: %w", mig, err)
		}
		done = append(done, mig)
	}
	return done, nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	idx := slices.IndexFunc(m.migrations, func(mig Migration) bool { return mig.Version == version })
	if idx < 0 {
		return fmt.Errorf("migration version %d not found", version)
	}
	mig := m.migrations[idx]

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	if _, ok := applied[version]; !ok {
		return fmt.Errorf("migration %s has not been applied", mig)
	}

	middleware.Logger.Info("Rolling back migration", slog.String("migration", mig.String()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.Down).Error; err != nil {
			return fmt.Errorf("rollback %s: %w", mig, err)
		}
		return tx.Delete(&migrationRecord{}, version).Error
	})
}

// Pending lists migrations not yet applied, along with the applied versions.
func (m *Migrator) Pending(ctx context.Context) (pending []Migration, applied []int, err error) {
	log, err := m.applied(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := m.verify(log); err != nil {
		return nil, nil, err
	}
	for _, mig := range m.migrations {
		if _, ok := log[mig.Version]; ok {
			applied = append(applied, mig.Version)
			continue
		}
		pending = append(pending, mig)
	}
	return pending, applied, nil
}
