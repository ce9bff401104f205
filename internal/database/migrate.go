package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS migrations (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

// Migration is one numbered schema change with its rollback
type Migration struct {
	Name string
	Up   string
	Down string
}

// Migrations lists the embedded migrations in the order they apply
func Migrations() ([]Migration, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)

	out := make([]Migration, 0, len(entries))
	for _, upPath := range entries {
		name := strings.TrimSuffix(strings.TrimPrefix(upPath, "migrations/"), ".up.sql")
		up, err := migrationFiles.ReadFile(upPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		down, err := migrationFiles.ReadFile("migrations/" + name + ".down.sql")
		if err != nil {
			return nil, fmt.Errorf("migration %s has no down file: %w", name, err)
		}
		out = append(out, Migration{Name: name, Up: string(up), Down: string(down)})
	}
	return out, nil
}

// Migrator applies the embedded postgres migrations and records them in the migrations table
type Migrator struct {
	db     *sql.DB
	logger *logger.Logger
}

func NewMigrator(db *sql.DB, log *logger.Logger) *Migrator {
	return &Migrator{db: db, logger: log.With("component", "migrator")}
}

// Up applies every pending migration and returns the names applied
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, name := range applied {
		done[name] = true
	}

	var ran []string
	for _, mig := range migrations {
		if done[mig.Name] {
			m.logger.Debug("skipping migration", "name", mig.Name)
			continue
		}
		err := m.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO migrations (name) VALUES ($1)", mig.Name)
			return err
		})
		if err != nil {
			return ran, fmt.Errorf("failed to apply migration %s: %w", mig.Name, err)
		}
		m.logger.Info("applied migration", "name", mig.Name)
		ran = append(ran, mig.Name)
	}
	return ran, nil
}

// Down rolls back the most recently applied migration. It returns an empty name when nothing is applied.
func (m *Migrator) Down(ctx context.Context) (string, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return "", err
	}
	if len(applied) == 0 {
		return "", nil
	}
	last := applied[len(applied)-1]

	migrations, err := Migrations()
	if err != nil {
		return "", err
	}
	var target *Migration
	for i := range migrations {
		if migrations[i].Name == last {
			target = &migrations[i]
		}
	}
	if target == nil {
		return "", fmt.Errorf("applied migration %s is not known to this binary", last)
	}

	err = m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, target.Down); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM migrations WHERE name = $1", target.Name)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to roll back migration %s: %w", target.Name, err)
	}
	m.logger.Info("rolled back migration", "name", target.Name)
	return target.Name, nil
}

// Applied lists recorded migrations oldest first
func (m *Migrator) Applied(ctx context.Context) ([]string, error) {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	rows, err := m.db.QueryContext(ctx, "SELECT name FROM migrations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (m *Migrator) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// RunMigrations brings the schema up to date: embedded SQL on postgres, auto-migration on sqlite
func RunMigrations(ctx context.Context, db *gorm.DB, log *logger.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		log.Info("using gorm auto-migration for sqlite")
		return db.WithContext(ctx).AutoMigrate(models.All()...)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	_, err = NewMigrator(sqlDB, log).Up(ctx)
	return err
}
