// Package migrate applies numbered SQL migrations to the SQLite config store.
// Migration files are named 001_create_tables.up.sql with a matching
// .down.sql for rollback; applied versions are tracked in schema_migrations.
package migrate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Migration is one numbered schema change with its rollback
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

var (
	upPattern   = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)
	downPattern = regexp.MustCompile(`^(\d+)_(.+)\.down\.sql$`)
)

// LoadDir reads all migration files from dir and returns them sorted by
// version
func LoadDir(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory %s: %w", dir, err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		up := upPattern.FindStringSubmatch(name)
		down := downPattern.FindStringSubmatch(name)
		if up == nil && down == nil {
			continue
		}

		matches := up
		if matches == nil {
			matches = down
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("invalid version number in file %s: %w", name, err)
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{
				Version: version,
				Name:    strings.ReplaceAll(matches[2], "_", " "),
			}
			byVersion[version] = m
		}

		if up != nil {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// Migrator applies migrations to a database
type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

// New creates a migrator for the given database and migration set
func New(db *sql.DB, migrations []Migration) *Migrator {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})

	return &Migrator{
		db:         db,
		migrations: sorted,
	}
}

// Version returns the highest applied migration version
func (m *Migrator) Version() (int, error) {
	if err := m.ensureVersionTable(); err != nil {
		return 0, err
	}

	var version int
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// Up applies all pending migrations
func (m *Migrator) Up() error {
	if len(m.migrations) == 0 {
		return nil
	}
	return m.To(m.migrations[len(m.migrations)-1].Version)
}

// To migrates up or down until the schema sits at the target version
func (m *Migrator) To(target int) error {
	current, err := m.Version()
	if err != nil {
		return err
	}

	if target >= current {
		for _, migration := range m.migrations {
			if migration.Version > current && migration.Version <= target {
				if err := m.apply(migration, true); err != nil {
					return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
				}
			}
		}
		return nil
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version <= current && migration.Version > target {
			if err := m.apply(migration, false); err != nil {
				return fmt.Errorf("failed to roll back migration %d: %w", migration.Version, err)
			}
		}
	}
	return nil
}

// Pending returns the migrations that have not been applied yet
func (m *Migrator) Pending() ([]Migration, error) {
	current, err := m.Version()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, migration := range m.migrations {
		if migration.Version > current {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

func (m *Migrator) ensureVersionTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) apply(migration Migration, up bool) error {
	script := migration.Up
	direction := "up"
	if !up {
		script = migration.Down
		direction = "down"
	}
	if script == "" {
		return fmt.Errorf("migration %d has no %s SQL", migration.Version, direction)
	}

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(script); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	if up {
		_, err = tx.Exec("INSERT OR REPLACE INTO schema_migrations (version) VALUES (?)", migration.Version)
	} else {
		_, err = tx.Exec("DELETE FROM schema_migrations WHERE version = ?", migration.Version)
	}
	if err != nil {
		return fmt.Errorf("failed to record migration version: %w", err)
	}

	return tx.Commit()
}
