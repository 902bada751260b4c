package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type migration struct {
	version int
	name    string
}

// MigrateUp applies every migration newer than the database's user_version
// and records the last one applied.
func MigrateUp(db *sql.DB) error {
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}
	ups, err := listMigrations(".up.sql")
	if err != nil {
		return err
	}
	for _, m := range ups {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m, m.version); err != nil {
			return err
		}
	}
	return nil
}

// MigrateDown reverts applied migrations newest first.
func MigrateDown(db *sql.DB) error {
	current, err := schemaVersion(db)
	if err != nil {
		return err
	}
	downs, err := listMigrations(".down.sql")
	if err != nil {
		return err
	}
	slices.Reverse(downs)
	for _, m := range downs {
		if m.version > current {
			continue
		}
		if err := applyMigration(db, m, m.version-1); err != nil {
			return err
		}
	}
	return nil
}

func listMigrations(suffix string) ([]migration, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	out := make([]migration, 0, len(entries))
	for _, name := range entries {
		prefix, _, ok := strings.Cut(path.Base(name), "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		v, err := strconv.Atoi(prefix)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("migration %s: invalid version %q", name, prefix)
		}
		out = append(out, migration{version: v, name: name})
	}
	slices.SortFunc(out, func(a, b migration) int { return a.version - b.version })
	return out, nil
}

func applyMigration(db *sql.DB, m migration, next int) error {
	sqlBytes, err := migrationFiles.ReadFile(m.name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.name, err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.name, err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(string(sqlBytes)); err != nil {
		return fmt.Errorf("apply migration %s: %w", m.name, err)
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", next)); err != nil {
		return fmt.Errorf("record migration %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.name, err)
	}
	return nil
}

func schemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
