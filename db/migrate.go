package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/buildamp/errors"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, each in its own transaction.
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	files, err := migrationFiles()
	if err != nil {
		return err
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return err
	}

	for _, name := range files {
		version := strings.SplitN(name, "_", 2)[0]
		if applied[version] {
			continue
		}
		if len(applied) == 0 && version != "000" {
			return errors.Newf("schema_migrations table missing, but migration is not 000: %s", name)
		}

		if logger != nil {
			logger.Debugw("Applying migration", "migration", name, "version", version)
		}
		if err := apply(db, name, version); err != nil {
			return err
		}
		applied[version] = true
	}
	return nil
}

// migrationFiles lists the embedded migrations in version order
func migrationFiles() ([]string, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// appliedVersions is empty on a fresh database, where schema_migrations
// does not exist until 000 runs.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	applied := make(map[string]bool)

	var tables int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'").Scan(&tables); err != nil {
		return nil, errors.Wrap(err, "inspect schema")
	}
	if tables == 0 {
		return applied, nil
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "read schema_migrations")
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan schema_migrations")
		}
		applied[v] = true
	}
	return applied, errors.Wrap(rows.Err(), "read schema_migrations")
}

func apply(db *sql.DB, name, version string) error {
	stmts, err := migrations.ReadFile(path.Join(migrationsDir, name))
	if err != nil {
		return errors.Wrapf(err, "read %s", name)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", name)
	}
	if _, err := tx.Exec(string(stmts)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "execute %s", name)
	}
	// 000 creates the table, then records itself
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "record %s", name)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", name)
}
