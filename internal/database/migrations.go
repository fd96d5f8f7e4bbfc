package database

import (
	"database/sql"
	"fmt"
)

type Migration struct {
	Version int
	SQL     string
}

var migrations = []Migration{
	{
		Version: 1,
		SQL: `
		CREATE TABLE IF NOT EXISTS downloads (
			file_id TEXT NOT NULL,
			channel TEXT NOT NULL,
			file_name TEXT NOT NULL,
			url TEXT NOT NULL,
			local_path TEXT NOT NULL,
			mime_type TEXT,
			size_bytes INTEGER NOT NULL,
			checksum TEXT NOT NULL,
			downloaded_at DATETIME NOT NULL,
			PRIMARY KEY (channel, file_name)
		);

		CREATE TABLE IF NOT EXISTS failures (
			file_id TEXT NOT NULL,
			channel TEXT NOT NULL,
			file_name TEXT NOT NULL,
			url TEXT NOT NULL,
			error TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 1,
			failed_at DATETIME NOT NULL,
			PRIMARY KEY (channel, file_name)
		);`,
	},
}

func applyMigrations(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Apply each migration in transaction
	for _, migration := range migrations {
		var version int
		err := db.QueryRow("SELECT version FROM schema_migrations WHERE version = ?", migration.Version).Scan(&version)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("failed to check migration version: %w", err)
		}
		if err == nil {
			continue // Migration already applied
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))", migration.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
