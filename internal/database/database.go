package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"slack_files/internal/logger"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the download ledger. It records what was fetched and what failed;
// whether a file needs fetching is decided by the filesystem alone.
type DB struct {
	*sql.DB
}

type File struct {
	ID           string
	Channel      string
	FileName     string
	URL          string
	LocalPath    string
	MimeType     string
	SizeBytes    int64
	Checksum     string
	DownloadedAt time.Time
}

type Failure struct {
	ID       string
	Channel  string
	FileName string
	URL      string
	Error    string
	Attempts int
	FailedAt time.Time
}

type Summary struct {
	Downloads  int
	TotalBytes int64
	Failures   int
}

// New creates a new database connection and ensures schema is up to date
func New(dbPath string) (*DB, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &DB{db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// InsertFile records a completed download and clears any failure recorded for it
func (db *DB) InsertFile(f File) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO downloads (
			file_id, channel, file_name, url, local_path,
			mime_type, size_bytes, checksum, downloaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel, file_name) DO UPDATE SET
			file_id = excluded.file_id,
			url = excluded.url,
			local_path = excluded.local_path,
			mime_type = excluded.mime_type,
			size_bytes = excluded.size_bytes,
			checksum = excluded.checksum,
			downloaded_at = excluded.downloaded_at
	`, f.ID, f.Channel, f.FileName, f.URL, f.LocalPath,
		f.MimeType, f.SizeBytes, f.Checksum, f.DownloadedAt)
	if err != nil {
		logger.Error().Err(err).Str("file", f.FileName).Msg("database error upserting download")
		return fmt.Errorf("failed to store download %s: %w", f.FileName, err)
	}

	if _, err := tx.Exec(`DELETE FROM failures WHERE channel = ? AND file_name = ?`, f.Channel, f.FileName); err != nil {
		return fmt.Errorf("failed to clear failure for %s: %w", f.FileName, err)
	}

	return tx.Commit()
}

// InsertFailure records a failed download, counting repeated attempts
func (db *DB) InsertFailure(f Failure) error {
	_, err := db.Exec(`
		INSERT INTO failures (file_id, channel, file_name, url, error, attempts, failed_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(channel, file_name) DO UPDATE SET
			file_id = excluded.file_id,
			url = excluded.url,
			error = excluded.error,
			attempts = failures.attempts + 1,
			failed_at = excluded.failed_at
	`, f.ID, f.Channel, f.FileName, f.URL, f.Error, f.FailedAt)
	if err != nil {
		return fmt.Errorf("failed to store failure %s: %w", f.FileName, err)
	}
	return nil
}

// GetFailures returns the outstanding failures ordered by channel and file name
func (db *DB) GetFailures() ([]Failure, error) {
	rows, err := db.Query(`
		SELECT file_id, channel, file_name, url, error, attempts, failed_at
		FROM failures
		ORDER BY channel, file_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query failures: %w", err)
	}
	defer rows.Close()

	var out []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.ID, &f.Channel, &f.FileName, &f.URL, &f.Error, &f.Attempts, &f.FailedAt); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetSummary counts recorded downloads and outstanding failures
func (db *DB) GetSummary() (Summary, error) {
	var s Summary
	err := db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM downloads`).Scan(&s.Downloads, &s.TotalBytes)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count downloads: %w", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM failures`).Scan(&s.Failures); err != nil {
		return Summary{}, fmt.Errorf("failed to count failures: %w", err)
	}
	return s, nil
}
