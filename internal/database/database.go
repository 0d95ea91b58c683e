package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"postpack/internal/scan"
)

// Actions recorded per entry
const (
	ActionDelete = "DELETE"
	ActionError  = "ERROR"
)

// DeletionDB manages the SQLite database for deletion history
type DeletionDB struct {
	db *sql.DB
}

// DeletionRecord represents the outcome for one output directory entry
type DeletionRecord struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	Timestamp    time.Time `json:"timestamp"`
	Action       string    `json:"action"`
	Path         string    `json:"path"`
	FileName     string    `json:"file_name"`
	ObjectType   string    `json:"object_type"`
	Size         int64     `json:"size"`
	FileCount    int64     `json:"file_count"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// NewDeletionDB creates a new database connection and initializes schema
func NewDeletionDB(dbPath string) (*DeletionDB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// sql.Open is lazy; force the file to be created now
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	ddb := &DeletionDB{db: db}
	if err = ddb.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return ddb, nil
}

// initSchema creates tables and indexes if they don't exist
func (d *DeletionDB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS deletions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		action TEXT NOT NULL,
		path TEXT NOT NULL,
		file_name TEXT,
		object_type TEXT NOT NULL,
		size INTEGER NOT NULL,
		file_count INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_run_id ON deletions(run_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON deletions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_action ON deletions(action);
	CREATE INDEX IF NOT EXISTS idx_path ON deletions(path);
	CREATE INDEX IF NOT EXISTS idx_size ON deletions(size);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := d.db.Exec(schema)
	return err
}

// RecordDeletion inserts the outcome for one entry of run runID
func (d *DeletionDB) RecordDeletion(runID, action string, entry scan.Entry, errorMsg string) error {
	query := `
	INSERT INTO deletions (
		run_id, timestamp, action, path, file_name, object_type,
		size, file_count, error_message
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var errMsg sql.NullString
	if errorMsg != "" {
		errMsg = sql.NullString{String: errorMsg, Valid: true}
	}

	_, err := d.db.Exec(
		query,
		runID,
		time.Now(),
		action,
		entry.Path,
		entry.Name,
		entry.Kind.String(),
		entry.Size,
		entry.Files,
		errMsg,
	)
	return err
}

// Close closes the database connection
func (d *DeletionDB) Close() error {
	return d.db.Close()
}

// Vacuum optimizes the database
func (d *DeletionDB) Vacuum() error {
	_, err := d.db.Exec("VACUUM")
	return err
}

// parseTimestamp parses timestamps returned by aggregate queries, which the
// driver hands back as text instead of time.Time.
func parseTimestamp(s string) (time.Time, bool) {
	layouts := []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
