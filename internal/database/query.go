package database

import (
	"database/sql"
	"fmt"
	"time"
)

const selectColumns = `
	SELECT id, run_id, timestamp, action, path, file_name, object_type,
	       size, file_count, error_message
	FROM deletions
`

// GetRecentDeletions returns the N most recent records
func (d *DeletionDB) GetRecentDeletions(limit int) ([]DeletionRecord, error) {
	return d.queryDeletions(selectColumns+`
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`, limit)
}

// GetDeletionsByRun returns every record of one run in insertion order
func (d *DeletionDB) GetDeletionsByRun(runID string) ([]DeletionRecord, error) {
	return d.queryDeletions(selectColumns+`
	WHERE run_id = ?
	ORDER BY id ASC
	`, runID)
}

// GetDeletionsByAction returns records filtered by action type
func (d *DeletionDB) GetDeletionsByAction(action string) ([]DeletionRecord, error) {
	return d.queryDeletions(selectColumns+`
	WHERE action = ?
	ORDER BY timestamp DESC, id DESC
	`, action)
}

// GetDeletionsByPath returns records matching a path pattern (SQL LIKE syntax)
func (d *DeletionDB) GetDeletionsByPath(pathPattern string) ([]DeletionRecord, error) {
	return d.queryDeletions(selectColumns+`
	WHERE path LIKE ?
	ORDER BY timestamp DESC, id DESC
	`, pathPattern)
}

// GetLargestDeletions returns the N largest successful deletions by size
func (d *DeletionDB) GetLargestDeletions(limit int) ([]DeletionRecord, error) {
	return d.queryDeletions(selectColumns+`
	WHERE action = 'DELETE'
	ORDER BY size DESC, id DESC
	LIMIT ?
	`, limit)
}

// RunSummary aggregates the records of one run
type RunSummary struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	Deleted    int       `json:"deleted"`
	Errors     int       `json:"errors"`
	BytesFreed int64     `json:"bytes_freed"`
}

// GetRunSummaries returns the N most recent runs
func (d *DeletionDB) GetRunSummaries(limit int) ([]RunSummary, error) {
	rows, err := d.db.Query(`
	SELECT run_id,
	       MIN(timestamp),
	       COUNT(CASE WHEN action = 'DELETE' THEN 1 END),
	       COUNT(CASE WHEN action = 'ERROR' THEN 1 END),
	       COALESCE(SUM(CASE WHEN action = 'DELETE' THEN size END), 0)
	FROM deletions
	GROUP BY run_id
	ORDER BY MIN(id) DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		var started sql.NullString
		if err := rows.Scan(&s.RunID, &started, &s.Deleted, &s.Errors, &s.BytesFreed); err != nil {
			return nil, err
		}
		if started.Valid {
			if t, ok := parseTimestamp(started.String); ok {
				s.StartedAt = t
			}
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// GetTotalSpaceFreed returns total bytes freed in a time range
func (d *DeletionDB) GetTotalSpaceFreed(start, end time.Time) (int64, error) {
	query := `
	SELECT COALESCE(SUM(size), 0)
	FROM deletions
	WHERE action = 'DELETE' AND timestamp BETWEEN ? AND ?
	`

	var total int64
	err := d.db.QueryRow(query, start, end).Scan(&total)
	return total, err
}

// GetCountByObjectType returns successful deletions grouped by object type
func (d *DeletionDB) GetCountByObjectType(since time.Time) (map[string]int, error) {
	rows, err := d.db.Query(`
	SELECT object_type, COUNT(*)
	FROM deletions
	WHERE action = 'DELETE' AND timestamp >= ?
	GROUP BY object_type
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var objectType string
		var count int
		if err := rows.Scan(&objectType, &count); err != nil {
			return nil, err
		}
		counts[objectType] = count
	}

	return counts, rows.Err()
}

// DeletionStats holds aggregated statistics
type DeletionStats struct {
	Runs            int            `json:"runs"`
	TotalDeletions  int            `json:"total_deletions"`
	TotalErrors     int            `json:"total_errors"`
	TotalSpaceFreed int64          `json:"total_space_freed"`
	ByObjectType    map[string]int `json:"by_object_type"`
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
}

// GetDeletionStats returns statistics for the last days days
func (d *DeletionDB) GetDeletionStats(days int) (*DeletionStats, error) {
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	stats := &DeletionStats{
		StartDate: since,
		EndDate:   now,
	}

	err := d.db.QueryRow(`
		SELECT
			COUNT(DISTINCT run_id),
			COUNT(CASE WHEN action = 'DELETE' THEN 1 END),
			COUNT(CASE WHEN action = 'ERROR' THEN 1 END)
		FROM deletions
		WHERE timestamp >= ?
	`, since).Scan(&stats.Runs, &stats.TotalDeletions, &stats.TotalErrors)
	if err != nil {
		return nil, err
	}

	stats.TotalSpaceFreed, err = d.GetTotalSpaceFreed(since, now)
	if err != nil {
		return nil, err
	}

	stats.ByObjectType, err = d.GetCountByObjectType(since)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// DeleteOldRecords removes records older than the given number of days
func (d *DeletionDB) DeleteOldRecords(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	result, err := d.db.Exec(`DELETE FROM deletions WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Prune applies retention: rows older than olderThanDays are removed and the
// file is compacted. It returns the number of rows removed.
func (d *DeletionDB) Prune(olderThanDays int) (int64, error) {
	if olderThanDays <= 0 {
		return 0, fmt.Errorf("retention must be at least one day, got %d", olderThanDays)
	}
	n, err := d.DeleteOldRecords(olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("delete old records: %w", err)
	}
	if err := d.Vacuum(); err != nil {
		return n, fmt.Errorf("vacuum: %w", err)
	}
	return n, nil
}

// queryDeletions executes a select over selectColumns and scans the rows
func (d *DeletionDB) queryDeletions(query string, args ...interface{}) ([]DeletionRecord, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DeletionRecord
	for rows.Next() {
		var r DeletionRecord
		var fileName, errMsg sql.NullString

		err := rows.Scan(
			&r.ID, &r.RunID, &r.Timestamp, &r.Action, &r.Path, &fileName,
			&r.ObjectType, &r.Size, &r.FileCount, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		r.FileName = fileName.String
		r.ErrorMessage = errMsg.String

		records = append(records, r)
	}

	return records, rows.Err()
}
