package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"audio-inspector/models"
	"audio-inspector/utils"
)

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dataSourceName string) (*SQLiteClient, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout so concurrent handlers wait instead of failing
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000"
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteClient{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createScansTable := `
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		job_id TEXT,
		path TEXT NOT NULL,
		source_label TEXT NOT NULL,
		sample_rate INTEGER NOT NULL DEFAULT 0,
		high_energy_ratio REAL NOT NULL DEFAULT 0,
		threshold REAL NOT NULL DEFAULT 0,
		quality_flag INTEGER NOT NULL DEFAULT 0,
		artifact_path TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_scans_timestamp ON scans(timestamp);
	CREATE INDEX IF NOT EXISTS idx_scans_job_id ON scans(job_id);
	`

	if _, err := db.Exec(createScansTable); err != nil {
		return fmt.Errorf("error creating scans table: %s", err)
	}

	return nil
}

func (db *SQLiteClient) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// StoreScan appends one analyzed or failed file to the history
func (db *SQLiteClient) StoreScan(scan *models.ScanRecord) error {
	qualityFlag := 0
	if scan.QualityFlag {
		qualityFlag = 1
	}

	result, err := db.db.Exec(`
		INSERT INTO scans (
			timestamp, job_id, path, source_label, sample_rate,
			high_energy_ratio, threshold, quality_flag, artifact_path, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.Timestamp,
		scan.JobID,
		scan.Path,
		scan.SourceLabel,
		scan.SampleRate,
		scan.HighEnergyRatio,
		scan.Threshold,
		qualityFlag,
		scan.ArtifactPath,
		scan.Error,
	)
	if err != nil {
		return fmt.Errorf("error storing scan: %s", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		scan.ID = id
	}
	return nil
}

// RecentScans retrieves up to limit most recent scans, newest first
func (db *SQLiteClient) RecentScans(limit int) ([]models.ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.db.Query(`
		SELECT id, timestamp, job_id, path, source_label, sample_rate,
		       high_energy_ratio, threshold, quality_flag, artifact_path, error
		FROM scans
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying scans: %s", err)
	}
	defer rows.Close()

	var scans []models.ScanRecord
	for rows.Next() {
		var s models.ScanRecord
		var qualityFlag int
		err := rows.Scan(
			&s.ID,
			&s.Timestamp,
			&s.JobID,
			&s.Path,
			&s.SourceLabel,
			&s.SampleRate,
			&s.HighEnergyRatio,
			&s.Threshold,
			&qualityFlag,
			&s.ArtifactPath,
			&s.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning row: %s", err)
		}
		s.QualityFlag = qualityFlag == 1
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scans: %s", err)
	}

	return scans, nil
}

// DeleteAllScans clears the scan history
func (db *SQLiteClient) DeleteAllScans() error {
	if _, err := db.db.Exec("DELETE FROM scans"); err != nil {
		return fmt.Errorf("error clearing scans: %s", err)
	}
	return nil
}
