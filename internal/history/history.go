// package history persists one row per retrieval attempt so operators can
// audit what the backend fetched and how it failed.
package history

import (
	"database/sql"
	"fmt"
	"time"
)

// Record is one retrieval attempt, success or failure.
type Record struct {
	ID        string
	URL       string
	Outcome   string
	ErrorKind string
	Detail    string
	Artifact  string
	Title     string
	ElapsedMS int64
	CreatedAt time.Time
}

// Repository provides access to the downloads table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a Repository backed by the given database.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores one record. CreatedAt defaults to now when unset.
func (r *Repository) Insert(rec Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO downloads (id, url, outcome, error_kind, detail, artifact, title, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, rec.Outcome, rec.ErrorKind, rec.Detail, rec.Artifact, rec.Title, rec.ElapsedMS, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert download record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (r *Repository) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, url, outcome, error_kind, detail, artifact, title, elapsed_ms, created_at
		FROM downloads ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query download records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.URL, &rec.Outcome, &rec.ErrorKind, &rec.Detail, &rec.Artifact, &rec.Title, &rec.ElapsedMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate download records: %w", err)
	}

	return records, nil
}
