package db

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// NullTime is a custom type that handles both string and time.Time from SQLite
type NullTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner for NullTime
func (nt *NullTime) Scan(value interface{}) error {
	if value == nil {
		nt.Time, nt.Valid = time.Time{}, false
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		nt.Time, nt.Valid = v, true
		return nil
	case string:
		// Try multiple time formats
		formats := []string{
			time.RFC3339,
			time.RFC3339Nano,
			"2006-01-02 15:04:05.999999999 -0700 -0700",
			"2006-01-02 15:04:05 -0700 -0700",
			"2006-01-02 15:04:05.999999999 -0700 MST",
			"2006-01-02 15:04:05 -0700 MST",
			"2006-01-02 15:04:05.999999999 -0700",
			"2006-01-02 15:04:05 -0700",
			"2006-01-02 15:04:05.999999999",
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05Z",
			time.RFC1123Z,
			time.RFC1123,
		}

		var t time.Time
		var err error
		for _, format := range formats {
			t, err = time.Parse(format, v)
			if err == nil {
				nt.Time, nt.Valid = t, true
				return nil
			}
		}

		return fmt.Errorf("failed to parse time string %q: %w", v, err)
	default:
		return fmt.Errorf("unsupported Scan type for NullTime: %T", value)
	}
}

// Value implements driver.Valuer for NullTime
func (nt NullTime) Value() (driver.Value, error) {
	if !nt.Valid {
		return nil, nil
	}
	return nt.Time, nil
}

// Retrieval is one journal row describing how an invocation ended.
// Detail carries the sanitized failure description shown to the caller,
// never message content.
type Retrieval struct {
	ID          int64
	RequestID   string
	RemoteAddr  string
	Protocol    string
	Outcome     string
	Status      int
	Detail      string
	RequestedAt NullTime
}

// InsertRetrieval appends one row to the journal
func (db *DB) InsertRetrieval(r *Retrieval) (int64, error) {
	result, err := db.Exec(`
		INSERT INTO retrievals (request_id, remote_addr, protocol, outcome, status, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.RequestID, r.RemoteAddr, r.Protocol, r.Outcome, r.Status, r.Detail)
	if err != nil {
		return 0, fmt.Errorf("failed to insert retrieval: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get retrieval id: %w", err)
	}
	return id, nil
}

// RecentRetrievals returns the newest journal rows first
func (db *DB) RecentRetrievals(limit int) ([]*Retrieval, error) {
	rows, err := db.Query(`
		SELECT id, request_id, remote_addr, protocol, outcome, status, detail, requested_at
		FROM retrievals
		ORDER BY requested_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query retrievals: %w", err)
	}
	defer rows.Close()

	var retrievals []*Retrieval
	for rows.Next() {
		r := &Retrieval{}
		err := rows.Scan(&r.ID, &r.RequestID, &r.RemoteAddr, &r.Protocol,
			&r.Outcome, &r.Status, &r.Detail, &r.RequestedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan retrieval: %w", err)
		}
		retrievals = append(retrievals, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate retrievals: %w", err)
	}

	return retrievals, nil
}

// CountRetrievals returns the total number of journal rows
func (db *DB) CountRetrievals() (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM retrievals").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count retrievals: %w", err)
	}
	return count, nil
}

// CountRetrievalsByOutcome returns row counts grouped by outcome kind
func (db *DB) CountRetrievalsByOutcome() (map[string]int, error) {
	rows, err := db.Query(`
		SELECT outcome, COUNT(*)
		FROM retrievals
		GROUP BY outcome
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count retrievals by outcome: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[outcome] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outcome counts: %w", err)
	}

	return counts, nil
}
