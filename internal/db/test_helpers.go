package db

import (
	"testing"
)

// SetupTestDB creates an in-memory SQLite journal for testing
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database
func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	if err := db.Close(); err != nil {
		t.Errorf("Failed to close test database: %v", err)
	}
}

// CreateTestRetrieval creates a journal row with default values
func CreateTestRetrieval(requestID, outcome string, status int) *Retrieval {
	return &Retrieval{
		RequestID:  requestID,
		RemoteAddr: "192.0.2.1:52814",
		Protocol:   "imap",
		Outcome:    outcome,
		Status:     status,
	}
}

// InsertTestRetrievals inserts multiple journal rows and returns them
func InsertTestRetrievals(t *testing.T, db *DB, retrievals []*Retrieval) []*Retrieval {
	t.Helper()

	for i, r := range retrievals {
		id, err := db.InsertRetrieval(r)
		if err != nil {
			t.Fatalf("Failed to insert test retrieval %d: %v", i, err)
		}
		retrievals[i].ID = id
	}

	return retrievals
}
