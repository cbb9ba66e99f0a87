package db

// Audit journal schema. One row per invocation recording how it ended.
// Codes, message content and mailbox credentials are never written here.
const schema = `
CREATE TABLE IF NOT EXISTS retrievals (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL,
    remote_addr TEXT,
    protocol TEXT,
    outcome TEXT NOT NULL,
    status INTEGER NOT NULL,
    detail TEXT,
    requested_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes for performance
CREATE INDEX IF NOT EXISTS idx_retrievals_requested_at ON retrievals(requested_at DESC);
CREATE INDEX IF NOT EXISTS idx_retrievals_outcome ON retrievals(outcome);
`
