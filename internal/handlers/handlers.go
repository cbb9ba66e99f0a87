// Package handlers maps HTTP requests onto the code retrieval pipeline and
// its fixed set of response payloads.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/2ffacde/latest-code-fetcher/internal/config"
	"github.com/2ffacde/latest-code-fetcher/internal/db"
	"github.com/2ffacde/latest-code-fetcher/internal/mailbox"
)

// Handlers holds all HTTP handlers and their dependencies
type Handlers struct {
	opener  mailbox.Opener
	journal *db.DB
	logger  *slog.Logger

	// loadEnv reads the per-invocation configuration; tests swap it out.
	loadEnv func() config.Invocation
}

// New creates a new Handlers instance. journal is nil when auditing is
// disabled.
func New(opener mailbox.Opener, journal *db.DB, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		opener:  opener,
		journal: journal,
		logger:  logger,
		loadEnv: config.FromEnv,
	}
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// A write failure means the client went away; there is no one to tell.
	_ = json.NewEncoder(w).Encode(body)
}
