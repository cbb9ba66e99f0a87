package handlers

import (
	"crypto/hmac"
	"fmt"
	"net/http"

	"github.com/2ffacde/latest-code-fetcher/internal/config"
	"github.com/2ffacde/latest-code-fetcher/internal/db"
	"github.com/2ffacde/latest-code-fetcher/internal/mailbox"
	"github.com/2ffacde/latest-code-fetcher/internal/otp"
	"github.com/2ffacde/latest-code-fetcher/internal/parser"
)

// FetchLatestCode handles GET /code: open a fresh mailbox session, locate the
// most recent message and answer with the first six-digit code in its body.
func (h *Handlers) FetchLatestCode(w http.ResponseWriter, r *http.Request) {
	env := h.loadEnv()

	out := h.retrieve(r, env)
	h.record(r, env.Mailbox.Protocol, out)
	writeJSON(w, out.status(), out.payload())
}

// retrieve runs the pipeline for one invocation. It never lets a fault
// escape: a panic anywhere past the auth check still produces the server
// error payload, and an opened session is closed on every exit path.
func (h *Handlers) retrieve(r *http.Request, env config.Invocation) (out outcome) {
	defer func() {
		if p := recover(); p != nil {
			h.logger.Error("retrieval pipeline panicked", "panic", p)
			out = serverError{detail: fmt.Sprintf("%v", p)}
		}
	}()

	if !authorized(r, env.APIKey) {
		return forbidden{}
	}

	if err := env.Mailbox.Validate(); err != nil {
		h.logger.Warn("mailbox configuration incomplete", "error", err)
		return configMissing{}
	}

	session, err := h.opener.Open(env.Mailbox)
	if err != nil {
		h.logger.Error("mailbox session open failed", "error", err)
		return serverError{detail: err.Error()}
	}
	defer func() {
		// Close failures never reach the caller.
		if err := session.Close(); err != nil {
			h.logger.Debug("session close failed", "error", err)
		}
	}()

	if err := session.SelectInbox(); err != nil {
		h.logger.Error("inbox select failed", "error", err)
		return serverError{detail: err.Error()}
	}

	summaries, err := session.Enumerate()
	if err != nil {
		h.logger.Error("message enumeration failed", "error", err)
		return serverError{detail: err.Error()}
	}

	uid, ok := mailbox.ResolveLatest(summaries)
	if !ok {
		return noMessages{}
	}

	raw, err := session.FetchBody(uid)
	if err != nil {
		h.logger.Warn("latest message no longer fetchable", "uid", uid, "error", err)
		return messageNotFound{}
	}

	decoded, err := parser.Decode(raw)
	if err != nil {
		h.logger.Error("message decode failed", "uid", uid, "error", err)
		return serverError{detail: err.Error()}
	}

	code, ok := otp.FirstCode(decoded.Text, decoded.HTML)
	if !ok {
		return codeNotFound{}
	}

	return success{code: code}
}

// record appends the invocation outcome to the audit journal. Best-effort:
// a journal failure is logged and the response is unaffected.
func (h *Handlers) record(r *http.Request, protocol string, out outcome) {
	if h.journal == nil {
		return
	}

	row := &db.Retrieval{
		RequestID:  RequestIDFrom(r.Context()),
		RemoteAddr: r.RemoteAddr,
		Protocol:   protocol,
		Outcome:    out.kind(),
		Status:     out.status(),
	}
	if se, ok := out.(serverError); ok {
		row.Detail = se.detail
	}

	if _, err := h.journal.InsertRetrieval(row); err != nil {
		h.logger.Warn("audit journal write failed", "error", err)
	}
}

// authorized implements the optional shared-secret check. An unset key
// disables the check entirely; header name matching is case-insensitive.
func authorized(r *http.Request, apiKey string) bool {
	if apiKey == "" {
		return true
	}
	presented := r.Header.Get("x-api-key")
	return hmac.Equal([]byte(presented), []byte(apiKey))
}
