package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2ffacde/latest-code-fetcher/internal/config"
	"github.com/2ffacde/latest-code-fetcher/internal/mailbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession scripts one mailbox session for pipeline tests
type fakeSession struct {
	summaries    []mailbox.Summary
	bodies       map[mailbox.UID][]byte
	selectErr    error
	enumerateErr error
	fetchErr     error
	closeErr     error

	panicOnEnumerate bool

	fetchCalls int
	closeCalls int
}

func (s *fakeSession) SelectInbox() error {
	return s.selectErr
}

func (s *fakeSession) Enumerate() ([]mailbox.Summary, error) {
	if s.panicOnEnumerate {
		panic("enumerate exploded")
	}
	if s.enumerateErr != nil {
		return nil, s.enumerateErr
	}
	return s.summaries, nil
}

func (s *fakeSession) FetchBody(uid mailbox.UID) ([]byte, error) {
	s.fetchCalls++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	body, ok := s.bodies[uid]
	if !ok {
		return nil, mailbox.ErrFetch
	}
	return body, nil
}

func (s *fakeSession) Close() error {
	s.closeCalls++
	return s.closeErr
}

// fakeOpener hands out a scripted session and records what it was asked for
type fakeOpener struct {
	session *fakeSession
	err     error

	opens   int
	lastCfg config.Mailbox
}

func (o *fakeOpener) Open(cfg config.Mailbox) (mailbox.Session, error) {
	o.opens++
	o.lastCfg = cfg
	if o.err != nil {
		return nil, o.err
	}
	return o.session, nil
}

// testInvocation returns a complete invocation config that passes validation
func testInvocation() config.Invocation {
	return config.Invocation{
		Mailbox: config.Mailbox{
			Protocol:    config.ProtocolIMAP,
			Host:        "mail.example.com",
			Port:        993,
			User:        "inbox@example.com",
			Secret:      "app-password",
			UseTLS:      true,
			AuthTimeout: 10 * time.Second,
		},
	}
}

// setupTestHandlers creates a handlers instance with a scripted opener and a
// fixed invocation config instead of the process environment
func setupTestHandlers(t *testing.T, opener mailbox.Opener, env config.Invocation) *Handlers {
	t.Helper()

	h := New(opener, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.loadEnv = func() config.Invocation { return env }
	return h
}

// rawMessage wraps body in a minimal plain-text mail message
func rawMessage(body string) []byte {
	return []byte("From: otp@example.com\r\n" +
		"To: inbox@example.com\r\n" +
		"Subject: Your verification code\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body + "\r\n")
}

// decodeBody parses the recorded JSON response
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "Response should be valid JSON")
	return body
}

// Test health endpoint reports ok
func TestHealth(t *testing.T) {
	h := setupTestHandlers(t, &fakeOpener{}, testInvocation())

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, map[string]string{"status": "ok"}, decodeBody(t, w))
}

// Test request ID middleware generates an id when the client sends none
func TestRequestIDGenerated(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	})

	req := httptest.NewRequest("GET", "/code", nil)
	w := httptest.NewRecorder()

	RequestID(next).ServeHTTP(w, req)

	assert.NotEmpty(t, seen, "Handler should see a generated request id")
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"), "Response header should carry the same id")
}

// Test request ID middleware keeps a client-supplied id
func TestRequestIDPreserved(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	})

	req := httptest.NewRequest("GET", "/code", nil)
	req.Header.Set("X-Request-ID", "client-chosen-id")
	w := httptest.NewRecorder()

	RequestID(next).ServeHTTP(w, req)

	assert.Equal(t, "client-chosen-id", seen)
	assert.Equal(t, "client-chosen-id", w.Header().Get("X-Request-ID"))
}

// Test the id accessor outside the middleware
func TestRequestIDFromBareContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/code", nil)

	assert.Equal(t, "", RequestIDFrom(req.Context()))
}
