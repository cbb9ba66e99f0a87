// Package mailbox opens short-lived read-only sessions against a mailbox and
// resolves which message arrived last. Every invocation gets its own session;
// nothing is pooled or shared between requests.
package mailbox

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/2ffacde/latest-code-fetcher/internal/config"
)

var (
	// ErrConnection marks failures to reach or authenticate with the server.
	ErrConnection = errors.New("mailbox connection failed")

	// ErrFetch marks an identifier that no longer resolves to a message.
	ErrFetch = errors.New("message fetch failed")

	// ErrUnsupportedProtocol is returned for protocols with no registered opener.
	ErrUnsupportedProtocol = errors.New("unsupported mailbox protocol")
)

// UID identifies a message within one session: the IMAP UID, the POP3
// message number, or the 1-based spool position. Identifiers grow as
// messages arrive and are only comparable inside the session that
// produced them.
type UID uint32

// Summary is the enumeration record for one message.
type Summary struct {
	UID UID
}

// Session is a live connection to one mailbox. Implementations are not safe
// for concurrent use; a session belongs to exactly one invocation and must
// be closed on every exit path. Close errors carry no actionable signal for
// the caller and may be discarded.
type Session interface {
	SelectInbox() error
	Enumerate() ([]Summary, error)
	FetchBody(uid UID) ([]byte, error)
	Close() error
}

// Opener dials and authenticates a fresh session.
type Opener interface {
	Open(cfg config.Mailbox) (Session, error)
}

// Dispatcher routes Open calls to the opener registered for the
// configured protocol.
type Dispatcher struct {
	mu      sync.RWMutex
	openers map[string]Opener
}

// DispatcherOption customizes a dispatcher.
type DispatcherOption func(*Dispatcher)

// NewDispatcher builds a dispatcher with the provided options.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{openers: make(map[string]Opener)}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// WithOpener registers an opener for the provided protocol names.
func WithOpener(opener Opener, protocols ...string) DispatcherOption {
	return func(d *Dispatcher) {
		if opener == nil {
			return
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, p := range protocols {
			key := normalizeProtocol(p)
			if key == "" {
				continue
			}
			d.openers[key] = opener
		}
	}
}

// NewDefaultDispatcher returns a dispatcher preloaded with the built-in
// IMAP, POP3 and mbox openers.
func NewDefaultDispatcher(opts ...DispatcherOption) *Dispatcher {
	defaults := []DispatcherOption{
		WithOpener(NewIMAPOpener(), config.ProtocolIMAP, "imaps"),
		WithOpener(NewPOP3Opener(), config.ProtocolPOP3, "pop3s"),
		WithOpener(NewMboxOpener(), config.ProtocolMbox),
	}
	return NewDispatcher(append(defaults, opts...)...)
}

// Open dispatches to the opener for cfg.Protocol.
func (d *Dispatcher) Open(cfg config.Mailbox) (Session, error) {
	key := normalizeProtocol(cfg.Protocol)
	d.mu.RLock()
	opener, ok := d.openers[key]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, cfg.Protocol)
	}
	return opener.Open(cfg)
}

// ResolveLatest picks the summary with the highest identifier. Identifiers
// grow as messages arrive, so the maximum approximates the most recently
// received message; it is not a timestamp sort. The second return is false
// when the mailbox is empty.
func ResolveLatest(summaries []Summary) (UID, bool) {
	if len(summaries) == 0 {
		return 0, false
	}
	latest := summaries[0].UID
	for _, s := range summaries[1:] {
		if s.UID > latest {
			latest = s.UID
		}
	}
	return latest, true
}

func normalizeProtocol(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
