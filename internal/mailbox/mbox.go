package mailbox

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/2ffacde/latest-code-fetcher/internal/config"
)

// MboxOpener reads a local mbox spool instead of dialing a server. It backs
// development setups and tests that run without mail infrastructure.
type MboxOpener struct {
	logger *slog.Logger
}

// MboxOption customizes opener behavior.
type MboxOption func(*MboxOpener)

// NewMboxOpener returns an opener for local mbox spools.
func NewMboxOpener(opts ...MboxOption) *MboxOpener {
	o := &MboxOpener{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMboxLogger overrides the logger used for session diagnostics.
func WithMboxLogger(logger *slog.Logger) MboxOption {
	return func(o *MboxOpener) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open reads the whole spool once. Messages are addressed by 1-based
// position; mail is appended to an mbox file as it arrives, so position
// order is arrival order.
func (o *MboxOpener) Open(cfg config.Mailbox) (Session, error) {
	file, err := os.Open(cfg.SpoolPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open spool %s: %w", ErrConnection, cfg.SpoolPath, err)
	}
	defer file.Close()

	var messages [][]byte
	reader := mboxlib.NewReader(file)
	for {
		msgReader, err := reader.NextMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read spool %s: %w", cfg.SpoolPath, err)
		}
		raw, err := io.ReadAll(msgReader)
		if err != nil {
			return nil, fmt.Errorf("read spool message %d: %w", len(messages)+1, err)
		}
		messages = append(messages, raw)
	}
	o.logger.Debug("mbox spool read", "path", cfg.SpoolPath, "messages", len(messages))

	return &mboxSession{messages: messages}, nil
}

type mboxSession struct {
	messages [][]byte
}

// SelectInbox is a no-op: the spool is the inbox.
func (s *mboxSession) SelectInbox() error {
	return nil
}

func (s *mboxSession) Enumerate() ([]Summary, error) {
	summaries := make([]Summary, 0, len(s.messages))
	for i := range s.messages {
		summaries = append(summaries, Summary{UID: UID(i + 1)})
	}
	return summaries, nil
}

func (s *mboxSession) FetchBody(uid UID) ([]byte, error) {
	if uid == 0 || int(uid) > len(s.messages) {
		return nil, fmt.Errorf("%w: position %d out of range", ErrFetch, uid)
	}
	return s.messages[uid-1], nil
}

// Close is a no-op: the spool file is released as soon as Open returns.
func (s *mboxSession) Close() error {
	return nil
}
