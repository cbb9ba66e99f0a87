package mailbox

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/knadh/go-pop3"

	"github.com/2ffacde/latest-code-fetcher/internal/config"
)

type pop3Conn interface {
	Auth(user, password string) error
	Quit() error
	Uidl(msgID int) ([]pop3.MessageID, error)
	RetrRaw(msgID int) (*bytes.Buffer, error)
}

// POP3Opener dials POP3/POP3S mailboxes.
type POP3Opener struct {
	logger  *slog.Logger
	newConn func(config.Mailbox) (pop3Conn, error)
}

// POP3Option customizes opener behavior.
type POP3Option func(*POP3Opener)

// NewPOP3Opener returns an opener for POP3 mailboxes.
func NewPOP3Opener(opts ...POP3Option) *POP3Opener {
	o := &POP3Opener{logger: slog.Default()}
	o.newConn = defaultPOP3Conn
	for _, opt := range opts {
		opt(o)
	}
	if o.newConn == nil {
		o.newConn = defaultPOP3Conn
	}
	return o
}

// WithPOP3Logger overrides the logger used for session diagnostics.
func WithPOP3Logger(logger *slog.Logger) POP3Option {
	return func(o *POP3Opener) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func withPOP3ConnFactory(factory func(config.Mailbox) (pop3Conn, error)) POP3Option {
	return func(o *POP3Opener) {
		o.newConn = factory
	}
}

// Open dials the server and authenticates.
func (o *POP3Opener) Open(cfg config.Mailbox) (Session, error) {
	conn, err := o.newConn(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnection, cfg.Address(), err)
	}
	if err := conn.Auth(cfg.User, cfg.Secret); err != nil {
		if quitErr := conn.Quit(); quitErr != nil {
			o.logger.Debug("pop3 quit after failed auth", "err", quitErr)
		}
		return nil, fmt.Errorf("%w: auth %s: %w", ErrConnection, cfg.User, err)
	}
	return &pop3Session{conn: conn}, nil
}

func defaultPOP3Conn(cfg config.Mailbox) (pop3Conn, error) {
	client := pop3.New(pop3.Opt{
		Host:        cfg.Host,
		Port:        cfg.Port,
		DialTimeout: cfg.AuthTimeout,
		TLSEnabled:  cfg.UseTLS,
	})
	return client.NewConn()
}

type pop3Session struct {
	conn pop3Conn
}

// SelectInbox is a no-op: POP3 exposes a single spool.
func (s *pop3Session) SelectInbox() error {
	return nil
}

// Enumerate lists message numbers. The server hands them out in spool
// order, so the highest number is the most recently delivered message.
func (s *pop3Session) Enumerate() ([]Summary, error) {
	msgs, err := s.conn.Uidl(0)
	if err != nil {
		return nil, fmt.Errorf("pop3 uidl: %w", err)
	}
	summaries := make([]Summary, 0, len(msgs))
	for _, meta := range msgs {
		summaries = append(summaries, Summary{UID: UID(meta.ID)})
	}
	return summaries, nil
}

func (s *pop3Session) FetchBody(uid UID) ([]byte, error) {
	payload, err := s.conn.RetrRaw(int(uid))
	if err != nil {
		return nil, fmt.Errorf("%w: message %d: %w", ErrFetch, uid, err)
	}
	return append([]byte(nil), payload.Bytes()...), nil
}

func (s *pop3Session) Close() error {
	if err := s.conn.Quit(); err != nil {
		return fmt.Errorf("pop3 quit: %w", err)
	}
	return nil
}
