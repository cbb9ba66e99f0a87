package mailbox

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/2ffacde/latest-code-fetcher/internal/config"
)

type imapConn interface {
	Login(username, password string) commandWaiter
	Logout() commandWaiter
	Close() error
	Select(mailbox string, options *imap.SelectOptions) selectWaiter
	UIDSearch(criteria *imap.SearchCriteria, options *imap.SearchOptions) searchWaiter
	Fetch(numSet imap.NumSet, options *imap.FetchOptions) fetchWaiter
}

type commandWaiter interface{ Wait() error }
type selectWaiter interface {
	Wait() (*imap.SelectData, error)
}
type searchWaiter interface {
	Wait() (*imap.SearchData, error)
}
type fetchWaiter interface {
	Collect() ([]*imapclient.FetchMessageBuffer, error)
}

// IMAPOpener dials IMAP/IMAPS mailboxes.
type IMAPOpener struct {
	logger  *slog.Logger
	newConn func(config.Mailbox) (imapConn, error)
}

// IMAPOption customizes opener behavior.
type IMAPOption func(*IMAPOpener)

// NewIMAPOpener returns an opener for IMAP mailboxes.
func NewIMAPOpener(opts ...IMAPOption) *IMAPOpener {
	o := &IMAPOpener{logger: slog.Default()}
	o.newConn = defaultIMAPConn
	for _, opt := range opts {
		opt(o)
	}
	if o.newConn == nil {
		o.newConn = defaultIMAPConn
	}
	return o
}

// WithIMAPLogger overrides the logger used for session diagnostics.
func WithIMAPLogger(logger *slog.Logger) IMAPOption {
	return func(o *IMAPOpener) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func withIMAPConnFactory(factory func(config.Mailbox) (imapConn, error)) IMAPOption {
	return func(o *IMAPOpener) {
		o.newConn = factory
	}
}

// Open dials the server and authenticates. The returned session holds the
// only reference to the connection.
func (o *IMAPOpener) Open(cfg config.Mailbox) (Session, error) {
	conn, err := o.newConn(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnection, cfg.Address(), err)
	}
	if err := conn.Login(cfg.User, cfg.Secret).Wait(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			o.logger.Debug("imap close after failed login", "err", closeErr)
		}
		return nil, fmt.Errorf("%w: login %s: %w", ErrConnection, cfg.User, err)
	}
	return &imapSession{conn: conn}, nil
}

func defaultIMAPConn(cfg config.Mailbox) (imapConn, error) {
	opts := &imapclient.Options{Dialer: &net.Dialer{Timeout: cfg.AuthTimeout}}
	var client *imapclient.Client
	var err error
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{ServerName: cfg.Host}
		client, err = imapclient.DialTLS(cfg.Address(), opts)
	} else {
		client, err = imapclient.DialInsecure(cfg.Address(), opts)
	}
	if err != nil {
		return nil, err
	}
	return &imapConnWrapper{Client: client}, nil
}

type imapConnWrapper struct{ *imapclient.Client }

func (w *imapConnWrapper) Login(username, password string) commandWaiter {
	return w.Client.Login(username, password)
}
func (w *imapConnWrapper) Logout() commandWaiter { return w.Client.Logout() }
func (w *imapConnWrapper) Select(mailbox string, options *imap.SelectOptions) selectWaiter {
	return w.Client.Select(mailbox, options)
}
func (w *imapConnWrapper) UIDSearch(criteria *imap.SearchCriteria, options *imap.SearchOptions) searchWaiter {
	return w.Client.UIDSearch(criteria, options)
}
func (w *imapConnWrapper) Fetch(numSet imap.NumSet, options *imap.FetchOptions) fetchWaiter {
	return w.Client.Fetch(numSet, options)
}

type imapSession struct {
	conn imapConn
}

// SelectInbox examines INBOX read-only so the session never mutates flags.
func (s *imapSession) SelectInbox() error {
	if _, err := s.conn.Select("INBOX", &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return fmt.Errorf("imap select INBOX: %w", err)
	}
	return nil
}

func (s *imapSession) Enumerate() ([]Summary, error) {
	data, err := s.conn.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	uids := data.AllUIDs()
	summaries := make([]Summary, 0, len(uids))
	for _, uid := range uids {
		summaries = append(summaries, Summary{UID: UID(uid)})
	}
	return summaries, nil
}

func (s *imapSession) FetchBody(uid UID) ([]byte, error) {
	section := &imap.FetchItemBodySection{Peek: true}
	opts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}
	bufs, err := s.conn.Fetch(imap.UIDSetNum(imap.UID(uid)), opts).Collect()
	if err != nil {
		return nil, fmt.Errorf("%w: uid %d: %w", ErrFetch, uid, err)
	}
	for _, buf := range bufs {
		if body := buf.FindBodySection(section); body != nil {
			return append([]byte(nil), body...), nil
		}
	}
	return nil, fmt.Errorf("%w: uid %d returned no body", ErrFetch, uid)
}

// Close logs out and tears down the connection. The server may drop the
// socket after LOGOUT, so a close error after a clean logout is expected.
func (s *imapSession) Close() error {
	logoutErr := s.conn.Logout().Wait()
	closeErr := s.conn.Close()
	if logoutErr != nil {
		return fmt.Errorf("imap logout: %w", logoutErr)
	}
	if closeErr != nil {
		return fmt.Errorf("imap close: %w", closeErr)
	}
	return nil
}
