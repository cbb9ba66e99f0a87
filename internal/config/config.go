package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Protocols accepted in MAIL_PROTOCOL.
const (
	ProtocolIMAP = "imap"
	ProtocolPOP3 = "pop3"
	ProtocolMbox = "mbox"
)

// ErrIncomplete reports that required mailbox settings are absent.
var ErrIncomplete = errors.New("mailbox configuration incomplete")

// Mailbox describes the mailbox a single invocation will poll. It is built
// fresh from the environment for every request and passed by value; nothing
// below the handler reads the environment directly.
type Mailbox struct {
	Protocol    string
	Host        string
	Port        int
	User        string
	Secret      string
	UseTLS      bool
	AuthTimeout time.Duration

	// SpoolPath is the mbox file to read when Protocol is "mbox".
	SpoolPath string
}

// Invocation carries everything one request needs.
type Invocation struct {
	// APIKey guards the endpoint. Empty disables the check.
	APIKey  string
	Mailbox Mailbox
}

// Server holds process-level settings, read once at startup.
type Server struct {
	Addr      string
	LogLevel  string
	AuditPath string
}

// FromEnv builds the per-invocation configuration from the environment:
// IMAP_HOST, IMAP_USER, IMAP_PASS, IMAP_PORT, IMAP_TLS, IMAP_TIMEOUT_MS,
// MAIL_PROTOCOL, MAILBOX_FILE and MY_API_KEY. It never fails; completeness
// is checked separately by Validate so callers can authenticate the request
// before reporting configuration problems.
func FromEnv() Invocation {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("mail_protocol", ProtocolIMAP)
	v.SetDefault("imap_tls", true)
	v.SetDefault("imap_timeout_ms", 10000)

	protocol := strings.ToLower(v.GetString("mail_protocol"))
	useTLS := v.GetBool("imap_tls")

	port := v.GetInt("imap_port")
	if port == 0 {
		port = defaultPort(protocol, useTLS)
	}

	return Invocation{
		APIKey: v.GetString("my_api_key"),
		Mailbox: Mailbox{
			Protocol:    protocol,
			Host:        v.GetString("imap_host"),
			Port:        port,
			User:        v.GetString("imap_user"),
			Secret:      v.GetString("imap_pass"),
			UseTLS:      useTLS,
			AuthTimeout: time.Duration(v.GetInt("imap_timeout_ms")) * time.Millisecond,
			SpoolPath:   v.GetString("mailbox_file"),
		},
	}
}

// ServerFromEnv reads the process-level settings: LISTEN_ADDR, LOG_LEVEL
// and AUDIT_DB_PATH.
func ServerFromEnv() Server {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")

	return Server{
		Addr:      v.GetString("listen_addr"),
		LogLevel:  strings.ToLower(v.GetString("log_level")),
		AuditPath: v.GetString("audit_db_path"),
	}
}

// Validate reports whether the mailbox can be opened at all. A failure here
// means the deployment is misconfigured, not that the request is at fault.
func (m Mailbox) Validate() error {
	switch m.Protocol {
	case ProtocolIMAP, ProtocolPOP3:
		if m.Host == "" || m.User == "" || m.Secret == "" {
			return fmt.Errorf("%w: IMAP_HOST, IMAP_USER and IMAP_PASS must be set", ErrIncomplete)
		}
		if m.Port <= 0 || m.Port > 65535 {
			return fmt.Errorf("%w: port %d out of range", ErrIncomplete, m.Port)
		}
	case ProtocolMbox:
		if m.SpoolPath == "" {
			return fmt.Errorf("%w: MAILBOX_FILE must be set for the mbox protocol", ErrIncomplete)
		}
	default:
		return fmt.Errorf("%w: unknown protocol %q", ErrIncomplete, m.Protocol)
	}
	return nil
}

// Address returns the host:port to dial.
func (m Mailbox) Address() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

func defaultPort(protocol string, useTLS bool) int {
	switch {
	case protocol == ProtocolPOP3 && useTLS:
		return 995
	case protocol == ProtocolPOP3:
		return 110
	case useTLS:
		return 993
	default:
		return 143
	}
}
