package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearMailboxEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"IMAP_HOST", "IMAP_USER", "IMAP_PASS", "IMAP_PORT",
		"IMAP_TLS", "IMAP_TIMEOUT_MS", "MAIL_PROTOCOL", "MAILBOX_FILE", "MY_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearMailboxEnv(t)
	t.Setenv("IMAP_HOST", "mail.example.com")
	t.Setenv("IMAP_USER", "otp@example.com")
	t.Setenv("IMAP_PASS", "hunter2")

	inv := FromEnv()

	assert.Empty(t, inv.APIKey)
	assert.Equal(t, ProtocolIMAP, inv.Mailbox.Protocol)
	assert.Equal(t, "mail.example.com", inv.Mailbox.Host)
	assert.Equal(t, 993, inv.Mailbox.Port)
	assert.True(t, inv.Mailbox.UseTLS)
	assert.Equal(t, 10*time.Second, inv.Mailbox.AuthTimeout)
	assert.Equal(t, "mail.example.com:993", inv.Mailbox.Address())
	require.NoError(t, inv.Mailbox.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	clearMailboxEnv(t)
	t.Setenv("IMAP_HOST", "mail.example.com")
	t.Setenv("IMAP_USER", "otp@example.com")
	t.Setenv("IMAP_PASS", "hunter2")
	t.Setenv("IMAP_PORT", "1430")
	t.Setenv("IMAP_TLS", "false")
	t.Setenv("IMAP_TIMEOUT_MS", "2500")
	t.Setenv("MAIL_PROTOCOL", "POP3")
	t.Setenv("MY_API_KEY", "sekrit")

	inv := FromEnv()

	assert.Equal(t, "sekrit", inv.APIKey)
	assert.Equal(t, ProtocolPOP3, inv.Mailbox.Protocol)
	assert.Equal(t, 1430, inv.Mailbox.Port)
	assert.False(t, inv.Mailbox.UseTLS)
	assert.Equal(t, 2500*time.Millisecond, inv.Mailbox.AuthTimeout)
}

func TestFromEnvDefaultPorts(t *testing.T) {
	tests := []struct {
		name     string
		protocol string
		tls      string
		want     int
	}{
		{"imap tls", "imap", "true", 993},
		{"imap plain", "imap", "false", 143},
		{"pop3 tls", "pop3", "true", 995},
		{"pop3 plain", "pop3", "false", 110},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearMailboxEnv(t)
			t.Setenv("MAIL_PROTOCOL", tt.protocol)
			t.Setenv("IMAP_TLS", tt.tls)

			inv := FromEnv()
			assert.Equal(t, tt.want, inv.Mailbox.Port)
		})
	}
}

func TestMailboxValidate(t *testing.T) {
	valid := Mailbox{
		Protocol: ProtocolIMAP,
		Host:     "mail.example.com",
		Port:     993,
		User:     "otp@example.com",
		Secret:   "hunter2",
		UseTLS:   true,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Mailbox)
	}{
		{"missing host", func(m *Mailbox) { m.Host = "" }},
		{"missing user", func(m *Mailbox) { m.User = "" }},
		{"missing secret", func(m *Mailbox) { m.Secret = "" }},
		{"port out of range", func(m *Mailbox) { m.Port = 70000 }},
		{"unknown protocol", func(m *Mailbox) { m.Protocol = "nntp" }},
		{"mbox without spool", func(m *Mailbox) { m.Protocol = ProtocolMbox; m.SpoolPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)

			err := m.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrIncomplete)
		})
	}
}

func TestMailboxValidateMbox(t *testing.T) {
	m := Mailbox{Protocol: ProtocolMbox, SpoolPath: "/var/mail/otp"}
	require.NoError(t, m.Validate())
}

func TestServerFromEnv(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("AUDIT_DB_PATH", "/tmp/audit.db")

	srv := ServerFromEnv()

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, "debug", srv.LogLevel)
	assert.Equal(t, "/tmp/audit.db", srv.AuditPath)
}
