package handlers

import "net/http"

// outcome is the closed set of ways a retrieval can end. Each value maps to
// exactly one HTTP status and JSON body, so a partial response such as a 200
// with an empty code cannot be constructed.
type outcome interface {
	status() int
	payload() map[string]string
	kind() string
}

// success carries the extracted six-digit code.
type success struct{ code string }

func (success) status() int  { return http.StatusOK }
func (success) kind() string { return "success" }
func (o success) payload() map[string]string {
	return map[string]string{"code": o.code}
}

// forbidden: a shared secret is configured and the request did not present it.
type forbidden struct{}

func (forbidden) status() int  { return http.StatusForbidden }
func (forbidden) kind() string { return "forbidden" }
func (forbidden) payload() map[string]string {
	return map[string]string{"error": "Forbidden"}
}

// configMissing: required mailbox credentials are absent from the environment.
type configMissing struct{}

func (configMissing) status() int  { return http.StatusInternalServerError }
func (configMissing) kind() string { return "config_missing" }
func (configMissing) payload() map[string]string {
	return map[string]string{"error": "IMAP configuration missing"}
}

// noMessages: the inbox enumerated empty.
type noMessages struct{}

func (noMessages) status() int  { return http.StatusNotFound }
func (noMessages) kind() string { return "no_messages" }
func (noMessages) payload() map[string]string {
	return map[string]string{"error": "No messages"}
}

// messageNotFound: the resolved identifier could no longer be fetched.
type messageNotFound struct{}

func (messageNotFound) status() int  { return http.StatusNotFound }
func (messageNotFound) kind() string { return "message_not_found" }
func (messageNotFound) payload() map[string]string {
	return map[string]string{"error": "Latest message not found"}
}

// codeNotFound: the message decoded but contained no six-digit run.
type codeNotFound struct{}

func (codeNotFound) status() int  { return http.StatusNotFound }
func (codeNotFound) kind() string { return "code_not_found" }
func (codeNotFound) payload() map[string]string {
	return map[string]string{"error": "No 6-digit code found"}
}

// serverError: connection, protocol or parse failure, or a fault the
// pipeline recovered from.
type serverError struct{ detail string }

func (serverError) status() int  { return http.StatusInternalServerError }
func (serverError) kind() string { return "server_error" }
func (o serverError) payload() map[string]string {
	body := map[string]string{"error": "Server error"}
	if o.detail != "" {
		body["details"] = o.detail
	}
	return body
}
