// Package otp extracts one-time codes from decoded message bodies.
package otp

import "regexp"

// codeRegex matches a run of exactly six decimal digits on word boundaries.
// A longer digit run has no boundary between its digits, so nothing inside
// "1234567" qualifies.
var codeRegex = regexp.MustCompile(`\b\d{6}\b`)

// FirstCode scans the text body followed by the HTML body and returns the
// first six-digit code found. The bodies are joined with a newline so a
// digit run ending one body cannot fuse with a run starting the next.
func FirstCode(text, html string) (string, bool) {
	code := codeRegex.FindString(text + "\n" + html)
	if code == "" {
		return "", false
	}
	return code, true
}
