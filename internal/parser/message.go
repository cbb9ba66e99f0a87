package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Register additional charsets that are commonly used in emails
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// Decode parses a raw RFC 5322 message and extracts its plain-text and HTML
// bodies. The mail reader undoes transfer encodings and charsets on the way
// out. Parts that cannot be read are skipped so a damaged part costs its own
// content, not the whole message; only input the reader rejects outright
// returns an error.
func Decode(raw []byte) (*DecodedMessage, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create mail reader: %w", err)
	}

	decoded := &DecodedMessage{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Keep whatever bodies were collected before the broken part.
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := header.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		if strings.HasPrefix(contentType, "text/plain") {
			// Multipart messages carry both; the first text part is the body.
			if decoded.Text == "" {
				decoded.Text = string(body)
			}
		} else if strings.HasPrefix(contentType, "text/html") {
			decoded.HTML = string(body)
		}
	}

	return decoded, nil
}
