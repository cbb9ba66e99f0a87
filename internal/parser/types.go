package parser

// DecodedMessage holds the readable bodies of one message. Either field may
// be empty; a message with no text parts decodes to two empty strings.
type DecodedMessage struct {
	Text string
	HTML string
}
