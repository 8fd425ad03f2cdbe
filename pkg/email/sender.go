// Package email provides email sending functionality with pluggable providers.
package email

import "context"

// Message represents an email message to be sent.
type Message struct {
	To       string
	FromName string // display name on the From header
	Subject  string
	HTML     string
	Text     string // Plain text fallback
}

// Sender is the interface for email providers.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Factory builds a Sender for a single campaign from the sender's address and
// its opaque credential (an SMTP app password, an API key, ...). A
// construction error means nothing can be delivered for that campaign.
type Factory interface {
	NewSender(identity, credential string) (Sender, error)
}
