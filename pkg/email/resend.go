package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendFactory builds Resend-backed senders. The campaign credential is the
// Resend API key; the sender address must be on a domain verified with Resend.
type ResendFactory struct{}

// NewResendFactory creates a new Resend sender factory.
func NewResendFactory() *ResendFactory {
	return &ResendFactory{}
}

// NewSender validates the credentials and returns a Resend sender.
func (f *ResendFactory) NewSender(identity, credential string) (Sender, error) {
	if identity == "" {
		return nil, errors.New("resend: sender address is required")
	}
	if credential == "" {
		return nil, errors.New("resend: api key is required")
	}
	return &ResendSender{
		client: resend.NewClient(credential),
		from:   identity,
	}, nil
}

// ResendSender sends emails using the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// Send sends an email using the Resend API.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	from := s.from
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, s.from)
	}
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	_, err := s.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}

	return nil
}
