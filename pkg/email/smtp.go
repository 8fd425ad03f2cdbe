package email

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
)

// SMTPFactory builds SMTP senders authenticated with the campaign sender's
// own address and app password.
type SMTPFactory struct {
	host string
	port string
}

// NewSMTPFactory creates a factory for the given relay, e.g. smtp.gmail.com:587.
func NewSMTPFactory(host, port string) *SMTPFactory {
	return &SMTPFactory{host: host, port: port}
}

// NewSender validates the credentials and returns an SMTP sender. Validation
// failures here abort the whole campaign before any delivery is attempted.
func (f *SMTPFactory) NewSender(identity, credential string) (Sender, error) {
	if identity == "" {
		return nil, errors.New("smtp: sender address is required")
	}
	if !strings.Contains(identity, "@") {
		return nil, fmt.Errorf("smtp: sender address %q is not an email address", identity)
	}
	if credential == "" {
		return nil, errors.New("smtp: app password is required")
	}
	return &SMTPSender{
		addr: net.JoinHostPort(f.host, f.port),
		auth: smtp.PlainAuth("", identity, credential, f.host),
		from: identity,
	}, nil
}

// SMTPSender sends emails through a standard SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

// Send transmits a single message. There is no timeout on the relay call; a
// hung relay stalls the calling loop.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{msg.To}, buildMIME(s.from, msg)); err != nil {
		return fmt.Errorf("smtp: failed to send to %s: %w", msg.To, err)
	}
	return nil
}

// buildMIME assembles an RFC 5322 message with an HTML body. Non-ASCII
// display names and subjects are Q-encoded.
func buildMIME(from string, msg Message) []byte {
	var b strings.Builder
	fromHeader := from
	if msg.FromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", msg.FromName), from)
	}
	fmt.Fprintf(&b, "From: %s\r\n", fromHeader)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
