package email

import (
	"context"
	"log"
)

// LogFactory builds LogSenders regardless of credentials.
// Useful for development and testing.
type LogFactory struct{}

// NewLogFactory creates a factory for log-based senders.
func NewLogFactory() *LogFactory {
	return &LogFactory{}
}

// NewSender returns a sender that logs instead of sending.
func (f *LogFactory) NewSender(identity, credential string) (Sender, error) {
	return &LogSender{}, nil
}

// LogSender logs emails to stdout instead of sending them.
type LogSender struct{}

// NewLogSender creates a new log-based email sender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the email details to stdout.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	log.Printf(`
================================================================================
EMAIL (dev mode - not actually sent)
================================================================================
From:    %s
To:      %s
Subject: %s
--------------------------------------------------------------------------------
%s
================================================================================
`, msg.FromName, msg.To, msg.Subject, msg.HTML)
	return nil
}
