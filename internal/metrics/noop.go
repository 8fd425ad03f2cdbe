package metrics

import "time"

// NoopSink is a no-op implementation of Sink.
// Used in tests and when metrics are disabled to avoid nil checks.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink.
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) CampaignStarted(recipients int)                         {}
func (n *NoopSink) CampaignCompleted(success, failed int, d time.Duration) {}
func (n *NoopSink) EmailSent()                                             {}
func (n *NoopSink) EmailFailed()                                           {}
func (n *NoopSink) RecipientSkipped()                                      {}
func (n *NoopSink) SubscriberAdded()                                       {}
func (n *NoopSink) SubscriberRemoved()                                     {}
