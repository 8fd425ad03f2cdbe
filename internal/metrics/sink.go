// Package metrics records operational counters behind a small sink interface
// so the core packages never depend on a metrics backend directly.
package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or
// propagate errors.
type Sink interface {
	// Campaign lifecycle
	CampaignStarted(recipients int)
	CampaignCompleted(success, failed int, duration time.Duration)

	// Per-recipient outcomes
	EmailSent()
	EmailFailed()
	RecipientSkipped()

	// Progress stream
	SubscriberAdded()
	SubscriberRemoved()
}
