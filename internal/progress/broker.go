package progress

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/metrics"
)

// Sink receives events for one subscriber. Implementations are called from
// the delivery loop's goroutine and must be safe for that.
type Sink interface {
	Send(ev Event) error
}

// Snapshots provides the current counters of a sender's in-flight job.
// Implemented by the campaign job store.
type Snapshots interface {
	// Snapshot returns the current progress counters, or false when the
	// sender has no job.
	Snapshot(sender string) (ProgressEvent, bool)
	// RecordProgress writes published counters back so that snapshot replay
	// stays consistent with the event stream.
	RecordProgress(sender string, ev ProgressEvent)
}

// Subscription identifies one registered sink so it can be removed later.
type Subscription struct {
	ID     uuid.UUID
	Sender string
}

// Broker is the subscriber registry and fan-out point. One broker serves the
// whole process; subscriptions are keyed by the sender identity they observe.
type Broker struct {
	jobs    Snapshots
	metrics metrics.Sink
	log     zerolog.Logger

	mu   sync.RWMutex
	subs map[string]map[uuid.UUID]Sink
}

// NewBroker creates an empty broker backed by the given job snapshots.
func NewBroker(jobs Snapshots, m metrics.Sink, log zerolog.Logger) *Broker {
	return &Broker{
		jobs:    jobs,
		metrics: m,
		log:     log.With().Str("component", "progress").Logger(),
		subs:    make(map[string]map[uuid.UUID]Sink),
	}
}

// Subscribe registers a sink for a sender's events. If the sender has a job
// in flight, the sink immediately receives one progress snapshot so late
// joiners see the current counters without waiting for the next recipient.
func (b *Broker) Subscribe(sender string, sink Sink) Subscription {
	sub := Subscription{ID: uuid.New(), Sender: sender}

	b.mu.Lock()
	if b.subs[sender] == nil {
		b.subs[sender] = make(map[uuid.UUID]Sink)
	}
	b.subs[sender][sub.ID] = sink
	b.mu.Unlock()

	b.metrics.SubscriberAdded()
	b.log.Debug().Str("sender", sender).Str("subscription", sub.ID.String()).Msg("subscriber registered")

	if snap, ok := b.jobs.Snapshot(sender); ok {
		if err := sink.Send(snap); err != nil {
			b.log.Warn().Err(err).Str("sender", sender).Msg("snapshot replay failed")
		}
	}
	return sub
}

// Unsubscribe removes a previously registered sink. Unknown subscriptions are
// ignored.
func (b *Broker) Unsubscribe(sub Subscription) {
	removed := false
	b.mu.Lock()
	if sinks := b.subs[sub.Sender]; sinks != nil {
		if _, ok := sinks[sub.ID]; ok {
			delete(sinks, sub.ID)
			removed = true
		}
		if len(sinks) == 0 {
			delete(b.subs, sub.Sender)
		}
	}
	b.mu.Unlock()

	if removed {
		b.metrics.SubscriberRemoved()
		b.log.Debug().Str("sender", sub.Sender).Str("subscription", sub.ID.String()).Msg("subscriber removed")
	}
}

// Publish fans an event out to every sink currently registered for the
// sender. Progress events are also written back into the job store so that
// subscribe-time replay matches what subscribers have seen.
func (b *Broker) Publish(sender string, ev Event) {
	if pe, ok := ev.(ProgressEvent); ok {
		b.jobs.RecordProgress(sender, pe)
	}

	// Snapshot the sinks so Send runs without holding the lock.
	b.mu.RLock()
	sinks := make([]Sink, 0, len(b.subs[sender]))
	for _, s := range b.subs[sender] {
		sinks = append(sinks, s)
	}
	b.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Send(ev); err != nil {
			b.log.Warn().Err(err).Str("sender", sender).Str("kind", ev.Kind()).Msg("event delivery failed")
		}
	}
}
