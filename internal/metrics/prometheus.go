package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// Registration errors are logged but never propagated; a collector that fails
// to register still works, it just isn't scraped.
type PrometheusSink struct {
	campaignsStarted   prometheus.Counter
	campaignsCompleted prometheus.Counter
	campaignRecipients prometheus.Histogram
	campaignDuration   prometheus.Histogram
	emailsSent         prometheus.Counter
	emailsFailed       prometheus.Counter
	recipientsSkipped  prometheus.Counter
	subscribers        prometheus.Gauge
}

// NewPrometheusSink creates a new Prometheus metrics sink registered on reg.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{
		campaignsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campaign_jobs_started_total",
			Help: "Total number of campaign jobs accepted.",
		}),
		campaignsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campaign_jobs_completed_total",
			Help: "Total number of campaign jobs that ran to completion.",
		}),
		campaignRecipients: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "campaign_batch_size_recipients",
			Help:    "Recipient count per campaign job.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		campaignDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "campaign_batch_duration_seconds",
			Help:    "Wall-clock duration of each campaign job in seconds.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		}),
		emailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campaign_emails_sent_total",
			Help: "Total number of emails delivered successfully.",
		}),
		emailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campaign_emails_failed_total",
			Help: "Total number of emails that failed to render or send.",
		}),
		recipientsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campaign_recipients_skipped_total",
			Help: "Total number of recipients skipped for missing required fields.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "campaign_progress_subscribers",
			Help: "Currently connected progress stream subscribers.",
		}),
	}

	register(reg, s.campaignsStarted, "campaign_jobs_started_total")
	register(reg, s.campaignsCompleted, "campaign_jobs_completed_total")
	register(reg, s.campaignRecipients, "campaign_batch_size_recipients")
	register(reg, s.campaignDuration, "campaign_batch_duration_seconds")
	register(reg, s.emailsSent, "campaign_emails_sent_total")
	register(reg, s.emailsFailed, "campaign_emails_failed_total")
	register(reg, s.recipientsSkipped, "campaign_recipients_skipped_total")
	register(reg, s.subscribers, "campaign_progress_subscribers")

	return s
}

func register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

func (s *PrometheusSink) CampaignStarted(recipients int) {
	s.campaignsStarted.Inc()
	s.campaignRecipients.Observe(float64(recipients))
}

func (s *PrometheusSink) CampaignCompleted(success, failed int, duration time.Duration) {
	s.campaignsCompleted.Inc()
	s.campaignDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) EmailSent()         { s.emailsSent.Inc() }
func (s *PrometheusSink) EmailFailed()       { s.emailsFailed.Inc() }
func (s *PrometheusSink) RecipientSkipped()  { s.recipientsSkipped.Inc() }
func (s *PrometheusSink) SubscriberAdded()   { s.subscribers.Inc() }
func (s *PrometheusSink) SubscriberRemoved() { s.subscribers.Dec() }
