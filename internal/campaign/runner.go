package campaign

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/metrics"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/progress"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/render"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/roster"
	"github.com/navneetkhandelwal/email-campaign-dashboard/pkg/email"
)

// Runner executes one campaign's delivery loop: render, send, count, pause,
// repeat. Exactly one Runner invocation exists per sender at a time; the
// store's Create guard enforces that.
type Runner struct {
	store   *Store
	broker  *progress.Broker
	senders email.Factory
	metrics metrics.Sink
	log     zerolog.Logger

	// interval is the pause between sends so the mail provider does not flag
	// the sender address for abuse.
	interval time.Duration
}

// NewRunner wires a delivery loop over the given store and broker.
func NewRunner(store *Store, broker *progress.Broker, senders email.Factory, m metrics.Sink, log zerolog.Logger, interval time.Duration) *Runner {
	return &Runner{
		store:    store,
		broker:   broker,
		senders:  senders,
		metrics:  m,
		log:      log.With().Str("component", "runner").Logger(),
		interval: interval,
	}
}

// Run processes the sender's job to completion and removes it from the store.
// Per-recipient failures never stop the loop; only sender construction
// failure aborts the whole batch.
func (r *Runner) Run(ctx context.Context, sender string) {
	job, ok := r.store.Get(sender)
	if !ok {
		return
	}
	start := time.Now()
	total := job.Total
	log := r.log.With().Str("sender", sender).Str("job", job.ID.String()).Logger()

	sndr, err := r.senders.NewSender(sender, job.credential)
	if err != nil {
		// Setup failure: every recipient counts as failed, nothing is attempted.
		log.Error().Err(err).Msg("delivery setup failed")
		r.broker.Publish(sender, progress.Log("Failed to set up email delivery: %v", err))
		r.broker.Publish(sender, progress.Complete(0, total))
		r.store.Remove(sender)
		r.metrics.CampaignCompleted(0, total, time.Since(start))
		return
	}

	r.store.Update(sender, func(j *Job) { j.State = StateProcessing })
	log.Info().Int("total", total).Msg("campaign started")
	r.broker.Publish(sender, progress.Log("Starting campaign: %d recipients", total))

	success, failed := 0, 0
	for i, rec := range job.Recipients {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("processed", i).Msg("campaign aborted")
			r.broker.Publish(sender, progress.Log("Campaign aborted after %d of %d recipients", i, total))
			break
		}

		current := i + 1
		to := rec.Get(roster.FieldEmail)
		if missing := rec.MissingFields(); len(missing) > 0 {
			failed++
			r.metrics.RecipientSkipped()
			r.broker.Publish(sender, progress.Log("Skipping recipient %d: missing %s", current, strings.Join(missing, ", ")))
		} else if msg, err := composeMessage(job, rec); err != nil {
			failed++
			r.metrics.EmailFailed()
			r.broker.Publish(sender, progress.Log("Failed to render email for %s: %v", to, err))
		} else if err := sndr.Send(ctx, msg); err != nil {
			failed++
			r.metrics.EmailFailed()
			log.Warn().Err(err).Str("to", to).Msg("send failed")
			r.broker.Publish(sender, progress.Log("Failed to send to %s: %v", to, err))
		} else {
			success++
			r.metrics.EmailSent()
			r.broker.Publish(sender, progress.Log("Sent to %s (%d/%d)", to, current, total))
		}

		// Counters reach the store through the broker's write-back, so that
		// subscribe-time replay always matches the last published event.
		r.broker.Publish(sender, progress.Progress(total, current, success, failed))

		if current < total {
			r.pause(ctx)
		}
	}

	r.broker.Publish(sender, progress.Complete(success, failed))
	r.store.Remove(sender)
	r.metrics.CampaignCompleted(success, failed, time.Since(start))

	ev := log.Info()
	if failed > 0 {
		ev = log.Warn()
	}
	ev.Int("success", success).Int("failed", failed).Dur("took", time.Since(start)).Msg("campaign finished")
}

func (r *Runner) pause(ctx context.Context) {
	t := time.NewTimer(r.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func composeMessage(job Job, rec roster.Record) (email.Message, error) {
	rendered, err := render.Render(job.Template, job.CustomBody, rec)
	if err != nil {
		return email.Message{}, err
	}
	return email.Message{
		To:       rec.Get(roster.FieldEmail),
		FromName: rendered.FromName,
		Subject:  rendered.Subject,
		HTML:     rendered.HTML,
	}, nil
}
