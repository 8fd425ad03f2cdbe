package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/metrics"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/progress"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/render"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/roster"
	"github.com/navneetkhandelwal/email-campaign-dashboard/pkg/email"
)

var (
	ErrMissingSender     = errors.New("campaign: sender email is required")
	ErrMissingCredential = errors.New("campaign: sender credential is required")
	ErrEmptyRecipients   = errors.New("campaign: recipient list is empty")
)

// StartRequest is everything needed to launch one campaign.
type StartRequest struct {
	Sender     string
	Credential string
	Template   render.Selector
	CustomBody string
	Recipients []roster.Record
}

// StartResult is returned to the caller immediately; delivery happens in the
// background.
type StartResult struct {
	JobID uuid.UUID
	Total int
}

// Service is the public entry point of the campaign core. It owns the job
// store and broker and schedules one delivery loop per accepted job.
type Service struct {
	store   *Store
	broker  *progress.Broker
	runner  *Runner
	metrics metrics.Sink
	log     zerolog.Logger

	// runCtx outlives individual HTTP requests; delivery loops stop when it
	// is cancelled at shutdown.
	runCtx context.Context
}

// NewService builds the campaign core. runCtx bounds the lifetime of all
// delivery loops.
func NewService(runCtx context.Context, store *Store, broker *progress.Broker, senders email.Factory, m metrics.Sink, log zerolog.Logger, interval time.Duration) *Service {
	return &Service{
		store:   store,
		broker:  broker,
		runner:  NewRunner(store, broker, senders, m, log, interval),
		metrics: m,
		log:     log.With().Str("component", "campaign").Logger(),
		runCtx:  runCtx,
	}
}

// Start validates the request, creates the job, and schedules its delivery
// loop. It returns before any delivery is attempted. Validation failures and
// duplicate starts are the only synchronous errors; everything that happens
// during delivery is reported through the progress stream.
func (s *Service) Start(ctx context.Context, req StartRequest) (StartResult, error) {
	if req.Sender == "" {
		return StartResult{}, ErrMissingSender
	}
	if req.Credential == "" {
		return StartResult{}, ErrMissingCredential
	}
	if len(req.Recipients) == 0 {
		return StartResult{}, ErrEmptyRecipients
	}
	if err := render.Validate(req.Template, req.CustomBody); err != nil {
		return StartResult{}, fmt.Errorf("campaign: %w", err)
	}

	job := &Job{
		ID:         uuid.New(),
		Sender:     req.Sender,
		Template:   req.Template,
		CustomBody: req.CustomBody,
		Recipients: req.Recipients,
		State:      StatePreparing,
		Total:      len(req.Recipients),
		credential: req.Credential,
	}
	if err := s.store.Create(job); err != nil {
		return StartResult{}, err
	}

	s.metrics.CampaignStarted(job.Total)
	s.log.Info().Str("sender", req.Sender).Str("job", job.ID.String()).Int("total", job.Total).Msg("campaign accepted")

	go s.runner.Run(s.runCtx, req.Sender)

	return StartResult{JobID: job.ID, Total: job.Total}, nil
}

// Subscribe registers a sink for the sender's progress events, replaying the
// current snapshot when a job is in flight.
func (s *Service) Subscribe(sender string, sink progress.Sink) progress.Subscription {
	return s.broker.Subscribe(sender, sink)
}

// Unsubscribe removes a subscription created by Subscribe.
func (s *Service) Unsubscribe(sub progress.Subscription) {
	s.broker.Unsubscribe(sub)
}
