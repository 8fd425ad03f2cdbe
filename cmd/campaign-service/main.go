// Package main Email Campaign Service.
//
// HTTP service that runs bulk email campaigns: accepts a recipient roster,
// delivers personalized emails one by one, and streams progress to the
// dashboard over server-sent events.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/campaign"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/config"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/httpserver"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/metrics"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/progress"
	"github.com/navneetkhandelwal/email-campaign-dashboard/pkg/email"
)

func main() {
	cfg := config.NewFromEnv()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	senders, err := email.NewFactory(cfg.EmailProvider, cfg.SMTPHost, cfg.SMTPPort)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure email provider")
	}

	sink := metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
	store := campaign.NewStore()
	broker := progress.NewBroker(store, sink, log)
	service := campaign.NewService(ctx, store, broker, senders, sink, log, cfg.SendInterval)

	server := httpserver.New(cfg, service, log)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		if err := server.Close(); err != nil {
			log.Error().Err(err).Msg("Shutdown did not finish cleanly")
		}
	}()

	log.Info().Str("address", cfg.HTTPAddress).Str("provider", cfg.EmailProvider).Msg("Starting server")
	if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
