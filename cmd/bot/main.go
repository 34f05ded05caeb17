package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"safarbot/internal/adapter/repo"
	"safarbot/internal/bot"
	"safarbot/internal/bot/telegram"
	"safarbot/internal/events"
	eventskafka "safarbot/internal/events/kafka"
	"safarbot/internal/infra"
	"safarbot/internal/intake"
	"safarbot/internal/ledger"
	"safarbot/internal/matching"
	"safarbot/internal/reconcile"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if err := infra.EnsureSchema(ctx, dbpool); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	requesters := repo.NewRequesterRepository(dbpool)
	pledges := repo.NewPledgeRepository(dbpool)

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := eventskafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka publisher enabled")
	}

	ledgerSvc := ledger.NewService(requesters, pledges, publisher, logger)
	intakeSvc := intake.NewService(requesters)
	lister := matching.NewLister(requesters, cfg.PageSize)

	tg := telegram.NewClient(cfg.BotToken, logger)
	handler := bot.New(tg, intakeSvc, ledgerSvc, lister, requesters, cfg.MaxPendingPledges, logger)

	// Liveness endpoint for the deployment platform.
	server := infra.NewHTTPServer(cfg, infra.NewHealthRouter())
	go func() {
		logger.Info().Msgf("health endpoint listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	scheduler := cron.New()
	reconciler := reconcile.New(requesters, logger)
	if err := reconciler.Schedule(scheduler, cfg.ReconcileCron); err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.ReconcileCron).Msg("invalid reconcile cron spec")
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info().Msg("bot polling for updates")
	poller := telegram.NewPoller(tg, handler, cfg.PollTimeout, logger)
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("poller stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("bot stopped")
}
