package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realty-payments/internal/config"
	"realty-payments/internal/domain/ports/adapter"
	payAdapters "realty-payments/internal/infra/adapters/payment"
	pg "realty-payments/internal/infra/db/postgres"
	httpinfra "realty-payments/internal/infra/http"
	"realty-payments/internal/infra/logging"
	"realty-payments/internal/infra/metrics"
	red "realty-payments/internal/infra/redis"
	"realty-payments/internal/infra/sched"
	"realty-payments/internal/infra/web"
	"realty-payments/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	tokenCache := red.NewTokenCache(redisClient, cfg.Payment.MobileMoney.TokenMargin.Std())

	// ---- Repositories ----
	payRepo := pg.NewPaymentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	listingRepo := pg.NewListingRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Provider adapters ----
	var momoGateway adapter.MobileMoneyGateway
	if cfg.Payment.MobileMoney.ClientID != "" && cfg.Payment.MobileMoney.ClientSecret != "" {
		momoGateway, err = payAdapters.NewAirtelGateway(
			cfg.Payment.MobileMoney.BaseURL,
			cfg.Payment.MobileMoney.ClientID,
			cfg.Payment.MobileMoney.ClientSecret,
			cfg.Payment.MobileMoney.Country,
			cfg.Payment.MobileMoney.Currency,
			cfg.Payment.MobileMoney.Timeout.Std(),
			tokenCache,
		)
		if err != nil {
			log.Fatalf("airtel gateway: %v", err)
		}
	} else {
		logger.Warn().Msg("mobile money credentials not configured; channel unavailable")
		momoGateway = payAdapters.NewUnavailableGateway()
	}
	cardVerifier := payAdapters.NewCardVerifier(cfg.Payment.Card.WebhookSecret)

	// ---- Use cases ----
	activationUC := usecase.NewActivationUseCase(
		subRepo, listingRepo, payRepo, tm,
		cfg.Entitlement.Plan,
		time.Duration(cfg.Entitlement.SubscriptionDays)*24*time.Hour,
		time.Duration(cfg.Entitlement.BoostDays)*24*time.Hour,
		logger,
	)
	cardUC := usecase.NewCardWebhookUseCase(payRepo, cardVerifier, activationUC, logger)
	momoUC := usecase.NewMobileMoneyUseCase(payRepo, momoGateway, activationUC, cfg.Payment.MobileMoney.Currency, logger)
	manualUC := usecase.NewManualTransferUseCase(payRepo, activationUC, cfg.Payment.Manual.RecipientAccount, logger)

	// ---- Metrics ----
	metrics.MustRegister()
	metricsServer := httpinfra.NewMetricsServer(cfg.Server.MetricsPort)
	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	// ---- Background workers ----
	reconciler := sched.NewPaymentReconciler(momoUC, payRepo, cfg.Scheduler.ReconcileInterval.Std(), cfg.Scheduler.StaleAfter.Std(), logger)
	go reconciler.Start(ctx)
	retrier := sched.NewActivationRetrier(activationUC, payRepo, cfg.Scheduler.ActivationRetry.Std(), logger)
	go retrier.Start(ctx)

	// ---- HTTP API ----
	auth := web.NewAuthManager(cfg.Server.JWTSecret, cfg.Server.SessionTTL.Std())
	server := web.NewServer(cardUC, momoUC, manualUC, auth, cfg.Runtime.Dev, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router(),
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("payment API listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("api server stopped")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
}
