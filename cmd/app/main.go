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

	"course-payments/internal/config"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/infra/analytics"
	pg "course-payments/internal/infra/db/postgres"
	"course-payments/internal/infra/identity"
	"course-payments/internal/infra/logging"
	"course-payments/internal/infra/metrics"
	"course-payments/internal/infra/notify"
	pay "course-payments/internal/infra/payment"
	red "course-payments/internal/infra/redis"
	"course-payments/internal/infra/sched"
	"course-payments/internal/infra/web"
	"course-payments/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Repositories ----
	paymentRepo := pg.NewPaymentRepo(pool)
	enrollmentRepo := pg.NewEnrollmentRepo(pool)
	courseRepo := pg.NewCourseRepo(pool)
	userRepo := pg.NewUserRepo(pool)
	outboxRepo := pg.NewOutboxRepo(pool)
	intentRepo := red.NewIntentRepo(redisClient)
	txManager := pg.NewTxManager(pool)

	// ---- Adapters ----
	clock := adapter.RealClock{}
	idClient := identity.NewClient(cfg.Identity.BaseURL, cfg.Identity.APIKey)
	mailer := notify.NewSMTPMailer(&cfg.SMTP)
	tracker := analytics.NewHTTPTracker(&cfg.Analytics, *logger)

	var mpClient adapter.MercadoPagoAPI
	if cfg.Payment.MercadoPago.AccessToken != "" {
		mpClient = pay.NewMercadoPagoClient(cfg.Payment.MercadoPago.AccessToken)
	} else {
		logger.Warn().Msg("mercadopago access token not set; gateway disabled")
	}
	var wpClient adapter.WebpayAPI
	if cfg.Payment.Webpay.CommerceCode != "" {
		wpClient = pay.NewWebpayClient(cfg.Payment.Webpay.CommerceCode, cfg.Payment.Webpay.APIKey, cfg.Payment.Webpay.Sandbox)
	} else {
		logger.Warn().Msg("webpay commerce code not set; gateway disabled")
	}

	// ---- Use cases ----
	enrollmentUC := usecase.NewEnrollmentUseCase(enrollmentRepo, clock, logger)
	guestUC := usecase.NewGuestUseCase(idClient, userRepo, logger)
	checkoutUC := usecase.NewCheckoutUseCase(paymentRepo, courseRepo, userRepo, outboxRepo, enrollmentUC, mailer, clock, logger)
	paymentUC := usecase.NewPaymentUseCase(guestUC, courseRepo, intentRepo, mpClient, wpClient, tracker, clock, cfg.Server.BaseURL, logger)

	// ---- Outbox worker ----
	worker := sched.NewOutboxWorker(cfg.Outbox.Interval, cfg.Outbox.BatchSize, txManager, outboxRepo, enrollmentUC, clock, logger)
	go func() {
		if err := worker.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("outbox worker stopped")
		}
	}()

	// ---- HTTP ----
	sessions := web.NewSessionManager(cfg.Session.Secret, !cfg.Runtime.Dev, cfg.Session.TTL)
	srv := web.NewServer(paymentUC, checkoutUC, mpClient, wpClient, intentRepo, sessions, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("bye")
}
