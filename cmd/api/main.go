package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paysync/internal/config"
	"paysync/internal/domain/payment"
	httpx "paysync/internal/http"
	"paysync/internal/provider/stripe"
	eventsvc "paysync/internal/services/event"
	paymentsvc "paysync/internal/services/payment"
	"paysync/internal/store/memory"
	"paysync/internal/store/postgres"
	"paysync/internal/store/redis"
	"paysync/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	config.SetupLogging(cfg.App)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts, closeStore := openStore(ctx, cfg)
	defer closeStore()

	sp := stripe.New(stripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		APIURL:        cfg.Stripe.APIURL,
		Timeout:       cfg.Payment.ProviderTimeout,
	})

	payments := paymentsvc.NewService(attempts, sp, paymentsvc.Config{
		Currency:        payment.NormalizeCurrency(cfg.Payment.Currency),
		ProviderTimeout: cfg.Payment.ProviderTimeout,
	})
	ingestor := eventsvc.NewIngestor(attempts, sp)

	r := httpx.NewRouter(httpx.RouterDependencies{
		PaymentService: payments,
		Ingestor:       ingestor,
		StoreBackend:   cfg.StoreBackend,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("store", cfg.StoreBackend).Msgf("paysync API listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	log.Info().Msg("server stopped")
}

func openStore(ctx context.Context, cfg config.Cfg) (repositories.AttemptRepository, func()) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb, err := redis.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable")
		}
		return redis.NewAttemptRepository(rdb), func() { _ = rdb.Close() }
	case config.BackendPostgres:
		pool := postgres.MustOpen(ctx, cfg.DB.DSN)
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("schema setup failed")
		}
		return postgres.NewAttemptRepository(pool), pool.Close
	default:
		return memory.NewAttemptRepository(), func() {}
	}
}
