package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dodopayments/payments-engine/internal/api"
	"github.com/dodopayments/payments-engine/internal/config"
	"github.com/dodopayments/payments-engine/internal/dispatch"
	"github.com/dodopayments/payments-engine/internal/service"
	"github.com/dodopayments/payments-engine/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second
	// How long graceful shutdown waits for in-flight webhook
	// deliveries before abandoning their retries.
	webhookDrainTimeout = 5 * time.Second
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, store.PoolConfig{
		URL:            cfg.Database.URL,
		MaxConns:       cfg.Database.MaxConnections,
		MinConns:       cfg.Database.MinConnections,
		AcquireTimeout: cfg.Database.AcquireTimeout,
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("database pool ready", zap.Int32("max_conns", cfg.Database.MaxConnections))

	accountStore := store.NewPostgresAccounts(pool)
	transactionStore := store.NewPostgresTransactions(pool)
	webhookStore := store.NewPostgresWebhooks(pool)
	apiKeyStore := store.NewPostgresAPIKeys(pool)

	dispatcher := dispatch.NewHTTPDispatcher(cfg.Webhook.MaxRetries, cfg.Webhook.InitialBackoff, log)
	webhookService := service.NewWebhookService(webhookStore, accountStore, dispatcher, log)
	accountService := service.NewAccountService(accountStore, webhookService, log)
	transactionService := service.NewTransactionService(transactionStore, webhookService, log)
	authService := service.NewAuthService(apiKeyStore, log)
	limiter := api.NewRateLimiter(cfg.RateLimit.RequestsPerHour)

	server := api.NewServer(accountService, transactionService, webhookService, authService, limiter, pool, log)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", zap.String("addr", cfg.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}

		webhookService.Close(webhookDrainTimeout)
		return nil
	})

	return g.Wait()
}
