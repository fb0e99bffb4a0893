package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finledger/txprocessor/internal/api"
	"github.com/finledger/txprocessor/internal/config"
	"github.com/finledger/txprocessor/internal/db"
	"github.com/finledger/txprocessor/internal/outbox"
	"github.com/finledger/txprocessor/internal/repository"
	"github.com/finledger/txprocessor/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting transaction processor",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	lock := repository.NewAccountLock(cfg.Engine.LockTimeout)
	accountService := service.NewAccountService(database, logger)
	transactionService := service.NewTransactionService(database, lock, cfg.Engine, logger)

	var sink outbox.EventSink = outbox.NewLoggingSink(logger)
	if cfg.Outbox.WebhookURL != "" {
		sink = outbox.NewWebhookSink(cfg.Outbox.WebhookURL)
	}

	publisher := outbox.NewPublisher(repository.NewOutboxRepository(database), sink, cfg.Outbox, logger)
	go publisher.Run(ctx)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(accountService, transactionService, publisher, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}

	logger.Info("shutdown complete")
}
