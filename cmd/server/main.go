package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"securevault/internal/alert"
	"securevault/internal/config"
	"securevault/internal/db"
	"securevault/internal/handlers"
	"securevault/internal/services"
	"securevault/internal/store"
)

func main() {
	cfg := config.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	users := store.NewUserStore(database)
	wallets := store.NewWalletStore(database)
	keys := store.NewKeyStore(database)
	transactions := store.NewTransactionStore(database)
	sessions := store.NewSessionStore(database)
	auditLogs := store.NewAuditStore(database)
	uploads := store.NewUploadStore(database)
	txRunner := db.NewTxRunner(database)
	alerts := alert.NewHub()

	audit := services.NewAuditService(database, auditLogs, alerts, logger)
	credentials := services.NewCredentialService(txRunner, database, users, wallets, keys, sessions, audit, alerts, logger, cfg)
	sessionSvc := services.NewSessionService(database, sessions, users, audit, alerts, cfg.SessionTimeout, cfg.SessionSliding)
	ledger := services.NewLedgerService(txRunner, database, users, wallets, keys, transactions, audit, alerts, logger, cfg)

	handler := handlers.New(cfg, database, credentials, sessionSvc, ledger, audit, uploads, alerts)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("wallet core listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", zap.Error(err))
	}
}
