package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"africoin/internal/account"
	"africoin/internal/auth"
	"africoin/internal/config"
	"africoin/internal/db"
	"africoin/internal/identity"
	"africoin/internal/ledger"
	"africoin/internal/logger"
	"africoin/internal/notify"
	"africoin/internal/server"
	"africoin/internal/wallet"
)

// @title AfriCoin Wallet API
// @version 1.0
// @description Phone-based wallet ledger and transfer engine.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting AfriCoin wallet service")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	notifier := notify.NewWithClient(redisClient, cfg.ReceiptWebhookURL, cfg.WebhookSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifier.Start(ctx)

	accounts := account.NewRepository(database)
	transactions := ledger.NewRepository(database)

	svc, err := wallet.NewService(
		accounts,
		transactions,
		identity.NewHasher(cfg.PhoneHashSalt),
		auth.NewPinHasher(cfg.BcryptCost),
		notifier,
		cfg.InitialMintAmount,
	)
	if err != nil {
		logger.Fatalf("Failed to build wallet service: %v", err)
	}

	auditor := wallet.NewAuditor(accounts, transactions)
	go auditor.Run(ctx, time.Minute)

	srv := server.New(database, cfg, svc, redisClient)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(cfg.Port); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
