package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"rwamarket/apps/rwamarket/internal/activity_materializer"
	"rwamarket/apps/rwamarket/internal/api"
	"rwamarket/apps/rwamarket/internal/config"
	"rwamarket/apps/rwamarket/internal/event_publisher"
	"rwamarket/apps/rwamarket/internal/faucet"
	"rwamarket/apps/rwamarket/internal/gateway"
	"rwamarket/apps/rwamarket/internal/ledger"
	"rwamarket/apps/rwamarket/internal/logging"
	"rwamarket/apps/rwamarket/internal/metadata"
	"rwamarket/apps/rwamarket/internal/repository"
	"rwamarket/apps/rwamarket/internal/wallet"
)

func main() {
	// Load configuration from environment variables
	cfg := config.NewConfig()

	logger, err := logging.NewLogger(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting application with configuration",
		zap.String("rpc_url", cfg.RpcURL),
		zap.String("signer_url", cfg.SignerURL),
		zap.String("db_url", cfg.DbURL),
		zap.String("kafka_broker", cfg.KafkaBroker),
		zap.String("kafka_topic", cfg.KafkaTopic),
		zap.String("marketplace", cfg.Contracts.MarketplaceObject),
		zap.Int("api_port", cfg.APIPort),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	ledgerClient, err := ledger.Dial(ctx, cfg.RpcURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to ledger", zap.Error(err))
	}
	defer ledgerClient.Close()

	metrics := api.NewMetrics(logger)

	opts := gateway.Options{
		Ledger:      ledgerClient,
		Resolver:    metadata.NewResolver(cfg.IPFSGateway, logger),
		Observer:    metrics,
		Contracts:   cfg.Contracts,
		Concurrency: cfg.ReconstructionConcurrency,
		Logger:      logger,
	}

	// Without a signer the gateway only serves reads
	if cfg.SignerURL != "" {
		signer, err := wallet.NewRemoteSigner(cfg.SignerURL, logger)
		if err != nil {
			logger.Fatal("Failed to create signer", zap.Error(err))
		}
		opts.Session = signer
	} else {
		logger.Warn("SIGNER_URL not set, write operations are disabled")
	}

	deps := api.Dependencies{
		MarketplaceID: cfg.Contracts.MarketplaceObject,
		Metrics:       metrics,
	}

	if cfg.DbURL != "" {
		// Connect to database
		db, err := sql.Open("postgres", cfg.DbURL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		// Initialize database tables
		if err := repository.InitMigration(db); err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}

		journalRepository := repository.NewJournalRepository(db, logger)
		activityRepository := repository.NewActivityRepository(db, logger)
		opts.Recorder = journalRepository
		deps.Activity = activityRepository

		if cfg.KafkaBroker != "" {
			// Create event publisher
			eventPublisher, err := event_publisher.NewEventPublisher(cfg.KafkaBroker, cfg.KafkaTopic, logger, journalRepository)
			if err != nil {
				logger.Fatal("Failed to create event publisher", zap.Error(err))
			}
			defer eventPublisher.Close()

			// Start event publisher in background
			go eventPublisher.StartPublishing(ctx)

			// Create activity materializer
			materializer, err := activity_materializer.NewActivityMaterializer(cfg.KafkaBroker, cfg.KafkaTopic, logger, activityRepository)
			if err != nil {
				logger.Fatal("Failed to create activity materializer", zap.Error(err))
			}
			defer materializer.Close()

			// Start activity materializer in background
			go func() {
				if err := materializer.Start(); err != nil {
					logger.Error("Activity materializer stopped", zap.Error(err))
				}
			}()
		}
	}

	marketplace, err := gateway.New(opts)
	if err != nil {
		logger.Fatal("Failed to create marketplace gateway", zap.Error(err))
	}
	deps.Marketplace = marketplace

	if cfg.FaucetURL != "" {
		deps.Faucet = faucet.NewClient(cfg.FaucetURL, logger)
	}

	// Create and start API server
	apiServer, err := api.NewServer(cfg.APIPort, deps, logger)
	if err != nil {
		logger.Fatal("Failed to create API server", zap.Error(err))
	}
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Received shutdown signal, starting graceful shutdown...")
	stop()

	// Create a context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown API server gracefully
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error shutting down API server", zap.Error(err))
	}

	logger.Info("Application shutdown complete")
}
