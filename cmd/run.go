package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"jopacoin/api"
	"jopacoin/application"
	"jopacoin/config"
	"jopacoin/database"
	"jopacoin/domain/interfaces"
	"jopacoin/infrastructure"
	"jopacoin/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the ledger service
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	log.Infof("Starting jopacoin ledger in %s mode...", cfg.Environment)

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	overrides, err := config.LoadGuildOverrides(cfg.GuildSettingsFile)
	if err != nil {
		db.Close()
		return err
	}
	if err := SeedGuildSettings(ctx, db, overrides); err != nil {
		db.Close()
		return fmt.Errorf("failed to seed guild settings: %w", err)
	}

	var (
		natsClient *infrastructure.NATSClient
		publisher  interfaces.EventPublisher
	)
	if cfg.NATSEnabled {
		log.Infof("Connecting to NATS at %s...", cfg.NATSServers)
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			db.Close()
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}

		mapper := infrastructure.NewEventSubjectMapper()
		if err := infrastructure.EnsureDomainEventStream(natsClient, mapper); err != nil {
			log.Warnf("Failed to ensure domain event stream: %v", err)
		}
		if err := infrastructure.EnsureMatchCommandStream(natsClient); err != nil {
			log.Warnf("Failed to ensure match command stream: %v", err)
		}
		publisher = infrastructure.NewNATSEventPublisher(natsClient, mapper)
	} else {
		log.Info("NATS disabled, domain events will not be published")
		publisher = infrastructure.NewNoopEventPublisher()
	}

	uowFactory := infrastructure.NewUnitOfWorkFactoryWrapper(db, publisher)
	ledger := application.NewLedger(uowFactory)

	var consumer *infrastructure.MessageConsumer
	if natsClient != nil {
		consumer = infrastructure.NewMessageConsumer(natsClient, application.NewMatchResultHandler(ledger))
		if err := consumer.Start(); err != nil {
			_ = natsClient.Close()
			db.Close()
			return fmt.Errorf("failed to start match command consumer: %w", err)
		}
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(ledger, db),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Status API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = fmt.Errorf("status API stopped: %w", err)
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down status API: %v", err)
	}

	if consumer != nil {
		consumer.Stop()
	}
	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.Errorf("Error closing NATS connection: %v", err)
		}
	}

	log.Info("Closing database connection...")
	db.Close()

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Errorf("Error shutting down metrics: %v", err)
	}

	log.Info("Shutdown completed")
	return runErr
}
