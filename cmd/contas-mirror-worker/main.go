package main

import (
	"context"
	"errors"
	"os"
	"time"

	"contas/internal/backend"
	"contas/internal/cli"
	"contas/internal/log"
	"contas/internal/services"
)

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	logger.Info("Starting contas-mirror-worker")

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	mirrorWorker, store, err := factory.CreateMirrorWorker(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize mirror worker", log.FieldError, err)
		os.Exit(1)
	}
	defer store.Close()

	processor := services.NewSyncProcessor(mirrorWorker, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		MaxRetries:   services.DefaultSyncProcessorConfig().MaxRetries,
	}, logger)

	// Optional, the poll loop alone keeps the mirror current
	amqpClient := factory.CreatePublisher(bcfg)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := processor.Stop(stopCtx); err != nil {
			logger.Error("Failed to stop sync processor", log.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("Failed to close AMQP client", log.FieldError, err)
			}
		}
	})

	// Write whatever storage holds before waiting for changes
	if err := mirrorWorker.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err)
		// Don't exit - the poll loop retries
	}

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", log.FieldError, err)
		os.Exit(1)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeLedgerChanged(ctx, mirrorWorker.HandleLedgerChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err)
			}
		}()
	} else {
		logger.Info("AMQP disabled, relying on periodic sync", "interval", cfg.SyncInterval)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("contas-mirror-worker stopped")
}
