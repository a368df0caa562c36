package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/induslabs/concierge/adapters/localstore"
	"github.com/induslabs/concierge/adapters/transport"
	"github.com/induslabs/concierge/internal/config"
	"github.com/induslabs/concierge/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	identityStore := localstore.NewFileIdentityStore(cfg.IdentityFile)
	client := transport.NewClient(cfg.GatewayURL, cfg.LocalIdentity, logger)

	sessionCfg := usecase.DefaultSessionConfig()
	sessionCfg.ResizeDebounce = cfg.ResizeDebounce
	sessionCfg.Decoder.LocationRequestTTL = cfg.LocationRequestTTL
	sessionCfg.Decoder.SubmitIndicatorTTL = cfg.SubmitIndicatorTTL

	session, err := usecase.NewSession(client, identityStore, sessionCfg, logger)
	if err != nil {
		logger.Fatal("Failed to create session", zap.Error(err))
	}
	defer session.Close()

	client.SetHandlers(session.Handlers())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := client.Connect(ctx); err != nil {
		logger.Fatal("Failed to connect transport", zap.Error(err))
	}
	defer client.Close()

	logger.Info("Concierge session started",
		zap.String("gateway", cfg.GatewayURL),
		zap.String("identity", cfg.LocalIdentity))

	// Wait for interrupt signal to gracefully shut the session down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Session is shutting down...")
}
