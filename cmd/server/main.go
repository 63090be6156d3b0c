package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/drug-response-server/internal/api"
	"github.com/drug-response-server/internal/config"
	"github.com/drug-response-server/internal/domain"
	"github.com/drug-response-server/internal/service"
	"github.com/drug-response-server/pkg/external"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)

	// External clients
	backendClient := external.NewBackendClient(cfg.Backend)
	autocompleteClient := external.NewAutocompleteClient(cfg.ExternalAPI.Autocomplete)
	rxNormClient := external.NewRxNormClient(cfg.ExternalAPI.RxNorm)
	openFDAClient := external.NewOpenFDAClient(cfg.ExternalAPI.OpenFDA)
	pubChemClient := external.NewPubChemClient(cfg.ExternalAPI.PubChem)

	drugInfoCache, err := external.NewDrugInfoCache(cfg.Cache)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize drug-info cache")
	}
	defer drugInfoCache.Close()

	aggregator := external.NewDrugInfoAggregator(
		backendClient, rxNormClient, openFDAClient, pubChemClient, drugInfoCache, logger)

	// Pipeline services
	normalizer := service.NewNormalizer()
	explainer := service.NewExplanationSynthesizer(aggregator, service.DefaultKnowledgeBase(), logger)
	orchestrator := service.NewPredictionOrchestrator(backendClient, normalizer, explainer, logger)
	validator := service.NewDrugNameValidator(autocompleteClient, logger)

	server := api.NewServer(cfg, orchestrator, validator, aggregator, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting drug-response prediction server")

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from logging configuration
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return logger
}
