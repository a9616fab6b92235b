package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	httpapi "voltport-backend/internal/api/http"
	"voltport-backend/internal/config"
	"voltport-backend/internal/logger"
	"voltport-backend/internal/security"
	"voltport-backend/internal/service"
	"voltport-backend/internal/store"
	fsstore "voltport-backend/internal/store/firestore"
	memstore "voltport-backend/internal/store/memory"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file (empty for built-in defaults)")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	} else {
		cfg = config.Default()
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting VoltPort Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Store configuration", "type", cfg.Store.Type, "project_id", cfg.Store.ProjectID)

	ctx := context.Background()

	// Initialize Store
	var firebaseApp *firebase.App
	var st store.Store
	switch cfg.Store.Type {
	case "firestore":
		firebaseApp, err = newFirebaseApp(ctx, cfg)
		if err != nil {
			logger.Error("Failed to initialize Firebase app", "error", err)
			log.Fatalf("Failed to initialize Firebase app: %v", err)
		}
		st, err = fsstore.NewStore(ctx, firebaseApp)
		if err != nil {
			logger.Error("Failed to connect to Firestore", "error", err)
			log.Fatalf("Failed to connect to Firestore: %v", err)
		}
		logger.Info("Firestore connection established", "project_id", cfg.Store.ProjectID)
	default:
		st = memstore.NewStore()
		logger.Info("Using in-memory store")
	}
	defer st.Close()

	// Initialize token verifier
	var verifier security.TokenVerifier
	switch cfg.Auth.Mode {
	case "firebase":
		if firebaseApp == nil {
			firebaseApp, err = newFirebaseApp(ctx, cfg)
			if err != nil {
				log.Fatalf("Failed to initialize Firebase app: %v", err)
			}
		}
		verifier, err = security.NewFirebaseVerifier(ctx, firebaseApp)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase auth: %v", err)
		}
	default:
		verifier = security.NewJWTVerifier(cfg.Auth.JWTSecret)
	}

	// Initialize Services
	var emailService service.EmailService
	if cfg.Email.Enabled {
		emailService = service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	} else {
		emailService = service.NewNoopEmailService()
	}

	ledgerService := service.NewLedgerService(st, emailService)
	simulationService := service.NewSimulationService(st, cfg.Simulation)
	statsService := service.NewStatsService(st, cfg.Reset.ChunkSize)

	// Initialize HTTP API
	ledgerHandler := httpapi.NewLedgerHandler(ledgerService, verifier, cfg.Auth.InternalAPISecret)
	jobsHandler := httpapi.NewJobsHandler(simulationService, statsService, cfg.Auth.InternalAPISecret)
	router := httpapi.NewRouter(ledgerHandler, jobsHandler)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

func newFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	conf := &firebase.Config{ProjectID: cfg.Store.ProjectID}
	if cfg.Store.CredentialsFile != "" {
		return firebase.NewApp(ctx, conf, option.WithCredentialsFile(cfg.Store.CredentialsFile))
	}
	return firebase.NewApp(ctx, conf)
}
