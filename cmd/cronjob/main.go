package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"voltport-backend/internal/config"
	"voltport-backend/internal/jobs"
	"voltport-backend/internal/logger"
	"voltport-backend/internal/scheduler"
	"voltport-backend/internal/service"
	"voltport-backend/internal/store"
	fsstore "voltport-backend/internal/store/firestore"
	memstore "voltport-backend/internal/store/memory"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file (empty for built-in defaults)")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'simulate-profits', 'all-hourly', 'all-monthly')")
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
	logger.Info("Starting VoltPort Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx := context.Background()

	// Initialize Store
	var st store.Store
	switch cfg.Store.Type {
	case "firestore":
		conf := &firebase.Config{ProjectID: cfg.Store.ProjectID}
		var app *firebase.App
		if cfg.Store.CredentialsFile != "" {
			app, err = firebase.NewApp(ctx, conf, option.WithCredentialsFile(cfg.Store.CredentialsFile))
		} else {
			app, err = firebase.NewApp(ctx, conf)
		}
		if err != nil {
			logger.Error("Failed to initialize Firebase app", "error", err)
			log.Fatalf("Failed to initialize Firebase app: %v", err)
		}
		st, err = fsstore.NewStore(ctx, app)
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

	// Initialize Services
	simulationService := service.NewSimulationService(st, cfg.Simulation)
	statsService := service.NewStatsService(st, cfg.Reset.ChunkSize)

	jobServices := &jobs.Services{
		Simulation: simulationService,
		Stats:      statsService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "simulate-profits":
		jobRunner.SimulateProfits()
	case "run-maintenance":
		jobRunner.RunMaintenance()
	case "reset-monthly-stats":
		jobRunner.ResetMonthlyStats()
	case "all-hourly":
		jobRunner.RunAllHourlyJobs()
	case "all-monthly":
		jobRunner.RunAllMonthlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - simulate-profits\n")
		fmt.Printf("  - run-maintenance\n")
		fmt.Printf("  - reset-monthly-stats\n")
		fmt.Printf("  - all-hourly\n")
		fmt.Printf("  - all-monthly\n")
		os.Exit(1)
	}
}
