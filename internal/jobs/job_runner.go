package jobs

import (
	"context"

	"voltport-backend/internal/config"
	"voltport-backend/internal/logger"
	"voltport-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Simulation service.SimulationService
	Stats      service.StatsService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
	}
}

// Config returns the loaded configuration
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// SimulateProfits runs one accrual cycle across all active ports
func (jr *JobRunner) SimulateProfits() {
	jr.runWithRecovery("SimulateProfits", func() {
		summary, err := jr.services.Simulation.RunProfitSimulation(context.Background())
		if err != nil {
			logger.Error("Profit simulation failed", "error", err)
			return
		}
		logger.Info("Profit simulation summary",
			"processed", summary.PortsProcessed,
			"failed", summary.PortsFailed,
			"total_earnings", summary.TotalEarnings)
	})
}

// RunMaintenance logs routine maintenance events for all active ports
func (jr *JobRunner) RunMaintenance() {
	jr.runWithRecovery("RunMaintenance", func() {
		logged, err := jr.services.Simulation.RunMaintenance(context.Background())
		if err != nil {
			logger.Error("Maintenance run failed", "error", err)
			return
		}
		logger.Info("Maintenance events logged", "count", logged)
	})
}

// ResetMonthlyStats zeroes monthly aggregates across all accounts and ports
func (jr *JobRunner) ResetMonthlyStats() {
	jr.runWithRecovery("ResetMonthlyStats", func() {
		summary, err := jr.services.Stats.ResetMonthlyStats(context.Background())
		if err != nil {
			logger.Error("Monthly reset failed", "error", err)
			return
		}
		if summary.PartialFailure() {
			logger.Error("Monthly reset partially failed", "failed_chunks", summary.FailedChunks)
			return
		}
		logger.Info("Monthly reset summary",
			"accounts", summary.AccountsReset,
			"ports", summary.PortsReset)
	})
}

// RunAllHourlyJobs runs all hourly jobs (for manual execution)
func (jr *JobRunner) RunAllHourlyJobs() {
	jr.SimulateProfits()
}

// RunAllMonthlyJobs runs all monthly jobs (for manual execution)
func (jr *JobRunner) RunAllMonthlyJobs() {
	jr.ResetMonthlyStats()
}
