package service

import (
	"context"

	"voltport-backend/internal/domain"
)

type LedgerService interface {
	// SubmitWithdrawal validates the withdrawal code and balance, creates a
	// pending withdrawal activity, and reserves the amount — all in one
	// atomic unit. Returns the new activity id.
	SubmitWithdrawal(ctx context.Context, accountID string, amount float64, details map[string]string, code string) (string, error)
	// RejectWithdrawal refunds a pending withdrawal and marks it Rejected.
	// The caller must already hold the admin capability.
	RejectWithdrawal(ctx context.Context, activityID string) error
	// SettleActivity idempotently folds an activity's amount into its
	// account balance, guarded by the balanceUpdated flag.
	SettleActivity(ctx context.Context, accountID, activityID string) error
	AddLifetimeEarnings(ctx context.Context, accountID string, amount float64) error
	GetBalance(ctx context.Context, accountID string) (float64, error)
}

type SimulationService interface {
	// RunProfitSimulation generates one synthetic charging session per
	// active port (minus idle skips) and commits each port's earnings
	// independently.
	RunProfitSimulation(ctx context.Context) (*domain.SimulationSummary, error)
	// RunMaintenance logs a zero-amount maintenance activity per active port.
	RunMaintenance(ctx context.Context) (int, error)
}

type StatsService interface {
	// ResetMonthlyStats zeroes every account's and port's monthly aggregates
	// in chunked batch commits.
	ResetMonthlyStats(ctx context.Context) (*domain.ResetSummary, error)
}

type EmailService interface {
	SendWithdrawalSubmittedNotice(ctx context.Context, email, name string, amount float64) error
	SendWithdrawalRejectedNotice(ctx context.Context, email, name string, amount float64) error
}
