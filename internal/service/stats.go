package service

import (
	"context"
	"fmt"
	"sync"

	"voltport-backend/internal/domain"
	"voltport-backend/internal/logger"
	"voltport-backend/internal/metrics"
	"voltport-backend/internal/store"
)

type statsService struct {
	store     store.Store
	chunkSize int
}

func NewStatsService(st store.Store, chunkSize int) StatsService {
	return &statsService{store: st, chunkSize: chunkSize}
}

func (s *statsService) ResetMonthlyStats(ctx context.Context) (*domain.ResetSummary, error) {
	ids, err := s.store.ListAccountIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	summary := &domain.ResetSummary{}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	chunkIndex := 0
	batch := s.store.NewBatch()

	// Full chunks commit concurrently while the traversal continues; a
	// failed chunk is recorded and does not stop the others.
	flush := func() {
		b, idx := batch, chunkIndex
		chunkIndex++
		batch = s.store.NewBatch()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Commit(ctx); err != nil {
				logger.Error("Failed to commit reset chunk", "chunk", idx, "error", err)
				metrics.ResetChunksFailed.Inc()
				mu.Lock()
				summary.FailedChunks = append(summary.FailedChunks, idx)
				mu.Unlock()
				return
			}
			metrics.ResetChunksCommitted.Inc()
			mu.Lock()
			summary.ChunksCommitted++
			mu.Unlock()
		}()
	}
	// Chunks fill to exactly chunkSize operations, strictly below the
	// store's per-commit ceiling.
	stage := func(add func()) {
		if batch.Len() >= s.chunkSize {
			flush()
		}
		add()
	}

	for _, accountID := range ids {
		stage(func() {
			batch.UpdateAccount(accountID,
				store.Set("monthlyEarnings", 0.0),
				store.Set("monthlyKwhDelivered", 0.0),
				store.Set("monthlySessions", int64(0)),
				store.Set("monthlyCo2Offset", 0.0),
				store.ServerTimestamp("lastMonthlyReset"),
			)
		})
		summary.AccountsReset++

		ports, err := s.store.ListPorts(ctx, accountID)
		if err != nil {
			logger.Error("Failed to list ports for reset", "account_id", accountID, "error", err)
			continue
		}
		for _, port := range ports {
			portID := port.ID
			stage(func() {
				// Zeroing monthlyDurationMinutes here is what makes next
				// month's utilization computation start from scratch.
				batch.UpdatePort(accountID, portID,
					store.Set("monthlyEarnings", 0.0),
					store.Set("monthlyDurationMinutes", 0.0),
					store.Set("utilization", 0.0),
				)
			})
			summary.PortsReset++
		}
	}
	if batch.Len() > 0 {
		flush()
	}
	wg.Wait()

	if summary.PartialFailure() {
		logger.Error("Monthly reset finished with failed chunks",
			"accounts", summary.AccountsReset,
			"ports", summary.PortsReset,
			"failed_chunks", summary.FailedChunks)
	} else {
		logger.Info("Monthly reset complete",
			"accounts", summary.AccountsReset,
			"ports", summary.PortsReset,
			"chunks", summary.ChunksCommitted)
	}
	return summary, nil
}
