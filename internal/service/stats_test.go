package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltport-backend/internal/domain"
	"voltport-backend/internal/store/memory"
)

func seedFleet(st *memory.Store, accounts, portsPerAccount int) {
	for i := 0; i < accounts; i++ {
		uid := fmt.Sprintf("u%02d", i)
		st.PutAccount(&domain.Account{
			ID:                   uid,
			AvailableBalance:     100,
			MonthlyEarnings:      55.5,
			MonthlyKwhDelivered:  120,
			MonthlySessions:      9,
			MonthlyCo2Offset:     30,
			LifetimeEarnings:     1000,
			LifetimeKwhDelivered: 5000,
			LifetimeSessions:     400,
			LifetimeCo2Offset:    900,
		})
		for j := 0; j < portsPerAccount; j++ {
			st.PutPort(&domain.Port{
				ID:                     fmt.Sprintf("p%02d-%d", i, j),
				AccountID:              uid,
				Status:                 domain.PortStatusActive,
				LifetimeEarnings:       500,
				MonthlyEarnings:        40,
				MonthlyDurationMinutes: 600,
				Utilization:            75,
			})
		}
	}
}

func TestStatsService_ResetMonthlyStats(t *testing.T) {
	ctx := context.Background()

	t.Run("ZeroesMonthlyFieldsOnly", func(t *testing.T) {
		st := memory.NewStore()
		seedFleet(st, 2, 2)
		svc := NewStatsService(st, 450)

		summary, err := svc.ResetMonthlyStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.AccountsReset)
		assert.Equal(t, 4, summary.PortsReset)
		assert.False(t, summary.PartialFailure())

		acct, err := st.GetAccount(ctx, "u00")
		require.NoError(t, err)
		assert.Equal(t, 0.0, acct.MonthlyEarnings)
		assert.Equal(t, 0.0, acct.MonthlyKwhDelivered)
		assert.Equal(t, int64(0), acct.MonthlySessions)
		assert.Equal(t, 0.0, acct.MonthlyCo2Offset)
		assert.False(t, acct.LastMonthlyReset.IsZero())

		// Balance and lifetime aggregates survive the reset.
		assert.Equal(t, 100.0, acct.AvailableBalance)
		assert.Equal(t, 1000.0, acct.LifetimeEarnings)
		assert.Equal(t, 5000.0, acct.LifetimeKwhDelivered)
		assert.Equal(t, int64(400), acct.LifetimeSessions)
		assert.Equal(t, 900.0, acct.LifetimeCo2Offset)

		port, ok := st.GetPort("u00", "p00-0")
		require.True(t, ok)
		assert.Equal(t, 0.0, port.MonthlyEarnings)
		assert.Equal(t, 0.0, port.MonthlyDurationMinutes)
		assert.Equal(t, 0.0, port.Utilization)
		assert.Equal(t, 500.0, port.LifetimeEarnings)
	})

	t.Run("ChunksFillToExactSize", func(t *testing.T) {
		st := memory.NewStore()
		// 5 accounts with 2 ports each is 15 operations; at a chunk size of
		// 3 that is exactly 5 full chunks.
		seedFleet(st, 5, 2)
		svc := NewStatsService(st, 3)

		summary, err := svc.ResetMonthlyStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, summary.AccountsReset)
		assert.Equal(t, 10, summary.PortsReset)
		assert.Equal(t, 5, summary.ChunksCommitted)
		assert.Empty(t, summary.FailedChunks)
	})

	t.Run("TrailingPartialChunk", func(t *testing.T) {
		st := memory.NewStore()
		// 3 accounts with 1 port each is 6 operations; chunk size 4 gives
		// one full chunk and one partial.
		seedFleet(st, 3, 1)
		svc := NewStatsService(st, 4)

		summary, err := svc.ResetMonthlyStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.ChunksCommitted)
	})

	t.Run("EverythingFitsInOneChunk", func(t *testing.T) {
		st := memory.NewStore()
		seedFleet(st, 3, 2)
		svc := NewStatsService(st, 450)

		summary, err := svc.ResetMonthlyStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.ChunksCommitted)
	})

	t.Run("EmptyFleet", func(t *testing.T) {
		st := memory.NewStore()
		svc := NewStatsService(st, 450)

		summary, err := svc.ResetMonthlyStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.AccountsReset)
		assert.Equal(t, 0, summary.ChunksCommitted)
		assert.False(t, summary.PartialFailure())
	})

	t.Run("AccountsWithoutPorts", func(t *testing.T) {
		st := memory.NewStore()
		seedFleet(st, 4, 0)
		svc := NewStatsService(st, 450)

		summary, err := svc.ResetMonthlyStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, summary.AccountsReset)
		assert.Equal(t, 0, summary.PortsReset)
		assert.Equal(t, 1, summary.ChunksCommitted)
	})
}
