package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltport-backend/internal/config"
	"voltport-backend/internal/domain"
	"voltport-backend/internal/store/memory"
)

// fixedTierConfig pins every tier to a single amount so earnings are exact.
func fixedTierConfig(amount float64) config.PackageConfig {
	return config.PackageConfig{
		Slow:     config.TierConfig{Chance: 0, Min: amount, Max: amount},
		Standard: config.TierConfig{Chance: 1.0, Min: amount, Max: amount},
		Busy:     config.TierConfig{Chance: 0, Min: amount, Max: amount},
		RatedKw:  10.0,
	}
}

func newTestSimulation(t *testing.T, st *memory.Store, cfg config.SimulationConfig, now time.Time) *simulationService {
	t.Helper()
	svc, ok := NewSimulationService(st, cfg).(*simulationService)
	require.True(t, ok)
	svc.now = func() time.Time { return now }
	svc.rng = rand.New(rand.NewSource(1))
	return svc
}

func simulationTestConfig() config.SimulationConfig {
	return config.SimulationConfig{
		IntervalMinutes: 60,
		PeakStartHour:   16,
		PeakEndHour:     22,
		PeakMultiplier:  2.0,
		IdleProbability: 0,
		Packages: map[string]config.PackageConfig{
			"Standard Port": fixedTierConfig(10.00),
		},
		RegionPriceKwh:  map[string]float64{"CA": 0.25},
		DefaultPriceKwh: 0.50,
		Co2KgPerKwh:     0.85,
		MilesPerKwh:     3.5,
		Vehicles:        []config.VehicleConfig{{Model: "Tesla Model 3", Weight: 1.0}},
	}
}

func TestSimulationService_RunProfitSimulation(t *testing.T) {
	ctx := context.Background()

	t.Run("AccruesOneSessionPerActivePort", func(t *testing.T) {
		st := memory.NewStore()
		st.PutAccount(&domain.Account{ID: "u1"})
		st.PutPort(&domain.Port{
			ID: "p1", AccountID: "u1", Status: domain.PortStatusActive,
			Package: "Standard Port", Region: "CA",
			LocationName: "Market St Garage", PortIdentifier: "Port #A1",
		})

		// 03:00 UTC is off-peak, so the amount stays at the tier's fixed 10.00.
		now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
		svc := newTestSimulation(t, st, simulationTestConfig(), now)

		summary, err := svc.RunProfitSimulation(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.PortsProcessed)
		assert.Equal(t, 0, summary.PortsFailed)
		assert.Equal(t, 10.00, summary.TotalEarnings)

		acct, err := st.GetAccount(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 10.00, acct.AvailableBalance)
		assert.Equal(t, 10.00, acct.MonthlyEarnings)
		assert.Equal(t, 10.00, acct.LifetimeEarnings)
		assert.Equal(t, int64(1), acct.MonthlySessions)
		assert.Equal(t, int64(1), acct.LifetimeSessions)
		// 10.00 at 0.25/kWh is exactly 40 kWh.
		assert.Equal(t, 40.0, acct.MonthlyKwhDelivered)
		assert.Equal(t, 40.0, acct.LifetimeKwhDelivered)
		assert.Equal(t, 34.0, acct.MonthlyCo2Offset)
		assert.Equal(t, 34.0, acct.LifetimeCo2Offset)

		port, ok := st.GetPort("u1", "p1")
		require.True(t, ok)
		assert.Equal(t, 10.00, port.MonthlyEarnings)
		assert.Equal(t, 10.00, port.LifetimeEarnings)
		assert.Greater(t, port.MonthlyDurationMinutes, 0.0)
		assert.LessOrEqual(t, port.Utilization, 100.0)

		acts := st.ListActivities("u1")
		require.Len(t, acts, 1)
		act := acts[0]
		assert.Equal(t, domain.ActivityTypeEarning, act.Type)
		assert.Equal(t, 10.00, act.Amount)
		assert.Equal(t, "Earning from Market St Garage (Port #A1)", act.Description)
		assert.Equal(t, "p1", act.PortID)
		require.NotNil(t, act.SessionDetails)
		assert.Equal(t, "Tesla Model 3", act.SessionDetails.Vehicle)
		assert.Equal(t, 40.0, act.SessionDetails.EnergyKwh)
		assert.Equal(t, 140.0, act.SessionDetails.Miles)
		assert.Greater(t, act.SessionDetails.DurationMinutes, 0.0)

		// Backdated within the preceding interval, never in the future.
		assert.False(t, act.Timestamp.After(now))
		assert.False(t, act.Timestamp.Before(now.Add(-60*time.Minute)))
	})

	t.Run("PeakHoursMultiplyEarnings", func(t *testing.T) {
		st := memory.NewStore()
		st.PutAccount(&domain.Account{ID: "u1"})
		st.PutPort(&domain.Port{
			ID: "p1", AccountID: "u1", Status: domain.PortStatusActive,
			Package: "Standard Port", Region: "CA",
		})

		now := time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC)
		svc := newTestSimulation(t, st, simulationTestConfig(), now)

		summary, err := svc.RunProfitSimulation(ctx)
		require.NoError(t, err)
		assert.Equal(t, 20.00, summary.TotalEarnings)
	})

	t.Run("UnknownRegionUsesDefaultPrice", func(t *testing.T) {
		st := memory.NewStore()
		st.PutAccount(&domain.Account{ID: "u1"})
		st.PutPort(&domain.Port{
			ID: "p1", AccountID: "u1", Status: domain.PortStatusActive,
			Package: "Standard Port", Region: "ZZ",
		})

		now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
		svc := newTestSimulation(t, st, simulationTestConfig(), now)

		_, err := svc.RunProfitSimulation(ctx)
		require.NoError(t, err)

		acct, err := st.GetAccount(ctx, "u1")
		require.NoError(t, err)
		// 10.00 at the 0.50 default price is 20 kWh.
		assert.Equal(t, 20.0, acct.MonthlyKwhDelivered)
	})

	t.Run("UnknownPackageSkipped", func(t *testing.T) {
		st := memory.NewStore()
		st.PutAccount(&domain.Account{ID: "u1"})
		st.PutPort(&domain.Port{
			ID: "p1", AccountID: "u1", Status: domain.PortStatusActive,
			Package: "Retired Package",
		})

		now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
		svc := newTestSimulation(t, st, simulationTestConfig(), now)

		summary, err := svc.RunProfitSimulation(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.PortsSkipped)
		assert.Equal(t, 0, summary.PortsProcessed)
		assert.Empty(t, st.ListActivities("u1"))
	})

	t.Run("IdlePortsAccrueNothing", func(t *testing.T) {
		st := memory.NewStore()
		st.PutAccount(&domain.Account{ID: "u1"})
		st.PutPort(&domain.Port{
			ID: "p1", AccountID: "u1", Status: domain.PortStatusActive,
			Package: "Standard Port", Region: "CA",
		})

		cfg := simulationTestConfig()
		// Float64 draws in [0, 1) always land below 1, so every port idles.
		cfg.IdleProbability = 1.0
		now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
		svc := newTestSimulation(t, st, cfg, now)

		summary, err := svc.RunProfitSimulation(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.PortsIdle)
		assert.Equal(t, 0, summary.PortsProcessed)

		acct, err := st.GetAccount(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 0.0, acct.AvailableBalance)
	})

	t.Run("InactivePortsIgnored", func(t *testing.T) {
		st := memory.NewStore()
		st.PutAccount(&domain.Account{ID: "u1"})
		st.PutPort(&domain.Port{
			ID: "p1", AccountID: "u1", Status: domain.PortStatusInactive,
			Package: "Standard Port", Region: "CA",
		})

		now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
		svc := newTestSimulation(t, st, simulationTestConfig(), now)

		summary, err := svc.RunProfitSimulation(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.PortsProcessed)
		assert.Equal(t, 0, summary.PortsIdle)
		assert.Equal(t, 0, summary.PortsSkipped)
	})

	t.Run("UtilizationCappedAtHundred", func(t *testing.T) {
		st := memory.NewStore()
		st.PutAccount(&domain.Account{ID: "u1"})
		st.PutPort(&domain.Port{
			ID: "p1", AccountID: "u1", Status: domain.PortStatusActive,
			Package: "Standard Port", Region: "CA",
			MonthlyDurationMinutes: 1e9,
		})

		now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
		svc := newTestSimulation(t, st, simulationTestConfig(), now)

		_, err := svc.RunProfitSimulation(ctx)
		require.NoError(t, err)

		port, ok := st.GetPort("u1", "p1")
		require.True(t, ok)
		assert.Equal(t, 100.0, port.Utilization)
	})

	t.Run("ManyPortsAcrossAccounts", func(t *testing.T) {
		st := memory.NewStore()
		for _, uid := range []string{"u1", "u2", "u3"} {
			st.PutAccount(&domain.Account{ID: uid})
			st.PutPort(&domain.Port{
				ID: "p-" + uid, AccountID: uid, Status: domain.PortStatusActive,
				Package: "Standard Port", Region: "CA",
			})
		}

		now := time.Date(2025, 6, 15, 3, 0, 0, 0, time.UTC)
		svc := newTestSimulation(t, st, simulationTestConfig(), now)

		summary, err := svc.RunProfitSimulation(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.PortsProcessed)
		assert.Equal(t, 30.00, summary.TotalEarnings)

		for _, uid := range []string{"u1", "u2", "u3"} {
			acct, err := st.GetAccount(ctx, uid)
			require.NoError(t, err)
			assert.Equal(t, 10.00, acct.AvailableBalance)
		}
	})
}

func TestSimulationService_RunMaintenance(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	st.PutAccount(&domain.Account{ID: "u1"})
	st.PutAccount(&domain.Account{ID: "u2"})
	st.PutPort(&domain.Port{
		ID: "p1", AccountID: "u1", Status: domain.PortStatusActive,
		LocationName: "Market St Garage", PortIdentifier: "Port #A1",
	})
	st.PutPort(&domain.Port{ID: "p2", AccountID: "u1", Status: domain.PortStatusInactive})
	st.PutPort(&domain.Port{ID: "p3", AccountID: "u2", Status: domain.PortStatusActive})

	now := time.Date(2025, 6, 16, 6, 0, 0, 0, time.UTC)
	svc := newTestSimulation(t, st, simulationTestConfig(), now)

	logged, err := svc.RunMaintenance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, logged)

	acts := st.ListActivities("u1")
	require.Len(t, acts, 1)
	assert.Equal(t, domain.ActivityTypeMaintenance, acts[0].Type)
	assert.Equal(t, 0.0, acts[0].Amount)
	assert.Equal(t, "Routine maintenance checkup on Market St Garage (Port #A1)", acts[0].Description)
	assert.Equal(t, "p1", acts[0].PortID)

	// No balance movement from maintenance entries.
	acct, err := st.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, acct.AvailableBalance)

	assert.Len(t, st.ListActivities("u2"), 1)
}
