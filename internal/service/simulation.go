package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"voltport-backend/internal/config"
	"voltport-backend/internal/domain"
	"voltport-backend/internal/logger"
	"voltport-backend/internal/metrics"
	"voltport-backend/internal/store"
	"voltport-backend/internal/utils"
)

type simulationService struct {
	store store.Store
	cfg   config.SimulationConfig
	now   func() time.Time
	rng   *rand.Rand
}

func NewSimulationService(st store.Store, cfg config.SimulationConfig) SimulationService {
	return &simulationService{
		store: st,
		cfg:   cfg,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// session holds everything computed for one port before its commit.
type session struct {
	port        domain.Port
	amount      float64
	kwh         float64
	co2         float64
	durationMin float64
	miles       float64
	vehicle     string
	utilization float64
	timestamp   time.Time
}

func (s *simulationService) RunProfitSimulation(ctx context.Context) (*domain.SimulationSummary, error) {
	ports, err := s.store.ListActivePorts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active ports: %w", err)
	}

	now := s.now().UTC()
	hour := now.Hour()
	isPeak := hour >= s.cfg.PeakStartHour && hour <= s.cfg.PeakEndHour

	summary := &domain.SimulationSummary{}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	// All random draws happen here, sequentially; only the commits fan out.
	for _, port := range ports {
		profile, ok := s.cfg.Packages[port.Package]
		if !ok {
			// Configuration gap, not a fault.
			summary.PortsSkipped++
			continue
		}
		if s.rng.Float64() < s.cfg.IdleProbability {
			summary.PortsIdle++
			continue
		}

		sess := s.buildSession(port, profile, now, isPeak)
		batch := s.stageSession(sess)

		wg.Add(1)
		go func(b store.Batch, sess session) {
			defer wg.Done()
			// Each port's commit is an independent unit; one failure must
			// not block the rest of the cycle.
			if err := b.Commit(ctx); err != nil {
				logger.Error("Failed to commit earning session",
					"account_id", sess.port.AccountID,
					"port_id", sess.port.ID,
					"error", err)
				metrics.SessionCommitFailures.Inc()
				mu.Lock()
				summary.PortsFailed++
				mu.Unlock()
				return
			}
			metrics.SessionsSimulated.Inc()
			metrics.EarningsAccrued.Add(sess.amount)
			mu.Lock()
			summary.PortsProcessed++
			summary.TotalEarnings = utils.RoundCents(summary.TotalEarnings + sess.amount)
			mu.Unlock()
		}(batch, sess)
	}
	wg.Wait()

	logger.Info("Profit simulation complete",
		"processed", summary.PortsProcessed,
		"idle", summary.PortsIdle,
		"skipped", summary.PortsSkipped,
		"failed", summary.PortsFailed,
		"total_earnings", summary.TotalEarnings)
	return summary, nil
}

// buildSession draws one synthetic charging session for a port.
func (s *simulationService) buildSession(port domain.Port, profile config.PackageConfig, now time.Time, isPeak bool) session {
	amount := s.drawAmount(profile)
	if isPeak {
		amount = utils.RoundCents(amount * s.cfg.PeakMultiplier)
	}

	price, ok := s.cfg.RegionPriceKwh[port.Region]
	if !ok {
		price = s.cfg.DefaultPriceKwh
	}
	kwh := utils.RoundCents(amount / price)
	co2 := utils.RoundCents(kwh * s.cfg.Co2KgPerKwh)

	// Charging power jitters ±10% around the package's rated kW.
	jitter := utils.UniformRange(s.rng, 0.9, 1.1)
	durationMin := utils.RoundCents(kwh / (profile.RatedKw * jitter) * 60)
	miles := utils.RoundCents(kwh * s.cfg.MilesPerKwh)

	elapsed := utils.MinutesSinceMonthStart(now)
	utilization := (port.MonthlyDurationMinutes + durationMin) / elapsed * 100
	if utilization > 100 {
		utilization = 100
	}

	// Backdate to a random point within the preceding interval so hourly
	// runs do not stamp every session on the hour.
	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute
	timestamp := now.Add(-time.Duration(s.rng.Float64() * float64(interval)))

	return session{
		port:        port,
		amount:      amount,
		kwh:         kwh,
		co2:         co2,
		durationMin: durationMin,
		miles:       miles,
		vehicle:     s.drawVehicle(),
		utilization: utilization,
		timestamp:   timestamp,
	}
}

// drawAmount picks a tier by cumulative probability, then draws uniformly
// within the tier's range. Misconfigured tier tables fall back to the
// standard tier.
func (s *simulationService) drawAmount(profile config.PackageConfig) float64 {
	tiers := []config.TierConfig{profile.Slow, profile.Standard, profile.Busy}
	idx := utils.WeightedIndex(s.rng, []float64{profile.Slow.Chance, profile.Standard.Chance, profile.Busy.Chance})
	if idx < 0 {
		idx = 1
	}
	tier := tiers[idx]
	return utils.RoundCents(utils.UniformRange(s.rng, tier.Min, tier.Max))
}

func (s *simulationService) drawVehicle() string {
	weights := make([]float64, len(s.cfg.Vehicles))
	for i, v := range s.cfg.Vehicles {
		weights[i] = v.Weight
	}
	idx := utils.WeightedIndex(s.rng, weights)
	if idx < 0 {
		return ""
	}
	return s.cfg.Vehicles[idx].Model
}

// stageSession stages one port's full accrual as a single bounded batch:
// account aggregates, port aggregates, and the earning activity commit
// together or not at all.
func (s *simulationService) stageSession(sess session) store.Batch {
	b := s.store.NewBatch()
	b.UpdateAccount(sess.port.AccountID,
		store.Increment("availableBalance", sess.amount),
		store.Increment("monthlyEarnings", sess.amount),
		store.Increment("lifetimeEarnings", sess.amount),
		store.Increment("monthlyKwhDelivered", sess.kwh),
		store.Increment("lifetimeKwhDelivered", sess.kwh),
		store.Increment("monthlySessions", 1),
		store.Increment("lifetimeSessions", 1),
		store.Increment("monthlyCo2Offset", sess.co2),
		store.Increment("lifetimeCo2Offset", sess.co2),
	)
	b.UpdatePort(sess.port.AccountID, sess.port.ID,
		store.Increment("lifetimeEarnings", sess.amount),
		store.Increment("monthlyEarnings", sess.amount),
		store.Increment("monthlyDurationMinutes", sess.durationMin),
		store.Set("utilization", sess.utilization),
	)
	b.CreateActivity(sess.port.AccountID, &domain.Activity{
		Type:        domain.ActivityTypeEarning,
		Amount:      sess.amount,
		Description: earningDescription(sess.port),
		Timestamp:   sess.timestamp,
		PortID:      sess.port.ID,
		SessionDetails: &domain.SessionDetails{
			Vehicle:         sess.vehicle,
			EnergyKwh:       sess.kwh,
			DurationMinutes: sess.durationMin,
			Miles:           sess.miles,
		},
	})
	return b
}

func earningDescription(port domain.Port) string {
	return fmt.Sprintf("Earning from %s (%s)", locationName(port), portIdentifier(port))
}

func locationName(port domain.Port) string {
	if port.LocationName != "" {
		return port.LocationName
	}
	return "Unknown Location"
}

func portIdentifier(port domain.Port) string {
	if port.PortIdentifier != "" {
		return port.PortIdentifier
	}
	id := port.ID
	if len(id) > 4 {
		id = id[:4]
	}
	return fmt.Sprintf("Port #%s", id)
}

func (s *simulationService) RunMaintenance(ctx context.Context) (int, error) {
	ports, err := s.store.ListActivePorts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active ports: %w", err)
	}

	logged := 0
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, port := range ports {
		b := s.store.NewBatch()
		b.CreateActivity(port.AccountID, &domain.Activity{
			Type:        domain.ActivityTypeMaintenance,
			Amount:      0, // no financial impact
			Description: fmt.Sprintf("Routine maintenance checkup on %s (%s)", locationName(port), portIdentifier(port)),
			PortID:      port.ID,
		})
		wg.Add(1)
		go func(b store.Batch, port domain.Port) {
			defer wg.Done()
			if err := b.Commit(ctx); err != nil {
				logger.Error("Failed to log maintenance event",
					"account_id", port.AccountID,
					"port_id", port.ID,
					"error", err)
				return
			}
			mu.Lock()
			logged++
			mu.Unlock()
		}(b, port)
	}
	wg.Wait()

	logger.Info("Maintenance run complete", "events_logged", logged)
	return logged, nil
}
