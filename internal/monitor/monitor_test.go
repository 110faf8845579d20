package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/aristath/intraday-trader/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	mu   sync.Mutex
	open bool
	err  error
}

func (d *stubDetector) Evaluate(_ domain.Region, _ time.Time) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	return d.open, nil
}

func (d *stubDetector) set(open bool) {
	d.mu.Lock()
	d.open = open
	d.mu.Unlock()
}

type stubEngine struct {
	mu    sync.Mutex
	calls int
	fail  bool
	recs  []domain.Recommendation
	panic bool
}

func (e *stubEngine) ExecuteScheduledAnalysis(_ context.Context, regions []domain.Region) domain.AnalysisResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.panic {
		panic("engine exploded")
	}
	if e.fail {
		return domain.AnalysisResult{Success: false, Regions: regions, ErrorMessage: "data feed unavailable"}
	}
	return domain.AnalysisResult{Success: true, Regions: regions, Recommendations: e.recs}
}

func (e *stubEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type stubExecutor struct {
	mu          sync.Mutex
	failSymbols map[string]bool
	skipSymbols map[string]bool
	executed    int
}

func (x *stubExecutor) ExecuteRecommendation(rec domain.Recommendation) (*domain.Trade, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.failSymbols[rec.Symbol] {
		return nil, errors.New("broker rejected order")
	}
	if x.skipSymbols[rec.Symbol] {
		return nil, nil
	}
	x.executed++
	return &domain.Trade{ID: fmt.Sprintf("t-%d", x.executed), Symbol: rec.Symbol, Region: rec.Region}, nil
}

func newTestMonitor(detector *stubDetector, engine *stubEngine, executor *stubExecutor) *Monitor {
	return New(Config{
		Log:           zerolog.Nop(),
		Detector:      detector,
		Engine:        engine,
		Executor:      executor,
		PollInterval:  2 * time.Millisecond,
		CycleInterval: 5 * time.Millisecond,
		PauseDuration: 40 * time.Millisecond,
	})
}

func twoRecommendations() []domain.Recommendation {
	return []domain.Recommendation{
		{Symbol: "0700.HK", Region: domain.RegionHongKong, Side: domain.SideBuy, Confidence: 0.8, Price: 320},
		{Symbol: "9988.HK", Region: domain.RegionHongKong, Side: domain.SideSell, Confidence: 0.6, Price: 80},
	}
}

func TestExecuteCycle_PartialTradeFailure(t *testing.T) {
	engine := &stubEngine{recs: twoRecommendations()}
	executor := &stubExecutor{failSymbols: map[string]bool{"0700.HK": true}}
	m := newTestMonitor(&stubDetector{open: true}, engine, executor)

	result := m.executeCycle(context.Background(), domain.RegionHongKong, zerolog.Nop())

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RecommendationsCount)
	assert.Equal(t, 1, result.TradesExecuted)
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestExecuteCycle_SkippedRecommendationNotCounted(t *testing.T) {
	engine := &stubEngine{recs: twoRecommendations()}
	executor := &stubExecutor{skipSymbols: map[string]bool{"9988.HK": true}}
	m := newTestMonitor(&stubDetector{open: true}, engine, executor)

	result := m.executeCycle(context.Background(), domain.RegionHongKong, zerolog.Nop())

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RecommendationsCount)
	assert.Equal(t, 1, result.TradesExecuted)
}

func TestExecuteCycle_AnalysisFailure(t *testing.T) {
	engine := &stubEngine{fail: true}
	executor := &stubExecutor{}
	m := newTestMonitor(&stubDetector{open: true}, engine, executor)

	result := m.executeCycle(context.Background(), domain.RegionChina, zerolog.Nop())

	assert.False(t, result.Success)
	assert.Equal(t, "data feed unavailable", result.ErrorMessage)
	assert.Zero(t, result.RecommendationsCount)
	assert.Zero(t, result.TradesExecuted)
}

func TestExecuteCycle_PanicBecomesFailedResult(t *testing.T) {
	engine := &stubEngine{panic: true}
	m := newTestMonitor(&stubDetector{open: true}, engine, &stubExecutor{})

	result := m.executeCycle(context.Background(), domain.RegionUSA, zerolog.Nop())

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "cycle panicked")
}

func TestRecordResult_BreakerTripsAtExactlyThree(t *testing.T) {
	m := newTestMonitor(&stubDetector{}, &stubEngine{}, &stubExecutor{})
	loop := &regionLoop{region: domain.RegionChina}
	state := &loopState{}

	failed := func() CycleResult {
		return CycleResult{
			Region:       domain.RegionChina,
			Success:      false,
			StartTime:    time.Now(),
			EndTime:      time.Now(),
			ErrorMessage: "data feed unavailable",
		}
	}

	m.recordResult(loop, state, failed(), zerolog.Nop())
	m.recordResult(loop, state, failed(), zerolog.Nop())
	assert.Equal(t, 2, state.failures)
	assert.False(t, state.paused)

	m.recordResult(loop, state, failed(), zerolog.Nop())
	assert.Equal(t, 3, state.failures)
	assert.True(t, state.paused)
	assert.Contains(t, state.pauseReason, "3 consecutive failures")
	assert.Contains(t, state.pauseReason, "data feed unavailable")
	assert.True(t, state.pauseUntil.After(time.Now()))
}

func TestRecordResult_SuccessResetsFailures(t *testing.T) {
	m := newTestMonitor(&stubDetector{}, &stubEngine{}, &stubExecutor{})
	loop := &regionLoop{region: domain.RegionUSA}
	state := &loopState{failures: 2, lastError: "stale"}

	now := time.Now()
	m.recordResult(loop, state, CycleResult{
		Region:               domain.RegionUSA,
		Success:              true,
		StartTime:            now.Add(-time.Second),
		EndTime:              now,
		RecommendationsCount: 2,
		TradesExecuted:       1,
	}, zerolog.Nop())

	assert.Zero(t, state.failures)
	assert.Equal(t, 1, state.cyclesToday)
	assert.Equal(t, 2, state.recsToday)
	assert.Equal(t, 1, state.tradesToday)
	assert.Equal(t, now, state.lastCycle)
	assert.InDelta(t, 1.0, stateMean(state), 0.05)
}

func stateMean(state *loopState) float64 {
	var sum float64
	for _, d := range state.durations {
		sum += d
	}
	return sum / float64(len(state.durations))
}

func TestTick_ClosedMarketSkipsCycle(t *testing.T) {
	engine := &stubEngine{recs: twoRecommendations()}
	m := newTestMonitor(&stubDetector{open: false}, engine, &stubExecutor{})
	loop := &regionLoop{region: domain.RegionChina}
	state := &loopState{}

	m.tick(context.Background(), loop, state, zerolog.Nop(), time.Now())

	assert.Zero(t, engine.callCount())
	assert.False(t, loop.status.Load().MarketOpen)
}

func TestTick_DetectorErrorFailsClosed(t *testing.T) {
	engine := &stubEngine{recs: twoRecommendations()}
	m := newTestMonitor(&stubDetector{open: true, err: errors.New("holiday source down")}, engine, &stubExecutor{})
	loop := &regionLoop{region: domain.RegionChina}
	state := &loopState{wasOpen: true}

	m.tick(context.Background(), loop, state, zerolog.Nop(), time.Now())

	assert.Zero(t, engine.callCount())
	assert.False(t, state.wasOpen)
}

func TestTick_OpenTransitionRunsImmediateCycle(t *testing.T) {
	engine := &stubEngine{}
	m := newTestMonitor(&stubDetector{open: true}, engine, &stubExecutor{})
	loop := &regionLoop{region: domain.RegionHongKong}
	// Leftover next_cycle_time from the previous session must not delay
	// the first cycle after an open transition.
	state := &loopState{wasOpen: false, nextCycle: time.Now().Add(time.Hour)}

	m.tick(context.Background(), loop, state, zerolog.Nop(), time.Now())

	assert.Equal(t, 1, engine.callCount())
	assert.Equal(t, 1, state.cyclesToday)
	assert.False(t, state.nextCycle.IsZero())
}

func TestTick_RespectsNextCycleTime(t *testing.T) {
	engine := &stubEngine{}
	m := newTestMonitor(&stubDetector{open: true}, engine, &stubExecutor{})
	loop := &regionLoop{region: domain.RegionHongKong}
	state := &loopState{wasOpen: true, nextCycle: time.Now().Add(time.Hour)}

	m.tick(context.Background(), loop, state, zerolog.Nop(), time.Now())

	assert.Zero(t, engine.callCount())
}

func TestTick_PausedSkipsEntireTick(t *testing.T) {
	engine := &stubEngine{}
	detector := &stubDetector{open: true}
	m := newTestMonitor(detector, engine, &stubExecutor{})
	loop := &regionLoop{region: domain.RegionChina}
	state := &loopState{
		paused:     true,
		pauseUntil: time.Now().Add(time.Hour),
		failures:   3,
	}

	m.tick(context.Background(), loop, state, zerolog.Nop(), time.Now())

	assert.Zero(t, engine.callCount())
	assert.True(t, state.paused)
	assert.Equal(t, 3, state.failures)
}

func TestTick_PauseExpiryResumesAndRunsSameTick(t *testing.T) {
	engine := &stubEngine{}
	m := newTestMonitor(&stubDetector{open: true}, engine, &stubExecutor{})
	loop := &regionLoop{region: domain.RegionChina}
	state := &loopState{
		paused:      true,
		pauseUntil:  time.Now().Add(-time.Second),
		pauseReason: "3 consecutive failures: data feed unavailable",
		failures:    3,
		wasOpen:     true,
	}

	m.tick(context.Background(), loop, state, zerolog.Nop(), time.Now())

	assert.False(t, state.paused)
	assert.Empty(t, state.pauseReason)
	assert.Zero(t, state.failures)
	assert.Equal(t, 1, engine.callCount())
}

func TestStartIsIdempotentAndStatusHasDefaults(t *testing.T) {
	m := newTestMonitor(&stubDetector{open: false}, &stubEngine{}, &stubExecutor{})
	defer m.Stop()

	m.Start([]domain.Region{domain.RegionChina})
	m.Start([]domain.Region{domain.RegionChina})

	assert.Len(t, m.AllStatuses(), 1)

	status := m.Status(domain.RegionChina)
	assert.True(t, status.IsActive)
	assert.False(t, status.IsPaused)
	assert.Zero(t, status.TotalCyclesToday)
	assert.Zero(t, status.ConsecutiveFailures)
}

func TestStatusUnknownRegionReturnsZeroValues(t *testing.T) {
	m := newTestMonitor(&stubDetector{}, &stubEngine{}, &stubExecutor{})

	status := m.Status(domain.RegionUSA)
	assert.Equal(t, domain.RegionUSA, status.Region)
	assert.False(t, status.IsActive)
	assert.False(t, status.IsPaused)
	assert.Zero(t, status.TotalCyclesToday)
}

func TestLoopRunsCyclesWhileOpen(t *testing.T) {
	engine := &stubEngine{recs: twoRecommendations()}
	executor := &stubExecutor{failSymbols: map[string]bool{"0700.HK": true}}
	m := newTestMonitor(&stubDetector{open: true}, engine, executor)
	defer m.Stop()

	m.Start([]domain.Region{domain.RegionHongKong})

	require.Eventually(t, func() bool {
		return m.Status(domain.RegionHongKong).TotalCyclesToday >= 1
	}, time.Second, 2*time.Millisecond)

	status := m.Status(domain.RegionHongKong)
	assert.True(t, status.MarketOpen)
	assert.Equal(t, 2*status.TotalCyclesToday, status.RecommendationsToday)
	assert.Equal(t, status.TotalCyclesToday, status.TradesToday)
	assert.False(t, status.NextCycleTime.IsZero())
	assert.GreaterOrEqual(t, status.AvgCycleSeconds, 0.0)
}

func TestLoopBreakerTripAndResume(t *testing.T) {
	engine := &stubEngine{fail: true}
	m := newTestMonitor(&stubDetector{open: true}, engine, &stubExecutor{})
	defer m.Stop()

	m.Start([]domain.Region{domain.RegionChina})

	require.Eventually(t, func() bool {
		return m.Status(domain.RegionChina).IsPaused
	}, time.Second, 2*time.Millisecond)

	status := m.Status(domain.RegionChina)
	assert.Equal(t, 3, status.ConsecutiveFailures)
	assert.Contains(t, status.PauseReason, "3 consecutive failures")
	assert.False(t, status.PauseUntil.IsZero())

	// Let the engine recover; once the pause expires the loop resumes
	// with failures reset and cycles start succeeding again.
	engine.mu.Lock()
	engine.fail = false
	engine.mu.Unlock()

	require.Eventually(t, func() bool {
		s := m.Status(domain.RegionChina)
		return !s.IsPaused && s.TotalCyclesToday >= 1
	}, time.Second, 2*time.Millisecond)

	assert.Zero(t, m.Status(domain.RegionChina).ConsecutiveFailures)
}

func TestLoopEmitsSessionEvents(t *testing.T) {
	bus := events.NewBus()
	var mu sync.Mutex
	var seen []events.EventType
	bus.Subscribe(func(e events.Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	})

	detector := &stubDetector{open: false}
	m := New(Config{
		Log:           zerolog.Nop(),
		Detector:      detector,
		Engine:        &stubEngine{},
		Executor:      &stubExecutor{},
		Events:        events.NewManager(bus, zerolog.Nop()),
		PollInterval:  2 * time.Millisecond,
		CycleInterval: time.Hour,
	})
	defer m.Stop()

	m.Start([]domain.Region{domain.RegionUSA})

	has := func(want events.EventType) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			for _, got := range seen {
				if got == want {
					return true
				}
			}
			return false
		}
	}

	require.Eventually(t, has(events.MonitoringStarted), time.Second, 2*time.Millisecond)

	detector.set(true)
	require.Eventually(t, has(events.MarketOpened), time.Second, 2*time.Millisecond)
	require.Eventually(t, has(events.CycleCompleted), time.Second, 2*time.Millisecond)

	detector.set(false)
	require.Eventually(t, has(events.MarketClosed), time.Second, 2*time.Millisecond)
}

func TestStopClearsLoops(t *testing.T) {
	m := newTestMonitor(&stubDetector{open: false}, &stubEngine{}, &stubExecutor{})
	m.Start([]domain.Region{domain.RegionChina, domain.RegionUSA})
	require.Len(t, m.AllStatuses(), 2)

	m.Stop()

	assert.Empty(t, m.AllStatuses())
	assert.False(t, m.Status(domain.RegionChina).IsActive)

	// Stop with nothing running is a no-op.
	m.Stop()
}

func TestResetDailyCounters(t *testing.T) {
	engine := &stubEngine{recs: twoRecommendations()}
	detector := &stubDetector{open: true}
	m := newTestMonitor(detector, engine, &stubExecutor{})
	defer m.Stop()

	m.Start([]domain.Region{domain.RegionHongKong})

	require.Eventually(t, func() bool {
		return m.Status(domain.RegionHongKong).TotalCyclesToday >= 1
	}, time.Second, 2*time.Millisecond)

	// Close the market so no new cycle races the reset.
	detector.set(false)
	require.Eventually(t, func() bool {
		return !m.Status(domain.RegionHongKong).MarketOpen
	}, time.Second, 2*time.Millisecond)

	m.ResetDailyCounters(domain.RegionHongKong)

	require.Eventually(t, func() bool {
		s := m.Status(domain.RegionHongKong)
		return s.TotalCyclesToday == 0 && s.RecommendationsToday == 0 && s.TradesToday == 0
	}, time.Second, 2*time.Millisecond)

	// Unknown region reset is a no-op.
	m.ResetDailyCounters(domain.RegionUSA)
}
