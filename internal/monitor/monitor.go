package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/aristath/intraday-trader/internal/events"
	"github.com/rs/zerolog"
)

const (
	defaultPollInterval  = 60 * time.Second
	defaultCycleInterval = 60 * time.Minute
	defaultPauseDuration = 30 * time.Minute
	breakerFailureLimit  = 3
	stopBudget           = 30 * time.Second
	cycleDurationWindow  = 50
)

// Monitor owns one long-running monitoring loop per active region.
// Each loop drives cycle scheduling, session open/close edge detection,
// and the per-region circuit breaker. All scheduling state is in-memory
// and owned exclusively by the loop goroutine; readers see it only
// through atomically swapped Status snapshots.
type Monitor struct {
	log      zerolog.Logger
	detector MarketDetector
	engine   AnalysisEngine
	executor TradeExecutor
	events   *events.Manager

	pollInterval  time.Duration
	cycleInterval time.Duration
	pauseDuration time.Duration

	mu    sync.Mutex
	loops map[domain.Region]*regionLoop
	wg    sync.WaitGroup
}

// Config holds configuration for the monitor
type Config struct {
	Log      zerolog.Logger
	Detector MarketDetector
	Engine   AnalysisEngine
	Executor TradeExecutor
	Events   *events.Manager

	// CycleInterval is the spacing between analysis cycles while a
	// market is open. PollInterval is the loop tick; PauseDuration is
	// how long a tripped breaker keeps a region paused. Zero values
	// take the production defaults (60m / 60s / 30m).
	CycleInterval time.Duration
	PollInterval  time.Duration
	PauseDuration time.Duration
}

// regionLoop is the handle the monitor keeps for one running loop.
// Everything behind cancel is owned by the loop goroutine itself.
type regionLoop struct {
	region  domain.Region
	cancel  context.CancelFunc
	resetCh chan struct{}
	status  atomic.Pointer[Status]
}

func (l *regionLoop) publish(s Status) {
	l.status.Store(&s)
}

// New creates a new monitor
func New(cfg Config) *Monitor {
	m := &Monitor{
		log:           cfg.Log.With().Str("component", "monitor").Logger(),
		detector:      cfg.Detector,
		engine:        cfg.Engine,
		executor:      cfg.Executor,
		events:        cfg.Events,
		pollInterval:  cfg.PollInterval,
		cycleInterval: cfg.CycleInterval,
		pauseDuration: cfg.PauseDuration,
		loops:         make(map[domain.Region]*regionLoop),
	}
	if m.pollInterval <= 0 {
		m.pollInterval = defaultPollInterval
	}
	if m.cycleInterval <= 0 {
		m.cycleInterval = defaultCycleInterval
	}
	if m.pauseDuration <= 0 {
		m.pauseDuration = defaultPauseDuration
	}
	return m
}

// Start spawns one monitoring loop per region. Regions that already
// have a live loop are skipped, so repeated calls are safe.
func (m *Monitor) Start(regions []domain.Region) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, region := range regions {
		if _, running := m.loops[region]; running {
			m.log.Debug().Str("region", string(region)).Msg("Region already monitored, skipping")
			continue
		}

		ctx, cancel := context.WithCancel(context.Background())
		loop := &regionLoop{
			region:  region,
			cancel:  cancel,
			resetCh: make(chan struct{}, 1),
		}
		loop.publish(Status{Region: region, IsActive: true})
		m.loops[region] = loop

		m.wg.Add(1)
		go m.run(ctx, loop)

		m.log.Info().Str("region", string(region)).Msg("Monitoring started")
		m.emit(events.MonitoringStarted, region, nil)
	}
}

// Stop signals every loop to exit and waits up to 30 seconds total.
// In-flight cycles always run to completion; a loop still busy when the
// budget expires is abandoned with a warning.
func (m *Monitor) Stop() {
	m.mu.Lock()
	loops := m.loops
	m.loops = make(map[domain.Region]*regionLoop)
	m.mu.Unlock()

	if len(loops) == 0 {
		return
	}

	for _, loop := range loops {
		loop.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.log.Info().Int("regions", len(loops)).Msg("Monitoring stopped")
	case <-time.After(stopBudget):
		m.log.Warn().
			Dur("budget", stopBudget).
			Msg("Some monitoring loops did not stop within budget, proceeding anyway")
	}
}

// Status reports a region's current snapshot. A region that was never
// started returns zero values rather than an error.
func (m *Monitor) Status(region domain.Region) Status {
	m.mu.Lock()
	loop, ok := m.loops[region]
	m.mu.Unlock()

	if !ok {
		return Status{Region: region}
	}
	return *loop.status.Load()
}

// AllStatuses returns snapshots for every actively monitored region.
func (m *Monitor) AllStatuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]Status, 0, len(m.loops))
	for _, loop := range m.loops {
		statuses = append(statuses, *loop.status.Load())
	}
	return statuses
}

// ResetDailyCounters asks a region's loop to zero its daily counters.
// Called by the scheduler at the region's local midnight. No-op for
// regions without a live loop.
func (m *Monitor) ResetDailyCounters(region domain.Region) {
	m.mu.Lock()
	loop, ok := m.loops[region]
	m.mu.Unlock()

	if !ok {
		return
	}
	select {
	case loop.resetCh <- struct{}{}:
	default:
	}
}

func (m *Monitor) emit(eventType events.EventType, region domain.Region, data map[string]interface{}) {
	if m.events == nil {
		return
	}
	m.events.Emit(eventType, string(region), data)
}
