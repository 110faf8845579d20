package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/aristath/intraday-trader/internal/events"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// loopState is the mutable scheduling state for one region. It lives
// entirely on the loop goroutine; other goroutines only ever see the
// Status snapshots derived from it.
type loopState struct {
	wasOpen     bool
	paused      bool
	pauseUntil  time.Time
	pauseReason string
	failures    int
	lastError   string

	lastCycle   time.Time
	nextCycle   time.Time
	cyclesToday int
	recsToday   int
	tradesToday int

	// Recent cycle durations in seconds, capped at cycleDurationWindow.
	durations []float64
}

func (m *Monitor) run(ctx context.Context, loop *regionLoop) {
	defer m.wg.Done()

	log := m.log.With().Str("region", string(loop.region)).Logger()
	state := &loopState{}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Monitoring loop stopped")
			m.emit(events.MonitoringStopped, loop.region, nil)
			return
		case <-loop.resetCh:
			state.cyclesToday = 0
			state.recsToday = 0
			state.tradesToday = 0
			loop.publish(m.snapshot(loop, state))
			log.Info().Msg("Daily counters reset")
		case <-ticker.C:
			m.tick(ctx, loop, state, log, time.Now())
		}
	}
}

// tick runs one iteration of a region's loop. Cycles execute
// synchronously inside the tick, so a new tick is never considered
// while a cycle is in flight.
func (m *Monitor) tick(ctx context.Context, loop *regionLoop, state *loopState, log zerolog.Logger, now time.Time) {
	defer func() { loop.publish(m.snapshot(loop, state)) }()

	if state.paused {
		if now.Before(state.pauseUntil) {
			return
		}
		// Pause expired: resume with a clean slate and fall through to
		// the market check on this same tick.
		state.paused = false
		state.pauseUntil = time.Time{}
		state.pauseReason = ""
		state.failures = 0
		log.Info().Msg("Pause expired, resuming monitoring")
		m.emit(events.MonitoringResumed, loop.region, nil)
	}

	open := m.marketOpen(loop.region, now, log)

	if open && !state.wasOpen {
		log.Info().Msg("Market opened")
		m.emit(events.MarketOpened, loop.region, nil)
		state.nextCycle = time.Time{}
	}
	if !open && state.wasOpen {
		log.Info().Msg("Market closed")
		m.emit(events.MarketClosed, loop.region, nil)
	}
	state.wasOpen = open

	if !open {
		return
	}
	if !state.nextCycle.IsZero() && now.Before(state.nextCycle) {
		return
	}

	result := m.executeCycle(ctx, loop.region, log)
	m.recordResult(loop, state, result, log)

	// Re-arm at full cadence regardless of outcome; the breaker is the
	// only throttle. If the session closed mid-cycle the next open
	// transition re-arms an immediate cycle instead.
	if m.marketOpen(loop.region, result.EndTime, log) {
		state.nextCycle = result.EndTime.Add(m.cycleInterval)
	} else {
		state.nextCycle = time.Time{}
		state.wasOpen = false
	}
}

// marketOpen wraps the detector's verdict; any detector error is
// logged and treated as closed.
func (m *Monitor) marketOpen(region domain.Region, now time.Time, log zerolog.Logger) bool {
	open, err := m.detector.Evaluate(region, now)
	if err != nil {
		log.Error().Err(err).Msg("Market status check failed, treating market as closed")
		return false
	}
	return open
}

func (m *Monitor) recordResult(loop *regionLoop, state *loopState, result CycleResult, log zerolog.Logger) {
	if result.Success {
		state.failures = 0
		state.lastError = ""
		state.lastCycle = result.EndTime
		state.cyclesToday++
		state.recsToday += result.RecommendationsCount
		state.tradesToday += result.TradesExecuted

		duration := result.EndTime.Sub(result.StartTime)
		state.durations = append(state.durations, duration.Seconds())
		if len(state.durations) > cycleDurationWindow {
			state.durations = state.durations[1:]
		}

		log.Info().
			Dur("duration", duration).
			Int("recommendations", result.RecommendationsCount).
			Int("trades", result.TradesExecuted).
			Msg("Analysis cycle completed")
		m.emit(events.CycleCompleted, loop.region, map[string]interface{}{
			"recommendations": result.RecommendationsCount,
			"trades":          result.TradesExecuted,
			"duration_ms":     duration.Milliseconds(),
		})
		return
	}

	state.failures++
	state.lastError = result.ErrorMessage
	log.Error().
		Str("error", result.ErrorMessage).
		Int("consecutive_failures", state.failures).
		Msg("Analysis cycle failed")
	m.emit(events.CycleFailed, loop.region, map[string]interface{}{
		"error":                result.ErrorMessage,
		"consecutive_failures": state.failures,
	})

	if state.failures >= breakerFailureLimit {
		state.paused = true
		state.pauseUntil = result.EndTime.Add(m.pauseDuration)
		state.pauseReason = fmt.Sprintf("%d consecutive failures: %s", state.failures, state.lastError)
		log.Error().
			Time("pause_until", state.pauseUntil).
			Str("reason", state.pauseReason).
			Msg("Circuit breaker tripped, pausing region")
		m.emit(events.BreakerTripped, loop.region, map[string]interface{}{
			"reason":      state.pauseReason,
			"pause_until": state.pauseUntil,
		})
	}
}

func (m *Monitor) snapshot(loop *regionLoop, state *loopState) Status {
	s := Status{
		Region:               loop.region,
		IsActive:             true,
		IsPaused:             state.paused,
		PauseReason:          state.pauseReason,
		PauseUntil:           state.pauseUntil,
		MarketOpen:           state.wasOpen,
		LastCycleTime:        state.lastCycle,
		NextCycleTime:        state.nextCycle,
		ConsecutiveFailures:  state.failures,
		TotalCyclesToday:     state.cyclesToday,
		RecommendationsToday: state.recsToday,
		TradesToday:          state.tradesToday,
	}
	if len(state.durations) > 0 {
		s.AvgCycleSeconds = stat.Mean(state.durations, nil)
	}
	return s
}
