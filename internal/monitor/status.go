package monitor

import (
	"time"

	"github.com/aristath/intraday-trader/internal/domain"
)

// Status is an immutable snapshot of one region's monitoring state.
// The owning loop builds a fresh value and swaps it atomically after
// every tick; readers never observe a partially updated snapshot.
type Status struct {
	Region               domain.Region `json:"region"`
	IsActive             bool          `json:"is_active"`
	IsPaused             bool          `json:"is_paused"`
	PauseReason          string        `json:"pause_reason,omitempty"`
	PauseUntil           time.Time     `json:"pause_until,omitempty"`
	MarketOpen           bool          `json:"market_open"`
	LastCycleTime        time.Time     `json:"last_cycle_time,omitempty"`
	NextCycleTime        time.Time     `json:"next_cycle_time,omitempty"`
	ConsecutiveFailures  int           `json:"consecutive_failures"`
	TotalCyclesToday     int           `json:"total_cycles_today"`
	RecommendationsToday int           `json:"recommendations_today"`
	TradesToday          int           `json:"trades_today"`
	AvgCycleSeconds      float64       `json:"avg_cycle_seconds"`
}

// CycleResult captures the outcome of one analyze-and-trade cycle.
// Consumed immediately by the owning loop; not persisted.
type CycleResult struct {
	Region               domain.Region
	Success              bool
	StartTime            time.Time
	EndTime              time.Time
	RecommendationsCount int
	TradesExecuted       int
	ErrorMessage         string
}
