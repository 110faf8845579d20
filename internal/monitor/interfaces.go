package monitor

import (
	"context"
	"time"

	"github.com/aristath/intraday-trader/internal/domain"
)

// AnalysisEngine defines the contract for scheduled analysis execution
// Used by the monitor to enable testing with mocks
//
// The engine retries internally and escalates on exhaustion; the monitor
// treats any reported failure as a single cycle failure and adds no
// retries of its own.
type AnalysisEngine interface {
	ExecuteScheduledAnalysis(ctx context.Context, regions []domain.Region) domain.AnalysisResult
}

// TradeExecutor defines the contract for acting on a recommendation
// Used by the monitor to enable testing with mocks
//
// A (nil, nil) return means the recommendation was deliberately skipped.
type TradeExecutor interface {
	ExecuteRecommendation(rec domain.Recommendation) (*domain.Trade, error)
}

// MarketDetector defines the contract for market-session checks
// The error return keeps the fail-safe decision at the call site: the
// monitor treats any detector error as "market closed".
type MarketDetector interface {
	Evaluate(region domain.Region, t time.Time) (bool, error)
}
