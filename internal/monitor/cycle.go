package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/rs/zerolog"
)

// executeCycle runs one analyze-and-trade cycle for a single region.
// It never propagates an error or panic out to the loop: any failure,
// including one raised by a collaborator, becomes a failed CycleResult.
func (m *Monitor) executeCycle(ctx context.Context, region domain.Region, log zerolog.Logger) (result CycleResult) {
	start := time.Now()
	result = CycleResult{Region: region, StartTime: start}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Analysis cycle panicked")
			result.Success = false
			result.ErrorMessage = fmt.Sprintf("cycle panicked: %v", r)
		}
		result.EndTime = time.Now()
	}()

	analysis := m.engine.ExecuteScheduledAnalysis(ctx, []domain.Region{region})
	if !analysis.Success {
		result.ErrorMessage = analysis.ErrorMessage
		if result.ErrorMessage == "" {
			result.ErrorMessage = "analysis reported failure without detail"
		}
		return result
	}

	result.Success = true
	result.RecommendationsCount = len(analysis.Recommendations)

	// One bad recommendation never blocks the others.
	for _, rec := range analysis.Recommendations {
		trade, err := m.executor.ExecuteRecommendation(rec)
		if err != nil {
			log.Error().
				Err(err).
				Str("symbol", rec.Symbol).
				Str("side", string(rec.Side)).
				Msg("Trade execution failed, continuing with remaining recommendations")
			continue
		}
		if trade != nil {
			result.TradesExecuted++
		}
	}

	return result
}
