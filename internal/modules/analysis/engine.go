// Package analysis implements the scheduled analysis engine consumed by the
// intraday monitor.
//
// The engine owns its own retry policy: a scheduled run is attempted up to
// three times with a fixed spacing between attempts, and exhaustion is
// escalated via the log. Callers treat any reported failure as a single
// cycle failure and never retry around it.
package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aristath/intraday-trader/internal/clients/yahoo"
	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 5 * time.Minute

	// Minimum absolute move from previous close before a recommendation
	// is produced
	moveThreshold = 0.02
)

// QuoteSource provides price snapshots for analysis
type QuoteSource interface {
	Quote(symbol string) (*yahoo.Quote, error)
}

// Engine produces trade recommendations for regional markets
type Engine struct {
	quotes      QuoteSource
	log         zerolog.Logger
	maxAttempts int
	retryDelay  time.Duration
	watchlists  map[domain.Region][]string
}

// Config holds analysis engine configuration
type Config struct {
	Quotes     QuoteSource
	Log        zerolog.Logger
	RetryDelay time.Duration               // Spacing between attempts, default 5 minutes
	Watchlists map[domain.Region][]string  // Symbols per region, defaults used when nil
}

// NewEngine creates an analysis engine
func NewEngine(cfg Config) *Engine {
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	watchlists := cfg.Watchlists
	if watchlists == nil {
		watchlists = defaultWatchlists()
	}
	return &Engine{
		quotes:      cfg.Quotes,
		log:         cfg.Log.With().Str("component", "analysis").Logger(),
		maxAttempts: defaultMaxAttempts,
		retryDelay:  retryDelay,
		watchlists:  watchlists,
	}
}

// defaultWatchlists returns the built-in per-region symbol lists
func defaultWatchlists() map[domain.Region][]string {
	return map[domain.Region][]string{
		domain.RegionChina:    {"600519.SS", "601318.SS", "000001.SZ"},
		domain.RegionHongKong: {"0700.HK", "9988.HK", "0005.HK"},
		domain.RegionUSA:      {"AAPL", "MSFT", "SPY"},
	}
}

// ExecuteScheduledAnalysis runs one analysis pass over the given regions.
// Failures are reported in the result, never returned as an error: the
// caller's contract is a success flag plus an opaque error message.
func (e *Engine) ExecuteScheduledAnalysis(ctx context.Context, regions []domain.Region) domain.AnalysisResult {
	result := domain.AnalysisResult{Regions: regions}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		recommendations, err := e.analyzeOnce(regions)
		if err == nil {
			result.Success = true
			result.Recommendations = recommendations
			result.RetryCount = attempt - 1
			return result
		}
		lastErr = err

		e.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", e.maxAttempts).
			Msg("Analysis attempt failed")

		if attempt < e.maxAttempts {
			select {
			case <-time.After(e.retryDelay):
			case <-ctx.Done():
				result.ErrorMessage = fmt.Sprintf("analysis cancelled: %v", ctx.Err())
				result.RetryCount = attempt
				return result
			}
		}
	}

	// Retries exhausted: escalate and report failure
	e.log.Error().
		Err(lastErr).
		Int("attempts", e.maxAttempts).
		Bool("escalated", true).
		Msg("Analysis failed after all retries, escalating to administrator")

	result.ErrorMessage = fmt.Sprintf("analysis failed after %d attempts: %v", e.maxAttempts, lastErr)
	result.RetryCount = e.maxAttempts
	return result
}

// analyzeOnce fetches quotes for every watched symbol in the regions and
// turns significant moves into recommendations. It fails only when no
// symbol could be quoted at all.
func (e *Engine) analyzeOnce(regions []domain.Region) ([]domain.Recommendation, error) {
	var recommendations []domain.Recommendation
	quoted := 0
	now := time.Now().UTC()

	for _, region := range regions {
		for _, symbol := range e.watchlists[region] {
			quote, err := e.quotes.Quote(symbol)
			if err != nil {
				e.log.Warn().
					Err(err).
					Str("symbol", symbol).
					Str("region", region.String()).
					Msg("Quote fetch failed, skipping symbol")
				continue
			}
			quoted++

			if rec, ok := e.evaluate(region, quote, now); ok {
				recommendations = append(recommendations, rec)
			}
		}
	}

	if quoted == 0 {
		return nil, fmt.Errorf("no quotes available for regions %v", regions)
	}
	return recommendations, nil
}

// evaluate applies the momentum rule: a move beyond the threshold from the
// previous close produces a recommendation in the direction of the move.
func (e *Engine) evaluate(region domain.Region, quote *yahoo.Quote, now time.Time) (domain.Recommendation, bool) {
	if quote.PreviousClose <= 0 {
		return domain.Recommendation{}, false
	}

	change := (quote.Price - quote.PreviousClose) / quote.PreviousClose
	if math.Abs(change) < moveThreshold {
		return domain.Recommendation{}, false
	}

	side := domain.SideBuy
	if change < 0 {
		side = domain.SideSell
	}

	return domain.Recommendation{
		Symbol:      quote.Symbol,
		Region:      region,
		Side:        side,
		Confidence:  math.Min(1.0, math.Abs(change)*10),
		Price:       quote.Price,
		Reason:      fmt.Sprintf("%.2f%% move from previous close", change*100),
		GeneratedAt: now,
	}, true
}
