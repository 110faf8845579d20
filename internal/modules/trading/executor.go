// Package trading executes recommendations as paper trades recorded in the
// ledger database.
package trading

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// Recommendations below this confidence are skipped, not errors
	minConfidence = 0.3

	// Paper position size scales with confidence up to this notional
	maxNotional = 1000.0
)

// Executor turns recommendations into paper trades
type Executor struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewExecutor creates a trade executor backed by the ledger database
func NewExecutor(db *sql.DB, log zerolog.Logger) *Executor {
	return &Executor{
		db:  db,
		log: log.With().Str("component", "trading").Logger(),
	}
}

// Init creates the trades table if it does not exist
func (e *Executor) Init() error {
	_, err := e.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			region      TEXT NOT NULL,
			side        TEXT NOT NULL,
			quantity    INTEGER NOT NULL,
			price       REAL NOT NULL,
			executed_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create trades schema: %w", err)
	}
	return nil
}

// ExecuteRecommendation executes one recommendation as a paper trade.
// A nil trade with a nil error means the recommendation was deliberately
// skipped (confidence below threshold).
func (e *Executor) ExecuteRecommendation(rec domain.Recommendation) (*domain.Trade, error) {
	if rec.Symbol == "" {
		return nil, fmt.Errorf("recommendation has no symbol")
	}
	if rec.Price <= 0 {
		return nil, fmt.Errorf("recommendation for %s has invalid price %f", rec.Symbol, rec.Price)
	}

	if rec.Confidence < minConfidence {
		e.log.Debug().
			Str("symbol", rec.Symbol).
			Float64("confidence", rec.Confidence).
			Msg("Skipping low-confidence recommendation")
		return nil, nil
	}

	quantity := int64(math.Floor(maxNotional * rec.Confidence / rec.Price))
	if quantity < 1 {
		quantity = 1
	}

	trade := &domain.Trade{
		ID:         uuid.New().String(),
		Symbol:     rec.Symbol,
		Region:     rec.Region,
		Side:       rec.Side,
		Quantity:   quantity,
		Price:      rec.Price,
		ExecutedAt: time.Now().UTC(),
	}

	_, err := e.db.Exec(`
		INSERT INTO trades (id, symbol, region, side, quantity, price, executed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, trade.ID, trade.Symbol, trade.Region.String(), string(trade.Side),
		trade.Quantity, trade.Price, trade.ExecutedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("record trade for %s: %w", rec.Symbol, err)
	}

	e.log.Info().
		Str("trade_id", trade.ID).
		Str("symbol", trade.Symbol).
		Str("side", string(trade.Side)).
		Int64("quantity", trade.Quantity).
		Float64("price", trade.Price).
		Msg("Executed paper trade")

	return trade, nil
}

// TradesExecutedSince counts trades recorded for a region since an instant
func (e *Executor) TradesExecutedSince(region domain.Region, since time.Time) (int, error) {
	var count int
	err := e.db.QueryRow(
		"SELECT COUNT(*) FROM trades WHERE region = ? AND executed_at >= ?",
		region.String(), since.UTC().Format(time.RFC3339),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trades for %s: %w", region, err)
	}
	return count, nil
}
