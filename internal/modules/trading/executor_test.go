package trading

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/intraday-trader/internal/database"
	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	executor := NewExecutor(db.Conn(), zerolog.Nop())
	require.NoError(t, executor.Init())
	return executor
}

func TestExecuteRecommendation(t *testing.T) {
	executor := newTestExecutor(t)

	trade, err := executor.ExecuteRecommendation(domain.Recommendation{
		Symbol:     "0700.HK",
		Region:     domain.RegionHongKong,
		Side:       domain.SideBuy,
		Confidence: 0.8,
		Price:      320.0,
	})
	require.NoError(t, err)
	require.NotNil(t, trade)

	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, "0700.HK", trade.Symbol)
	assert.Equal(t, domain.SideBuy, trade.Side)
	assert.Equal(t, int64(2), trade.Quantity) // floor(1000*0.8/320)
	assert.False(t, trade.ExecutedAt.IsZero())

	count, err := executor.TradesExecutedSince(domain.RegionHongKong, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExecuteRecommendation_LowConfidenceSkipped(t *testing.T) {
	executor := newTestExecutor(t)

	trade, err := executor.ExecuteRecommendation(domain.Recommendation{
		Symbol:     "AAPL",
		Region:     domain.RegionUSA,
		Side:       domain.SideBuy,
		Confidence: 0.1,
		Price:      200.0,
	})
	require.NoError(t, err)
	assert.Nil(t, trade)
}

func TestExecuteRecommendation_Invalid(t *testing.T) {
	executor := newTestExecutor(t)

	_, err := executor.ExecuteRecommendation(domain.Recommendation{
		Region: domain.RegionUSA,
		Side:   domain.SideBuy,
		Price:  100,
	})
	assert.ErrorContains(t, err, "no symbol")

	_, err = executor.ExecuteRecommendation(domain.Recommendation{
		Symbol:     "AAPL",
		Region:     domain.RegionUSA,
		Side:       domain.SideBuy,
		Confidence: 0.9,
	})
	assert.ErrorContains(t, err, "invalid price")
}

func TestExecuteRecommendation_MinimumQuantityIsOne(t *testing.T) {
	executor := newTestExecutor(t)

	trade, err := executor.ExecuteRecommendation(domain.Recommendation{
		Symbol:     "600519.SS",
		Region:     domain.RegionChina,
		Side:       domain.SideSell,
		Confidence: 0.5,
		Price:      1700.0, // Notional 500 buys less than one share
	})
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, int64(1), trade.Quantity)
}
