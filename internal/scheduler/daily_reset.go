package scheduler

import (
	"fmt"
	"strings"

	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/aristath/intraday-trader/internal/modules/market_hours"
	"github.com/rs/zerolog"
)

// CounterResetter defines the contract for zeroing a region's daily counters
// Used by the daily reset job to enable testing with mocks
type CounterResetter interface {
	ResetDailyCounters(region domain.Region)
}

// DailyResetJob zeroes one region's daily cycle counters. Scheduled at
// the region's local midnight, so "today" always means the exchange's
// trading day rather than server time.
type DailyResetJob struct {
	log     zerolog.Logger
	region  domain.Region
	monitor CounterResetter
}

// NewDailyResetJob creates a daily reset job for one region
func NewDailyResetJob(log zerolog.Logger, region domain.Region, monitor CounterResetter) *DailyResetJob {
	return &DailyResetJob{
		log:     log.With().Str("job", "daily_reset").Str("region", string(region)).Logger(),
		region:  region,
		monitor: monitor,
	}
}

// Name returns the job name
func (j *DailyResetJob) Name() string {
	return "daily_reset_" + strings.ToLower(string(j.region))
}

// Schedule returns the cron expression firing at the region's local midnight.
func (j *DailyResetJob) Schedule() (string, error) {
	calendar, ok := market_hours.Calendar(j.region)
	if !ok {
		return "", fmt.Errorf("no market calendar for region %s", j.region)
	}
	return fmt.Sprintf("CRON_TZ=%s 0 0 0 * * *", calendar.TimezoneID), nil
}

// Run executes the reset
func (j *DailyResetJob) Run() error {
	j.monitor.ResetDailyCounters(j.region)
	j.log.Info().Msg("Daily counters reset")
	return nil
}
