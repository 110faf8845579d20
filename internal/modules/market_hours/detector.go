// Package market_hours answers "is this market open right now", combining a
// static per-region trading-hours table, the weekend rule, and a lazily
// cached holiday calendar.
package market_hours

import (
	"fmt"
	"sync"
	"time"

	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/aristath/intraday-trader/internal/modules/timezone"
	"github.com/rs/zerolog"
)

// ErrUnsupportedRegion is returned when a region has no calendar entry
var ErrUnsupportedRegion = fmt.Errorf("unsupported market region")

const holidayDateLayout = "2006-01-02"

// HolidaySource provides holiday dates as ISO date strings (YYYY-MM-DD).
// A source reporting no data for a region means the region has no holidays.
type HolidaySource interface {
	MarketHolidays(region domain.Region) ([]string, error)
}

// Detector determines whether regional markets are open for trading.
//
// IsMarketOpen is fail-safe-closed: any internal failure resolves to
// "closed", never "open". Callers that need to see the failure use Evaluate.
type Detector struct {
	holidays HolidaySource
	log      zerolog.Logger

	mu    sync.Mutex
	cache map[domain.Region]map[string]struct{} // holiday dates, loaded once per region
}

// NewDetector creates a market hours detector
func NewDetector(holidays HolidaySource, log zerolog.Logger) *Detector {
	return &Detector{
		holidays: holidays,
		log:      log.With().Str("component", "market_hours").Logger(),
		cache:    make(map[domain.Region]map[string]struct{}),
	}
}

// IsMarketOpen reports whether the region's market is open at instant t.
// It never fails: a check that cannot be completed is logged and resolved
// to closed.
func (d *Detector) IsMarketOpen(region domain.Region, t time.Time) bool {
	open, err := d.Evaluate(region, t)
	if err != nil {
		d.log.Error().
			Str("region", region.String()).
			Err(err).
			Msg("Market status check failed, assuming closed")
		return false
	}
	return open
}

// Evaluate is the error-returning form of the open/closed check, so the
// fail-safe policy is a visible decision at the call site.
func (d *Detector) Evaluate(region domain.Region, t time.Time) (bool, error) {
	cal, ok := Calendar(region)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnsupportedRegion, region)
	}

	local, err := timezone.UTCToLocal(t, cal.TimezoneID)
	if err != nil {
		return false, fmt.Errorf("convert to market time: %w", err)
	}

	if isWeekend(local) {
		return false, nil
	}

	holiday, err := d.isHoliday(region, local)
	if err != nil {
		return false, fmt.Errorf("holiday check: %w", err)
	}
	if holiday {
		return false, nil
	}

	// Half-open session interval: open at the open instant, closed at the
	// close instant.
	currentMinutes := local.Hour()*60 + local.Minute()
	openMinutes := cal.Hours.OpenHour*60 + cal.Hours.OpenMinute
	closeMinutes := cal.Hours.CloseHour*60 + cal.Hours.CloseMinute

	return currentMinutes >= openMinutes && currentMinutes < closeMinutes, nil
}

// MarketHours returns the local open/close window for a region
func (d *Detector) MarketHours(region domain.Region) (TradingHours, error) {
	cal, ok := Calendar(region)
	if !ok {
		return TradingHours{}, fmt.Errorf("%w: %q", ErrUnsupportedRegion, region)
	}
	return cal.Hours, nil
}

// Status returns a point-in-time market view for status queries
func (d *Detector) Status(region domain.Region, t time.Time) (*MarketStatus, error) {
	cal, ok := Calendar(region)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRegion, region)
	}

	status := &MarketStatus{
		Region:   region.String(),
		Exchange: cal.Name,
		Open:     d.IsMarketOpen(region, t),
		Timezone: cal.TimezoneID,
		Session:  cal.Hours.String(),
	}
	if local, err := timezone.UTCToLocal(t, cal.TimezoneID); err == nil {
		status.LocalTime = local.Format("2006-01-02 15:04:05")
	}
	return status, nil
}

// AllStatuses returns the status of every supported market
func (d *Detector) AllStatuses(t time.Time) []MarketStatus {
	statuses := make([]MarketStatus, 0, len(marketCalendars))
	for _, region := range domain.AllRegions() {
		if status, err := d.Status(region, t); err == nil {
			statuses = append(statuses, *status)
		}
	}
	return statuses
}

func isWeekend(local time.Time) bool {
	wd := local.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// isHoliday checks the local date against the region's holiday calendar,
// loading it on first use.
func (d *Detector) isHoliday(region domain.Region, local time.Time) (bool, error) {
	set, err := d.holidaySet(region)
	if err != nil {
		return false, err
	}
	_, found := set[local.Format(holidayDateLayout)]
	return found, nil
}

// holidaySet returns the cached holiday set for a region, loading it from
// the source on first use. Only successful loads are cached, so a transient
// source failure is retried on the next check.
func (d *Detector) holidaySet(region domain.Region) (map[string]struct{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if set, ok := d.cache[region]; ok {
		return set, nil
	}

	raw, err := d.holidays.MarketHolidays(region)
	if err != nil {
		return nil, fmt.Errorf("load holidays for %s: %w", region, err)
	}

	set := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		parsed, err := time.Parse(holidayDateLayout, s)
		if err != nil {
			// Bad entries are skipped, not fatal for the whole calendar
			d.log.Warn().
				Str("region", region.String()).
				Str("date", s).
				Msg("Invalid holiday date format, expected YYYY-MM-DD, skipping")
			continue
		}
		set[parsed.Format(holidayDateLayout)] = struct{}{}
	}

	d.log.Info().
		Str("region", region.String()).
		Int("holidays", len(set)).
		Msg("Loaded holiday calendar")

	d.cache[region] = set
	return set, nil
}
