// Package settings persists monitoring configuration and market holiday
// calendars in the settings database.
package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/aristath/intraday-trader/internal/config"
	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles settings database operations.
// It backs two collaborator contracts of the monitor: the intraday
// configuration and the per-region holiday calendars.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "settings").Logger(),
	}
}

// Init creates the settings tables if they do not exist
func (r *Repository) Init() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS market_holidays (
			region  TEXT NOT NULL,
			holiday TEXT NOT NULL,
			UNIQUE(region, holiday)
		);
	`)
	if err != nil {
		return fmt.Errorf("create settings schema: %w", err)
	}
	return nil
}

// Get retrieves a setting value by key, nil when the key is absent
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get setting %s: %w", key, err)
	}
	return &value, nil
}

// Set stores a setting value
func (r *Repository) Set(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, now)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// MarketHolidays returns the stored holiday dates for a region as ISO date
// strings. A region with no rows simply has no holidays.
func (r *Repository) MarketHolidays(region domain.Region) ([]string, error) {
	rows, err := r.db.Query(
		"SELECT holiday FROM market_holidays WHERE region = ? ORDER BY holiday",
		region.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query holidays for %s: %w", region, err)
	}
	defer rows.Close()

	var holidays []string
	for rows.Next() {
		var holiday string
		if err := rows.Scan(&holiday); err != nil {
			return nil, fmt.Errorf("scan holiday row: %w", err)
		}
		holidays = append(holidays, holiday)
	}
	return holidays, rows.Err()
}

// AddMarketHoliday stores one holiday date (YYYY-MM-DD) for a region.
// The date string is not validated here; the detector skips bad entries.
func (r *Repository) AddMarketHoliday(region domain.Region, date string) error {
	_, err := r.db.Exec(`
		INSERT INTO market_holidays (region, holiday)
		VALUES (?, ?)
		ON CONFLICT(region, holiday) DO NOTHING
	`, region.String(), date)
	if err != nil {
		return fmt.Errorf("add holiday %s for %s: %w", date, region, err)
	}
	return nil
}

// ApplyIntradayOverrides overlays settings database values onto the
// environment-derived intraday configuration. Database values take
// precedence; absent keys keep the environment value.
func (r *Repository) ApplyIntradayOverrides(cfg *config.IntradayConfig) error {
	if enabled, err := r.Get("intraday_enabled"); err != nil {
		return err
	} else if enabled != nil {
		if v, err := strconv.ParseBool(*enabled); err == nil {
			cfg.Enabled = v
		}
	}

	if interval, err := r.Get("monitoring_interval_minutes"); err != nil {
		return err
	} else if interval != nil {
		if v, err := strconv.Atoi(*interval); err == nil {
			cfg.IntervalMinutes = v
		}
	}

	return nil
}
