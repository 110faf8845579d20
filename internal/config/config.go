// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/intraday-trader/internal/domain"
	"github.com/joho/godotenv"
)

const (
	// Allowed bounds for the analysis cycle interval
	MinIntervalMinutes = 15
	MaxIntervalMinutes = 240
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the settings/ledger database
	Port      int
	LogLevel  string
	LogPretty bool
	Intraday  IntradayConfig
}

// IntradayConfig configures the intraday monitoring engine
type IntradayConfig struct {
	Enabled         bool
	IntervalMinutes int             // Minutes between analysis cycles (15-240)
	Regions         []domain.Region // Markets to monitor
}

// Interval returns the cycle interval as a duration
func (c IntradayConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		if _, err := os.Stat("./data"); err == nil {
			dataDir = "./data"
		} else {
			dataDir = "../data"
		}
	}

	cfg := &Config{
		DataDir:   dataDir,
		Port:      getEnvAsInt("PORT", 8010),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		Intraday: IntradayConfig{
			Enabled:         getEnvAsBool("INTRADAY_ENABLED", true),
			IntervalMinutes: getEnvAsInt("MONITORING_INTERVAL_MINUTES", 60),
		},
	}

	regions, err := parseRegions(getEnv("MONITORED_REGIONS", "CHINA,HONG_KONG,USA"))
	if err != nil {
		return nil, err
	}
	cfg.Intraday.Regions = regions

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration. Monitoring must never start with a bad
// interval, an empty region list, or an unknown region name.
func (c *Config) Validate() error {
	if err := c.Intraday.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks the intraday monitoring configuration
func (c IntradayConfig) Validate() error {
	if c.IntervalMinutes < MinIntervalMinutes || c.IntervalMinutes > MaxIntervalMinutes {
		return fmt.Errorf("monitoring interval must be between %d and %d minutes, got %d",
			MinIntervalMinutes, MaxIntervalMinutes, c.IntervalMinutes)
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf("no regions configured for intraday monitoring")
	}
	for _, region := range c.Regions {
		if !region.Valid() {
			return fmt.Errorf("invalid monitored region: %q", region)
		}
	}
	return nil
}

// parseRegions converts a comma-separated region list into domain regions,
// rejecting unknown names at parse time
func parseRegions(raw string) ([]domain.Region, error) {
	parts := strings.Split(raw, ",")
	regions := make([]domain.Region, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		region, err := domain.ParseRegion(name)
		if err != nil {
			return nil, fmt.Errorf("parse monitored regions: %w", err)
		}
		regions = append(regions, region)
	}
	return regions, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
