// Package domain contains the shared types of the intraday monitoring system.
package domain

import (
	"fmt"
	"time"
)

// Region identifies a supported geographic equity market.
// The set is closed: adding a market means adding a constant here and a
// calendar entry in the market_hours package, nothing else.
type Region string

const (
	RegionChina    Region = "CHINA"
	RegionHongKong Region = "HONG_KONG"
	RegionUSA      Region = "USA"
)

// ErrUnknownRegion is returned when a configured region name does not match
// any supported region.
var ErrUnknownRegion = fmt.Errorf("unknown market region")

// AllRegions returns every supported region
func AllRegions() []Region {
	return []Region{RegionChina, RegionHongKong, RegionUSA}
}

// ParseRegion converts a configuration string into a Region.
// Unknown names are rejected here, at parse time, not at use time.
func ParseRegion(name string) (Region, error) {
	switch Region(name) {
	case RegionChina, RegionHongKong, RegionUSA:
		return Region(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, name)
}

// Valid reports whether the region is one of the supported set
func (r Region) Valid() bool {
	_, err := ParseRegion(string(r))
	return err == nil
}

func (r Region) String() string {
	return string(r)
}

// Side is the direction of a recommendation or trade
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Recommendation is a single actionable output of an analysis cycle
type Recommendation struct {
	Symbol      string    `json:"symbol"`
	Region      Region    `json:"region"`
	Side        Side      `json:"side"`
	Confidence  float64   `json:"confidence"` // 0.0 - 1.0
	Price       float64   `json:"price"`
	Reason      string    `json:"reason"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Trade is an executed (paper) trade derived from a recommendation
type Trade struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Region     Region    `json:"region"`
	Side       Side      `json:"side"`
	Quantity   int64     `json:"quantity"`
	Price      float64   `json:"price"`
	ExecutedAt time.Time `json:"executed_at"`
}

// AnalysisResult is what the analysis engine reports back for one scheduled
// run. The engine retries internally; RetryCount records how many attempts
// it took.
type AnalysisResult struct {
	Success         bool             `json:"success"`
	Regions         []Region         `json:"regions"`
	Recommendations []Recommendation `json:"recommendations"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	RetryCount      int              `json:"retry_count"`
}
