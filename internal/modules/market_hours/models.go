package market_hours

import "fmt"

// TradingHours represents the regular trading window of a market in its
// local timezone. The window is half-open: the market is open from
// [open, close) — at the close instant it is already closed.
type TradingHours struct {
	OpenHour    int // Hour (0-23)
	OpenMinute  int // Minute (0-59)
	CloseHour   int // Hour (0-23)
	CloseMinute int // Minute (0-59)
}

// String formats the window as "09:30-16:00"
func (h TradingHours) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", h.OpenHour, h.OpenMinute, h.CloseHour, h.CloseMinute)
}

// MarketCalendar holds the static trading schedule for one region
type MarketCalendar struct {
	Name       string       // Exchange name, e.g. "NYSE/NASDAQ"
	TimezoneID string       // IANA timezone identifier
	Hours      TradingHours // Regular session in local time
}

// MarketStatus is a point-in-time view of one market, used by status queries
type MarketStatus struct {
	Region    string `json:"region"`
	Exchange  string `json:"exchange"`
	Open      bool   `json:"open"`
	Timezone  string `json:"timezone"`
	LocalTime string `json:"local_time"`
	Session   string `json:"session"` // e.g. "09:30-16:00"
}
