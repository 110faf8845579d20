package market_hours

import "github.com/aristath/intraday-trader/internal/domain"

// Static trading-hours table. Adding a region means adding one entry here
// plus a domain.Region constant; nothing else depends on the set's size.
//
// China (SSE/SZSE):  09:30-15:00 CST  (UTC+8, no DST)
// Hong Kong (HKEX):  09:30-16:00 HKT  (UTC+8, no DST)
// USA (NYSE/NASDAQ): 09:30-16:00 ET   (UTC-5/UTC-4 with DST)
var marketCalendars = map[domain.Region]MarketCalendar{
	domain.RegionChina: {
		Name:       "SSE/SZSE",
		TimezoneID: "Asia/Shanghai",
		Hours:      TradingHours{OpenHour: 9, OpenMinute: 30, CloseHour: 15, CloseMinute: 0},
	},
	domain.RegionHongKong: {
		Name:       "HKEX",
		TimezoneID: "Asia/Hong_Kong",
		Hours:      TradingHours{OpenHour: 9, OpenMinute: 30, CloseHour: 16, CloseMinute: 0},
	},
	domain.RegionUSA: {
		Name:       "NYSE/NASDAQ",
		TimezoneID: "America/New_York",
		Hours:      TradingHours{OpenHour: 9, OpenMinute: 30, CloseHour: 16, CloseMinute: 0},
	},
}

// Calendar returns the static calendar entry for a region
func Calendar(region domain.Region) (MarketCalendar, bool) {
	cal, ok := marketCalendars[region]
	return cal, ok
}
