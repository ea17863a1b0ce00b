package model

// StatusTag is the machine-readable market state. The vocabulary is open:
// providers may send tags beyond the ones declared here.
type StatusTag string

const (
	StatusTrading   StatusTag = "trading"
	StatusPreMarket StatusTag = "pre_market"
	StatusClosed    StatusTag = "closed"
)

// IsActive reports whether the tag needs the fast refresh cadence.
func (s StatusTag) IsActive() bool {
	return s == StatusTrading || s == StatusPreMarket
}

// TradingPeriod is one time window of the trading day. StartTime and EndTime
// are local wall-clock "HH:MM" strings; the window is [StartTime, EndTime).
type TradingPeriod struct {
	Status    StatusTag `json:"status" yaml:"status"`
	Text      string    `json:"text" yaml:"text"`
	StartTime string    `json:"start_time" yaml:"start_time"`
	EndTime   string    `json:"end_time" yaml:"end_time"`
}

// TradingSchedule is the provider's answer for one calendar day.
type TradingSchedule struct {
	IsTradeDay  bool            `json:"is_trade_day" yaml:"is_trade_day"`
	HolidayName string          `json:"holiday_name" yaml:"holiday_name"`
	Periods     []TradingPeriod `json:"periods" yaml:"periods"`
}

// MarketStatus is the derived, human-facing snapshot.
type MarketStatus struct {
	Status      StatusTag `json:"status"`
	StatusText  string    `json:"status_text"`
	IsTradeDay  bool      `json:"is_trade_day"`
	HolidayName string    `json:"holiday_name"`
}

// Key identifies a status for change detection.
func (m MarketStatus) Key() string {
	return string(m.Status) + ":" + m.StatusText
}

// Snapshot is the observable state. Both fields are nil until the first
// schedule has been fetched.
type Snapshot struct {
	Status   *MarketStatus    `json:"status"`
	Schedule *TradingSchedule `json:"schedule"`
}
