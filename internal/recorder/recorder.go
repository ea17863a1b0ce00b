package recorder

import "time"

// StatusEvent is one published market status change.
type StatusEvent struct {
	Time        time.Time `json:"time"`
	Status      string    `json:"status"`
	StatusText  string    `json:"status_text"`
	IsTradeDay  bool      `json:"is_trade_day"`
	HolidayName string    `json:"holiday_name"`
}

// ScheduleEvent records an adopted trading schedule.
type ScheduleEvent struct {
	Time        time.Time
	IsTradeDay  bool
	HolidayName string
	PeriodCount int
	Periods     string // JSON-encoded period list
}

// Recorder keeps an audit trail of status changes and schedule adoptions.
type Recorder interface {
	RecordStatus(evt *StatusEvent) error
	RecordSchedule(evt *ScheduleEvent) error
	RecentStatus(limit int) ([]StatusEvent, error)
	Prune(before time.Time) (int64, error)
	Close() error
}
