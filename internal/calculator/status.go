package calculator

import (
	"time"

	"MarketBell/internal/model"
)

const (
	// HolidayClosedText is appended to the holiday name on non-trading days.
	HolidayClosedText = "休市"
	// OffHoursText labels a trading day outside every period.
	OffHoursText = "已收盘"
)

// CalculateStatus maps a schedule and a wall-clock time to a status snapshot.
// Periods are half-open: a period matches when start <= now < end, and the
// first match in schedule order wins. Periods whose clock strings do not
// parse never match.
func CalculateStatus(schedule *model.TradingSchedule, now time.Time) model.MarketStatus {
	if schedule == nil || !schedule.IsTradeDay {
		var holiday string
		if schedule != nil {
			holiday = schedule.HolidayName
		}
		return model.MarketStatus{
			Status:      model.StatusClosed,
			StatusText:  holiday + HolidayClosedText,
			IsTradeDay:  false,
			HolidayName: holiday,
		}
	}

	current := MinutesOfDay(now)
	for _, p := range schedule.Periods {
		start, ok1 := ParseClock(p.StartTime)
		end, ok2 := ParseClock(p.EndTime)
		if !ok1 || !ok2 {
			continue
		}
		if start <= current && current < end {
			return model.MarketStatus{
				Status:     p.Status,
				StatusText: p.Text,
				IsTradeDay: true,
			}
		}
	}

	return model.MarketStatus{
		Status:     model.StatusClosed,
		StatusText: OffHoursText,
		IsTradeDay: true,
	}
}

// NextTransition returns the earliest period boundary later than now on the
// same local day. ok is false on non-trading days and after the last boundary.
func NextTransition(schedule *model.TradingSchedule, now time.Time) (time.Time, bool) {
	if schedule == nil || !schedule.IsTradeDay {
		return time.Time{}, false
	}
	current := MinutesOfDay(now)
	next := -1
	for _, p := range schedule.Periods {
		for _, s := range []string{p.StartTime, p.EndTime} {
			m, ok := ParseClock(s)
			if !ok || m <= current || m >= 24*60 {
				continue
			}
			if next < 0 || m < next {
				next = m
			}
		}
	}
	if next < 0 {
		return time.Time{}, false
	}
	y, mo, d := now.Date()
	return time.Date(y, mo, d, next/60, next%60, 0, 0, now.Location()), true
}
