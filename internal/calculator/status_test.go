package calculator

import (
	"strings"
	"testing"
	"time"

	"MarketBell/internal/model"
)

func at(hhmm string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", "2024-03-15 "+hhmm, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleSchedule() *model.TradingSchedule {
	return &model.TradingSchedule{
		IsTradeDay: true,
		Periods: []model.TradingPeriod{
			{Status: model.StatusPreMarket, Text: "集合竞价", StartTime: "09:00", EndTime: "09:30"},
			{Status: model.StatusTrading, Text: "交易中", StartTime: "09:30", EndTime: "15:00"},
		},
	}
}

func TestCalculateStatus_PeriodBoundaries(t *testing.T) {
	sched := sampleSchedule()
	cases := []struct {
		clock string
		want  model.StatusTag
		text  string
	}{
		{"08:59", model.StatusClosed, OffHoursText},
		{"09:00", model.StatusPreMarket, "集合竞价"},
		{"09:29", model.StatusPreMarket, "集合竞价"},
		{"09:30", model.StatusTrading, "交易中"},
		{"14:59", model.StatusTrading, "交易中"},
		{"15:00", model.StatusClosed, OffHoursText},
		{"23:59", model.StatusClosed, OffHoursText},
	}
	for _, c := range cases {
		got := CalculateStatus(sched, at(c.clock))
		if got.Status != c.want || got.StatusText != c.text {
			t.Errorf("at %s: got %s/%q, want %s/%q", c.clock, got.Status, got.StatusText, c.want, c.text)
		}
		if !got.IsTradeDay {
			t.Errorf("at %s: expected IsTradeDay=true", c.clock)
		}
		if got.HolidayName != "" {
			t.Errorf("at %s: unexpected holiday name %q", c.clock, got.HolidayName)
		}
	}
}

func TestCalculateStatus_Holiday(t *testing.T) {
	got := CalculateStatus(&model.TradingSchedule{IsTradeDay: false, HolidayName: "国庆节"}, at("10:00"))
	if got.Status != model.StatusClosed {
		t.Fatalf("expected closed, got %s", got.Status)
	}
	if !strings.Contains(got.StatusText, "国庆节") {
		t.Errorf("expected holiday name in status text, got %q", got.StatusText)
	}
	if got.IsTradeDay {
		t.Error("expected IsTradeDay=false")
	}
	if got.HolidayName != "国庆节" {
		t.Errorf("holiday name not passed through: %q", got.HolidayName)
	}
}

func TestCalculateStatus_NonTradeDayWithoutName(t *testing.T) {
	got := CalculateStatus(&model.TradingSchedule{IsTradeDay: false}, at("10:00"))
	if got.Status != model.StatusClosed || got.StatusText != HolidayClosedText {
		t.Errorf("got %s/%q, want closed/%q", got.Status, got.StatusText, HolidayClosedText)
	}
}

func TestCalculateStatus_IgnoresPeriodsOnNonTradeDay(t *testing.T) {
	sched := sampleSchedule()
	sched.IsTradeDay = false
	got := CalculateStatus(sched, at("10:00"))
	if got.Status != model.StatusClosed {
		t.Errorf("expected closed on a non-trade day, got %s", got.Status)
	}
}

func TestCalculateStatus_GapBetweenPeriods(t *testing.T) {
	sched := &model.TradingSchedule{
		IsTradeDay: true,
		Periods: []model.TradingPeriod{
			{Status: model.StatusTrading, Text: "上午交易", StartTime: "09:30", EndTime: "11:30"},
			{Status: model.StatusTrading, Text: "下午交易", StartTime: "13:00", EndTime: "15:00"},
		},
	}
	if got := CalculateStatus(sched, at("12:00")); got.Status != model.StatusClosed || got.StatusText != OffHoursText {
		t.Errorf("lunch gap: got %s/%q", got.Status, got.StatusText)
	}
	if got := CalculateStatus(sched, at("13:00")); got.StatusText != "下午交易" {
		t.Errorf("afternoon open: got %q", got.StatusText)
	}
}

func TestCalculateStatus_FirstMatchWins(t *testing.T) {
	sched := &model.TradingSchedule{
		IsTradeDay: true,
		Periods: []model.TradingPeriod{
			{Status: "a", Text: "first", StartTime: "09:00", EndTime: "10:00"},
			{Status: "b", Text: "second", StartTime: "09:30", EndTime: "11:00"},
		},
	}
	if got := CalculateStatus(sched, at("09:45")); got.Status != "a" {
		t.Errorf("expected first overlapping period, got %s", got.Status)
	}
}

func TestCalculateStatus_DegenerateAndMalformedPeriods(t *testing.T) {
	sched := &model.TradingSchedule{
		IsTradeDay: true,
		Periods: []model.TradingPeriod{
			{Status: model.StatusTrading, Text: "empty", StartTime: "10:00", EndTime: "10:00"},
			{Status: model.StatusTrading, Text: "broken", StartTime: "xx:00", EndTime: "12:00"},
			{Status: model.StatusTrading, Text: "missing", StartTime: "", EndTime: "12:00"},
		},
	}
	got := CalculateStatus(sched, at("10:00"))
	if got.Status != model.StatusClosed || got.StatusText != OffHoursText {
		t.Errorf("expected off-hours fallback, got %s/%q", got.Status, got.StatusText)
	}
}

func TestCalculateStatus_EmptyPeriodsOnTradeDay(t *testing.T) {
	got := CalculateStatus(&model.TradingSchedule{IsTradeDay: true}, at("10:00"))
	if got.Status != model.StatusClosed || !got.IsTradeDay {
		t.Errorf("expected trade-day closed fallback, got %+v", got)
	}
}

func TestCalculateStatus_Idempotent(t *testing.T) {
	sched := sampleSchedule()
	now := at("09:45")
	a := CalculateStatus(sched, now)
	b := CalculateStatus(sched, now)
	if a != b {
		t.Errorf("repeated calls differ: %+v vs %+v", a, b)
	}
}

func TestParseClock(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"09:30", 570, true},
		{"9:05", 545, true},
		{"00:00", 0, true},
		{"15:00:00", 900, true},
		{"", 0, false},
		{"0930", 0, false},
		{"ab:cd", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseClock(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseClock(%q) = %d,%v want %d,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestNextTransition(t *testing.T) {
	sched := sampleSchedule()
	next, ok := NextTransition(sched, at("09:10"))
	if !ok {
		t.Fatal("expected a next transition")
	}
	if !next.Equal(at("09:30")) {
		t.Errorf("next = %v, want 09:30", next)
	}
	if _, ok := NextTransition(sched, at("15:00")); ok {
		t.Error("expected no transition after the last boundary")
	}
	if _, ok := NextTransition(&model.TradingSchedule{IsTradeDay: false}, at("09:10")); ok {
		t.Error("expected no transition on a holiday")
	}
}
