package collector

import (
	"context"
	"fmt"
	"os"
	"time"

	"MarketBell/internal/model"

	"gopkg.in/yaml.v3"
)

// Calendar is the YAML document read by FileProvider.
type Calendar struct {
	// Weekdays lists trading weekdays, 0=Sunday. Defaults to Monday-Friday.
	Weekdays  []time.Weekday                   `yaml:"weekdays"`
	Periods   []model.TradingPeriod            `yaml:"periods"`
	Holidays  []Holiday                        `yaml:"holidays"`
	Overrides map[string]model.TradingSchedule `yaml:"overrides"` // keyed by 2006-01-02
}

// Holiday marks a closed date.
type Holiday struct {
	Date string `yaml:"date"`
	Name string `yaml:"name"`
}

// FileProvider builds each day's schedule from a local YAML calendar. The
// file is re-read on every call so edits apply at the next fetch.
type FileProvider struct {
	Path string
	Now  func() time.Time
}

// NewFileProvider creates a provider reading the calendar at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path, Now: time.Now}
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) GetTradingSchedule(ctx context.Context) (*model.TradingSchedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cal, err := LoadCalendar(p.Path)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return cal.ScheduleFor(now()), nil
}

// LoadCalendar reads and parses a YAML calendar file.
func LoadCalendar(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	cal := &Calendar{}
	if err := yaml.Unmarshal(data, cal); err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	return cal, nil
}

// ScheduleFor returns the schedule of the local date of t. Closed days keep
// the regular periods attached; they are ignored by status calculation but
// keep the schedule acceptable to FetchWithRetry.
func (c *Calendar) ScheduleFor(t time.Time) *model.TradingSchedule {
	date := t.Format("2006-01-02")
	if o, ok := c.Overrides[date]; ok {
		sched := o
		sched.Periods = append([]model.TradingPeriod(nil), o.Periods...)
		if len(sched.Periods) == 0 {
			sched.Periods = c.copyPeriods()
		}
		return &sched
	}

	sched := &model.TradingSchedule{IsTradeDay: true, Periods: c.copyPeriods()}
	for _, h := range c.Holidays {
		if h.Date == date {
			sched.IsTradeDay = false
			sched.HolidayName = h.Name
			return sched
		}
	}
	if !c.isTradingWeekday(t.Weekday()) {
		sched.IsTradeDay = false
	}
	return sched
}

func (c *Calendar) isTradingWeekday(wd time.Weekday) bool {
	if len(c.Weekdays) == 0 {
		return wd != time.Saturday && wd != time.Sunday
	}
	for _, d := range c.Weekdays {
		if d == wd {
			return true
		}
	}
	return false
}

func (c *Calendar) copyPeriods() []model.TradingPeriod {
	return append([]model.TradingPeriod(nil), c.Periods...)
}
