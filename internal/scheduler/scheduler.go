package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"MarketBell/internal/calculator"
	"MarketBell/internal/cronspec"
	"MarketBell/internal/model"
	"MarketBell/internal/notifier"
	"MarketBell/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Sender delivers a text message with retries.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler wires the Monitor to persistence and notifications, and runs the
// housekeeping cron jobs.
type Scheduler struct {
	Cron          *cron.Cron
	Monitor       *Monitor
	Notifier      Sender
	Recorder      recorder.Recorder
	RetentionDays int
	Ctx           context.Context
}

// NewScheduler creates a new Scheduler. notif may be nil to disable
// notifications.
func NewScheduler(ctx context.Context, mon *Monitor, notif Sender, rec recorder.Recorder, retentionDays int) *Scheduler {
	return &Scheduler{
		Cron:          cron.New(cron.WithParser(cronspec.Parser)),
		Monitor:       mon,
		Notifier:      notif,
		Recorder:      rec,
		RetentionDays: retentionDays,
		Ctx:           ctx,
	}
}

// RegisterAll subscribes to the monitor and registers the prune job.
func (s *Scheduler) RegisterAll(pruneCron string) error {
	if _, err := s.Cron.AddFunc(pruneCron, s.pruneHistory); err != nil {
		return fmt.Errorf("register prune task: %w", err)
	}
	s.Monitor.Subscribe(s.onStatus)
	s.Monitor.SubscribeSchedule(s.onSchedule)
	return nil
}

// Start starts the monitor and the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Monitor.Start(s.Ctx)
	log.Println("[INFO] scheduler started")
}

// Stop stops the monitor and waits for running cron jobs.
func (s *Scheduler) Stop() {
	s.Monitor.Stop()
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) onStatus(st model.MarketStatus) {
	now := s.Monitor.Now()
	log.Printf("[INFO] market status: %s (%s)", st.Status, st.StatusText)
	if err := s.Recorder.RecordStatus(&recorder.StatusEvent{
		Time:        now,
		Status:      string(st.Status),
		StatusText:  st.StatusText,
		IsTradeDay:  st.IsTradeDay,
		HolidayName: st.HolidayName,
	}); err != nil {
		log.Printf("[ERROR] record status: %v", err)
	}
	if s.Notifier != nil {
		go s.trySend(notifier.FormatStatusChange(st, now))
	}
}

func (s *Scheduler) onSchedule(sched model.TradingSchedule) {
	periods, err := json.Marshal(sched.Periods)
	if err != nil {
		log.Printf("[ERROR] encode periods: %v", err)
		periods = []byte("[]")
	}
	if err := s.Recorder.RecordSchedule(&recorder.ScheduleEvent{
		Time:        s.Monitor.Now(),
		IsTradeDay:  sched.IsTradeDay,
		HolidayName: sched.HolidayName,
		PeriodCount: len(sched.Periods),
		Periods:     string(periods),
	}); err != nil {
		log.Printf("[ERROR] record schedule: %v", err)
	}
}

func (s *Scheduler) pruneHistory() {
	if s.RetentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -s.RetentionDays)
	n, err := s.Recorder.Prune(cutoff)
	if err != nil {
		log.Printf("[ERROR] prune history: %v", err)
		return
	}
	log.Printf("[INFO] pruned %d history rows older than %s", n, cutoff.Format("2006-01-02"))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "查看状态", "/status":
		snap := s.Monitor.Snapshot()
		next, ok := calculator.NextTransition(snap.Schedule, s.Monitor.Now())
		return notifier.FormatStatus(snap, next, ok)
	case "查看时段", "/schedule":
		return notifier.FormatSchedule(s.Monitor.Snapshot().Schedule)
	case "刷新", "/refresh":
		s.Monitor.Refresh()
		return "🔄 已开始重新获取交易日历"
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
