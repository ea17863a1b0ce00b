package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"MarketBell/internal/calculator"
	"MarketBell/internal/collector"
	"MarketBell/internal/cronspec"
	"MarketBell/internal/metrics"
	"MarketBell/internal/model"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultActiveInterval is the recompute period after a trading or
	// pre-market tick.
	DefaultActiveInterval = time.Second
	// DefaultIdleInterval is the recompute period otherwise.
	DefaultIdleInterval = time.Minute
	// DefaultRolloverSpec fires at local midnight.
	DefaultRolloverSpec = "0 0 0 * * *"
)

// ParseCron parses a six-field (with seconds) cron expression.
func ParseCron(spec string) (cron.Schedule, error) {
	return cronspec.Parse(spec)
}

// StatusObserver receives every published, non-duplicate status.
type StatusObserver func(model.MarketStatus)

// ScheduleObserver receives every adopted schedule.
type ScheduleObserver func(model.TradingSchedule)

// MonitorOptions tunes a Monitor. Zero values fall back to the defaults.
type MonitorOptions struct {
	Clock          Clock
	ActiveInterval time.Duration
	IdleInterval   time.Duration
	Rollover       cron.Schedule
}

// Monitor keeps the current trading schedule and the market status derived
// from it. The schedule is written only when a fetch completes; timers read
// it. All state transitions happen under mu, one callback at a time.
type Monitor struct {
	collector *collector.Collector
	clock     Clock
	active    time.Duration
	idle      time.Duration
	rollover  cron.Schedule

	mu        sync.Mutex
	ctx       context.Context
	started   bool
	stopped   bool
	done      chan struct{}
	schedule  *model.TradingSchedule
	lastKey   string
	prevTag   model.StatusTag
	hasPrev   bool
	gen       uint64
	tickTimer Timer
	midnight  Timer
	nextDelay time.Duration
	ticks     int

	snap atomic.Pointer[model.Snapshot]

	fetchSeq    uint64
	fetchCancel context.CancelFunc

	statusObs   []StatusObserver
	scheduleObs []ScheduleObserver
	notifyMu    sync.Mutex
}

// NewMonitor creates a Monitor fetching through col.
func NewMonitor(col *collector.Collector, opts MonitorOptions) *Monitor {
	m := &Monitor{
		collector: col,
		clock:     opts.Clock,
		active:    opts.ActiveInterval,
		idle:      opts.IdleInterval,
		rollover:  opts.Rollover,
		done:      make(chan struct{}),
	}
	if m.clock == nil {
		m.clock = RealClock()
	}
	if m.active <= 0 {
		m.active = DefaultActiveInterval
	}
	if m.idle <= 0 {
		m.idle = DefaultIdleInterval
	}
	if m.rollover == nil {
		m.rollover, _ = ParseCron(DefaultRolloverSpec)
	}
	return m
}

// Subscribe registers fn for status changes. Observers run in registration
// order on the monitor's notify path and must not call Refresh or Stop.
func (m *Monitor) Subscribe(fn StatusObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusObs = append(m.statusObs, fn)
}

// SubscribeSchedule registers fn for schedule adoptions.
func (m *Monitor) SubscribeSchedule(fn ScheduleObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduleObs = append(m.scheduleObs, fn)
}

// Start launches the first fetch. Cancelling ctx stops the monitor.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.stopped {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.ctx = ctx
	m.startFetchLocked("startup")
	m.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			m.Stop()
		case <-m.done:
		}
	}()
	log.Println("[INFO] market monitor started")
}

// Refresh re-runs fetch-with-retry, replacing any fetch in flight.
func (m *Monitor) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.stopped {
		return
	}
	m.startFetchLocked("manual")
}

// Stop cancels all timers and any fetch in flight. Once Stop returns no
// callback changes state or reaches an observer.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.done)
	m.gen++
	m.stopTimersLocked()
	if m.fetchCancel != nil {
		m.fetchCancel()
		m.fetchCancel = nil
	}
	m.mu.Unlock()

	// Wait out a notification already in progress.
	m.notifyMu.Lock()
	m.notifyMu.Unlock()
	log.Println("[INFO] market monitor stopped")
}

// Snapshot returns the current observable state. It does not take the
// monitor lock, so observers may call it.
func (m *Monitor) Snapshot() model.Snapshot {
	if s := m.snap.Load(); s != nil {
		return *s
	}
	return model.Snapshot{}
}

// Now reads the monitor's clock.
func (m *Monitor) Now() time.Time {
	return m.clock.Now()
}

func (m *Monitor) startFetchLocked(reason string) {
	if m.fetchCancel != nil {
		m.fetchCancel()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.fetchSeq++
	seq := m.fetchSeq
	m.fetchCancel = cancel
	log.Printf("[INFO] fetching trading schedule (%s)", reason)
	go m.runFetch(ctx, seq)
}

func (m *Monitor) runFetch(ctx context.Context, seq uint64) {
	sched, err := m.collector.FetchWithRetry(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("[ERROR] fetch trading schedule: %v", err)
		}
		return
	}
	m.adopt(sched, seq)
}

func (m *Monitor) adopt(sched *model.TradingSchedule, seq uint64) {
	m.mu.Lock()
	if m.stopped || seq != m.fetchSeq {
		m.mu.Unlock()
		return
	}
	if m.fetchCancel != nil {
		m.fetchCancel()
		m.fetchCancel = nil
	}
	m.schedule = sched
	m.storeSnapshotLocked(m.Snapshot().Status)
	m.gen++
	m.stopTimersLocked()
	metrics.IncScheduleAdopted()
	log.Printf("[INFO] adopted schedule: trade_day=%v holiday=%q periods=%d",
		sched.IsTradeDay, sched.HolidayName, len(sched.Periods))

	st, published := m.tickLocked(m.gen)
	m.armRolloverLocked(m.gen)
	m.publish(sched, st, published)
}

func (m *Monitor) onTick(gen uint64) {
	m.mu.Lock()
	if m.stopped || gen != m.gen {
		m.mu.Unlock()
		return
	}
	st, published := m.tickLocked(gen)
	m.publish(nil, st, published)
}

// tickLocked computes the status, arms the next tick and reports whether the
// status key changed. The next delay is chosen from the tag computed on the
// previous tick, so cadence follows state transitions one tick late.
func (m *Monitor) tickLocked(gen uint64) (model.MarketStatus, bool) {
	st := calculator.CalculateStatus(m.schedule, m.clock.Now())
	m.ticks++

	delay := m.idle
	if m.hasPrev && m.prevTag.IsActive() {
		delay = m.active
	}
	m.prevTag, m.hasPrev = st.Status, true
	m.nextDelay = delay
	m.tickTimer = m.clock.AfterFunc(delay, func() { m.onTick(gen) })

	key := st.Key()
	if key == m.lastKey {
		metrics.ObserveTick(false)
		return st, false
	}
	m.lastKey = key
	published := st
	m.storeSnapshotLocked(&published)
	metrics.ObserveTick(true)
	metrics.ObserveStatus(string(st.Status), st.Status.IsActive())
	return st, true
}

func (m *Monitor) storeSnapshotLocked(st *model.MarketStatus) {
	m.snap.Store(&model.Snapshot{Status: st, Schedule: m.schedule})
}

func (m *Monitor) armRolloverLocked(gen uint64) {
	now := m.clock.Now()
	next := m.rollover.Next(now)
	if next.IsZero() {
		log.Println("[WARN] rollover schedule has no next activation")
		return
	}
	delay := next.Sub(now)
	m.midnight = m.clock.AfterFunc(delay, func() { m.onRollover(gen) })
	log.Printf("[INFO] schedule rollover armed for %s (in %s)", next.Format("2006-01-02 15:04:05"), delay.Round(time.Second))
}

func (m *Monitor) onRollover(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || gen != m.gen {
		return
	}
	m.startFetchLocked("rollover")
}

func (m *Monitor) stopTimersLocked() {
	if m.tickTimer != nil {
		m.tickTimer.Stop()
		m.tickTimer = nil
	}
	if m.midnight != nil {
		m.midnight.Stop()
		m.midnight = nil
	}
}

// publish must be called with mu held and releases it. Observers run after
// mu is released but before notifyMu is, so notifications keep tick order.
func (m *Monitor) publish(sched *model.TradingSchedule, st model.MarketStatus, published bool) {
	if sched == nil && !published {
		m.mu.Unlock()
		return
	}
	statusObs := append([]StatusObserver(nil), m.statusObs...)
	scheduleObs := append([]ScheduleObserver(nil), m.scheduleObs...)
	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()

	if sched != nil {
		for _, fn := range scheduleObs {
			fn(*sched)
		}
	}
	if published {
		for _, fn := range statusObs {
			fn(st)
		}
	}
}
