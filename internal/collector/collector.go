package collector

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"MarketBell/internal/metrics"
	"MarketBell/internal/model"

	"github.com/cenkalti/backoff/v4"
)

// DefaultBackoff is the fixed wait between failed fetch attempts.
const DefaultBackoff = 500 * time.Millisecond

var errInvalidSchedule = errors.New("schedule is nil or has no periods")

// Collector fetches the schedule from a Provider, retrying until it gets a
// usable answer.
type Collector struct {
	Provider Provider
	Backoff  time.Duration
	// Timer paces the retries. Nil uses a real timer.
	Timer backoff.Timer
}

// NewCollector creates a Collector with the default fixed backoff.
func NewCollector(p Provider) *Collector {
	return &Collector{Provider: p, Backoff: DefaultBackoff}
}

// FetchWithRetry calls the provider until it returns a schedule with at least
// one period. There is no attempt limit and the backoff does not grow. The
// only error returned is ctx's, once it is cancelled.
//
// Note the period check applies to holidays too, so a provider that answers
// a holiday with an empty period list is retried indefinitely.
func (c *Collector) FetchWithRetry(ctx context.Context) (*model.TradingSchedule, error) {
	var (
		sched   *model.TradingSchedule
		attempt int
	)
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempt++
		s, err := c.Provider.GetTradingSchedule(ctx)
		switch {
		case err != nil:
			metrics.IncFetchAttempt(metrics.ResultError)
			return err
		case s == nil || len(s.Periods) == 0:
			metrics.IncFetchAttempt(metrics.ResultInvalid)
			return errInvalidSchedule
		}
		metrics.IncFetchAttempt(metrics.ResultSuccess)
		sched = s
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("[WARN] %s schedule fetch failed (attempt %d): %v, retrying in %s", c.Provider.Name(), attempt, err, wait)
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(c.Backoff), ctx)
	if err := backoff.RetryNotifyWithTimer(op, b, notify, c.Timer); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if attempt > 1 {
		log.Printf("[INFO] %s schedule fetched after %d attempts", c.Provider.Name(), attempt)
	}
	return sched, nil
}

// MockResult is one scripted provider answer.
type MockResult struct {
	Schedule *model.TradingSchedule
	Err      error
}

// MockProvider replays scripted results in order and then repeats the last
// one. It is safe for concurrent use.
type MockProvider struct {
	mu      sync.Mutex
	results []MockResult
	calls   int
}

// NewMockProvider creates a MockProvider that answers with results in order.
func NewMockProvider(results ...MockResult) *MockProvider {
	return &MockProvider{results: results}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) GetTradingSchedule(_ context.Context) (*model.TradingSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.results) == 0 {
		return nil, errors.New("mock: no scripted results")
	}
	idx := m.calls - 1
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	r := m.results[idx]
	return r.Schedule, r.Err
}

// Push appends results to the script.
func (m *MockProvider) Push(results ...MockResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, results...)
}

// Calls returns how many times the provider has been asked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// DemoSchedule is a regular A-share trading day, used by the mock provider.
func DemoSchedule() *model.TradingSchedule {
	return &model.TradingSchedule{
		IsTradeDay: true,
		Periods: []model.TradingPeriod{
			{Status: model.StatusPreMarket, Text: "集合竞价", StartTime: "09:15", EndTime: "09:30"},
			{Status: model.StatusTrading, Text: "交易中", StartTime: "09:30", EndTime: "11:30"},
			{Status: "lunch_break", Text: "午间休市", StartTime: "11:30", EndTime: "13:00"},
			{Status: model.StatusTrading, Text: "交易中", StartTime: "13:00", EndTime: "15:00"},
		},
	}
}
