package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "marketbell_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultInvalid = "invalid"
)

var (
	registerOnce sync.Once

	fetchAttempts   *prometheus.CounterVec
	scheduleAdopted prometheus.Counter
	statusUpdates   *prometheus.CounterVec
	ticks           *prometheus.CounterVec
	marketOpen      prometheus.Gauge
)

// Init registers the monitor metrics with the default registry. Helpers are
// no-ops until Init has run.
func Init() {
	registerOnce.Do(func() {
		fetchAttempts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_attempts_total",
				Help: "Trading schedule fetch attempts by result",
			},
			[]string{"result"},
		)
		scheduleAdopted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "schedule_adopted_total",
				Help: "Schedules adopted by the monitor",
			},
		)
		statusUpdates = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "status_updates_total",
				Help: "Published market status changes by status tag",
			},
			[]string{"status"},
		)
		ticks = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ticks_total",
				Help: "Status recompute ticks by whether they published",
			},
			[]string{"published"},
		)
		marketOpen = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "market_open",
				Help: "1 while the market is trading or in pre-market",
			},
		)

		prometheus.MustRegister(fetchAttempts, scheduleAdopted, statusUpdates, ticks, marketOpen)
	})
}

// IncFetchAttempt counts one provider call.
func IncFetchAttempt(result string) {
	if result == "" {
		result = "unknown"
	}
	if fetchAttempts != nil {
		fetchAttempts.WithLabelValues(result).Inc()
	}
}

// IncScheduleAdopted counts a schedule replacement.
func IncScheduleAdopted() {
	if scheduleAdopted != nil {
		scheduleAdopted.Inc()
	}
}

// ObserveTick counts a recompute tick.
func ObserveTick(published bool) {
	if ticks == nil {
		return
	}
	label := "false"
	if published {
		label = "true"
	}
	ticks.WithLabelValues(label).Inc()
}

// ObserveStatus records a published status change.
func ObserveStatus(status string, active bool) {
	if status == "" {
		status = "unknown"
	}
	if statusUpdates != nil {
		statusUpdates.WithLabelValues(status).Inc()
	}
	if marketOpen != nil {
		if active {
			marketOpen.Set(1)
		} else {
			marketOpen.Set(0)
		}
	}
}
