// internal/monitor/monitor.go
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/orderkaro/orderkaro-backend/internal/logger"
	"github.com/orderkaro/orderkaro-backend/internal/notify"
)

var (
	customLog = logger.NewLogger()
)

const (
	maxPingSamples  = 20
	maxQuerySamples = 50
)

// PingFunc checks the health of the underlying store. Failures are soft: the
// monitor observes, it never gates real requests.
type PingFunc func(ctx context.Context) error

// Sample is one health-check or query outcome.
type Sample struct {
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// Options tunes the monitor. Zero values fall back to the defaults below.
type Options struct {
	Environment               string
	PingInterval              time.Duration
	PingTimeout               time.Duration
	SlowPingThreshold         time.Duration
	MaxConsecutiveFailures    int
	ErrorNotificationInterval time.Duration
	PauseDuration             time.Duration
}

func (o *Options) fillDefaults() {
	if o.Environment == "" {
		o.Environment = "development"
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 5 * time.Second
	}
	if o.SlowPingThreshold <= 0 {
		if o.Environment == "production" {
			o.SlowPingThreshold = time.Second
		} else {
			o.SlowPingThreshold = 250 * time.Millisecond
		}
	}
	if o.MaxConsecutiveFailures <= 0 {
		o.MaxConsecutiveFailures = 3
	}
	if o.ErrorNotificationInterval <= 0 {
		o.ErrorNotificationInterval = 5 * time.Minute
	}
	if o.PauseDuration <= 0 {
		o.PauseDuration = 5 * time.Minute
	}
}

// Monitor runs a periodic health-check loop and keeps bounded rolling logs of
// ping and query outcomes. After repeated failures it surfaces one notification
// and pauses its own pinging for a cool-down, so a prolonged outage produces
// one message every few minutes rather than one per interval.
type Monitor struct {
	ping     PingFunc
	notifier *notify.Notifier
	opts     Options

	mu                  sync.Mutex
	now                 func() time.Time
	consecutiveFailures int
	pingPaused          bool
	pausedUntil         time.Time
	lastNotification    time.Time
	pingLog             []Sample
	queryLog            []Sample
}

// New creates a Monitor. notifier may be nil if nothing should be surfaced.
func New(ping PingFunc, notifier *notify.Notifier, opts Options) *Monitor {
	opts.fillDefaults()
	return &Monitor{
		ping:     ping,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
	}
}

// Start runs the ping loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.opts.PingInterval)
	defer ticker.Stop()

	customLog.Printf("Monitor: ping loop started (interval %v, env %s)", m.opts.PingInterval, m.opts.Environment)
	for {
		select {
		case <-ctx.Done():
			customLog.Println("Monitor: ping loop stopped")
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick performs one iteration of the loop: resume from pause if the cool-down
// elapsed, then ping unless paused.
func (m *Monitor) Tick(ctx context.Context) {
	m.mu.Lock()
	if m.pingPaused {
		if m.now().Before(m.pausedUntil) {
			m.mu.Unlock()
			return
		}
		// Cool-down over: resume with a clean slate.
		m.pingPaused = false
		m.consecutiveFailures = 0
		customLog.Println("Monitor: cool-down elapsed, resuming pings")
	}
	m.mu.Unlock()

	start := m.now()
	err := m.runPing(ctx)
	m.record(start, m.now(), err)
}

func (m *Monitor) runPing(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.opts.PingTimeout)
	defer cancel()
	return m.ping(ctx)
}

func (m *Monitor) record(start, end time.Time, err error) {
	sample := Sample{
		Timestamp: start,
		Duration:  end.Sub(start),
		Success:   err == nil,
	}
	if err != nil {
		sample.Error = err.Error()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pingLog = appendBounded(m.pingLog, sample, maxPingSamples)

	if err == nil {
		m.consecutiveFailures = 0
		if sample.Duration > m.opts.SlowPingThreshold {
			customLog.Warnf("Monitor: slow ping %v (threshold %v)", sample.Duration, m.opts.SlowPingThreshold)
		}
		return
	}

	m.consecutiveFailures++
	customLog.Warnf("Monitor: ping failed (%d consecutive): %v", m.consecutiveFailures, err)

	if m.consecutiveFailures >= m.opts.MaxConsecutiveFailures &&
		m.now().Sub(m.lastNotification) >= m.opts.ErrorNotificationInterval {
		if m.notifier != nil {
			m.notifier.Show("Database connection is unstable. Some features may be unavailable.", notify.KindError)
		}
		m.lastNotification = m.now()
		m.pingPaused = true
		m.pausedUntil = m.now().Add(m.opts.PauseDuration)
		customLog.Warnf("Monitor: %d consecutive failures, pausing pings until %v", m.consecutiveFailures, m.pausedUntil)
	}
}

// LogQuery appends one query outcome to the rolling query log. It feeds stats
// only; nothing here gates control flow.
func (m *Monitor) LogQuery(table, operation string, start, end time.Time, success bool, err error) {
	sample := Sample{
		Timestamp: start,
		Duration:  end.Sub(start),
		Success:   success,
	}
	if err != nil {
		sample.Error = fmt.Sprintf("%s %s: %v", operation, table, err)
	}

	m.mu.Lock()
	m.queryLog = appendBounded(m.queryLog, sample, maxQuerySamples)
	m.mu.Unlock()
}

func appendBounded(log []Sample, s Sample, max int) []Sample {
	log = append(log, s)
	if len(log) > max {
		log = log[len(log)-max:]
	}
	return log
}

// WindowStats summarizes one rolling sample window.
type WindowStats struct {
	Count       int     `json:"count"`
	AvgMillis   float64 `json:"avg_ms"`
	MaxMillis   float64 `json:"max_ms"`
	SuccessRate float64 `json:"success_rate"`
}

// Stats is the diagnostics view returned by the health endpoint.
type Stats struct {
	Paused              bool        `json:"paused"`
	ConsecutiveFailures int         `json:"consecutive_failures"`
	Pings               WindowStats `json:"pings"`
	Queries             WindowStats `json:"queries"`
	Recommendations     []string    `json:"recommendations"`
}

// Stats computes averages, success rates and human-readable recommendations
// over the rolling windows.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := Stats{
		Paused:              m.pingPaused,
		ConsecutiveFailures: m.consecutiveFailures,
		Pings:               summarize(m.pingLog),
		Queries:             summarize(m.queryLog),
	}

	if stats.Queries.Count > 0 && stats.Queries.SuccessRate < 100 {
		stats.Recommendations = append(stats.Recommendations,
			"Some queries are failing. Check your internet connection and database status.")
	}
	if stats.Pings.Count > 0 && stats.Pings.SuccessRate < 100 {
		stats.Recommendations = append(stats.Recommendations,
			"Health checks are failing. The database may be unreachable.")
	}
	if stats.Pings.Count > 0 && stats.Pings.AvgMillis > float64(m.opts.SlowPingThreshold.Milliseconds()) {
		if m.opts.Environment == "production" {
			stats.Recommendations = append(stats.Recommendations,
				"Average ping is high. Check network latency between the server and the database host.")
		} else {
			stats.Recommendations = append(stats.Recommendations,
				"Average ping is high for a local database. Check disk contention or other heavy local processes.")
		}
	}
	if len(stats.Recommendations) == 0 {
		stats.Recommendations = append(stats.Recommendations, "Connection looks healthy.")
	}

	return stats
}

func summarize(samples []Sample) WindowStats {
	ws := WindowStats{Count: len(samples)}
	if ws.Count == 0 {
		return ws
	}

	var total time.Duration
	var max time.Duration
	successes := 0
	for _, s := range samples {
		total += s.Duration
		if s.Duration > max {
			max = s.Duration
		}
		if s.Success {
			successes++
		}
	}

	ws.AvgMillis = float64(total.Microseconds()) / float64(ws.Count) / 1000
	ws.MaxMillis = float64(max.Microseconds()) / 1000
	ws.SuccessRate = float64(successes) / float64(ws.Count) * 100
	return ws
}
