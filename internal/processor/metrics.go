package processor

import (
	"sync/atomic"
	"time"
)

// ServiceMetrics counts job outcomes for the periodic worker report.
type ServiceMetrics struct {
	totalSent       int64
	totalRetried    int64
	totalDropped    int64
	totalDurationNs int64
	startedNs       int64
}

type Stats struct {
	Sent          int64
	Retried       int64
	Dropped       int64
	RatePerSecond float64
	AvgDuration   time.Duration
	Uptime        time.Duration
}

func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{startedNs: time.Now().UnixNano()}
}

func (m *ServiceMetrics) RecordSuccess(duration time.Duration) {
	atomic.AddInt64(&m.totalSent, 1)
	atomic.AddInt64(&m.totalDurationNs, int64(duration))
}

// RecordRetry counts a job left pending for redelivery.
func (m *ServiceMetrics) RecordRetry() {
	atomic.AddInt64(&m.totalRetried, 1)
}

// RecordDrop counts a job acknowledged without a successful send.
func (m *ServiceMetrics) RecordDrop() {
	atomic.AddInt64(&m.totalDropped, 1)
}

func (m *ServiceMetrics) GetStats() Stats {
	sent := atomic.LoadInt64(&m.totalSent)
	durationNs := atomic.LoadInt64(&m.totalDurationNs)
	uptime := time.Since(time.Unix(0, atomic.LoadInt64(&m.startedNs)))

	s := Stats{
		Sent:    sent,
		Retried: atomic.LoadInt64(&m.totalRetried),
		Dropped: atomic.LoadInt64(&m.totalDropped),
		Uptime:  uptime,
	}
	if secs := uptime.Seconds(); secs > 0 {
		s.RatePerSecond = float64(sent) / secs
	}
	if sent > 0 {
		s.AvgDuration = time.Duration(durationNs / sent)
	}
	return s
}
