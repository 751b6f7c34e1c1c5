package obs

import (
	"sync/atomic"
	"time"

	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

const (
	maxSide = int(schema.SideSell)
	maxKind = int(exception.KindInvariantViolation)
)

// Metrics collects lightweight ledger counters and latency stats. A nil *Metrics is a no-op.
type Metrics struct {
	tradeCounts  [maxSide + 1]uint64
	rejectCounts [maxKind + 1]uint64
	transfers    uint64
	ticks        uint64
	tickSkips    uint64
	unlocks      uint64
	evalFailures uint64
	queueDrops   uint64
	queueClosed  uint64

	lockWait      LatencyStats
	commitLatency LatencyStats
	evalLatency   LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Trades             map[string]uint64
	Rejections         map[string]uint64
	Transfers          uint64
	PricesSimulated    uint64
	TicksSkipped       uint64
	Unlocks            uint64
	EvaluationFailures uint64
	QueueDrops         uint64
	QueueClosed        uint64
	LockWait           LatencySnapshot
	Commit             LatencySnapshot
	Evaluation         LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveTrade counts a committed trade.
func (m *Metrics) ObserveTrade(side schema.Side) {
	if m == nil {
		return
	}
	idx := int(side)
	if idx >= 0 && idx < len(m.tradeCounts) {
		atomic.AddUint64(&m.tradeCounts[idx], 1)
	}
}

// IncReject counts a failed ledger operation by error kind.
func (m *Metrics) IncReject(kind exception.Kind) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx >= 0 && idx < len(m.rejectCounts) {
		atomic.AddUint64(&m.rejectCounts[idx], 1)
	}
}

// IncTransfer counts a committed transfer.
func (m *Metrics) IncTransfer() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.transfers, 1)
}

// IncTick counts the prices published by one simulator tick.
func (m *Metrics) IncTick(prices int) {
	if m == nil || prices <= 0 {
		return
	}
	atomic.AddUint64(&m.ticks, uint64(prices))
}

// IncTickSkipped counts a tick refused by the minimum interval guard.
func (m *Metrics) IncTickSkipped() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.tickSkips, 1)
}

// IncUnlock counts a newly unlocked achievement.
func (m *Metrics) IncUnlock() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.unlocks, 1)
}

// IncEvaluationFailure counts an achievement evaluation that returned an error.
func (m *Metrics) IncEvaluationFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.evalFailures, 1)
}

// IncQueueDrop records a queue drop.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// ObserveLockWait measures how long an operation waited for its account lock.
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d)
}

// ObserveCommit measures durable store commit latency.
func (m *Metrics) ObserveCommit(d time.Duration) {
	if m == nil {
		return
	}
	m.commitLatency.Observe(d)
}

// ObserveEvaluation measures achievement evaluation latency.
func (m *Metrics) ObserveEvaluation(d time.Duration) {
	if m == nil {
		return
	}
	m.evalLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	trades := make(map[string]uint64)
	for i := range m.tradeCounts {
		if v := atomic.LoadUint64(&m.tradeCounts[i]); v > 0 {
			trades[schema.Side(i).String()] = v
		}
	}
	rejections := make(map[string]uint64)
	for i := range m.rejectCounts {
		if v := atomic.LoadUint64(&m.rejectCounts[i]); v > 0 {
			rejections[exception.Kind(i).String()] = v
		}
	}
	return Snapshot{
		Trades:             trades,
		Rejections:         rejections,
		Transfers:          atomic.LoadUint64(&m.transfers),
		PricesSimulated:    atomic.LoadUint64(&m.ticks),
		TicksSkipped:       atomic.LoadUint64(&m.tickSkips),
		Unlocks:            atomic.LoadUint64(&m.unlocks),
		EvaluationFailures: atomic.LoadUint64(&m.evalFailures),
		QueueDrops:         atomic.LoadUint64(&m.queueDrops),
		QueueClosed:        atomic.LoadUint64(&m.queueClosed),
		LockWait:           m.lockWait.Snapshot(),
		Commit:             m.commitLatency.Snapshot(),
		Evaluation:         m.evalLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		lo := atomic.LoadUint64(&l.min)
		if lo != 0 && nanos >= lo {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, lo, nanos) {
			break
		}
	}

	for {
		hi := atomic.LoadUint64(&l.max)
		if nanos <= hi {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, hi, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(sum / count),
	}
}
