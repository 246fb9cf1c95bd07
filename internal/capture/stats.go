package capture

import "time"

// DefaultStatsInterval is the period of the background rate
// recomputation.
const DefaultStatsInterval = 2 * time.Second

// Stats is a point-in-time snapshot of capture statistics.
//
// Dropped = max(0, kernel_current - kernel_baseline) + QueueDropped;
// the kernel baseline is captured lazily on the first successful
// counter read after a session reset so reported drops reflect only the
// current session.
type Stats struct {
	Packets       uint64
	Bytes         uint64
	QueueDropped  uint64
	KernelDropped uint64
	Dropped       uint64
	PPS           float64
	BPS           float64
	StartTime     time.Time
	LastUpdate    time.Time
}

// statsState holds the raw counters and rate bookkeeping. Mutation is
// guarded by the engine's lock; the timer goroutine only derives rates
// from counter deltas.
type statsState struct {
	packets uint64
	bytes   uint64

	prevPackets uint64
	prevBytes   uint64
	prevTime    time.Time

	pps float64
	bps float64

	// kernelBaseline is -1 until the first successful read of the
	// session.
	kernelBaseline int64
	kernelCurrent  uint64

	startTime  time.Time
	lastUpdate time.Time
}

func (s *statsState) reset(now time.Time) {
	*s = statsState{
		kernelBaseline: -1,
		startTime:      now,
		prevTime:       now,
		lastUpdate:     now,
	}
}

// updateRates recomputes pps/bps from counter deltas over elapsed wall
// time.
func (s *statsState) updateRates(now time.Time) {
	elapsed := now.Sub(s.prevTime).Seconds()
	if elapsed > 0 {
		s.pps = float64(s.packets-s.prevPackets) / elapsed
		s.bps = float64(s.bytes-s.prevBytes) / elapsed
		s.prevPackets = s.packets
		s.prevBytes = s.bytes
		s.prevTime = now
	}
	s.lastUpdate = now
}

// observeKernelDrops records a fresh kernel counter reading,
// establishing the session baseline on the first successful read.
func (s *statsState) observeKernelDrops(current uint64) {
	if s.kernelBaseline < 0 {
		s.kernelBaseline = int64(current)
	}
	s.kernelCurrent = current
}

func (s *statsState) kernelDropped() uint64 {
	if s.kernelBaseline < 0 || s.kernelCurrent < uint64(s.kernelBaseline) {
		return 0
	}
	return s.kernelCurrent - uint64(s.kernelBaseline)
}

func (s *statsState) snapshot(queueDropped uint64) Stats {
	kernel := s.kernelDropped()
	return Stats{
		Packets:       s.packets,
		Bytes:         s.bytes,
		QueueDropped:  queueDropped,
		KernelDropped: kernel,
		Dropped:       kernel + queueDropped,
		PPS:           s.pps,
		BPS:           s.bps,
		StartTime:     s.startTime,
		LastUpdate:    s.lastUpdate,
	}
}
