package capture

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sniffkit/sniffd/internal/core"
	"github.com/sniffkit/sniffd/internal/log"
	"github.com/sniffkit/sniffd/internal/rotator"
)

// DefaultQueueSize bounds the delivery queue for downstream consumers.
const DefaultQueueSize = 10000

// stopJoinTimeout bounds how long Stop waits for the reader and timer
// goroutines.
const stopJoinTimeout = 2 * time.Second

// ObserverFunc is the optional per-packet notification for live
// observers. Failures inside the callback are isolated and cannot abort
// ingestion.
type ObserverFunc func(*core.RawFrame)

// Options configures an Engine.
type Options struct {
	Interface     string
	QueueSize     int
	StatsInterval time.Duration
	Rotator       *rotator.Rotator
	Observer      ObserverFunc
}

// Engine drives one capture session: it sequences frames from the
// source, keeps running statistics, forwards frames to the rotator for
// persistence and offers them to consumers over a bounded queue without
// ever blocking the hot path.
type Engine struct {
	opts   Options
	source Source

	queue        chan *core.RawFrame
	queueDropped atomic.Uint64
	paused       atomic.Bool

	mu      sync.Mutex
	seq     uint64
	stats   statsState
	running bool
	setup   bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewEngine creates an engine around src. Call Setup before Start.
func NewEngine(src Source, opts Options) *Engine {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = DefaultStatsInterval
	}
	return &Engine{
		opts:   opts,
		source: src,
		queue:  make(chan *core.RawFrame, opts.QueueSize),
	}
}

// Setup acquires the capture source. Acquisition failures surface here,
// before any capture begins, never during an active session.
func (e *Engine) Setup() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		return core.ErrSourceRequired
	}
	if e.setup {
		return nil
	}
	if err := e.source.Open(); err != nil {
		return err
	}
	e.setup = true
	log.WithField("interface", e.opts.Interface).Info("capture source ready")
	return nil
}

// Start begins the capture session. Starting twice is a no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}
	if !e.setup {
		return core.ErrNotSetup
	}

	e.running = true
	e.paused.Store(false)
	e.seq = 0
	e.queueDropped.Store(0)
	e.stats.reset(time.Now())
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	go e.readLoop(e.stopCh, e.doneCh)
	go e.statsLoop(e.stopCh)

	log.WithField("interface", e.opts.Interface).Info("capture started")
	return nil
}

// Stop ends the session: it signals both background goroutines, joins
// the reader with a bounded wait, and flushes the rotator. Idempotent
// and safe without a prior Start.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	stopCh, doneCh := e.stopCh, e.doneCh
	e.mu.Unlock()

	close(stopCh)
	if e.source != nil {
		// Unblocks a pending read.
		if err := e.source.Close(); err != nil {
			log.WithError(err).Warn("close capture source")
		}
	}

	select {
	case <-doneCh:
	case <-time.After(stopJoinTimeout):
		log.Warn("capture reader did not stop in time")
	}

	if e.opts.Rotator != nil {
		if err := e.opts.Rotator.Flush(); err != nil {
			log.WithError(err).Warn("flush rotator on stop")
		}
	}
	log.Info("capture stopped")
}

// Pause discards incoming frames immediately: they are consumed from
// the source but leave no trace in any counter, the file, or the queue.
func (e *Engine) Pause() {
	e.paused.Store(true)
	log.Info("capture paused")
}

// Resume re-enables frame processing.
func (e *Engine) Resume() {
	e.paused.Store(false)
	log.Info("capture resumed")
}

// TogglePause flips the pause state and returns the new value.
func (e *Engine) TogglePause() bool {
	for {
		old := e.paused.Load()
		if e.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// IsPaused reports the pause state.
func (e *Engine) IsPaused() bool { return e.paused.Load() }

// IsRunning reports whether a session is active.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Frames is the bounded delivery queue for downstream consumers.
func (e *Engine) Frames() <-chan *core.RawFrame { return e.queue }

// Stats returns a snapshot of the session statistics.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.snapshot(e.queueDropped.Load())
}

// Status is a point-in-time view of the engine.
type Status struct {
	Interface string
	Running   bool
	Paused    bool
	Uptime    time.Duration
	QueueLen  int
	QueueCap  int
	Stats     Stats
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.stats.snapshot(e.queueDropped.Load())
	return Status{
		Interface: e.opts.Interface,
		Running:   e.running,
		Paused:    e.paused.Load(),
		Uptime:    time.Since(st.StartTime),
		QueueLen:  len(e.queue),
		QueueCap:  cap(e.queue),
		Stats:     st,
	}
}

// readLoop pulls frames from the source until stopped.
func (e *Engine) readLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		data, ts, err := e.source.ReadFrame()
		if err != nil {
			if errors.Is(err, ErrReadTimeout) {
				continue
			}
			select {
			case <-stopCh:
			default:
				log.WithError(err).Error("capture read failed")
			}
			return
		}
		e.HandleFrame(data, ts)
	}
}

// HandleFrame is the per-frame hot path: sequencing and counters under
// a short-held lock, persistence, observer notification, and a
// non-blocking queue push. It never blocks on consumers.
func (e *Engine) HandleFrame(data []byte, ts time.Time) {
	if e.paused.Load() {
		return
	}

	e.mu.Lock()
	e.seq++
	seq := e.seq
	e.stats.packets++
	e.stats.bytes += uint64(len(data))
	e.mu.Unlock()

	frame := &core.RawFrame{
		Seq:     seq,
		TsSec:   uint32(ts.Unix()),
		TsUsec:  uint32(ts.Nanosecond() / 1000),
		CapLen:  uint32(len(data)),
		OrigLen: uint32(len(data)),
		Data:    data,
	}

	if e.opts.Rotator != nil {
		if err := e.opts.Rotator.WriteFrame(frame.TsSec, frame.TsUsec, frame.Data, frame.OrigLen); err != nil {
			log.WithError(err).Error("persist frame")
		}
	}

	if cb := e.opts.Observer; cb != nil {
		e.notifyObserver(cb, frame)
	}

	select {
	case e.queue <- frame:
	default:
		e.queueDropped.Add(1)
	}
}

// notifyObserver isolates observer panics from the capture path.
func (e *Engine) notifyObserver(cb ObserverFunc, frame *core.RawFrame) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("packet observer panicked")
		}
	}()
	cb(frame)
}

// statsLoop recomputes rates and refreshes the kernel drop counter on a
// fixed interval, independent of the ingestion path.
func (e *Engine) statsLoop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(e.opts.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			drops, err := e.source.KernelDrops()

			e.mu.Lock()
			e.stats.updateRates(now)
			if err == nil {
				e.stats.observeKernelDrops(drops)
			}
			e.mu.Unlock()
		}
	}
}
