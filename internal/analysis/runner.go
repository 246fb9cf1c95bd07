package analysis

import (
	"container/heap"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sniffkit/sniffd/internal/core"
	"github.com/sniffkit/sniffd/internal/log"
)

const (
	DefaultWorkers   = 2
	DefaultQueueSize = 100

	// How long an idle worker waits for a job before rechecking
	// the stop signal.
	dequeueWait = time.Second
)

// Options configures a Runner.
type Options struct {
	// OutputDir is the base directory module artifacts go under.
	OutputDir string

	// EnabledModules selects modules by name. Empty means every
	// registered module.
	EnabledModules []string

	Workers   int
	QueueSize int

	// Registry defaults to the process-wide one.
	Registry *Registry
}

// Runner schedules analysis jobs over a bounded priority queue and
// executes the enabled modules against each job from a pool of
// workers.
type Runner struct {
	opts     Options
	registry *Registry

	mu         sync.Mutex
	queue      jobQueue
	arrivalSeq uint64
	wake       chan struct{}

	running bool
	stopCh  chan struct{}
	workers []chan struct{}

	jobsCompleted atomic.Uint64
	jobsFailed    atomic.Uint64
	jobsDropped   atomic.Uint64
	inflight      atomic.Int64
}

func NewRunner(opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Registry == nil {
		opts.Registry = defaultRegistry
	}
	return &Runner{
		opts:     opts,
		registry: opts.Registry,
		wake:     make(chan struct{}, 1),
	}
}

// EnabledModules resolves the configured module names against the
// registry, keeping registration order. Unknown names are skipped
// with a warning.
func (r *Runner) EnabledModules() []Module {
	all := r.registry.List()
	if len(r.opts.EnabledModules) == 0 {
		return all
	}

	want := make(map[string]bool, len(r.opts.EnabledModules))
	for _, name := range r.opts.EnabledModules {
		if _, err := r.registry.Get(name); err != nil {
			log.WithField("module", name).Warn("enabled module not registered, skipping")
			continue
		}
		want[name] = true
	}

	enabled := make([]Module, 0, len(want))
	for _, m := range all {
		if want[m.Name()] {
			enabled = append(enabled, m)
		}
	}
	return enabled
}

// Start spins up the worker pool. Calling Start on a running runner
// is a no-op.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}
	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	r.running = true
	r.stopCh = make(chan struct{})
	r.workers = make([]chan struct{}, r.opts.Workers)
	for i := 0; i < r.opts.Workers; i++ {
		done := make(chan struct{})
		r.workers[i] = done
		go r.workerLoop(i, r.stopCh, done)
	}

	log.WithField("workers", r.opts.Workers).Info("analysis runner started")
	return nil
}

// Enqueue adds a job without blocking. A full queue drops the job
// and returns ErrQueueFull.
func (r *Runner) Enqueue(job *Job) error {
	r.mu.Lock()
	if len(r.queue) >= r.opts.QueueSize {
		r.mu.Unlock()
		r.jobsDropped.Add(1)
		log.WithFields(map[string]interface{}{
			"job_id": job.ID,
			"file":   job.PcapPath,
		}).Warn("analysis queue full, dropping job")
		return fmt.Errorf("enqueue %s: %w", job.PcapPath, core.ErrQueueFull)
	}
	r.arrivalSeq++
	job.arrival = r.arrivalSeq
	heap.Push(&r.queue, job)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}

	log.WithFields(map[string]interface{}{
		"job_id": job.ID,
		"file":   job.PcapPath,
		"window": job.Window,
	}).Info("queued analysis")
	return nil
}

// dequeue pops the highest-priority job, waiting up to dequeueWait
// for one to arrive.
func (r *Runner) dequeue(stopCh <-chan struct{}) (*Job, bool) {
	timer := time.NewTimer(dequeueWait)
	defer timer.Stop()

	for {
		r.mu.Lock()
		if len(r.queue) > 0 {
			job := heap.Pop(&r.queue).(*Job)
			r.mu.Unlock()
			return job, true
		}
		r.mu.Unlock()

		select {
		case <-r.wake:
		case <-timer.C:
			return nil, false
		case <-stopCh:
			return nil, false
		}
	}
}

func (r *Runner) workerLoop(id int, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	log.WithField("worker", id).Debug("analysis worker started")

	for {
		select {
		case <-stopCh:
			log.WithField("worker", id).Debug("analysis worker stopped")
			return
		default:
		}

		job, ok := r.dequeue(stopCh)
		if !ok {
			continue
		}

		r.inflight.Add(1)
		r.processJob(job, id)
		r.inflight.Add(-1)
	}
}

func (r *Runner) processJob(job *Job, workerID int) {
	logger := log.WithFields(map[string]interface{}{
		"worker": workerID,
		"job_id": job.ID,
		"file":   job.PcapPath,
	})
	logger.Info("processing analysis job")

	if _, err := os.Stat(job.PcapPath); err != nil {
		logger.WithError(err).Warn("capture file missing, job failed")
		r.jobsFailed.Add(1)
		return
	}

	for _, m := range r.EnabledModules() {
		start := time.Now()
		summary, err := r.runModule(m, job)
		if err != nil {
			logger.WithError(err).WithField("module", m.Name()).Error("module failed")
			continue
		}
		logger.WithFields(map[string]interface{}{
			"module":   m.Name(),
			"hits":     summary.TotalHits,
			"duration": time.Since(start).Round(time.Millisecond).String(),
		}).Info("module completed")
	}

	r.jobsCompleted.Add(1)
}

// runModule isolates a single module run, converting panics into
// errors so one bad module cannot take a worker down.
func (r *Runner) runModule(m Module, job *Job) (summary *Summary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("module %s panicked: %v", m.Name(), rec)
		}
	}()
	return m.Analyze(job.PcapPath, r.opts.OutputDir, job.Interface, job.Window)
}

// Stop shuts the worker pool down. With wait set it first lets the
// queue drain, subject to timeout; timeout also bounds the total
// time spent joining workers.
func (r *Runner) Stop(wait bool, timeout time.Duration) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	stopCh := r.stopCh
	workers := r.workers
	r.workers = nil
	r.mu.Unlock()

	deadline := time.Now().Add(timeout)

	if wait {
		for time.Now().Before(deadline) {
			r.mu.Lock()
			empty := len(r.queue) == 0
			r.mu.Unlock()
			if empty && r.inflight.Load() == 0 {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
	}

	close(stopCh)

	share := timeout
	if len(workers) > 0 {
		share = timeout / time.Duration(len(workers))
	}
	for _, done := range workers {
		select {
		case <-done:
		case <-time.After(share):
		}
	}

	log.Info("analysis runner stopped")
}

// QueueLen reports the number of jobs waiting.
func (r *Runner) QueueLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *Runner) JobsCompleted() uint64 { return r.jobsCompleted.Load() }
func (r *Runner) JobsFailed() uint64    { return r.jobsFailed.Load() }
func (r *Runner) JobsDropped() uint64   { return r.jobsDropped.Load() }

// Status is a point-in-time snapshot of the runner.
type Status struct {
	Running          bool     `json:"running"`
	Workers          int      `json:"workers"`
	QueueLen         int      `json:"queue_len"`
	JobsCompleted    uint64   `json:"jobs_completed"`
	JobsFailed       uint64   `json:"jobs_failed"`
	JobsDropped      uint64   `json:"jobs_dropped"`
	EnabledModules   []string `json:"enabled_modules"`
	AvailableModules []string `json:"available_modules"`
}

func (r *Runner) Status() Status {
	enabled := r.EnabledModules()
	names := make([]string, len(enabled))
	for i, m := range enabled {
		names[i] = m.Name()
	}

	r.mu.Lock()
	running := r.running
	queued := len(r.queue)
	r.mu.Unlock()

	return Status{
		Running:          running,
		Workers:          r.opts.Workers,
		QueueLen:         queued,
		JobsCompleted:    r.jobsCompleted.Load(),
		JobsFailed:       r.jobsFailed.Load(),
		JobsDropped:      r.jobsDropped.Load(),
		EnabledModules:   names,
		AvailableModules: r.registry.Names(),
	}
}
