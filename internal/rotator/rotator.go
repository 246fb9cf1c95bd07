// Package rotator manages hour-bounded capture files: it opens a file
// for the current hour, rotates at hour boundaries, notifies a callback
// for each closed segment and prunes expired date directories.
package rotator

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sniffkit/sniffd/internal/core"
	"github.com/sniffkit/sniffd/internal/log"
	"github.com/sniffkit/sniffd/internal/pcapfile"
)

const (
	dateLayout   = "2006-01-02"
	windowLayout = "2006-01-02_15"
)

// RotateFunc receives (closed file path, interface name, time-window
// label of the closed hour) exactly once per closed segment, including
// the final segment closed at shutdown.
type RotateFunc func(path, iface, window string)

// Options configures a Rotator.
type Options struct {
	BaseDir       string
	Interface     string
	Snaplen       uint32
	RetentionDays int // 0 keeps files forever
	BatchSize     int
	OnRotate      RotateFunc
}

// Rotator owns the active capture file writer. All transitions happen
// under a single lock so that the rotation decision is atomic with the
// write that triggers it.
type Rotator struct {
	opts Options
	now  func() time.Time // injectable for tests

	mu         sync.Mutex
	writer     *pcapfile.Writer
	currentHr  time.Time
	nextRotate time.Time
	packets    uint64
	bytes      uint64
	files      uint64
	closed     bool
}

// New creates a Rotator. No file is opened until the first write.
func New(opts Options) *Rotator {
	if opts.Snaplen == 0 {
		opts.Snaplen = pcapfile.DefaultSnaplen
	}
	return &Rotator{opts: opts, now: time.Now}
}

// SetClock replaces the wall-clock source. Test hook.
func (r *Rotator) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// hourStart truncates to the calendar hour in t's location. Truncate
// on a duration rounds against the UTC epoch, which lands mid-hour in
// zones with fractional offsets.
func hourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// filePath derives {base}/{YYYY-MM-DD}/{iface}_{YYYY-MM-DD}_{HH}.pcap.
func (r *Rotator) filePath(t time.Time) string {
	date := t.Format(dateLayout)
	name := r.opts.Interface + "_" + t.Format(dateLayout) + "_" + t.Format("15") + ".pcap"
	return filepath.Join(r.opts.BaseDir, date, name)
}

// openLocked opens a new file for the hour containing t. Caller holds mu.
func (r *Rotator) openLocked(t time.Time) error {
	r.currentHr = hourStart(t)
	r.nextRotate = r.currentHr.Add(time.Hour)

	w := pcapfile.NewWriter(r.filePath(t), r.opts.Snaplen, r.opts.BatchSize)
	if err := w.Open(); err != nil {
		return err
	}
	r.writer = w
	r.files++
	log.WithField("file", w.Path()).Info("opened capture file")
	return nil
}

// closeLocked closes the active file and fires the rotation callback.
// Caller holds mu.
func (r *Rotator) closeLocked() {
	if r.writer == nil {
		return
	}
	path := r.writer.Path()
	window := r.currentHr.Format(windowLayout)
	if err := r.writer.Close(); err != nil {
		log.WithError(err).WithField("file", path).Error("close capture file")
	}
	r.writer = nil

	if r.opts.OnRotate != nil {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithField("panic", rec).Error("rotation callback panicked")
				}
			}()
			r.opts.OnRotate(path, r.opts.Interface, window)
		}()
	}
}

// rotateLocked closes the current hour's file, opens one for the hour
// containing now and prunes expired partitions. Caller holds mu.
func (r *Rotator) rotateLocked(now time.Time) {
	r.closeLocked()
	if err := r.openLocked(now); err != nil {
		log.WithError(err).Error("open capture file after rotation")
	}
	r.cleanupLocked(now)
}

// WriteFrame persists one frame, rotating first when the wall clock has
// reached the next hour boundary. Write errors degrade persistence but
// never abort the capture path: the caller only sees them to log.
func (r *Rotator) WriteFrame(tsSec, tsUsec uint32, data []byte, origLen uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return core.ErrRotatorClosed
	}

	now := r.now()
	if r.writer == nil {
		if err := r.openLocked(now); err != nil {
			return err
		}
	} else if !now.Before(r.nextRotate) {
		r.rotateLocked(now)
		if r.writer == nil {
			return core.ErrRotatorClosed
		}
	}

	if err := r.writer.WriteFrame(tsSec, tsUsec, data, origLen); err != nil {
		return err
	}
	r.packets++
	r.bytes += uint64(len(data))
	return nil
}

// Flush forces buffered records of the active file to disk.
func (r *Rotator) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writer == nil {
		return nil
	}
	return r.writer.Flush()
}

// ForceRotate closes the active segment and opens a replacement for the
// current hour, firing the callback and running cleanup as a boundary
// rotation would.
func (r *Rotator) ForceRotate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.writer == nil {
		return
	}
	r.rotateLocked(r.now())
}

// Close closes the active file without opening a replacement. The final
// segment still gets its rotation callback so no segment is silently
// dropped from analysis. Idempotent.
func (r *Rotator) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.closeLocked()
}

// cleanupLocked removes date directories older than the retention
// cutoff. Dates compare as strings, which is ordering-safe for the
// fixed YYYY-MM-DD layout; the current day's directory is never removed.
// Caller holds mu.
func (r *Rotator) cleanupLocked(now time.Time) {
	if r.opts.RetentionDays <= 0 {
		return
	}
	cutoff := now.AddDate(0, 0, -r.opts.RetentionDays).Format(dateLayout)
	today := now.Format(dateLayout)

	entries, err := os.ReadDir(r.opts.BaseDir)
	if err != nil {
		log.WithError(err).Warn("retention scan failed")
		return
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == today || e.Name() >= cutoff {
			continue
		}
		dir := filepath.Join(r.opts.BaseDir, e.Name())
		if err := os.RemoveAll(dir); err != nil {
			log.WithError(err).WithField("dir", dir).Warn("retention cleanup failed")
			continue
		}
		log.WithField("dir", dir).Info("removed expired capture partition")
	}
}

// Status is a point-in-time snapshot of the rotator.
type Status struct {
	CurrentFile string
	CurrentHour time.Time
	NextRotate  time.Time
	Packets     uint64
	Bytes       uint64
	Files       uint64
}

// Status returns a snapshot of the rotator state.
func (r *Rotator) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Status{
		CurrentHour: r.currentHr,
		NextRotate:  r.nextRotate,
		Packets:     r.packets,
		Bytes:       r.bytes,
		Files:       r.files,
	}
	if r.writer != nil {
		s.CurrentFile = r.writer.Path()
	}
	return s
}
