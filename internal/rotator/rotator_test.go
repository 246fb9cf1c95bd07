package rotator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sniffkit/sniffd/internal/core"
	"github.com/sniffkit/sniffd/internal/pcapfile"
)

type rotation struct {
	path   string
	iface  string
	window string
}

func newTestRotator(t *testing.T, retentionDays int, events *[]rotation) (*Rotator, *time.Time) {
	t.Helper()
	clock := time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC)
	r := New(Options{
		BaseDir:       t.TempDir(),
		Interface:     "eth0",
		RetentionDays: retentionDays,
		BatchSize:     1,
		OnRotate: func(path, iface, window string) {
			*events = append(*events, rotation{path, iface, window})
		},
	})
	r.SetClock(func() time.Time { return clock })
	return r, &clock
}

func TestOpensFileOnFirstWrite(t *testing.T) {
	var events []rotation
	r, _ := newTestRotator(t, 0, &events)
	defer r.Close()

	require.NoError(t, r.WriteFrame(100, 0, make([]byte, 60), 0))

	status := r.Status()
	assert.Equal(t, filepath.Join(r.opts.BaseDir, "2026-08-30", "eth0_2026-08-30_10.pcap"),
		status.CurrentFile)
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), status.CurrentHour)
	assert.Equal(t, time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC), status.NextRotate)
	assert.EqualValues(t, 1, status.Packets)
	assert.Empty(t, events, "no rotation before the first boundary")
}

func TestRotatesOnCalendarHourInFractionalOffsetZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	clock := time.Date(2026, 8, 30, 10, 45, 0, 0, ist)

	var events []rotation
	r := New(Options{
		BaseDir:   t.TempDir(),
		Interface: "eth0",
		BatchSize: 1,
		OnRotate: func(path, iface, window string) {
			events = append(events, rotation{path, iface, window})
		},
	})
	r.SetClock(func() time.Time { return clock })
	defer r.Close()

	require.NoError(t, r.WriteFrame(100, 0, make([]byte, 60), 0))

	status := r.Status()
	assert.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, ist), status.CurrentHour,
		"hour start is the local calendar hour, not a UTC-epoch truncation")
	assert.Equal(t, time.Date(2026, 8, 30, 11, 0, 0, 0, ist), status.NextRotate)

	clock = time.Date(2026, 8, 30, 11, 15, 0, 0, ist)
	require.NoError(t, r.WriteFrame(200, 0, make([]byte, 60), 0))

	require.Len(t, events, 1)
	assert.Equal(t, "2026-08-30_10", events[0].window)
	assert.Equal(t, filepath.Join(r.opts.BaseDir, "2026-08-30", "eth0_2026-08-30_11.pcap"),
		r.Status().CurrentFile)
}

func TestRotatesAtHourBoundary(t *testing.T) {
	var events []rotation
	r, clock := newTestRotator(t, 0, &events)
	defer r.Close()

	require.NoError(t, r.WriteFrame(100, 0, make([]byte, 60), 0))
	oldPath := r.Status().CurrentFile

	// Crossing the boundary triggers exactly one rotation on the next
	// write, labeled with the closed hour.
	*clock = time.Date(2026, 8, 30, 11, 0, 1, 0, time.UTC)
	require.NoError(t, r.WriteFrame(200, 0, make([]byte, 60), 0))

	require.Len(t, events, 1)
	assert.Equal(t, oldPath, events[0].path)
	assert.Equal(t, "eth0", events[0].iface)
	assert.Equal(t, "2026-08-30_10", events[0].window)

	newPath := r.Status().CurrentFile
	assert.NotEqual(t, oldPath, newPath)
	assert.Contains(t, newPath, "eth0_2026-08-30_11.pcap")

	// The write that triggered rotation landed in the new file.
	n, err := pcapfile.CountFrames(newPath)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = pcapfile.CountFrames(oldPath)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestNoDoubleRotationWithinHour(t *testing.T) {
	var events []rotation
	r, clock := newTestRotator(t, 0, &events)
	defer r.Close()

	require.NoError(t, r.WriteFrame(100, 0, make([]byte, 60), 0))
	*clock = clock.Add(time.Hour)
	require.NoError(t, r.WriteFrame(200, 0, make([]byte, 60), 0))
	require.NoError(t, r.WriteFrame(201, 0, make([]byte, 60), 0))
	require.NoError(t, r.WriteFrame(202, 0, make([]byte, 60), 0))

	assert.Len(t, events, 1)
}

func TestCloseFiresFinalCallback(t *testing.T) {
	var events []rotation
	r, _ := newTestRotator(t, 0, &events)

	require.NoError(t, r.WriteFrame(100, 0, make([]byte, 60), 0))
	path := r.Status().CurrentFile

	r.Close()
	require.Len(t, events, 1, "shutdown must not silently drop the last segment")
	assert.Equal(t, path, events[0].path)
	assert.Equal(t, "2026-08-30_10", events[0].window)

	r.Close() // idempotent
	assert.Len(t, events, 1)

	assert.ErrorIs(t, r.WriteFrame(300, 0, make([]byte, 60), 0), core.ErrRotatorClosed)
}

func TestForceRotateOpensReplacement(t *testing.T) {
	var events []rotation
	r, _ := newTestRotator(t, 0, &events)
	defer r.Close()

	require.NoError(t, r.WriteFrame(100, 0, make([]byte, 60), 0))
	first := r.Status().CurrentFile

	r.ForceRotate()
	require.Len(t, events, 1)
	assert.Equal(t, first, events[0].path)
	assert.NotEmpty(t, r.Status().CurrentFile)
	require.NoError(t, r.WriteFrame(101, 0, make([]byte, 60), 0))
}

func TestRetentionCleanup(t *testing.T) {
	var events []rotation
	r, clock := newTestRotator(t, 2, &events)
	defer r.Close()

	// Partitions across several days, plus a non-date directory that
	// must survive untouched.
	for _, d := range []string{"2026-08-25", "2026-08-27", "2026-08-28", "2026-08-29", "2026-08-30", "misc"} {
		require.NoError(t, os.MkdirAll(filepath.Join(r.opts.BaseDir, d), 0o755))
	}

	require.NoError(t, r.WriteFrame(100, 0, make([]byte, 60), 0))
	*clock = clock.Add(time.Hour)
	require.NoError(t, r.WriteFrame(200, 0, make([]byte, 60), 0)) // rotation + cleanup

	for d, wantGone := range map[string]bool{
		"2026-08-25": true,  // older than now - 2d
		"2026-08-27": true,  // older than now - 2d
		"2026-08-28": false, // exactly at the cutoff, kept
		"2026-08-29": false,
		"2026-08-30": false, // current day, never removed
		"misc":       false,
	} {
		_, err := os.Stat(filepath.Join(r.opts.BaseDir, d))
		if wantGone {
			assert.True(t, os.IsNotExist(err), "expected %s removed", d)
		} else {
			assert.NoError(t, err, "expected %s kept", d)
		}
	}
}

func TestCatalogHelpers(t *testing.T) {
	var events []rotation
	r, clock := newTestRotator(t, 0, &events)

	require.NoError(t, r.WriteFrame(100, 0, make([]byte, 60), 0))
	*clock = clock.Add(time.Hour)
	require.NoError(t, r.WriteFrame(200, 0, make([]byte, 60), 0))
	r.Close()

	dates, err := AvailableDates(r.opts.BaseDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-08-30"}, dates)

	files, err := ListFiles(r.opts.BaseDir, "eth0", "")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "eth0", files[0].Interface)
	assert.Equal(t, "2026-08-30", files[0].Date)
	assert.Equal(t, "10", files[0].Hour)
	assert.Equal(t, "11", files[1].Hour)

	none, err := ListFiles(r.opts.BaseDir, "wlan0", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}
