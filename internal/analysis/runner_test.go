package analysis

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sniffkit/sniffd/internal/core"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestRunnerProcessesJobs(t *testing.T) {
	dir := t.TempDir()
	pcap := touch(t, filepath.Join(dir, "eth0_2026-08-30_10.pcap"))

	var mu sync.Mutex
	var windows []string
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeModule{
		name: "recorder",
		analyze: func(path, out, iface, window string) (*Summary, error) {
			mu.Lock()
			windows = append(windows, window)
			mu.Unlock()
			return &Summary{ModuleName: "recorder", TimeWindow: window}, nil
		},
	}))

	r := NewRunner(Options{
		OutputDir: filepath.Join(dir, "out"),
		Workers:   2,
		QueueSize: 8,
		Registry:  reg,
	})
	require.NoError(t, r.Start())

	require.NoError(t, r.Enqueue(NewJob(pcap, "eth0", "2026-08-30_10", 0)))
	require.NoError(t, r.Enqueue(NewJob(pcap, "eth0", "2026-08-30_11", 0)))

	assert.Eventually(t, func() bool { return r.JobsCompleted() == 2 },
		2*time.Second, 10*time.Millisecond)

	r.Stop(true, time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"2026-08-30_10", "2026-08-30_11"}, windows)
}

func TestRunnerMissingFileCountsAsFailed(t *testing.T) {
	r := NewRunner(Options{
		OutputDir: t.TempDir(),
		Workers:   1,
		Registry:  NewRegistry(),
	})
	require.NoError(t, r.Start())
	defer r.Stop(false, time.Second)

	require.NoError(t, r.Enqueue(NewJob("/nonexistent/file.pcap", "eth0", "2026-08-30_10", 0)))

	assert.Eventually(t, func() bool { return r.JobsFailed() == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Zero(t, r.JobsCompleted())
}

func TestRunnerIsolatesModuleFailures(t *testing.T) {
	dir := t.TempDir()
	pcap := touch(t, filepath.Join(dir, "a.pcap"))

	var goodRan bool
	var mu sync.Mutex
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeModule{
		name: "panicky",
		analyze: func(path, out, iface, window string) (*Summary, error) {
			panic("boom")
		},
	}))
	require.NoError(t, reg.Register(&fakeModule{
		name: "good",
		analyze: func(path, out, iface, window string) (*Summary, error) {
			mu.Lock()
			goodRan = true
			mu.Unlock()
			return &Summary{ModuleName: "good"}, nil
		},
	}))

	r := NewRunner(Options{OutputDir: filepath.Join(dir, "out"), Workers: 1, Registry: reg})
	require.NoError(t, r.Start())
	defer r.Stop(false, time.Second)

	require.NoError(t, r.Enqueue(NewJob(pcap, "eth0", "2026-08-30_10", 0)))

	// The job still completes: module errors are isolated.
	assert.Eventually(t, func() bool { return r.JobsCompleted() == 1 },
		2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, goodRan)
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	// Runner never started: nothing drains the queue.
	r := NewRunner(Options{
		OutputDir: t.TempDir(),
		QueueSize: 2,
		Registry:  NewRegistry(),
	})

	require.NoError(t, r.Enqueue(NewJob("a.pcap", "eth0", "w", 0)))
	require.NoError(t, r.Enqueue(NewJob("b.pcap", "eth0", "w", 0)))

	err := r.Enqueue(NewJob("c.pcap", "eth0", "w", 0))
	assert.ErrorIs(t, err, core.ErrQueueFull)
	assert.EqualValues(t, 1, r.JobsDropped())
	assert.Equal(t, 2, r.QueueLen())
}

func TestEnabledModulesFilter(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&fakeModule{name: "one"}))
	require.NoError(t, reg.Register(&fakeModule{name: "two"}))

	r := NewRunner(Options{
		OutputDir:      t.TempDir(),
		EnabledModules: []string{"two", "ghost"},
		Registry:       reg,
	})

	enabled := r.EnabledModules()
	require.Len(t, enabled, 1)
	assert.Equal(t, "two", enabled[0].Name())

	status := r.Status()
	assert.Equal(t, []string{"two"}, status.EnabledModules)
	assert.Equal(t, []string{"one", "two"}, status.AvailableModules)
}

func TestStopIdempotent(t *testing.T) {
	r := NewRunner(Options{OutputDir: t.TempDir(), Registry: NewRegistry()})
	require.NoError(t, r.Start())
	r.Stop(false, time.Second)
	r.Stop(false, time.Second)
	assert.False(t, r.Status().Running)
}
