package analysis

import (
	"container/heap"

	"github.com/google/uuid"
)

// Job is one pending analysis of a rotated capture file. Lower
// priority values run first.
type Job struct {
	ID        string
	PcapPath  string
	Interface string
	Window    string
	Priority  int

	arrival uint64
}

// NewJob builds a job with a fresh correlation ID.
func NewJob(pcapPath, iface, window string, priority int) *Job {
	return &Job{
		ID:        uuid.NewString(),
		PcapPath:  pcapPath,
		Interface: iface,
		Window:    window,
		Priority:  priority,
	}
}

// jobQueue is a min-heap on priority. Equal priorities dequeue in
// arrival order.
type jobQueue []*Job

var _ heap.Interface = (*jobQueue)(nil)

func (q jobQueue) Len() int { return len(q) }

func (q jobQueue) Less(i, j int) bool {
	if q[i].Priority != q[j].Priority {
		return q[i].Priority < q[j].Priority
	}
	return q[i].arrival < q[j].arrival
}

func (q jobQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *jobQueue) Push(x any) { *q = append(*q, x.(*Job)) }

func (q *jobQueue) Pop() any {
	old := *q
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return job
}
