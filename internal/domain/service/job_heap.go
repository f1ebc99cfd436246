package service

import "github.com/ruudy-sib/deferq/internal/domain/entity"

type scheduledJob struct {
	job *entity.Job
	seq uint64
}

// jobHeap is a min-heap ordered by eligible time, then by insertion sequence,
// so jobs that become eligible at the same instant keep FIFO order.
type jobHeap []scheduledJob

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	a, b := h[i].job.EligibleAt, h[j].job.EligibleAt
	if a.Equal(b) {
		return h[i].seq < h[j].seq
	}
	return a.Before(b)
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) {
	*h = append(*h, x.(scheduledJob))
}

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = scheduledJob{}
	*h = old[:n-1]
	return item
}

func (h jobHeap) peek() *entity.Job {
	return h[0].job
}
