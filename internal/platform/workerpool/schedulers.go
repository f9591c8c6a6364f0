// internal/platform/workerpool/schedulers.go
package workerpool

import (
	"sort"
)

// PriorityScheduler orders tasks by priority (highest first). Ties keep
// submission order, so equally ranked companies run in dataset order.
type PriorityScheduler struct{}

// NewPriorityScheduler creates a priority-based scheduler.
func NewPriorityScheduler() *PriorityScheduler {
	return &PriorityScheduler{}
}

// Schedule sorts by descending priority, stable on ties.
func (s *PriorityScheduler) Schedule(tasks []Task) []Task {
	scheduled := make([]Task, len(tasks))
	copy(scheduled, tasks)

	sort.SliceStable(scheduled, func(i, j int) bool {
		return scheduled[i].Priority() > scheduled[j].Priority()
	})

	return scheduled
}

func (s *PriorityScheduler) Name() string {
	return "priority"
}

// FIFOScheduler keeps the original order.
type FIFOScheduler struct{}

// NewFIFOScheduler creates a FIFO scheduler.
func NewFIFOScheduler() *FIFOScheduler {
	return &FIFOScheduler{}
}

// Schedule returns tasks in submission order.
func (s *FIFOScheduler) Schedule(tasks []Task) []Task {
	scheduled := make([]Task, len(tasks))
	copy(scheduled, tasks)
	return scheduled
}

func (s *FIFOScheduler) Name() string {
	return "fifo"
}
