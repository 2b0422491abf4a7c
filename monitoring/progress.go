package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID        string
	Name      string
	StartTime time.Time
	Total     uint64
	Finished  uint64
}

// ProgressBarStatus is a copy of the state of a progress bar.
type ProgressBarStatus struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// SetFinished sets the amount of finished element.
func (b *ProgressBar) SetFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished = amount
}

// Status returns a copy of the progress.
func (b *ProgressBar) Status() ProgressBarStatus {
	b.Lock()
	defer b.Unlock()

	return ProgressBarStatus{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}
