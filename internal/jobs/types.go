package jobs

import (
	"context"
	"sync"
	"time"
)

// Func is the work a job performs. ctx is canceled once the job finishes.
type Func func(ctx context.Context) error

// Status represents job status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCanceled  Status = "canceled"
)

// Finished reports whether s is a terminal status.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCanceled
}

// Job holds a single queued unit of work.
type Job struct {
	// immutable fields
	ID   int64
	Name string
	fn   Func

	// state
	mu          sync.RWMutex
	Status      Status
	Error       string
	err         error
	EnqueuedAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// Snapshot returns a copy of the job's fields.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return JobSnapshot{
		ID:          j.ID,
		Name:        j.Name,
		Status:      j.Status,
		Error:       j.Error,
		EnqueuedAt:  j.EnqueuedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}

// Done is closed once the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes and returns its error. A canceled
// job returns ErrCanceled.
func (j *Job) Wait() error {
	<-j.done
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// finish records the terminal status; it must run exactly once.
func (j *Job) finish(status Status, err error, at time.Time) {
	j.mu.Lock()
	j.Status = status
	j.err = err
	if err != nil {
		j.Error = err.Error()
	}
	j.CompletedAt = at
	j.mu.Unlock()
	j.cancel()
	close(j.done)
}

// JobSnapshot is a read-only view of a job.
type JobSnapshot struct {
	ID          int64
	Name        string
	Status      Status
	Error       string
	EnqueuedAt  time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}
