package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"filex/internal/constants"
	"filex/internal/logging"
)

var (
	// ErrCanceled is returned by Job.Wait for jobs canceled before they ran.
	ErrCanceled = errors.New("job canceled")
	// ErrClosed is returned by Enqueue once the manager is closed.
	ErrClosed = errors.New("job manager closed")
)

// Manager coordinates queueing and background processing (single worker).
type Manager struct {
	mu          sync.Mutex
	cond        *sync.Cond
	queue       []*Job
	closed      bool
	nextID      int64
	subscribers []func()
	current     *Job
	history     []*Job
	historyMax  int

	now     func() time.Time
	logger  *zap.Logger
	stopped chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for lifecycle messages.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrNop(l) }
}

// WithHistoryMax bounds the number of finished jobs kept for List.
func WithHistoryMax(n int) Option {
	return func(m *Manager) { m.historyMax = n }
}

// WithClock overrides the time source for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager constructs and starts a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		historyMax: constants.JobHistoryMax,
		now:        time.Now,
		logger:     zap.NewNop(),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cond = sync.NewCond(&m.mu)
	go m.worker()
	m.logger.Debug("job manager started", zap.Int("history_max", m.historyMax))
	return m
}

// Subscribe registers a callback called on state changes.
func (m *Manager) Subscribe(cb func()) {
	m.mu.Lock()
	m.subscribers = append(m.subscribers, cb)
	n := len(m.subscribers)
	m.mu.Unlock()
	m.logger.Debug("job subscriber added", zap.Int("total", n))
}

func (m *Manager) notify() {
	// call without holding the lock to avoid re-entrancy
	m.mu.Lock()
	subs := append([]func(){}, m.subscribers...)
	m.mu.Unlock()
	for _, cb := range subs {
		cb()
	}
}

// Enqueue adds a named job to the tail of the queue.
func (m *Manager) Enqueue(name string, fn Func) (*Job, error) {
	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		Name:   name,
		fn:     fn,
		Status: StatusPending,
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return nil, ErrClosed
	}
	m.nextID++
	j.ID = m.nextID
	j.EnqueuedAt = m.now()
	m.queue = append(m.queue, j)
	pending := len(m.queue)
	m.mu.Unlock()

	m.logger.Debug("job enqueued",
		zap.Int64("id", j.ID),
		zap.String("name", name),
		zap.Int("pending", pending))
	m.notify()
	m.cond.Signal()
	return j, nil
}

// Cancel cancels a pending job by ID. Running and finished jobs are not
// affected.
func (m *Manager) Cancel(id int64) bool {
	m.mu.Lock()
	var target *Job
	for i, j := range m.queue {
		if j.ID == id {
			target = j
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	if target == nil {
		m.mu.Unlock()
		return false
	}
	target.finish(StatusCanceled, ErrCanceled, m.now())
	m.addHistoryLocked(target)
	m.mu.Unlock()

	m.logger.Debug("job canceled", zap.Int64("id", id), zap.String("name", target.Name))
	m.notify()
	return true
}

// List returns snapshots of the running job, then pending jobs in queue
// order, then finished jobs newest first.
func (m *Manager) List() []JobSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]JobSnapshot, 0, len(m.queue)+1+len(m.history))
	if m.current != nil {
		out = append(out, m.current.Snapshot())
	}
	for _, j := range m.queue {
		out = append(out, j.Snapshot())
	}
	for i := len(m.history) - 1; i >= 0; i-- {
		out = append(out, m.history[i].Snapshot())
	}
	return out
}

// Pending returns the number of jobs waiting to run.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Close cancels pending jobs, waits for the running job to finish and
// stops the worker. It is safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.stopped
		return
	}
	m.closed = true
	pending := m.queue
	m.queue = nil
	now := m.now()
	for _, j := range pending {
		j.finish(StatusCanceled, ErrCanceled, now)
		m.addHistoryLocked(j)
	}
	m.mu.Unlock()
	m.cond.Broadcast()

	<-m.stopped
	m.logger.Debug("job manager stopped", zap.Int("canceled", len(pending)))
	if len(pending) > 0 {
		m.notify()
	}
}

func (m *Manager) worker() {
	defer close(m.stopped)
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if m.closed {
			m.mu.Unlock()
			return
		}
		// pop head
		j := m.queue[0]
		m.queue = m.queue[1:]
		m.current = j
		m.mu.Unlock()

		j.mu.Lock()
		j.Status = StatusRunning
		j.StartedAt = m.now()
		j.mu.Unlock()
		m.logger.Debug("job started", zap.Int64("id", j.ID), zap.String("name", j.Name))
		m.notify()

		err := m.runJob(j)
		if err != nil {
			m.logger.Debug("job failed", zap.Int64("id", j.ID), zap.String("name", j.Name), zap.Error(err))
			j.finish(StatusFailed, err, m.now())
		} else {
			m.logger.Debug("job completed", zap.Int64("id", j.ID), zap.String("name", j.Name))
			j.finish(StatusCompleted, nil, m.now())
		}

		m.mu.Lock()
		m.current = nil
		m.addHistoryLocked(j)
		m.mu.Unlock()
		m.notify()
	}
}

// runJob executes the job function, converting a panic into an error.
func (m *Manager) runJob(j *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %q panicked: %v", j.Name, r)
		}
	}()
	return j.fn(j.ctx)
}

// addHistoryLocked appends a finished job to history and trims oldest; caller must hold m.mu
func (m *Manager) addHistoryLocked(j *Job) {
	m.history = append(m.history, j)
	if m.historyMax > 0 && len(m.history) > m.historyMax {
		drop := len(m.history) - m.historyMax
		m.history = append([]*Job{}, m.history[drop:]...)
	}
}
