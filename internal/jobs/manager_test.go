package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// gate blocks a job until released.
func gate() (Func, chan struct{}, chan struct{}) {
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}
	return fn, started, release
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting")
	}
}

func TestJobsRunInFIFOOrder(t *testing.T) {
	m := NewManager()
	defer m.Close()

	var mu sync.Mutex
	var order []string
	record := func(name string) Func {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	var last *Job
	for _, name := range []string{"a", "b", "c", "d"} {
		j, err := m.Enqueue(name, record(name))
		require.NoError(t, err)
		last = j
	}
	require.NoError(t, last.Wait())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}

func TestJobStatusTransitions(t *testing.T) {
	m := NewManager()
	defer m.Close()

	fn, started, release := gate()
	j, err := m.Enqueue("save", fn)
	require.NoError(t, err)
	assert.Equal(t, int64(1), j.ID)

	waitClosed(t, started)
	assert.Equal(t, StatusRunning, j.Snapshot().Status)

	close(release)
	require.NoError(t, j.Wait())
	snap := j.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.StartedAt.IsZero())
	assert.False(t, snap.CompletedAt.IsZero())
}

func TestFailedJob(t *testing.T) {
	m := NewManager()
	defer m.Close()

	boom := errors.New("disk full")
	j, err := m.Enqueue("save", func(context.Context) error { return boom })
	require.NoError(t, err)

	assert.ErrorIs(t, j.Wait(), boom)
	snap := j.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "disk full", snap.Error)
}

func TestPanickingJobFails(t *testing.T) {
	m := NewManager()
	defer m.Close()

	j, err := m.Enqueue("bad", func(context.Context) error { panic("oops") })
	require.NoError(t, err)
	require.Error(t, j.Wait())
	assert.Equal(t, StatusFailed, j.Snapshot().Status)

	// worker survives
	next, err := m.Enqueue("good", func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.NoError(t, next.Wait())
}

func TestCancelPendingJob(t *testing.T) {
	m := NewManager()
	defer m.Close()

	fn, started, release := gate()
	running, err := m.Enqueue("first", fn)
	require.NoError(t, err)
	waitClosed(t, started)

	var ran atomic.Bool
	pending, err := m.Enqueue("second", func(context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Pending())

	assert.True(t, m.Cancel(pending.ID))
	assert.False(t, m.Cancel(pending.ID), "already canceled")
	assert.False(t, m.Cancel(running.ID), "running jobs cannot be canceled")
	assert.ErrorIs(t, pending.Wait(), ErrCanceled)
	assert.Equal(t, StatusCanceled, pending.Snapshot().Status)

	close(release)
	require.NoError(t, running.Wait())
	assert.False(t, ran.Load())
}

func TestListOrder(t *testing.T) {
	m := NewManager()
	defer m.Close()

	done, err := m.Enqueue("done", func(context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, done.Wait())

	fn, started, release := gate()
	_, err = m.Enqueue("running", fn)
	require.NoError(t, err)
	waitClosed(t, started)
	_, err = m.Enqueue("pending", func(context.Context) error { return nil })
	require.NoError(t, err)

	// history is recorded after Done is closed; wait for it
	require.Eventually(t, func() bool { return len(m.List()) == 3 }, 2*time.Second, 5*time.Millisecond)
	list := m.List()
	assert.Equal(t, "running", list[0].Name)
	assert.Equal(t, "pending", list[1].Name)
	assert.Equal(t, "done", list[2].Name)

	close(release)
}

func TestHistoryIsBounded(t *testing.T) {
	m := NewManager(WithHistoryMax(3))
	defer m.Close()

	for i := 0; i < 6; i++ {
		j, err := m.Enqueue("job", func(context.Context) error { return nil })
		require.NoError(t, err)
		require.NoError(t, j.Wait())
	}
	require.Eventually(t, func() bool {
		list := m.List()
		return len(list) == 3 && list[0].ID == 6
	}, 2*time.Second, 5*time.Millisecond)

	list := m.List()
	assert.Equal(t, []int64{6, 5, 4}, []int64{list[0].ID, list[1].ID, list[2].ID})
}

func TestSubscribersNotified(t *testing.T) {
	m := NewManager()
	defer m.Close()

	var calls atomic.Int32
	m.Subscribe(func() { calls.Add(1) })

	j, err := m.Enqueue("save", func(context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, j.Wait())

	// enqueue, start and finish each notify
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestCloseCancelsPendingAndRejectsNewJobs(t *testing.T) {
	m := NewManager()

	fn, started, release := gate()
	running, err := m.Enqueue("running", fn)
	require.NoError(t, err)
	waitClosed(t, started)
	pending, err := m.Enqueue("pending", func(context.Context) error { return nil })
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		m.Close()
		close(closed)
	}()

	assert.ErrorIs(t, pending.Wait(), ErrCanceled)
	select {
	case <-closed:
		t.Fatal("Close returned while a job was running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	waitClosed(t, closed)
	assert.NoError(t, running.Wait())

	_, err = m.Enqueue("late", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)

	// second Close is a no-op
	m.Close()
}

func TestLifecycleLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := NewManager(WithLogger(zap.New(core)))

	j, err := m.Enqueue("save app state", func(context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, j.Wait())
	m.Close()

	assert.NotZero(t, logs.FilterMessage("job enqueued").Len())
	assert.NotZero(t, logs.FilterMessage("job completed").Len())
}
