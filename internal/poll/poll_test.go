package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTaskStopsOnSuccess(t *testing.T) {
	var calls atomic.Int32
	task := Start(context.Background(), Options{Interval: 5 * time.Millisecond}, func(context.Context, time.Duration) (bool, error) {
		return calls.Add(1) == 3, nil
	})

	require.NoError(t, task.Wait(context.Background()))
	assert.Equal(t, int32(3), calls.Load())

	// No further checks after completion.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTaskDeadline(t *testing.T) {
	task := Start(context.Background(), Options{Interval: 5 * time.Millisecond, Deadline: 40 * time.Millisecond},
		func(context.Context, time.Duration) (bool, error) { return false, nil })

	err := task.Wait(context.Background())
	assert.ErrorIs(t, err, ErrDeadline)
	assert.GreaterOrEqual(t, time.Since(task.Started()), 40*time.Millisecond)
}

func TestTaskCheckError(t *testing.T) {
	boom := errors.New("boom")
	task := Start(context.Background(), Options{Interval: 5 * time.Millisecond},
		func(context.Context, time.Duration) (bool, error) { return false, boom })

	assert.ErrorIs(t, task.Wait(context.Background()), boom)
	assert.ErrorIs(t, task.Err(), boom)
}

func TestTaskCancel(t *testing.T) {
	var calls atomic.Int32
	task := Start(context.Background(), Options{Interval: 5 * time.Millisecond}, func(context.Context, time.Duration) (bool, error) {
		calls.Add(1)
		return false, nil
	})
	assert.NoError(t, task.Err(), "running task reports no result")

	time.Sleep(15 * time.Millisecond)
	task.Cancel()
	task.Cancel()
	<-task.Done()

	assert.ErrorIs(t, task.Err(), context.Canceled)
	n := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, calls.Load(), "check must not run after cancellation")
}

func TestTaskParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := Start(ctx, Options{Interval: 5 * time.Millisecond},
		func(context.Context, time.Duration) (bool, error) { return false, nil })
	cancel()

	assert.ErrorIs(t, task.Wait(context.Background()), context.Canceled)
}

func TestWaitReturnsOnCallerContext(t *testing.T) {
	task := Start(context.Background(), Options{Interval: time.Hour},
		func(context.Context, time.Duration) (bool, error) { return false, nil })
	defer task.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, task.Wait(ctx), context.DeadlineExceeded)

	select {
	case <-task.Done():
		t.Fatal("Wait must not cancel the task")
	default:
	}
}

func TestElapsedIsPassedToCheck(t *testing.T) {
	var last time.Duration
	task := Start(context.Background(), Options{Interval: 5 * time.Millisecond}, func(_ context.Context, elapsed time.Duration) (bool, error) {
		last = elapsed
		return elapsed >= 20*time.Millisecond, nil
	})
	require.NoError(t, task.Wait(context.Background()))
	assert.GreaterOrEqual(t, last, 20*time.Millisecond)
}
