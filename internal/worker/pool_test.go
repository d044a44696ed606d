package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/boxhunt/internal/game"
	"github.com/vytor/boxhunt/internal/search"
	"github.com/vytor/boxhunt/internal/worker"
)

type funcJob struct {
	run       func(context.Context) error
	discarded atomic.Bool
}

func (j *funcJob) Name() string                  { return "func" }
func (j *funcJob) Run(ctx context.Context) error { return j.run(ctx) }
func (j *funcJob) Discard()                      { j.discarded.Store(true) }

func TestPool_RunsJobs(t *testing.T) {
	pool := worker.NewPool(2, 4)
	pool.Start(context.Background())
	defer pool.Stop()

	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		err := pool.Submit(&funcJob{run: func(context.Context) error {
			done <- struct{}{}
			return errors.New("failures are logged, not fatal")
		}})
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("job did not run")
		}
	}
}

func TestPool_SubmitRejectsWhenFull(t *testing.T) {
	pool := worker.NewPool(1, 1)
	queued := &funcJob{run: func(context.Context) error { return nil }}

	require.NoError(t, pool.Submit(queued))
	assert.Equal(t, 1, pool.QueueSize())
	assert.ErrorIs(t, pool.Submit(&funcJob{}), worker.ErrQueueFull)

	pool.Stop()
	assert.True(t, queued.discarded.Load(), "jobs never picked up are discarded on stop")
	assert.ErrorIs(t, pool.Submit(&funcJob{}), worker.ErrPoolStopped)
	pool.Stop()
}

func TestPool_StopCancelsRunningJobs(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start(context.Background())

	started := make(chan struct{})
	require.NoError(t, pool.Submit(&funcJob{run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}))
	<-started
	pool.Stop()
}

func TestAutoSearchJob(t *testing.T) {
	sess, err := game.NewSession(8, game.WithPicker(func(int) int { return 5 }))
	require.NoError(t, err)
	run, err := search.NewRunner(nil).Start(context.Background(), sess, search.NewLinearScan(8), search.RunConfig{})
	require.NoError(t, err)

	job := &worker.AutoSearchJob{Search: run, WidgetID: "w1"}
	assert.Equal(t, "auto_search_linear", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.True(t, sess.Ended())
	assert.Equal(t, 6, sess.TryCount())
}

func TestAutoSearchJob_CancelledRunIsNotAFailure(t *testing.T) {
	sess, err := game.NewSession(8)
	require.NoError(t, err)
	run, err := search.NewRunner(nil).Start(context.Background(), sess, search.NewBinarySearch(8), search.RunConfig{})
	require.NoError(t, err)
	run.Cancel()

	job := &worker.AutoSearchJob{Search: run}
	assert.NoError(t, job.Run(context.Background()))
	assert.ErrorIs(t, run.Err(), context.Canceled)
	assert.Equal(t, 0, sess.TryCount())
}

func TestAutoSearchJob_ReleasedWhileQueued(t *testing.T) {
	sess, err := game.NewSession(8)
	require.NoError(t, err)
	runner := search.NewRunner(nil)
	run, err := runner.Start(context.Background(), sess, search.NewLinearScan(8), search.RunConfig{})
	require.NoError(t, err)
	require.True(t, runner.Cancel())
	require.Nil(t, runner.Active())

	job := &worker.AutoSearchJob{Search: run}
	assert.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, sess.TryCount())
}
