package jobs_test

import (
	"context"
	"sync/atomic"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flitsinc/agentboard/internal/jobs"
)

func TestPoolRunsQueuedWorkBeforeClose(t *testing.T) {
	pool := jobs.NewPool(2, 16, nil)
	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, pool.Submit("count", func(context.Context) { n.Add(1) }))
	}
	require.NoError(t, pool.Close())
	assert.Equal(t, int32(10), n.Load())
}

func TestPoolDropsWhenFull(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	pool := jobs.NewPool(1, 1, logger)

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, pool.Submit("block", func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.True(t, pool.Submit("queued", func(context.Context) {}))
	assert.False(t, pool.Submit("dropped", func(context.Context) {}))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "dropped", hook.LastEntry().Data["job"])

	close(release)
	require.NoError(t, pool.Close())
}

func TestPoolRejectsAfterClose(t *testing.T) {
	pool := jobs.NewPool(1, 1, nil)
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
	assert.False(t, pool.Submit("late", func(context.Context) {}))
}

func TestPoolSurvivesPanics(t *testing.T) {
	pool := jobs.NewPool(1, 4, nil)
	var ran atomic.Bool
	pool.Submit("boom", func(context.Context) { panic("boom") })
	pool.Submit("after", func(context.Context) { ran.Store(true) })
	require.NoError(t, pool.Close())
	assert.True(t, ran.Load())
}
