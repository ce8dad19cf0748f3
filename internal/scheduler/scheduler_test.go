package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/virtual-waiting-room/internal/config"
	"github.com/iliyamo/virtual-waiting-room/internal/repository"
	"github.com/iliyamo/virtual-waiting-room/internal/service"
)

func newTestScheduler(t *testing.T, cfg config.SchedulerConfig) (*Scheduler, *service.AdmissionService) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	svc := service.NewAdmissionService(repository.NewUserQueueRepo(rdb), nil, false)
	return New(svc, cfg), svc
}

func TestTickDisabledPromotesNothing(t *testing.T) {
	sched, svc := newTestScheduler(t, config.SchedulerConfig{
		Enabled:       false,
		MaxAllowUsers: 100,
	})
	ctx := context.Background()

	_, err := svc.Register(ctx, "default", "1001")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.Equal(t, int64(0), sched.Tick(ctx))
	}

	// The user never left the wait line.
	rank, err := svc.Rank(ctx, "default", "1001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)
}

func TestTickPromotesEveryDiscoveredQueue(t *testing.T) {
	sched, svc := newTestScheduler(t, config.SchedulerConfig{
		Enabled:       true,
		MaxAllowUsers: 100,
	})
	ctx := context.Background()

	for _, u := range []string{"1001", "1002"} {
		_, err := svc.Register(ctx, "default", u)
		require.NoError(t, err)
	}
	_, err := svc.Register(ctx, "summer-sale", "2001")
	require.NoError(t, err)

	assert.Equal(t, int64(3), sched.Tick(ctx))

	for _, tc := range []struct{ queue, user string }{
		{"default", "1001"},
		{"default", "1002"},
		{"summer-sale", "2001"},
	} {
		admitted, err := svc.IsProceedAdmitted(ctx, tc.queue, tc.user)
		require.NoError(t, err)
		assert.True(t, admitted, "%s/%s", tc.queue, tc.user)
	}

	// A follow-up tick finds nothing to do.
	assert.Equal(t, int64(0), sched.Tick(ctx))
}

func TestTickHonoursPerQueueCeiling(t *testing.T) {
	sched, svc := newTestScheduler(t, config.SchedulerConfig{
		Enabled:       true,
		MaxAllowUsers: 1,
	})
	ctx := context.Background()

	for _, u := range []string{"1001", "1002", "1003"} {
		_, err := svc.Register(ctx, "default", u)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), sched.Tick(ctx))

	// Strict arrival order: the oldest registration went first.
	admitted, err := svc.IsProceedAdmitted(ctx, "default", "1001")
	require.NoError(t, err)
	assert.True(t, admitted)

	rank, err := svc.Rank(ctx, "default", "1002")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	sched, _ := newTestScheduler(t, config.SchedulerConfig{
		Enabled:      true,
		InitialDelay: time.Hour, // Run should exit during the warm-up wait
		Interval:     time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}
