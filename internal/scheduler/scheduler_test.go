package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shinyyama/goods-backend/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunOnce(t *testing.T) {
	var calls int32
	boom := errors.New("boom")
	s := New(zap.NewNop(), metrics.New(prometheus.NewRegistry()),
		Job{Name: JobRanking, Interval: time.Hour, Run: func(context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}},
		Job{Name: JobPointsExpiry, Interval: time.Hour, Run: func(context.Context) error { return boom }},
		Job{Name: "panicky", Interval: time.Hour, Run: func(context.Context) error { panic("bad") }},
	)

	require.NoError(t, s.RunOnce(context.Background(), JobRanking))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.ErrorIs(t, s.RunOnce(context.Background(), JobPointsExpiry), boom)
	assert.Error(t, s.RunOnce(context.Background(), "panicky"))
	assert.Error(t, s.RunOnce(context.Background(), "missing"))
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	s := New(nil, nil, Job{Name: JobRanking, Interval: 10 * time.Millisecond, Run: func(context.Context) error {
		if atomic.AddInt32(&calls, 1) == 3 {
			cancel()
		}
		return nil
	}})

	done := make(chan struct{})
	go func() {
		s.RunForever(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not stop")
	}
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}
