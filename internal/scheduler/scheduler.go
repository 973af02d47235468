// Package scheduler runs the periodic ranking and points-expiry jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shinyyama/goods-backend/internal/metrics"
	"go.uber.org/zap"
)

const (
	JobRanking      = "weekly_ranking"
	JobPointsExpiry = "points_expiry"
)

type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	jobs    []Job
	log     *zap.Logger
	metrics *metrics.Metrics
}

func New(log *zap.Logger, m *metrics.Metrics, jobs ...Job) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{jobs: jobs, log: log.Named("scheduler"), metrics: m}
}

// RunOnce executes the named job a single time.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	for _, j := range s.jobs {
		if j.Name == name {
			return s.run(ctx, j)
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

func (s *Scheduler) run(ctx context.Context, j Job) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.Name, r)
		}
		d := time.Since(start)
		s.metrics.Job(j.Name, d, err)
		if err != nil {
			s.log.Warn("job failed", zap.String("job", j.Name), zap.Duration("duration", d), zap.Error(err))
			return
		}
		s.log.Info("job finished", zap.String("job", j.Name), zap.Duration("duration", d))
	}()
	return j.Run(ctx)
}

// RunForever runs every job immediately and then on its interval until ctx is done.
// Failures are logged; the next tick retries.
func (s *Scheduler) RunForever(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range s.jobs {
		if j.Interval <= 0 {
			s.log.Warn("job disabled: non-positive interval", zap.String("job", j.Name))
			continue
		}
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			ticker := time.NewTicker(j.Interval)
			defer ticker.Stop()
			for {
				_ = s.run(ctx, j)
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}(j)
	}
	wg.Wait()
}
