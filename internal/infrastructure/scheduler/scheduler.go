// Package scheduler runs the periodic maintenance jobs of the service.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"matchmate/pkg/logger"
)

// QueueReleaser returns long-matched users to the pool.
type QueueReleaser interface {
	ReleaseStale(ctx context.Context) (int, error)
}

// BucketCleaner drops idle rate limit buckets.
type BucketCleaner interface {
	Cleanup(idle time.Duration) int
}

type Scheduler struct {
	sched gocron.Scheduler
	ctx   context.Context
}

// New creates a stopped scheduler. Jobs derive their contexts from ctx.
func New(ctx context.Context) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	return &Scheduler{sched: sched, ctx: ctx}, nil
}

// AddQueueRelease sweeps the queue every interval. A job still running when
// the next tick fires is skipped.
func (s *Scheduler) AddQueueRelease(interval time.Duration, releaser QueueReleaser) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(s.ctx, interval)
			defer cancel()

			if _, err := releaser.ReleaseStale(ctx); err != nil {
				logger.Warn("[Scheduler] Queue release failed: %v", err)
			}
		}),
		gocron.WithName("queue-release"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

// AddBucketCleanup removes rate limit buckets idle for longer than idle.
func (s *Scheduler) AddBucketCleanup(interval, idle time.Duration, cleaner BucketCleaner) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if n := cleaner.Cleanup(idle); n > 0 {
				logger.Debug("[Scheduler] Removed %d idle rate limit buckets", n)
			}
		}),
		gocron.WithName("ratelimit-cleanup"),
	)
	return err
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string {
	jobs := s.sched.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

// Shutdown stops scheduling and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
