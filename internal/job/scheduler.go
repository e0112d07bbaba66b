package job

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job defines a periodic background job.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	// Align fires on wall-clock multiples of Interval (UTC), so an hourly
	// job runs at the top of every hour.
	Align bool
	// RunOnStart runs the job once immediately before the first tick.
	RunOnStart bool
	Fn         func(ctx context.Context) error
}

// JobScheduler manages periodic background jobs with context-aware shutdown.
type JobScheduler struct {
	jobs   []Job
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time
}

// NewJobScheduler creates a new scheduler.
func NewJobScheduler(logger *slog.Logger) *JobScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobScheduler{logger: logger, now: time.Now}
}

// Add registers a job to be run when Start is called.
func (s *JobScheduler) Add(j Job) {
	s.jobs = append(s.jobs, j)
}

// Start launches all registered jobs as goroutines. All jobs stop when ctx
// is cancelled.
func (s *JobScheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.runJob(ctx, j)
	}
}

func (s *JobScheduler) runJob(ctx context.Context, j Job) {
	defer s.wg.Done()

	s.logger.InfoContext(ctx, "job scheduled",
		"job", j.Name,
		"interval", j.Interval.String(),
		"align", j.Align,
		"next_run", s.now().Add(s.untilNext(j)).UTC())

	if j.RunOnStart {
		s.executeJob(ctx, j)
	}

	timer := time.NewTimer(s.untilNext(j))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "job stopping", "job", j.Name)
			return
		case <-timer.C:
			s.executeJob(ctx, j)
			timer.Reset(s.untilNext(j))
		}
	}
}

// untilNext returns the delay before the next run of j.
func (s *JobScheduler) untilNext(j Job) time.Duration {
	if !j.Align {
		return j.Interval
	}
	return nextBoundary(s.now(), j.Interval)
}

// nextBoundary returns the time from now until the next multiple of interval
// counted from the zero time, which for whole hours is the top of the hour UTC.
func nextBoundary(now time.Time, interval time.Duration) time.Duration {
	next := now.Truncate(interval).Add(interval)
	return next.Sub(now)
}

func (s *JobScheduler) executeJob(ctx context.Context, j Job) {
	if ctx.Err() != nil {
		return
	}

	jobCtx := ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := s.now()
	if err := j.Fn(jobCtx); err != nil {
		s.logger.ErrorContext(ctx, "job failed", "job", j.Name, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "job finished", "job", j.Name, "duration", s.now().Sub(start).String())
}

// Shutdown blocks until all running jobs complete.
func (s *JobScheduler) Shutdown() {
	s.wg.Wait()
}
