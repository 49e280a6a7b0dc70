package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// JobFunc is one scheduled unit of work. Jobs run at-least-once per
// interval; a failing or panicking job is logged and retried on the next
// tick.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	run      JobFunc
}

// Scheduler runs registered jobs at fixed intervals until stopped.
type Scheduler struct {
	mu     sync.Mutex
	jobs   []job
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// New creates a new scheduler.
func New(logger zerolog.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Register adds a named job. Must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, run JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job{name: name, interval: interval, run: run})
	s.logger.Info().
		Str("job", name).
		Dur("interval", interval).
		Msg("scheduled job registered")
}

// Start launches one ticker goroutine per registered job.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, j)
	}
}

// Stop cancels all jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, j job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, j)
		}
	}
}

// runOnce executes one tick with panic containment so a misbehaving job
// cannot take down the loop.
func (s *Scheduler) runOnce(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("job", j.name).
				Interface("panic", r).
				Msg("scheduled job panicked")
		}
	}()

	start := time.Now()
	if err := j.run(ctx); err != nil {
		s.logger.Error().Err(err).
			Str("job", j.name).
			Msg("scheduled job failed")
		return
	}
	s.logger.Debug().
		Str("job", j.name).
		Dur("took", time.Since(start)).
		Msg("scheduled job completed")
}
