// Package scheduler runs background jobs at fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coretrack/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of the last run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobFunc is the work of a job. It must honour ctx cancellation.
type JobFunc func(ctx context.Context) error

// Job is a named task repeated every Interval
type Job struct {
	Name     string
	Interval time.Duration
	// RunOnStart runs the job once as soon as the scheduler starts
	RunOnStart bool
	Run        JobFunc
}

// JobState is a snapshot of a job's history
type JobState struct {
	Name        string
	Interval    time.Duration
	Status      JobStatus
	Runs        int
	Failures    int
	LastError   string
	LastStarted *time.Time
	LastEnded   *time.Time
}

// Config holds scheduler settings
type Config struct {
	Enabled    bool
	JobTimeout time.Duration
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		JobTimeout: 5 * time.Minute,
	}
}

type entry struct {
	job     Job
	trigger chan struct{}
	mu      sync.Mutex
	state   JobState
}

// Scheduler owns one goroutine per registered job. A job never overlaps with
// itself; ticks that arrive while it runs are skipped.
type Scheduler struct {
	config Config
	logger *zap.Logger

	mu        sync.Mutex
	jobs      map[string]*entry
	order     []string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// NewScheduler creates a scheduler
func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	return &Scheduler{
		config: config,
		logger: logger,
		jobs:   make(map[string]*entry),
	}
}

// Register adds a job. Jobs must be registered before Start.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Interval <= 0 || job.Run == nil {
		return fmt.Errorf("%w: %q needs a name, a positive interval and a func", ErrInvalidConfig, job.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	s.jobs[job.Name] = &entry{
		job:     job,
		trigger: make(chan struct{}, 1),
		state:   JobState{Name: job.Name, Interval: job.Interval, Status: JobStatusPending},
	}
	s.order = append(s.order, job.Name)
	return nil
}

// Start launches the job loops. It is a no-op when disabled or already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.config.Enabled {
		s.logger.Info("Scheduler disabled")
		return nil
	}
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, name := range s.order {
		e := s.jobs[name]
		s.wg.Add(1)
		go s.loop(ctx, e)
	}

	s.logger.Info("Scheduler started",
		zap.Int("jobs", len(s.order)),
		zap.Duration("job_timeout", s.config.JobTimeout))
	return nil
}

// Stop cancels running jobs and waits for the loops to exit or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Trigger asks a job to run now. A pending trigger is not queued twice.
func (s *Scheduler) Trigger(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	e, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	select {
	case e.trigger <- struct{}{}:
	default:
	}
	return nil
}

// States returns a snapshot of every job in registration order
func (s *Scheduler) States() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobState, 0, len(s.order))
	for _, name := range s.order {
		e := s.jobs[name]
		e.mu.Lock()
		out = append(out, e.state)
		e.mu.Unlock()
	}
	return out
}

// IsRunning reports whether Start has been called without Stop
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.wg.Done()

	if e.job.RunOnStart {
		s.execute(ctx, e)
	}

	ticker := time.NewTicker(e.job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, e)
		case <-e.trigger:
			s.execute(ctx, e)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, e *entry) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	e.mu.Lock()
	e.state.Status = JobStatusRunning
	e.state.LastStarted = &started
	e.mu.Unlock()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()
	log := s.logger.With(zap.String("job", e.job.Name))
	jobCtx = logger.Into(jobCtx, log)

	err := s.safeRun(jobCtx, e.job.Run)

	ended := time.Now()
	e.mu.Lock()
	e.state.Runs++
	e.state.LastEnded = &ended
	if err != nil {
		e.state.Status = JobStatusFailed
		e.state.Failures++
		e.state.LastError = err.Error()
	} else {
		e.state.Status = JobStatusSuccess
		e.state.LastError = ""
	}
	e.mu.Unlock()

	if err != nil {
		log.Error("Job failed", zap.Duration("duration", ended.Sub(started)), zap.Error(err))
		return
	}
	log.Debug("Job finished", zap.Duration("duration", ended.Sub(started)))
}

func (s *Scheduler) safeRun(ctx context.Context, fn JobFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx)
}
