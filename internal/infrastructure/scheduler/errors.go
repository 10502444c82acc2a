package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrSchedulerRunning is returned when registering a job after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")

	// ErrJobNotFound is returned for an unknown job name
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("job already registered")

	// ErrInvalidConfig is returned when a job definition is invalid
	ErrInvalidConfig = errors.New("invalid job configuration")
)
