package scheduler

import (
	"time"
)

// Job names
const (
	JobSyncRetries   = "sync-retries"
	JobIntegrityScan = "integrity-scan"
	JobTrialExpiry   = "trial-expiry"
)

// CoreJobs are the recurring CoreTrack jobs. A nil func or a zero interval
// keeps the job out of the schedule.
type CoreJobs struct {
	SyncRetries         JobFunc
	SyncRetryInterval   time.Duration
	IntegrityScan       JobFunc
	IntegrityInterval   time.Duration
	TrialExpiry         JobFunc
	TrialExpiryInterval time.Duration
}

// RegisterCoreJobs adds the CoreTrack jobs to s
func RegisterCoreJobs(s *Scheduler, jobs CoreJobs) error {
	defs := []Job{
		{Name: JobSyncRetries, Interval: jobs.SyncRetryInterval, Run: jobs.SyncRetries},
		{Name: JobIntegrityScan, Interval: jobs.IntegrityInterval, Run: jobs.IntegrityScan},
		{Name: JobTrialExpiry, Interval: jobs.TrialExpiryInterval, Run: jobs.TrialExpiry, RunOnStart: true},
	}
	for _, job := range defs {
		if job.Run == nil || job.Interval <= 0 {
			continue
		}
		if err := s.Register(job); err != nil {
			return err
		}
	}
	return nil
}
