package datasync

import (
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PendingStatus is the state of a queued write
type PendingStatus string

const (
	PendingQueued     PendingStatus = "pending"
	PendingApplied    PendingStatus = "applied"
	PendingFailed     PendingStatus = "failed"
	PendingConflicted PendingStatus = "conflicted"
)

// maxBackoff caps the delay between retries
const maxBackoff = 10 * time.Minute

// PendingWrite is a change that failed transiently and will be retried
type PendingWrite struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	ClientID      string
	UserID        uuid.UUID
	Change        Change
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	Status        PendingStatus
}

// NewPendingWrite queues change after its first failed attempt
func NewPendingWrite(tenantID uuid.UUID, clientID string, userID uuid.UUID, change Change, cause error, now time.Time, base time.Duration) *PendingWrite {
	p := &PendingWrite{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ClientID:   clientID,
		UserID:     userID,
		Change:     change,
		Status:     PendingQueued,
	}
	p.recordFailure(cause, now, base)
	return p
}

// Backoff returns the delay before attempt n+1 after n failures
func Backoff(base time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		return base
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func (p *PendingWrite) recordFailure(cause error, now time.Time, base time.Duration) {
	p.Attempts++
	if cause != nil {
		p.LastError = cause.Error()
	}
	p.NextAttemptAt = now.Add(Backoff(base, p.Attempts))
	p.UpdatedAt = now
}

// Failed records another failed attempt; after maxAttempts the write is given up
func (p *PendingWrite) Failed(cause error, now time.Time, base time.Duration, maxAttempts int) {
	p.recordFailure(cause, now, base)
	if p.Attempts >= maxAttempts {
		p.Status = PendingFailed
	}
}

// Applied marks the write as done
func (p *PendingWrite) Applied(now time.Time) {
	p.Status = PendingApplied
	p.LastError = ""
	p.UpdatedAt = now
}

// Conflicted marks the write as turned into a conflict
func (p *PendingWrite) Conflicted(now time.Time) {
	p.Status = PendingConflicted
	p.UpdatedAt = now
}

// IsDue reports whether the write should be retried at now
func (p *PendingWrite) IsDue(now time.Time) bool {
	return p.Status == PendingQueued && !now.Before(p.NextAttemptAt)
}

// Rejected gives up on a write that can never apply (invalid change)
func (p *PendingWrite) Rejected(cause error, now time.Time) {
	p.Status = PendingFailed
	if cause != nil {
		p.LastError = cause.Error()
	}
	p.UpdatedAt = now
}
