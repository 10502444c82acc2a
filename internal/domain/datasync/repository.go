package datasync

import (
	"context"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentRepository persists server copies
type DocumentRepository interface {
	Find(ctx context.Context, tenantID uuid.UUID, collection, documentID string) (*Document, error)
	// FindChangedSince returns documents with Seq above since, ordered by Seq.
	// An empty collection means every collection.
	FindChangedSince(ctx context.Context, tenantID uuid.UUID, collection string, since int64, limit int) ([]Document, error)
	// Save inserts or updates guarded by the previous version and stamps the
	// next Seq; a lost race yields shared.ErrConcurrencyConflict.
	Save(ctx context.Context, doc *Document) error
}

// ConflictRepository persists conflicts
type ConflictRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Conflict, error)
	FindOpen(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Conflict, int64, error)
	Save(ctx context.Context, c *Conflict) error
}

// PendingWriteRepository persists the retry list
type PendingWriteRepository interface {
	FindDue(ctx context.Context, now time.Time, limit int) ([]PendingWrite, error)
	CountQueued(ctx context.Context, tenantID uuid.UUID, clientID string) (int64, error)
	Save(ctx context.Context, p *PendingWrite) error
}

// SessionStore tracks client heartbeats
type SessionStore interface {
	Touch(ctx context.Context, s ClientSession) error
	List(ctx context.Context, tenantID uuid.UUID) ([]ClientSession, error)
}
