package datasync

import (
	"encoding/json"
	"time"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ConflictStatus is the state of a conflict
type ConflictStatus string

const (
	ConflictOpen     ConflictStatus = "open"
	ConflictResolved ConflictStatus = "resolved"
)

// Resolution is the side the human picked
type Resolution string

const (
	ResolutionLocal  Resolution = "local"
	ResolutionRemote Resolution = "remote"
)

// IsValid reports whether r is a known resolution
func (r Resolution) IsValid() bool {
	return r == ResolutionLocal || r == ResolutionRemote
}

// Conflict keeps both sides of a raced write until someone picks the winner.
// There is no automatic merge.
type Conflict struct {
	shared.BaseEntity
	TenantID      uuid.UUID
	Collection    string
	DocumentID    string
	ClientID      string
	UserID        uuid.UUID
	ChangeID      string
	BaseVersion   int64
	LocalPayload  json.RawMessage
	LocalDelete   bool
	RemotePayload json.RawMessage
	RemoteDeleted bool
	RemoteVersion int64
	Status        ConflictStatus
	Resolution    Resolution
	ResolvedBy    *uuid.UUID
	ResolvedAt    *time.Time
}

// NewConflict records a rejected change next to the current server copy.
// remote is nil when the client expected an existing document that is gone.
func NewConflict(tenantID uuid.UUID, clientID string, userID uuid.UUID, change Change, remote *Document) *Conflict {
	c := &Conflict{
		BaseEntity:   shared.NewBaseEntity(),
		TenantID:     tenantID,
		Collection:   change.Collection,
		DocumentID:   change.DocumentID,
		ClientID:     clientID,
		UserID:       userID,
		ChangeID:     change.ChangeID,
		BaseVersion:  change.BaseVersion,
		LocalPayload: change.Payload,
		LocalDelete:  change.Delete,
		Status:       ConflictOpen,
	}
	if remote != nil {
		c.RemotePayload = remote.Payload
		c.RemoteDeleted = remote.Deleted
		c.RemoteVersion = remote.Version
	} else {
		c.RemoteDeleted = true
	}
	return c
}

// Resolve closes the conflict. Picking local overwrites the server copy with
// the client's payload as a new version; picking remote discards the client's
// payload. The returned document is the one to persist (nil when remote wins
// and nothing changes).
func (c *Conflict) Resolve(choice Resolution, by uuid.UUID, current *Document) (*Document, error) {
	if c.Status != ConflictOpen {
		return nil, shared.NewDomainError("CONFLICT_RESOLVED", "Conflict is already resolved")
	}
	if !choice.IsValid() {
		return nil, shared.NewDomainError("INVALID_RESOLUTION", "Resolution must be local or remote")
	}

	var out *Document
	if choice == ResolutionLocal {
		if current == nil {
			current = &Document{
				BaseEntity: shared.NewBaseEntity(),
				TenantID:   c.TenantID,
				Collection: c.Collection,
				DocumentID: c.DocumentID,
			}
		}
		current.Overwrite(c.LocalPayload, c.LocalDelete, by)
		out = current
	}

	now := time.Now().UTC()
	c.Status = ConflictResolved
	c.Resolution = choice
	c.ResolvedBy = &by
	c.ResolvedAt = &now
	c.Touch()
	return out, nil
}
