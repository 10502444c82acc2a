package datasync

import (
	"encoding/json"
	"time"

	"github.com/coretrack/backend/internal/domain/datasync"
	"github.com/google/uuid"
)

// PushRequest carries a batch of client writes
type PushRequest struct {
	ClientID string            `json:"client_id" binding:"required,max=128"`
	Changes  []datasync.Change `json:"changes" binding:"required,min=1,max=500"`
}

// PushResponse reports one result per pushed change, in order
type PushResponse struct {
	Results []datasync.ChangeResult `json:"results"`
}

// PullRequest is bound from pull query parameters
type PullRequest struct {
	Collection string `form:"collection" binding:"omitempty,max=64"`
	Since      int64  `form:"since" binding:"min=0"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// DocumentResponse is a document as returned by the API
type DocumentResponse struct {
	Collection string          `json:"collection"`
	DocumentID string          `json:"document_id"`
	Version    int64           `json:"version"`
	Seq        int64           `json:"seq"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Deleted    bool            `json:"deleted"`
	UpdatedBy  uuid.UUID       `json:"updated_by"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToDocumentResponse maps a document
func ToDocumentResponse(d *datasync.Document) DocumentResponse {
	return DocumentResponse{
		Collection: d.Collection,
		DocumentID: d.DocumentID,
		Version:    d.Version,
		Seq:        d.Seq,
		Payload:    d.Payload,
		Deleted:    d.Deleted,
		UpdatedBy:  d.UpdatedBy,
		UpdatedAt:  d.UpdatedAt,
	}
}

// PullResponse is a page of the change feed
type PullResponse struct {
	Documents []DocumentResponse `json:"documents"`
	// Watermark is the highest seq returned; pass it as since on the next pull
	Watermark int64 `json:"watermark"`
	HasMore   bool  `json:"has_more"`
}

// ConflictResponse is a conflict as returned by the API
type ConflictResponse struct {
	ID            uuid.UUID       `json:"id"`
	Collection    string          `json:"collection"`
	DocumentID    string          `json:"document_id"`
	ClientID      string          `json:"client_id"`
	UserID        uuid.UUID       `json:"user_id"`
	BaseVersion   int64           `json:"base_version"`
	LocalPayload  json.RawMessage `json:"local_payload,omitempty"`
	LocalDelete   bool            `json:"local_delete"`
	RemotePayload json.RawMessage `json:"remote_payload,omitempty"`
	RemoteDeleted bool            `json:"remote_deleted"`
	RemoteVersion int64           `json:"remote_version"`
	Status        string          `json:"status"`
	Resolution    string          `json:"resolution,omitempty"`
	ResolvedBy    *uuid.UUID      `json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToConflictResponse maps a conflict
func ToConflictResponse(c *datasync.Conflict) ConflictResponse {
	return ConflictResponse{
		ID:            c.ID,
		Collection:    c.Collection,
		DocumentID:    c.DocumentID,
		ClientID:      c.ClientID,
		UserID:        c.UserID,
		BaseVersion:   c.BaseVersion,
		LocalPayload:  c.LocalPayload,
		LocalDelete:   c.LocalDelete,
		RemotePayload: c.RemotePayload,
		RemoteDeleted: c.RemoteDeleted,
		RemoteVersion: c.RemoteVersion,
		Status:        string(c.Status),
		Resolution:    string(c.Resolution),
		ResolvedBy:    c.ResolvedBy,
		ResolvedAt:    c.ResolvedAt,
		CreatedAt:     c.CreatedAt,
	}
}

// ResolveConflictRequest picks the winning side
type ResolveConflictRequest struct {
	Resolution string `json:"resolution" binding:"required,oneof=local remote"`
}

// ResolveConflictResponse returns the closed conflict and the resulting document
type ResolveConflictResponse struct {
	Conflict ConflictResponse  `json:"conflict"`
	Document *DocumentResponse `json:"document,omitempty"`
}

// HeartbeatRequest reports a client's connection state
type HeartbeatRequest struct {
	ClientID string `json:"client_id" binding:"required,max=128"`
	State    string `json:"state" binding:"required,oneof=online offline syncing"`
}

// SessionResponse is a client session as seen by the server
type SessionResponse struct {
	ClientID   string    `json:"client_id"`
	UserID     uuid.UUID `json:"user_id"`
	State      string    `json:"state"`
	Pending    int       `json:"pending"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
