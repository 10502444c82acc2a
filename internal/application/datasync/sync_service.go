// Package datasync implements the client sync protocol: versioned pushes,
// the pull feed, manual conflict resolution, heartbeats and the retry list.
package datasync

import (
	"context"
	"errors"
	"time"

	"github.com/coretrack/backend/internal/domain/datasync"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options tunes the sync service
type Options struct {
	OfflineAfter   time.Duration
	RetryBaseDelay time.Duration
	MaxAttempts    int
	PullLimit      int
	RetryBatch     int
}

// DefaultOptions returns the production defaults
func DefaultOptions() Options {
	return Options{
		OfflineAfter:   90 * time.Second,
		RetryBaseDelay: 5 * time.Second,
		MaxAttempts:    8,
		PullLimit:      200,
		RetryBatch:     100,
	}
}

// SyncService handles client synchronisation
type SyncService struct {
	tx        shared.TransactionScope
	documents datasync.DocumentRepository
	conflicts datasync.ConflictRepository
	pending   datasync.PendingWriteRepository
	sessions  datasync.SessionStore
	events    shared.EventPublisher
	opts      Options
	now       func() time.Time
	logger    *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	tx shared.TransactionScope,
	documents datasync.DocumentRepository,
	conflicts datasync.ConflictRepository,
	pending datasync.PendingWriteRepository,
	sessions datasync.SessionStore,
	events shared.EventPublisher,
	opts Options,
	logger *zap.Logger,
) *SyncService {
	def := DefaultOptions()
	if opts.OfflineAfter <= 0 {
		opts.OfflineAfter = def.OfflineAfter
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = def.RetryBaseDelay
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.PullLimit <= 0 {
		opts.PullLimit = def.PullLimit
	}
	if opts.RetryBatch <= 0 {
		opts.RetryBatch = def.RetryBatch
	}
	return &SyncService{
		tx:        tx,
		documents: documents,
		conflicts: conflicts,
		pending:   pending,
		sessions:  sessions,
		events:    events,
		opts:      opts,
		now:       time.Now,
		logger:    logger,
	}
}

// outcome is the result of one apply attempt plus the events to publish
type outcome struct {
	result datasync.ChangeResult
	events []shared.DomainEvent
}

// Push applies a batch of client writes one by one. A write made against the
// current version is applied; a stale one becomes a conflict; a transient
// failure is queued for retry. One bad change never fails the batch.
func (s *SyncService) Push(ctx context.Context, actor identity.Actor, req PushRequest) (*PushResponse, error) {
	resp := &PushResponse{Results: make([]datasync.ChangeResult, 0, len(req.Changes))}
	for _, change := range req.Changes {
		if err := change.Validate(); err != nil {
			resp.Results = append(resp.Results, datasync.ChangeResult{
				ChangeID: change.ChangeID, Status: datasync.ResultRejected, Error: err.Error(),
			})
			continue
		}

		out, err := s.apply(ctx, actor.TenantID, req.ClientID, actor.UserID, change)
		switch {
		case err == nil:
			s.publish(ctx, out.events)
		case isTransient(err):
			result, qerr := s.enqueue(ctx, actor.TenantID, req.ClientID, actor.UserID, change, err)
			if qerr != nil {
				return nil, qerr
			}
			out.result = result
		default:
			out.result = datasync.ChangeResult{ChangeID: change.ChangeID, Status: datasync.ResultRejected, Error: err.Error()}
		}
		resp.Results = append(resp.Results, out.result)
	}
	return resp, nil
}

// apply writes change in its own transaction
func (s *SyncService) apply(ctx context.Context, tenantID uuid.UUID, clientID string, userID uuid.UUID, change datasync.Change) (outcome, error) {
	var out outcome
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		out = outcome{}
		current, err := s.documents.Find(ctx, tenantID, change.Collection, change.DocumentID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		if current == nil && change.BaseVersion == 0 {
			doc, err := datasync.NewDocument(tenantID, change, userID)
			if err != nil {
				return err
			}
			return s.saveDocument(ctx, doc, clientID, change.ChangeID, &out)
		}
		if current != nil && current.Version == change.BaseVersion {
			if err := current.Apply(change, userID); err != nil {
				return err
			}
			return s.saveDocument(ctx, current, clientID, change.ChangeID, &out)
		}
		// a resend of a change that already landed
		if current != nil && current.UpdatedBy == userID && current.SameContent(change) {
			out.result = datasync.ChangeResult{ChangeID: change.ChangeID, Status: datasync.ResultDuplicate, Version: current.Version}
			return nil
		}

		conflict := datasync.NewConflict(tenantID, clientID, userID, change, current)
		if err := s.conflicts.Save(ctx, conflict); err != nil {
			return err
		}
		id := conflict.ID
		out.result = datasync.ChangeResult{ChangeID: change.ChangeID, Status: datasync.ResultConflict, ConflictID: &id}
		if current != nil {
			out.result.Version = current.Version
		}
		out.events = []shared.DomainEvent{datasync.NewConflictEvent(datasync.EventTypeConflictDetected, conflict)}
		return nil
	})
	return out, err
}

func (s *SyncService) saveDocument(ctx context.Context, doc *datasync.Document, clientID, changeID string, out *outcome) error {
	if err := s.documents.Save(ctx, doc); err != nil {
		return err
	}
	out.result = datasync.ChangeResult{ChangeID: changeID, Status: datasync.ResultApplied, Version: doc.Version}
	out.events = []shared.DomainEvent{datasync.NewDocumentChangedEvent(doc, clientID)}
	return nil
}

func (s *SyncService) enqueue(ctx context.Context, tenantID uuid.UUID, clientID string, userID uuid.UUID, change datasync.Change, cause error) (datasync.ChangeResult, error) {
	p := datasync.NewPendingWrite(tenantID, clientID, userID, change, cause, s.now(), s.opts.RetryBaseDelay)
	if err := s.pending.Save(ctx, p); err != nil {
		logger.L(ctx).Error("queue sync write", zap.String("change_id", change.ChangeID), zap.Error(err))
		return datasync.ChangeResult{}, err
	}
	logger.L(ctx).Warn("sync write queued for retry",
		zap.String("change_id", change.ChangeID),
		zap.String("collection", change.Collection),
		zap.Time("next_attempt_at", p.NextAttemptAt),
		zap.Error(cause))
	return datasync.ChangeResult{ChangeID: change.ChangeID, Status: datasync.ResultQueued}, nil
}

// Pull returns documents changed after the since watermark
func (s *SyncService) Pull(ctx context.Context, actor identity.Actor, req PullRequest) (*PullResponse, error) {
	if req.Collection != "" {
		if err := datasync.ValidateCollection(req.Collection); err != nil {
			return nil, err
		}
	}
	limit := req.Limit
	if limit <= 0 || limit > s.opts.PullLimit {
		limit = s.opts.PullLimit
	}
	// one extra row tells whether another page exists
	docs, err := s.documents.FindChangedSince(ctx, actor.TenantID, req.Collection, req.Since, limit+1)
	if err != nil {
		return nil, err
	}
	resp := &PullResponse{Watermark: req.Since}
	if len(docs) > limit {
		docs = docs[:limit]
		resp.HasMore = true
	}
	resp.Documents = make([]DocumentResponse, len(docs))
	for i := range docs {
		resp.Documents[i] = ToDocumentResponse(&docs[i])
		if docs[i].Seq > resp.Watermark {
			resp.Watermark = docs[i].Seq
		}
	}
	return resp, nil
}

// ListConflicts returns open conflicts, oldest first
func (s *SyncService) ListConflicts(ctx context.Context, actor identity.Actor, page, pageSize int) ([]ConflictResponse, int64, error) {
	filter := shared.DefaultFilter()
	if page > 0 {
		filter.Page = page
	}
	if pageSize > 0 {
		filter.PageSize = pageSize
	}
	conflicts, total, err := s.conflicts.FindOpen(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ConflictResponse, len(conflicts))
	for i := range conflicts {
		out[i] = ToConflictResponse(&conflicts[i])
	}
	return out, total, nil
}

// ResolveConflict closes a conflict. Managers resolve any conflict; other
// users only the ones their own writes raised.
func (s *SyncService) ResolveConflict(ctx context.Context, actor identity.Actor, id uuid.UUID, req ResolveConflictRequest) (*ResolveConflictResponse, error) {
	var (
		conflict *datasync.Conflict
		written  *datasync.Document
	)
	err := s.tx.Execute(ctx, func(ctx context.Context) error {
		var err error
		if conflict, err = s.conflicts.FindByID(ctx, actor.TenantID, id); err != nil {
			return err
		}
		if !canResolve(actor, conflict) {
			return shared.WrapDomainError(shared.ErrForbidden.Code,
				"Only a manager or the author of the change can resolve this conflict", shared.ErrForbidden)
		}
		current, err := s.documents.Find(ctx, actor.TenantID, conflict.Collection, conflict.DocumentID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if written, err = conflict.Resolve(datasync.Resolution(req.Resolution), actor.UserID, current); err != nil {
			return err
		}
		if written != nil {
			if err := s.documents.Save(ctx, written); err != nil {
				return err
			}
		}
		return s.conflicts.Save(ctx, conflict)
	})
	if err != nil {
		return nil, err
	}

	events := []shared.DomainEvent{datasync.NewConflictEvent(datasync.EventTypeConflictResolved, conflict)}
	if written != nil {
		events = append(events, datasync.NewDocumentChangedEvent(written, ""))
	}
	s.publish(ctx, events)

	logger.L(ctx).Info("sync conflict resolved",
		zap.String("conflict_id", conflict.ID.String()),
		zap.String("collection", conflict.Collection),
		zap.String("resolution", req.Resolution))
	resp := &ResolveConflictResponse{Conflict: ToConflictResponse(conflict)}
	if written != nil {
		doc := ToDocumentResponse(written)
		resp.Document = &doc
	}
	return resp, nil
}

// Heartbeat records a client's state and reports its queued writes
func (s *SyncService) Heartbeat(ctx context.Context, actor identity.Actor, req HeartbeatRequest) (*SessionResponse, error) {
	state := datasync.ConnectionState(req.State)
	if !state.IsValid() {
		return nil, shared.WrapDomainError(shared.ErrInvalidInput.Code, "Unknown connection state", shared.ErrInvalidInput)
	}
	pending, err := s.pending.CountQueued(ctx, actor.TenantID, req.ClientID)
	if err != nil {
		return nil, err
	}
	session := datasync.ClientSession{
		TenantID:   actor.TenantID,
		ClientID:   req.ClientID,
		UserID:     actor.UserID,
		State:      state,
		Pending:    int(pending),
		LastSeenAt: s.now(),
	}
	if err := s.sessions.Touch(ctx, session); err != nil {
		return nil, err
	}
	return &SessionResponse{
		ClientID:   session.ClientID,
		UserID:     session.UserID,
		State:      string(session.State),
		Pending:    session.Pending,
		LastSeenAt: session.LastSeenAt,
	}, nil
}

// Sessions lists the tenant's clients; silent ones are reported offline
func (s *SyncService) Sessions(ctx context.Context, actor identity.Actor) ([]SessionResponse, error) {
	if err := actor.RequireManager(); err != nil {
		return nil, err
	}
	sessions, err := s.sessions.List(ctx, actor.TenantID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]SessionResponse, len(sessions))
	for i, session := range sessions {
		out[i] = SessionResponse{
			ClientID:   session.ClientID,
			UserID:     session.UserID,
			State:      string(session.EffectiveState(now, s.opts.OfflineAfter)),
			Pending:    session.Pending,
			LastSeenAt: session.LastSeenAt,
		}
	}
	return out, nil
}

// RetryStats summarises one ProcessRetries run
type RetryStats struct {
	Applied    int
	Conflicted int
	Requeued   int
	Failed     int
}

// ProcessRetries re-applies due writes from the retry list. Writes that keep
// failing back off exponentially and are given up after MaxAttempts.
func (s *SyncService) ProcessRetries(ctx context.Context) (RetryStats, error) {
	var stats RetryStats
	due, err := s.pending.FindDue(ctx, s.now(), s.opts.RetryBatch)
	if err != nil {
		return stats, err
	}
	for i := range due {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		p := &due[i]
		out, err := s.apply(ctx, p.TenantID, p.ClientID, p.UserID, p.Change)
		now := s.now()
		switch {
		case err == nil && out.result.Status == datasync.ResultConflict:
			p.Conflicted(now)
			stats.Conflicted++
		case err == nil:
			p.Applied(now)
			stats.Applied++
		case isTransient(err):
			p.Failed(err, now, s.opts.RetryBaseDelay, s.opts.MaxAttempts)
			if p.Status == datasync.PendingFailed {
				stats.Failed++
				logger.L(ctx).Error("sync write abandoned",
					zap.String("change_id", p.Change.ChangeID),
					zap.Int("attempts", p.Attempts),
					zap.Error(err))
			} else {
				stats.Requeued++
			}
		default:
			p.Rejected(err, now)
			stats.Failed++
		}
		if serr := s.pending.Save(ctx, p); serr != nil {
			return stats, serr
		}
		if err == nil {
			s.publish(ctx, out.events)
		}
	}
	if len(due) > 0 {
		logger.L(ctx).Info("sync retries processed",
			zap.Int("applied", stats.Applied),
			zap.Int("conflicted", stats.Conflicted),
			zap.Int("requeued", stats.Requeued),
			zap.Int("failed", stats.Failed))
	}
	return stats, nil
}

func (s *SyncService) publish(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("publish sync events", zap.Error(err))
	}
}

func canResolve(actor identity.Actor, c *datasync.Conflict) bool {
	return actor.Role.CanManage() || c.UserID == actor.UserID
}

// isTransient reports whether a write failure is worth retrying later.
// Domain errors other than retryable ones mean the change itself is bad.
func isTransient(err error) bool {
	if shared.IsRetryable(err) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return shared.ErrorCode(err) == ""
}
