package datasync

import (
	"context"
	"fmt"

	"github.com/coretrack/backend/internal/domain/datasync"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Broadcaster pushes a message to the connected clients of a tenant
type Broadcaster interface {
	Broadcast(ctx context.Context, tenantID uuid.UUID, topic string, data any) error
}

// ConflictRecorder counts sync conflicts
type ConflictRecorder interface {
	RecordSyncConflict(ctx context.Context, tenantID uuid.UUID, collection string)
}

// ChangeHandler fans document changes and conflict notices out to clients.
// The event type doubles as the realtime topic.
type ChangeHandler struct {
	broadcaster Broadcaster
	metrics     ConflictRecorder
	logger      *zap.Logger
}

// NewChangeHandler creates the handler. metrics may be nil.
func NewChangeHandler(broadcaster Broadcaster, metrics ConflictRecorder, logger *zap.Logger) *ChangeHandler {
	return &ChangeHandler{broadcaster: broadcaster, metrics: metrics, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ChangeHandler) EventTypes() []string {
	return []string{
		datasync.EventTypeDocumentChanged,
		datasync.EventTypeConflictDetected,
		datasync.EventTypeConflictResolved,
	}
}

// Handle processes document and conflict events
func (h *ChangeHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *datasync.DocumentChangedEvent:
	case *datasync.ConflictEvent:
		if e.EventType() == datasync.EventTypeConflictDetected {
			if h.metrics != nil {
				h.metrics.RecordSyncConflict(ctx, e.TenantID(), e.Collection)
			}
			h.logger.Info("sync conflict detected",
				zap.String("tenant_id", e.TenantID().String()),
				zap.String("collection", e.Collection),
				zap.String("document_id", e.DocumentID),
				zap.String("client_id", e.ClientID))
		}
	default:
		return fmt.Errorf("unexpected event type: expected a sync event, got %s", event.EventType())
	}

	if err := h.broadcaster.Broadcast(ctx, event.TenantID(), event.EventType(), event); err != nil {
		h.logger.Error("broadcast sync event", zap.String("event_type", event.EventType()), zap.Error(err))
	}
	return nil
}

var _ shared.EventHandler = (*ChangeHandler)(nil)
