package billing

import (
	"context"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookRecorder counts processed webhook deliveries
type WebhookRecorder interface {
	RecordWebhook(ctx context.Context, provider, eventType, outcome string)
}

// webhookGuard makes webhook processing idempotent by provider event id.
// The key is claimed before processing and released again when processing
// fails, so a failed delivery can be retried by the provider.
type webhookGuard struct {
	store   shared.IdempotencyStore
	metrics WebhookRecorder
	logger  *zap.Logger
}

func webhookKey(provider, eventID string) string {
	return "webhook:" + provider + ":" + eventID
}

// run executes fn unless eventID was already claimed
func (g webhookGuard) run(ctx context.Context, provider, eventID, eventType string, fn func(ctx context.Context) error) (*WebhookResult, error) {
	result := &WebhookResult{EventID: eventID, EventType: eventType}
	key := webhookKey(provider, eventID)

	claimed, err := g.store.MarkProcessed(ctx, key, shared.DefaultIdempotencyTTL)
	if err != nil {
		g.logger.Warn("Idempotency check failed, processing anyway",
			zap.String("provider", provider),
			zap.String("event_id", eventID),
			zap.Error(err))
	} else if !claimed {
		g.record(ctx, provider, eventType, "duplicate")
		result.Processed = true
		result.Duplicate = true
		return result, nil
	}

	if err := fn(ctx); err != nil {
		if claimed {
			if rerr := g.store.Release(ctx, key); rerr != nil {
				g.logger.Warn("Failed to release webhook key",
					zap.String("provider", provider),
					zap.String("event_id", eventID),
					zap.Error(rerr))
			}
		}
		g.record(ctx, provider, eventType, "failed")
		g.logger.Error("Failed to process webhook event",
			zap.String("provider", provider),
			zap.String("event_id", eventID),
			zap.String("event_type", eventType),
			zap.Error(err))
		result.Message = err.Error()
		return result, err
	}

	g.record(ctx, provider, eventType, "processed")
	result.Processed = true
	return result, nil
}

func (g webhookGuard) record(ctx context.Context, provider, eventType, outcome string) {
	if g.metrics != nil {
		g.metrics.RecordWebhook(ctx, provider, eventType, outcome)
	}
}

// parseTenantID reads a tenant id carried in provider metadata
func parseTenantID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	return id, err == nil && id != uuid.Nil
}
