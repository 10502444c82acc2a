package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by the business counters
var (
	AttrTenantID      = attribute.Key("tenant_id")
	AttrPaymentMethod = attribute.Key("payment_method")
	AttrProvider      = attribute.Key("provider")
	AttrEventType     = attribute.Key("event_type")
	AttrOutcome       = attribute.Key("outcome")
	AttrCollection    = attribute.Key("collection")
	AttrOutOfStock    = attribute.Key("out_of_stock")
)

// BusinessMetrics exports CoreTrack business counters over OTLP.
// A nil *BusinessMetrics is valid and records nothing.
type BusinessMetrics struct {
	salesTotal      metric.Int64Counter
	salesAmount     metric.Float64Counter
	salesVoided     metric.Int64Counter
	deliveries      metric.Int64Counter
	deliveryLines   metric.Int64Counter
	deliveryAmount  metric.Float64Counter
	syncConflicts   metric.Int64Counter
	webhooks        metric.Int64Counter
	lowStockAlerts  metric.Int64Counter
	handlerFailures metric.Int64Counter
}

// NewBusinessMetrics registers the counters on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	bm := &BusinessMetrics{}
	var err error

	int64s := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&bm.salesTotal, "coretrack_sales_total", "Completed sales"},
		{&bm.salesVoided, "coretrack_sales_voided_total", "Voided sales"},
		{&bm.deliveries, "coretrack_po_deliveries_total", "Purchase orders delivered"},
		{&bm.deliveryLines, "coretrack_po_delivery_lines_total", "Purchase order lines received"},
		{&bm.syncConflicts, "coretrack_sync_conflicts_total", "Offline sync conflicts detected"},
		{&bm.webhooks, "coretrack_webhooks_total", "Payment provider webhooks by outcome"},
		{&bm.lowStockAlerts, "coretrack_low_stock_alerts_total", "Low stock alerts raised"},
		{&bm.handlerFailures, "coretrack_event_handler_failures_total", "Domain event handlers that failed"},
	}
	for _, c := range int64s {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("{count}")); err != nil {
			return nil, fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
	}

	if bm.salesAmount, err = meter.Float64Counter("coretrack_sales_amount",
		metric.WithDescription("Net value of completed sales in tenant currency")); err != nil {
		return nil, fmt.Errorf("failed to create counter coretrack_sales_amount: %w", err)
	}
	if bm.deliveryAmount, err = meter.Float64Counter("coretrack_po_delivery_amount",
		metric.WithDescription("Value of delivered purchase orders in tenant currency")); err != nil {
		return nil, fmt.Errorf("failed to create counter coretrack_po_delivery_amount: %w", err)
	}
	return bm, nil
}

// RecordSale counts a completed sale and its value
func (bm *BusinessMetrics) RecordSale(ctx context.Context, tenantID uuid.UUID, method string, total decimal.Decimal) {
	if bm == nil {
		return
	}
	attrs := metric.WithAttributes(AttrTenantID.String(tenantID.String()), AttrPaymentMethod.String(method))
	bm.salesTotal.Add(ctx, 1, attrs)
	bm.salesAmount.Add(ctx, total.InexactFloat64(), attrs)
}

// RecordSaleVoided counts a voided sale and removes its value
func (bm *BusinessMetrics) RecordSaleVoided(ctx context.Context, tenantID uuid.UUID, method string, total decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.salesVoided.Add(ctx, 1, metric.WithAttributes(
		AttrTenantID.String(tenantID.String()), AttrPaymentMethod.String(method)))
}

// RecordDelivery counts a delivered purchase order
func (bm *BusinessMetrics) RecordDelivery(ctx context.Context, tenantID uuid.UUID, lines int, total decimal.Decimal) {
	if bm == nil {
		return
	}
	attrs := metric.WithAttributes(AttrTenantID.String(tenantID.String()))
	bm.deliveries.Add(ctx, 1, attrs)
	bm.deliveryLines.Add(ctx, int64(lines), attrs)
	bm.deliveryAmount.Add(ctx, total.InexactFloat64(), attrs)
}

// RecordSyncConflict counts a conflict on an offline collection
func (bm *BusinessMetrics) RecordSyncConflict(ctx context.Context, tenantID uuid.UUID, collection string) {
	if bm == nil {
		return
	}
	bm.syncConflicts.Add(ctx, 1, metric.WithAttributes(
		AttrTenantID.String(tenantID.String()), AttrCollection.String(collection)))
}

// RecordWebhook counts a webhook delivery by provider and outcome
func (bm *BusinessMetrics) RecordWebhook(ctx context.Context, provider, eventType, outcome string) {
	if bm == nil {
		return
	}
	bm.webhooks.Add(ctx, 1, metric.WithAttributes(
		AttrProvider.String(provider), AttrEventType.String(eventType), AttrOutcome.String(outcome)))
}

// RecordLowStock counts a low stock alert
func (bm *BusinessMetrics) RecordLowStock(ctx context.Context, tenantID uuid.UUID, outOfStock bool) {
	if bm == nil {
		return
	}
	bm.lowStockAlerts.Add(ctx, 1, metric.WithAttributes(
		AttrTenantID.String(tenantID.String()), AttrOutOfStock.Bool(outOfStock)))
}

// HandlerFailed counts an event handler error or panic
func (bm *BusinessMetrics) HandlerFailed(ctx context.Context, eventType string) {
	if bm == nil {
		return
	}
	bm.handlerFailures.Add(ctx, 1, metric.WithAttributes(AttrEventType.String(eventType)))
}
