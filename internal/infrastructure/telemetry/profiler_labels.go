package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

const maxLabelValueLength = 128

// Profiling label keys
const (
	LabelRoute     = "route"
	LabelMethod    = "method"
	LabelTenantID  = "tenant_id"
	LabelOperation = "operation"
)

// highCardinality keys are dropped; they would explode profile storage
var highCardinality = map[string]bool{
	"user_id":    true,
	"request_id": true,
	"trace_id":   true,
	"order_id":   true,
}

// WithProfilingLabels runs fn with Pyroscope labels attached to its samples
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// RequestLabels is the label set used by the HTTP profiling middleware
func RequestLabels(route, method, tenantID string) map[string]string {
	return map[string]string{
		LabelRoute:    route,
		LabelMethod:   method,
		LabelTenantID: tenantID,
	}
}

// labelPairs sorts keys, drops empty and high cardinality entries and
// truncates long values
func labelPairs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, k := range keys {
		v := labels[k]
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "-", "_")
		if key == "" || v == "" || highCardinality[key] {
			continue
		}
		if len(v) > maxLabelValueLength {
			v = v[:maxLabelValueLength]
		}
		pairs = append(pairs, key, v)
	}
	return pairs
}
