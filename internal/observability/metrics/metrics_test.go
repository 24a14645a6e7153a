package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("status", "completed"),
		attribute.String("carrier_id", "456"),
		attribute.String("file_kind", "excel"),
	)
	assert.Len(t, attrs, 2)
	for _, attr := range attrs {
		assert.NotEqual(t, attribute.Key("carrier_id"), attr.Key)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordUpload(context.Background(), "csv", "completed")
	m.RecordPayout(context.Background(), "created")

	noop := NewNoop()
	noop.RecordRowsExtracted(context.Background(), "excel", 3)
	noop.RecordConflict(context.Background(), "mismatch")
}
