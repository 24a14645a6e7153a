package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes ingestion and reconciliation instruments.
type Metrics struct {
	uploads          metric.Int64Counter
	rowsExtracted    metric.Int64Counter
	recordsPersisted metric.Int64Counter
	conflicts        metric.Int64Counter
	resolutions      metric.Int64Counter
	payouts          metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "revbox"
	}
	meter := provider.Meter(name)

	uploads, err := meter.Int64Counter("revbox_uploads_total")
	if err != nil {
		return nil, err
	}
	rowsExtracted, err := meter.Int64Counter("revbox_rows_extracted_total")
	if err != nil {
		return nil, err
	}
	recordsPersisted, err := meter.Int64Counter("revbox_records_persisted_total")
	if err != nil {
		return nil, err
	}
	conflicts, err := meter.Int64Counter("revbox_conflicts_detected_total")
	if err != nil {
		return nil, err
	}
	resolutions, err := meter.Int64Counter("revbox_conflict_resolutions_total")
	if err != nil {
		return nil, err
	}
	payouts, err := meter.Int64Counter("revbox_payouts_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		uploads:          uploads,
		rowsExtracted:    rowsExtracted,
		recordsPersisted: recordsPersisted,
		conflicts:        conflicts,
		resolutions:      resolutions,
		payouts:          payouts,
	}, nil
}

// NewNoop returns instruments backed by the noop provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

// RecordUpload counts a finished ingestion run by outcome.
func (m *Metrics) RecordUpload(ctx context.Context, fileKind, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("file_kind", strings.TrimSpace(fileKind)),
		attribute.String("status", strings.TrimSpace(status)),
	)
	m.uploads.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRowsExtracted counts raw rows produced by an extractor.
func (m *Metrics) RecordRowsExtracted(ctx context.Context, fileKind string, rows int) {
	if m == nil || rows <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("file_kind", strings.TrimSpace(fileKind)))
	m.rowsExtracted.Add(ctx, int64(rows), metric.WithAttributes(attrs...))
}

// RecordRecordPersisted counts stored records by initial status.
func (m *Metrics) RecordRecordPersisted(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.recordsPersisted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordConflict counts detector findings by type.
func (m *Metrics) RecordConflict(ctx context.Context, conflictType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("conflict_type", strings.TrimSpace(conflictType)))
	m.conflicts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordResolution counts applied conflict resolutions.
func (m *Metrics) RecordResolution(ctx context.Context, resolution string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("resolution", strings.TrimSpace(resolution)))
	m.resolutions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPayout counts payout generation outcomes (created or skipped).
func (m *Metrics) RecordPayout(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.payouts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"file_kind":     {},
	"status":        {},
	"conflict_type": {},
	"resolution":    {},
	"outcome":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
