package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Metrics holds the custom metrics instruments for the application.
type Metrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	TodosGauge      metric.Int64ObservableGauge
	todoCountFunc   func(ctx context.Context) (int64, error)
}

// InitMeterProvider initializes the OpenTelemetry meter provider and
// sets it globally. An empty otlpEndpoint yields a reader-less local
// provider, mirroring the tracer fallback.
func InitMeterProvider(ctx context.Context, serviceName, otlpEndpoint, environment string) (*sdkmetric.MeterProvider, error) {
	res, err := newResource(serviceName, environment)
	if err != nil {
		return nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	var exporterErr error
	if otlpEndpoint != "" {
		conn, err := grpc.NewClient(otlpEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			exporterErr = fmt.Errorf("failed to create gRPC connection: %w", err)
		} else {
			exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
			if err != nil {
				exporterErr = fmt.Errorf("failed to create metric exporter: %w", err)
			} else {
				opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
					sdkmetric.WithInterval(10*time.Second),
				)))
			}
		}
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return mp, exporterErr
}

// NewMetrics creates and registers custom metrics instruments. The
// todoCountFunc feeds the observable gauge; it runs on the reader's
// collection cycle.
func NewMetrics(meter metric.Meter, todoCountFunc func(ctx context.Context) (int64, error)) (*Metrics, error) {
	m := &Metrics{
		todoCountFunc: todoCountFunc,
	}

	var err error

	// Counter for total HTTP requests
	m.RequestCounter, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	// Histogram for request duration
	m.RequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	// Observable gauge for current todo count
	m.TodosGauge, err = meter.Int64ObservableGauge(
		"todos_total",
		metric.WithDescription("Current number of todos in the store"),
		metric.WithUnit("{todo}"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			n, err := m.todoCountFunc(ctx)
			if err != nil {
				return err
			}
			o.Observe(n)
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create todos gauge: %w", err)
	}

	return m, nil
}
