package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// InitTracerProvider initializes the OpenTelemetry tracer provider and
// installs it globally along with W3C trace-context propagation.
//
// With an empty otlpEndpoint, or when the exporter cannot be built, it
// falls back to a local provider without an exporter so spans (and the
// trace/span ids derived from them) keep working. In the fallback-on-
// error case both the provider and the error are returned; the caller
// is expected to log a warning and carry on.
func InitTracerProvider(ctx context.Context, serviceName, otlpEndpoint, environment string) (*sdktrace.TracerProvider, error) {
	res, err := newResource(serviceName, environment)
	if err != nil {
		return nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	var exporterErr error
	if otlpEndpoint != "" {
		conn, err := grpc.NewClient(otlpEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			exporterErr = fmt.Errorf("failed to create gRPC connection: %w", err)
		} else {
			exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
			if err != nil {
				exporterErr = fmt.Errorf("failed to create trace exporter: %w", err)
			} else {
				opts = append(opts, sdktrace.WithBatcher(exporter))
			}
		}
	}

	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, exporterErr
}
