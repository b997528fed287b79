package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// InitLoggerProvider initializes the OpenTelemetry logger provider and
// returns a slog.Logger. With an OTLP endpoint configured the logger
// bridges to OpenTelemetry for log-trace correlation; without one it
// writes structured JSON to stdout, with trace/span/correlation ids
// pulled from the request context by correlationHandler.
func InitLoggerProvider(ctx context.Context, serviceName, otlpEndpoint, environment, logLevel string) (*sdklog.LoggerProvider, *slog.Logger, error) {
	res, err := newResource(serviceName, environment)
	if err != nil {
		return nil, nil, err
	}

	opts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}

	var exporterErr error
	if otlpEndpoint != "" {
		conn, err := grpc.NewClient(otlpEndpoint,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			exporterErr = fmt.Errorf("failed to create gRPC connection: %w", err)
		} else {
			exporter, err := otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(conn))
			if err != nil {
				exporterErr = fmt.Errorf("failed to create log exporter: %w", err)
			} else {
				opts = append(opts, sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)))
			}
		}
	}

	lp := sdklog.NewLoggerProvider(opts...)
	global.SetLoggerProvider(lp)

	var logger *slog.Logger
	if otlpEndpoint != "" && exporterErr == nil {
		logger = otelslog.NewLogger(serviceName)
	} else {
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(logLevel)})
		logger = slog.New(&correlationHandler{inner: handler})
	}

	return lp, logger, exporterErr
}

func parseLevel(s string) slog.Level {
	switch s {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// correlationHandler stamps trace_id, span_id and correlation_id onto
// every record whose context carries a valid span.
type correlationHandler struct {
	inner slog.Handler
}

func (h *correlationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *correlationHandler) Handle(ctx context.Context, record slog.Record) error {
	sc := trace.SpanContextFromContext(ctx)
	if sc.IsValid() {
		record.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
			slog.String("correlation_id", CorrelationID(sc)),
		)
	}
	return h.inner.Handle(ctx, record)
}

func (h *correlationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &correlationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *correlationHandler) WithGroup(name string) slog.Handler {
	return &correlationHandler{inner: h.inner.WithGroup(name)}
}
