package telemetry

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("todo-api/internal/telemetry")

const (
	// TraceparentHeader carries the W3C trace context of the response.
	TraceparentHeader = "traceparent"
	// CorrelationIDHeader carries the derived traceid-spanid pair.
	CorrelationIDHeader = "x-correlation-id"
)

// CorrelationID derives the correlation identifier from a span
// context: 32-hex trace id and 16-hex span id joined by a dash.
func CorrelationID(sc trace.SpanContext) string {
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String() + "-" + sc.SpanID().String()
}

// Traceparent renders the span context as a traceparent header value:
// version, 32-hex trace id, 16-hex span id, 2-hex flags.
func Traceparent(sc trace.SpanContext) string {
	return fmt.Sprintf("00-%s-%s-%s", sc.TraceID(), sc.SpanID(), sc.TraceFlags())
}

// Correlation associates every request with a trace and span id so
// logs and responses can always be correlated, exporter or not. When
// no valid span context exists on entry, a request-scoped span is
// started. Response headers are stamped lazily at the first write,
// preferring the freshest valid span context available at that point
// and falling back to the one captured at entry.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sc := trace.SpanContextFromContext(ctx)
		if !sc.IsValid() {
			var span trace.Span
			ctx, span = tracer.Start(ctx, "http.request")
			defer span.End()
			sc = span.SpanContext()
		}

		cw := &correlatedWriter{ResponseWriter: w, entry: sc, request: r.WithContext(ctx)}
		next.ServeHTTP(cw, cw.request)
		// Responses with no body still need the headers.
		cw.stamp()
	})
}

// correlatedWriter stamps correlation headers immediately before the
// first write, the last moment headers can still change.
type correlatedWriter struct {
	http.ResponseWriter
	entry   trace.SpanContext
	request *http.Request
	stamped bool
}

func (w *correlatedWriter) stamp() {
	if w.stamped {
		return
	}
	w.stamped = true

	sc := trace.SpanContextFromContext(w.request.Context())
	if !sc.IsValid() {
		sc = w.entry
	}
	if !sc.IsValid() {
		return
	}

	h := w.Header()
	h.Set(TraceparentHeader, Traceparent(sc))
	h.Set(CorrelationIDHeader, CorrelationID(sc))
}

func (w *correlatedWriter) WriteHeader(status int) {
	w.stamp()
	w.ResponseWriter.WriteHeader(status)
}

func (w *correlatedWriter) Write(b []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(b)
}
