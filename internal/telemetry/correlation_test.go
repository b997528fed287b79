package telemetry

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

var traceparentRe = regexp.MustCompile(`^00-[0-9a-f]{32}-[0-9a-f]{16}-[0-9a-f]{2}$`)

// A local provider without any exporter: requests must still be
// correlatable.
func installLocalProvider(t *testing.T) {
	t.Helper()
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
}

func TestCorrelation_NoExporterStillStampsHeaders(t *testing.T) {
	installLocalProvider(t)

	h := Correlation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todos", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	tp := rec.Header().Get(TraceparentHeader)
	if !traceparentRe.MatchString(tp) {
		t.Fatalf("invalid traceparent header: %q", tp)
	}
	if strings.Contains(tp, "00000000000000000000000000000000") {
		t.Fatalf("traceparent carries a zero trace id: %q", tp)
	}

	cid := rec.Header().Get(CorrelationIDHeader)
	parts := strings.Split(tp, "-")
	if cid != parts[1]+"-"+parts[2] {
		t.Fatalf("correlation id %q does not match traceparent %q", cid, tp)
	}
}

func TestCorrelation_HandlerWithoutExplicitWrite(t *testing.T) {
	installLocalProvider(t)

	h := Correlation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No WriteHeader, no body: stamping happens after the handler.
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/todos/1", nil))

	if tp := rec.Header().Get(TraceparentHeader); !traceparentRe.MatchString(tp) {
		t.Fatalf("invalid traceparent header: %q", tp)
	}
}

func TestCorrelation_PrefersExistingSpanContext(t *testing.T) {
	installLocalProvider(t)

	tracer := otel.Tracer("test")
	ctx, span := tracer.Start(httptest.NewRequest(http.MethodGet, "/todos", nil).Context(), "server")
	defer span.End()
	want := span.SpanContext()

	h := Correlation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/todos", nil).WithContext(ctx)
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(TraceparentHeader); got != Traceparent(want) {
		t.Fatalf("expected traceparent %q, got %q", Traceparent(want), got)
	}
	if got := rec.Header().Get(CorrelationIDHeader); got != CorrelationID(want) {
		t.Fatalf("expected correlation id %q, got %q", CorrelationID(want), got)
	}
}

func TestCorrelation_RequestScopedSpanVisibleToHandler(t *testing.T) {
	installLocalProvider(t)

	var inner trace.SpanContext
	h := Correlation(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/todos", nil))

	if !inner.IsValid() {
		t.Fatal("expected a valid span context inside the handler")
	}
	if got := rec.Header().Get(TraceparentHeader); got != Traceparent(inner) {
		t.Fatalf("headers and handler context disagree: %q vs %q", got, Traceparent(inner))
	}
}

func TestTraceparentFormat(t *testing.T) {
	t.Parallel()

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0xab, 0xcd, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e},
		SpanID:     trace.SpanID{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88},
		TraceFlags: trace.FlagsSampled,
	})

	want := "00-abcd0102030405060708090a0b0c0d0e-1122334455667788-01"
	if got := Traceparent(sc); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := CorrelationID(sc); got != "abcd0102030405060708090a0b0c0d0e-1122334455667788" {
		t.Fatalf("unexpected correlation id %q", got)
	}
}

func TestCorrelationID_InvalidContext(t *testing.T) {
	t.Parallel()

	if got := CorrelationID(trace.SpanContext{}); got != "" {
		t.Fatalf("expected empty correlation id for invalid context, got %q", got)
	}
}
