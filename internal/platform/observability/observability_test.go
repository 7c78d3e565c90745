package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mailcomposer/api/internal/platform/requestctx"
)

func TestParseCloudTraceContext(t *testing.T) {
	sc, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/1;o=1")
	if !ok {
		t.Fatal("expected header to parse")
	}
	if sc.TraceID().String() != "105445aa7843bc8bf206b12000100000" {
		t.Fatalf("unexpected trace id %s", sc.TraceID())
	}
	if sc.SpanID().String() != "0000000000000001" {
		t.Fatalf("unexpected span id %s", sc.SpanID())
	}
	if !sc.IsSampled() || !sc.IsRemote() {
		t.Fatalf("expected sampled remote context")
	}

	for _, header := range []string{"", "abc/1", "105445aa7843bc8bf206b12000100000", "105445aa7843bc8bf206b12000100000/0", "zz5445aa7843bc8bf206b12000100000/1"} {
		if _, ok := parseCloudTraceContext(header); ok {
			t.Fatalf("expected %q to be rejected", header)
		}
	}
}

func TestTraceMiddlewarePropagatesCloudTrace(t *testing.T) {
	var info requestctx.TraceInfo
	handler := TraceMiddleware("composer-prod")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		info, _ = requestctx.Trace(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/getEmailLayout", nil)
	req.Header.Set(cloudTraceHeader, "105445aa7843bc8bf206b12000100000/12;o=1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if info.TraceID != "105445aa7843bc8bf206b12000100000" || info.ProjectID != "composer-prod" {
		t.Fatalf("unexpected trace info %+v", info)
	}
	if got := rr.Header().Get(cloudTraceHeader); got != "105445aa7843bc8bf206b12000100000/12;o=1" {
		t.Fatalf("unexpected echoed header %q", got)
	}
}

func TestTraceMiddlewarePrefersTraceparent(t *testing.T) {
	var sc trace.SpanContext
	handler := TraceMiddleware("")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		sc = trace.SpanContextFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	req.Header.Set(cloudTraceHeader, "105445aa7843bc8bf206b12000100000/1;o=1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("expected traceparent to win, got %s", sc.TraceID())
	}
}

func TestRequestLoggerRecordsStatusAndClientKey(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var clientKey string
	handler := InjectLoggerMiddleware(zap.New(core))(RequestLoggerMiddleware("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey = requestctx.ClientKey(r.Context())
		w.WriteHeader(http.StatusBadRequest)
	})))

	req := httptest.NewRequest(http.MethodPost, "/uploadImage", nil)
	req.RemoteAddr = "203.0.113.7:5123"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if clientKey != "203.0.113.7" {
		t.Fatalf("unexpected client key %q", clientKey)
	}
	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one completion log, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level for 400, got %s", entries[0].Level)
	}
	if status := entries[0].ContextMap()["status"]; status != int64(http.StatusBadRequest) {
		t.Fatalf("unexpected status field %v", status)
	}
}

func TestRecoveryMiddlewareWritesEnvelope(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Fatal("expected panic to be logged")
	}
}

func TestEventLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	hook := EventLogger(zap.New(core), "template event")

	hook(context.Background(), "template.saved", map[string]any{"templateId": "01J"})
	hook(context.Background(), "template.saved.publish_failed", map[string]any{"error": "topic missing\x00"})

	all := logs.All()
	if len(all) != 2 {
		t.Fatalf("expected two entries, got %d", len(all))
	}
	if all[0].Level != zapcore.InfoLevel || all[1].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected levels %s %s", all[0].Level, all[1].Level)
	}
	if all[1].ContextMap()["error"] != "topic missing" {
		t.Fatalf("expected control characters stripped, got %q", all[1].ContextMap()["error"])
	}
}
