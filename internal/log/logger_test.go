package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentClosing, Output: &buf})

	logger.Info("closing computed", FieldYear, 2025)
	out := buf.String()
	if !strings.Contains(out, "component=closing") || !strings.Contains(out, "year=2025") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	logger.WithComponent(ComponentWorker).Debug("tick")
	if !strings.Contains(buf.String(), "component=worker") {
		t.Fatalf("expected worker component, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogFieldsOrdered(t *testing.T) {
	got := NewFields().WithPeriod(2025, time.March).WithOperation(OpSummary).ToSlice()
	want := []any{FieldMonth, 3, FieldOperation, OpSummary, FieldYear, 2025}
	if len(got) != len(want) {
		t.Fatalf("unexpected fields %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRequestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentHTTP, Output: &buf})

	var fromCtx *Logger
	h := RequestMiddleware(logger, func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fromCtx = FromContext(r.Context())
			w.WriteHeader(http.StatusTeapot)
		}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

	if rr.Header().Get("X-Request-ID") != "req_1" {
		t.Fatalf("missing request id header")
	}
	if fromCtx == nil || fromCtx.Component() != ComponentHTTP {
		t.Fatalf("request logger not in context")
	}
	out := buf.String()
	if !strings.Contains(out, "status_code=418") || !strings.Contains(out, "request_id=req_1") || !strings.Contains(out, "level=WARN") {
		t.Fatalf("unexpected access log: %s", out)
	}

	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
}
