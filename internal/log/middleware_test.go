package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newCapturingLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return New(Config{Component: component, Handler: handler}), &buf
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	logger := FromContext(context.Background())
	if logger == nil {
		t.Fatal("expected a logger outside the middleware")
	}
	if logger.Component() != ComponentApp {
		t.Errorf("component = %q, want %q", logger.Component(), ComponentApp)
	}
}

func TestMiddlewareInjectsLogger(t *testing.T) {
	logger, buf := newCapturingLogger(ComponentHTTP)

	var seen *Logger
	handler := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		seen.Info("handled")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if seen != logger {
		t.Error("handler should receive the injected logger")
	}
	if out := buf.String(); !strings.Contains(out, "component="+ComponentHTTP) {
		t.Errorf("log output missing component: %s", out)
	}
}

func TestRequestIDMiddlewareStampsLogger(t *testing.T) {
	logger, buf := newCapturingLogger(ComponentHTTP)

	inner := RequestIDMiddleware(func(*http.Request) string { return "req_42" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("handled")
		}))
	handler := Middleware(logger)(inner)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if out := buf.String(); !strings.Contains(out, "request_id=req_42") {
		t.Errorf("log output missing request id: %s", out)
	}
}

func TestStructuredLoggerEntryRecorded(t *testing.T) {
	logger, buf := newCapturingLogger(ComponentEntry)
	sl := NewStructuredLogger(logger)

	sl.LogEntryRecorded(context.Background(), "user1", "Supermarket", "Food", "7", 1250)

	out := buf.String()
	for _, want := range []string{
		"Entry recorded",
		FieldChannel + "=user1",
		FieldStore + "=Supermarket",
		FieldCategory + "=Food",
		FieldRowID + "=7",
		FieldAmountCents + "=1250",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestStructuredLoggerError(t *testing.T) {
	logger, buf := newCapturingLogger(ComponentEntry)
	sl := NewStructuredLogger(logger)

	sl.LogError(context.Background(), "Failed to append expense",
		context.DeadlineExceeded, ComponentEntry, OpAppend, NewFields())

	out := buf.String()
	if !strings.Contains(out, "Failed to append expense") || !strings.Contains(out, FieldOperation+"="+OpAppend) {
		t.Errorf("unexpected log output: %s", out)
	}
}
