package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentHTTP, Output: &buf})
	l.Info("hello", FieldPath, "/transactions")
	out := buf.String()
	if !strings.Contains(out, "component=http") || !strings.Contains(out, "path=/transactions") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	cl := l.WithComponent(ComponentCache)
	if cl.Component() != ComponentCache {
		t.Fatalf("component = %q", cl.Component())
	}
	cl.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug must be filtered at info level, got %q", buf.String())
	}
}

func TestMiddlewareCarriesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &buf})

	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("expected request id in %q", buf.String())
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected fallback logger")
	}
}

func TestLogQueryFailureClassifiesTimeouts(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	sl.LogQueryFailure(context.Background(), OpStatistics, context.DeadlineExceeded, NewFields().WithSelection("March", ""))
	out := buf.String()
	if !strings.Contains(out, "error_type=timeout_error") || !strings.Contains(out, "month=March") {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()
	sl.LogQueryFailure(context.Background(), OpList, errors.New("disk I/O error"), nil)
	if !strings.Contains(buf.String(), "error_type=database_error") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
