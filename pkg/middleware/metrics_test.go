package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	apperrors "github.com/vango-dev/userpages/internal/errors"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetrics(WithRegistry(prometheus.NewRegistry()))
}

func TestMetricsHTTPUsesRoutePattern(t *testing.T) {
	m := newTestMetrics(t)

	r := chi.NewRouter()
	r.Use(m.HTTP)
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})

	for _, path := range []string{"/users/1", "/users/2", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("/users/{id}", "GET", "418")); got != 2 {
		t.Errorf("requests_total(/users/{id})=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("/ok", "GET", "200")); got != 1 {
		t.Errorf("requests_total(/ok)=%v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.requestDuration); got != 2 {
		t.Errorf("request_duration series=%d, want 2", got)
	}
}

func TestMetricsRecordCall(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordCall(OpFetchUsers, 10*time.Millisecond, nil)
	m.RecordCall(OpFetchUsers, 10*time.Millisecond, apperrors.New(apperrors.CodeFetchUsers))
	m.RecordCall(OpFetchUsers, 10*time.Millisecond, apperrors.New(apperrors.CodeFetchUsers).Wrap(context.DeadlineExceeded))

	if got := testutil.ToFloat64(m.callsTotal.WithLabelValues(OpFetchUsers, "success")); got != 1 {
		t.Errorf("calls_total(success)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.callsTotal.WithLabelValues(OpFetchUsers, "error")); got != 2 {
		t.Errorf("calls_total(error)=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.callErrors.WithLabelValues(OpFetchUsers, "fetch")); got != 1 {
		t.Errorf("errors_total(fetch)=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.callErrors.WithLabelValues(OpFetchUsers, "timeout")); got != 1 {
		t.Errorf("errors_total(timeout)=%v, want 1", got)
	}
}

func TestMetricsGauges(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordSessionCreate()
	m.RecordSessionCreate()
	m.RecordSessionDestroy()
	m.RecordWebSocketOpen()
	m.RecordWebSocketError("upgrade")
	m.RecordTransition("profile", "ready")

	if got := testutil.ToFloat64(m.activeSessions); got != 1 {
		t.Errorf("active_sessions=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.websocketClients); got != 1 {
		t.Errorf("websocket_clients=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.wsErrors.WithLabelValues("upgrade")); got != 1 {
		t.Errorf("websocket_errors_total=%v, want 1", got)
	}
	if got := testutil.ToFloat64(m.transitions.WithLabelValues("profile", "ready")); got != 1 {
		t.Errorf("state_transitions_total=%v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordCall(OpFetchProfile, time.Millisecond, errors.New("x"))
	m.RecordSessionCreate()
	m.RecordWebSocketClose()
	m.RecordTransition("users", "error")

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()
	m.HTTP(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status=%d, want 200", rec.Code)
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.Canceled, "canceled"},
		{context.DeadlineExceeded, "timeout"},
		{apperrors.New(apperrors.CodeUpdateProfile), "update"},
		{apperrors.New(apperrors.CodeInvalidPage), "validation"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%v)=%q, want %q", tt.err, got, tt.want)
		}
	}
}
