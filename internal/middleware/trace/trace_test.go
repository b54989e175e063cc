package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "burnrate/internal/log"
)

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if !strings.HasPrefix(a, "req_") || len(a) != len("req_")+16 {
		t.Errorf("unexpected id %q", a)
	}
	if a == b {
		t.Error("ids should differ")
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Output: &buf, Component: applog.ComponentHTTP})
	m := NewMiddleware()

	var seenID string
	h := applog.Middleware(logger)(m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/statements/x", nil))

	if seenID == "" || rec.Header().Get(HeaderRequestID) != seenID {
		t.Errorf("request id %q not propagated, header %q", seenID, rec.Header().Get(HeaderRequestID))
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status_code=404") {
		t.Errorf("expected warn completion log, got %s", out)
	}
	if !strings.Contains(out, "request_id="+seenID) {
		t.Errorf("log should carry request id: %s", out)
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Errorf("TotalRequests = %d", got)
	}
}

func TestMiddleware_KeepsIncomingID(t *testing.T) {
	m := NewMiddleware()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}
}
