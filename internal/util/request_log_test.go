package util

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithRequestLogWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := WithRequestID(WithRequestLog("portfolio", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/projects/x", nil)
	req.Header.Set("X-Request-Id", "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["msg"] != "http_request" || entry["level"] != "WARN" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["request_id"] != "rid-1" || entry["status"] != float64(404) || entry["bytes"] != float64(4) {
		t.Fatalf("unexpected fields: %v", entry)
	}
}
