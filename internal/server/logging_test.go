package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)
	h := env.cfg.Routes()

	t.Run("generated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rr.Header().Get("X-Request-Id") == "" {
			t.Error("expected a generated X-Request-Id")
		}
	})

	t.Run("client supplied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-Id", "trace-42")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if got := rr.Header().Get("X-Request-Id"); got != "trace-42" {
			t.Errorf("X-Request-Id = %q, want trace-42", got)
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("X-Request-Id", "rid-7")
	req.Header.Set("User-Agent", "curl/8.0")
	rr := httptest.NewRecorder()
	env.cfg.Routes().ServeHTTP(rr, req)

	logs := env.logs.String()
	for _, want := range []string{
		"msg=request",
		"rid=rid-7",
		"method=GET",
		"path=/missing",
		"status=404",
		"ua=curl/8.0",
		"service=fileshare",
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("access log missing %q:\n%s", want, logs)
		}
	}
}

func TestLoggingMiddleware_ServerErrorsAtErrorLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(buf, "json", "info")

	h := loggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry["status"] != float64(500) {
		t.Errorf("status = %v, want 500", entry["status"])
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		level     string
		logDebug  bool
		wantJSON  bool
		wantLines int
	}{
		{"json info drops debug", "json", "info", true, true, 1},
		{"json debug keeps debug", "json", "debug", true, true, 2},
		{"text warn", "text", "warn", false, false, 0},
		{"unknown level is info", "text", "verbose", false, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewLogger(buf, tt.format, tt.level)

			if tt.logDebug {
				logger.Debug("debug line")
			}
			logger.Info("info line")

			out := strings.TrimSpace(buf.String())
			lines := 0
			if out != "" {
				lines = len(strings.Split(out, "\n"))
			}
			if lines != tt.wantLines {
				t.Fatalf("lines = %d, want %d:\n%s", lines, tt.wantLines, out)
			}
			if lines > 0 && tt.wantJSON != json.Valid([]byte(strings.Split(out, "\n")[0])) {
				t.Errorf("json output = %v, want %v", !tt.wantJSON, tt.wantJSON)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	h := env.cfg.Routes()

	body, ct := fileBody(t, "file", "m.txt", "text/plain", []byte("metric"))
	up := httptest.NewRequest(http.MethodPost, "/upload", body)
	up.Header.Set("Content-Type", ct)
	h.ServeHTTP(httptest.NewRecorder(), up)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/files/whatever.txt", nil))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	out, _ := io.ReadAll(rr.Body)
	for _, want := range []string{
		`fileshare_uploads_total{result="success"}`,
		"fileshare_upload_bytes_total",
		`route="/upload"`,
		`route="/files/{name}"`,
		"fileshare_http_request_duration_seconds",
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
