package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	return entry
}

func TestLogging_Fields(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		errorCode string
		level     string
	}{
		{"ok", http.StatusOK, "", "INFO"},
		{"client error with code", http.StatusNotFound, "not_found", "WARN"},
		{"server error", http.StatusInternalServerError, "internal_error", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := captureLogger()
			h := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.errorCode != "" {
					UpdateResponseContext(w, SetErrorCode(r.Context(), tt.errorCode))
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			})))

			req := httptest.NewRequest(http.MethodGet, "/entities/node-1", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			h.ServeHTTP(httptest.NewRecorder(), req)

			entry := decodeLogLine(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["method"] != "GET" || entry["path"] != "/entities/node-1" {
				t.Errorf("unexpected method/path %v %v", entry["method"], entry["path"])
			}
			if entry["status"] != float64(tt.status) {
				t.Errorf("status = %v, want %d", entry["status"], tt.status)
			}
			if entry["size"] != float64(4) {
				t.Errorf("size = %v, want 4", entry["size"])
			}
			if entry["request_id"] != "req-1" {
				t.Errorf("request_id = %v", entry["request_id"])
			}
			if tt.errorCode == "" {
				if _, ok := entry["error_code"]; ok {
					t.Error("unexpected error_code")
				}
			} else if entry["error_code"] != tt.errorCode {
				t.Errorf("error_code = %v, want %s", entry["error_code"], tt.errorCode)
			}
		})
	}
}

func TestLogging_SubjectThroughNestedWriters(t *testing.T) {
	logger, buf := captureLogger()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		UpdateResponseContext(w, SetSubject(r.Context(), "ops"))
		w.WriteHeader(http.StatusAccepted)
	})
	h := Logging(logger)(HTTPMetrics(NewMetrics())(inner))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/internal/ingest", nil))

	entry := decodeLogLine(t, buf)
	if entry["subject"] != "ops" {
		t.Errorf("subject = %v, want ops", entry["subject"])
	}
	if entry["status"] != float64(http.StatusAccepted) {
		t.Errorf("status = %v", entry["status"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		env, level string
		want       slog.Level
	}{
		{"production", "", slog.LevelInfo},
		{"development", "", slog.LevelDebug},
		{"production", "debug", slog.LevelDebug},
		{"development", "WARN", slog.LevelWarn},
		{"development", "error", slog.LevelError},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.env, tt.level); got != tt.want {
			t.Errorf("parseLevel(%q, %q) = %v, want %v", tt.env, tt.level, got, tt.want)
		}
	}
}
