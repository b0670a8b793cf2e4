package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/poigraph/internal/auth"
)

func TestRequireAdmin(t *testing.T) {
	svc := auth.NewJWTService("middleware-test-secret", "")
	valid, err := svc.GenerateAdminToken("ops", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var subject string
			h := RequireAdmin(svc, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				subject = GetSubject(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/internal/ingest", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && subject != "ops" {
				t.Errorf("subject = %q, want ops", subject)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if !strings.Contains(rr.Body.String(), `"auth_failed"`) {
					t.Errorf("unexpected body %s", rr.Body.String())
				}
				if rr.Header().Get("WWW-Authenticate") == "" {
					t.Error("expected WWW-Authenticate header")
				}
			}
		})
	}
}
