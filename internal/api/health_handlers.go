package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/onnwee/poigraph/internal/graph"
	"github.com/onnwee/poigraph/internal/health"
)

// readyTimeout bounds all readiness checks together.
const readyTimeout = 5 * time.Second

// HealthHandlers serves the liveness and readiness probes.
type HealthHandlers struct {
	repo     graph.Repository
	checkers map[string]health.Checker
	logger   *slog.Logger
}

// NewHealthHandlers creates probe handlers. checkers are keyed by the name
// reported in the readiness response (e.g. "database", "redis").
func NewHealthHandlers(repo graph.Repository, checkers map[string]health.Checker, logger *slog.Logger) *HealthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandlers{repo: repo, checkers: checkers, logger: logger}
}

// HealthResponse is the body of both probes.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Health handles GET /health. The process is alive if it can answer.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, HealthResponse{
		Status:    "healthy",
		Checks:    map[string]string{"runtime": "ok"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. It returns 503 until a snapshot has been
// published and while any configured dependency check fails.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.checkers)+1)
	healthy := true

	if _, err := h.repo.Latest(ctx); err != nil {
		healthy = false
		checks["snapshot"] = "missing"
		if !errors.Is(err, graph.ErrSnapshotNotFound) {
			checks["snapshot"] = "error"
			h.logger.WarnContext(ctx, "snapshot readiness check failed", "error", err)
		}
	} else {
		checks["snapshot"] = "ok"
	}

	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.checkers[name].HealthCheck(ctx); err != nil {
			healthy = false
			checks[name] = "error"
			h.logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
			continue
		}
		checks[name] = "ok"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	WriteJSON(w, ctx, code, HealthResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
