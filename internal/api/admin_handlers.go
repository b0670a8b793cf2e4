package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/poigraph/internal/ingest"
	"github.com/onnwee/poigraph/internal/middleware"
	"github.com/onnwee/poigraph/internal/poi"
)

// MaxSnapshotBodyBytes bounds the POST /internal/snapshots payload.
const MaxSnapshotBodyBytes = 16 << 20

// ingestWriteSlack is added to the cycle timeout when extending the write
// deadline for POST /internal/ingest.
const ingestWriteSlack = 10 * time.Second

// Ingester runs ingestion cycles on demand. Timeout bounds one cycle.
type Ingester interface {
	RunNow(ctx context.Context) (*ingest.Result, error)
	Ingest(ctx context.Context, records []poi.RawRecord) (*ingest.Result, error)
	Timeout() time.Duration
}

// AdminHandlers serves the authenticated snapshot endpoints.
type AdminHandlers struct {
	ingester Ingester
	canFetch bool
	logger   *slog.Logger
}

// NewAdminHandlers creates admin handlers. canFetch reports whether the
// ingester has an upstream source; without one POST /internal/ingest
// answers 503.
func NewAdminHandlers(ingester Ingester, canFetch bool, logger *slog.Logger) *AdminHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandlers{ingester: ingester, canFetch: canFetch, logger: logger}
}

// CreateSnapshotRequest is the body of POST /internal/snapshots.
type CreateSnapshotRequest struct {
	Records []poi.RawRecord `json:"records"`
}

// CreateSnapshot handles POST /internal/snapshots: it derives and publishes
// a snapshot from the posted records.
func (h *AdminHandlers) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxSnapshotBodyBytes)
	var req CreateSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, r.Context(), http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "Request body too large")
			return
		}
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	res, err := h.ingester.Ingest(r.Context(), req.Records)
	if err != nil {
		h.writeIngestError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "snapshot published via admin api",
		"snapshot_id", res.SnapshotID,
		"subject", middleware.GetSubject(r.Context()),
		"entities", res.Entities,
		"edges", res.Edges,
	)
	WriteJSON(w, r.Context(), http.StatusCreated, res)
}

// TriggerIngest handles POST /internal/ingest: it runs one upstream fetch
// cycle immediately and answers once it has finished. The write deadline is
// extended to cover the cycle timeout.
func (h *AdminHandlers) TriggerIngest(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if !h.canFetch {
		WriteError(w, r.Context(), http.StatusServiceUnavailable, ErrCodeUnavailable, "Upstream source is not configured")
		return
	}

	// The cycle may outlive the server's write timeout.
	deadline := time.Now().Add(h.ingester.Timeout() + ingestWriteSlack)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.WarnContext(r.Context(), "failed to extend write deadline", "error", err)
	}

	res, err := h.ingester.RunNow(r.Context())
	if err != nil {
		h.writeIngestError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "ingest cycle triggered via admin api",
		"snapshot_id", res.SnapshotID,
		"subject", middleware.GetSubject(r.Context()),
	)
	WriteJSON(w, r.Context(), http.StatusOK, res)
}

func (h *AdminHandlers) writeIngestError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ingest.ErrNoRecords):
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "No records to build a snapshot from")
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, r.Context(), http.StatusGatewayTimeout, ErrCodeUnavailable, "Ingestion timed out")
	default:
		h.logger.ErrorContext(r.Context(), "admin ingestion failed", "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Ingestion failed")
	}
}
