package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/onnwee/poigraph/internal/graph"
	"github.com/onnwee/poigraph/internal/ranking"
)

// RankingHandlers serves ranking queries over the latest snapshot.
type RankingHandlers struct {
	service *RankingService
	logger  *slog.Logger
}

// NewRankingHandlers creates ranking handlers.
func NewRankingHandlers(service *RankingService, logger *slog.Logger) *RankingHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &RankingHandlers{service: service, logger: logger}
}

// RankingsResponse is the body of GET /rankings.
type RankingsResponse struct {
	SnapshotID string           `json:"snapshot_id"`
	Mode       ranking.Mode     `json:"mode"`
	Results    []ranking.Result `json:"results"`
}

// ModeInfo describes one scoring mode.
type ModeInfo struct {
	Mode        ranking.Mode `json:"mode"`
	Transit     float64      `json:"transit_weight"`
	Culture     float64      `json:"culture_weight"`
	RequireBoth bool         `json:"require_both"`
}

// ModesResponse is the body of GET /modes.
type ModesResponse struct {
	Modes []ModeInfo `json:"modes"`
	Limit int        `json:"limit"`
}

// Rankings handles GET /rankings?mode=transit.
func (h *RankingHandlers) Rankings(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	raw := r.URL.Query().Get("mode")
	if raw == "" {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "mode query parameter is required")
		return
	}
	mode, err := ranking.ParseMode(raw)
	if err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeUnknownMode, "Unknown ranking mode; see /modes")
		return
	}

	snapshotID, results, err := h.service.Rankings(r.Context(), mode)
	switch {
	case err == nil:
	case errors.Is(err, graph.ErrSnapshotNotFound):
		WriteError(w, r.Context(), http.StatusServiceUnavailable, ErrCodeNoSnapshot, "No graph snapshot has been published yet")
		return
	case errors.Is(err, ranking.ErrUnknownMode):
		// Calibration removed the mode's weights.
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeUnknownMode, "Ranking mode is not configured")
		return
	default:
		h.logger.ErrorContext(r.Context(), "failed to rank snapshot", "mode", mode, "error", err)
		WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to compute rankings")
		return
	}

	if results == nil {
		results = []ranking.Result{}
	}
	WriteJSON(w, r.Context(), http.StatusOK, RankingsResponse{
		SnapshotID: snapshotID,
		Mode:       mode,
		Results:    results,
	})
}

// Modes handles GET /modes.
func (h *RankingHandlers) Modes(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	weights := h.service.Weights()
	limit := weights.Limit
	if limit <= 0 {
		limit = ranking.DefaultLimit
	}
	resp := ModesResponse{Limit: limit}
	for _, m := range ranking.Modes() {
		mw, ok := weights.Modes[m]
		if !ok {
			continue
		}
		resp.Modes = append(resp.Modes, ModeInfo{
			Mode:        m,
			Transit:     mw.Transit,
			Culture:     mw.Culture,
			RequireBoth: mw.RequireBoth,
		})
	}
	WriteJSON(w, r.Context(), http.StatusOK, resp)
}
