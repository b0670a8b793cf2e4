package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/poigraph/internal/geo"
	"github.com/onnwee/poigraph/internal/graph"
	"github.com/onnwee/poigraph/internal/poi"
	"github.com/onnwee/poigraph/internal/ranking"
	"github.com/onnwee/poigraph/internal/validate"
)

// ErrEntityNotFound is returned when an entity id is absent from the
// current snapshot.
var ErrEntityNotFound = errors.New("entity not found")

// maxComponentSize caps the min_size query parameter.
const maxComponentSize = 100000

// GraphHandlers serves read views over the latest snapshot.
type GraphHandlers struct {
	repo    graph.Repository
	palette map[poi.Class]string
	logger  *slog.Logger
}

// NewGraphHandlers creates graph handlers. palette maps each class to its
// display color; classes missing from it are rendered without a color.
func NewGraphHandlers(repo graph.Repository, palette map[poi.Class]string, logger *slog.Logger) *GraphHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphHandlers{repo: repo, palette: palette, logger: logger}
}

// Node is an entity decorated for presentation.
type Node struct {
	poi.Entity
	Color   string `json:"color,omitempty"`
	Geohash string `json:"geohash"`
}

// GraphResponse is the body of GET /graph.
type GraphResponse struct {
	SnapshotID string       `json:"snapshot_id"`
	CreatedAt  string       `json:"created_at"`
	Nodes      []Node       `json:"nodes"`
	Edges      []graph.Edge `json:"edges"`
	Stats      graph.Stats  `json:"stats"`
}

// EntityResponse is the body of GET /entities/{id}.
type EntityResponse struct {
	SnapshotID string         `json:"snapshot_id"`
	Node       Node           `json:"node"`
	Counts     ranking.Counts `json:"counts"`
	Edges      []graph.Edge   `json:"edges"`
}

// ComponentsResponse is the body of GET /graph/components.
type ComponentsResponse struct {
	SnapshotID string            `json:"snapshot_id"`
	MinSize    int               `json:"min_size"`
	Components []graph.Component `json:"components"`
}

func (h *GraphHandlers) node(e poi.Entity) Node {
	return Node{
		Entity:  e,
		Color:   h.palette[e.Class],
		Geohash: geo.Geohash(e.Point(), geo.DefaultPrecision),
	}
}

// latest loads the current snapshot, writing the error response itself when
// none is available.
func (h *GraphHandlers) latest(w http.ResponseWriter, r *http.Request) (*graph.Snapshot, bool) {
	snap, err := h.repo.Latest(r.Context())
	if err == nil {
		return snap, true
	}
	if errors.Is(err, graph.ErrSnapshotNotFound) {
		WriteError(w, r.Context(), http.StatusServiceUnavailable, ErrCodeNoSnapshot, "No graph snapshot has been published yet")
		return nil, false
	}
	h.logger.ErrorContext(r.Context(), "failed to load snapshot", "error", err)
	WriteError(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal, "Failed to load graph snapshot")
	return nil, false
}

// Graph handles GET /graph.
func (h *GraphHandlers) Graph(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	snap, ok := h.latest(w, r)
	if !ok {
		return
	}

	nodes := make([]Node, 0, len(snap.Entities))
	for _, e := range snap.Entities {
		nodes = append(nodes, h.node(e))
	}
	edges := snap.Edges
	if edges == nil {
		edges = []graph.Edge{}
	}

	WriteJSON(w, r.Context(), http.StatusOK, GraphResponse{
		SnapshotID: snap.ID,
		CreatedAt:  snap.CreatedAt.Format(time.RFC3339),
		Nodes:      nodes,
		Edges:      edges,
		Stats:      snap.Stats(),
	})
}

// Entity handles GET /entities/{id}.
func (h *GraphHandlers) Entity(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/entities/")
	if err := validate.EntityID(id); err != nil {
		WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "Entity id must look like node-123, way-123 or relation-123")
		return
	}

	snap, ok := h.latest(w, r)
	if !ok {
		return
	}

	entity, found := snap.Entity(id)
	if !found {
		h.logger.DebugContext(r.Context(), "entity lookup missed", "entity_id", id, "snapshot_id", snap.ID, "error", ErrEntityNotFound)
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "Entity not found")
		return
	}

	edges := snap.IncidentEdges(id)
	if edges == nil {
		edges = []graph.Edge{}
	}
	WriteJSON(w, r.Context(), http.StatusOK, EntityResponse{
		SnapshotID: snap.ID,
		Node:       h.node(entity),
		Counts:     ranking.CountAccess(edges)[id],
		Edges:      edges,
	})
}

// Components handles GET /graph/components?min_size=N. min_size defaults to 2
// so isolated entities are left out.
func (h *GraphHandlers) Components(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	minSize := 2
	if raw := r.URL.Query().Get("min_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxComponentSize {
			WriteError(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "min_size must be a positive integer")
			return
		}
		minSize = n
	}

	snap, ok := h.latest(w, r)
	if !ok {
		return
	}

	components := graph.Components(snap, minSize)
	if components == nil {
		components = []graph.Component{}
	}
	WriteJSON(w, r.Context(), http.StatusOK, ComponentsResponse{
		SnapshotID: snap.ID,
		MinSize:    minSize,
		Components: components,
	})
}
