package api

import (
	"net/http"

	"github.com/onnwee/poigraph/internal/ranking"
)

// Routes collects the handlers mounted on the service mux. Optional
// handlers left nil are not mounted.
type Routes struct {
	Health   *HealthHandlers
	Graph    *GraphHandlers
	Rankings *RankingHandlers

	Admin     *AdminHandlers                  // Optional; requires AdminAuth
	AdminAuth func(http.Handler) http.Handler // Wraps every /internal/ route
	Stream    http.Handler                    // Optional websocket feed
	Metrics   http.Handler                    // Optional Prometheus exposition

	Version string
}

// IndexResponse is the body of GET /.
type IndexResponse struct {
	Service string         `json:"service"`
	Version string         `json:"version"`
	Modes   []ranking.Mode `json:"modes"`
}

// Mux builds the service router.
func (rt Routes) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", rt.Health.Health)
	mux.HandleFunc("/ready", rt.Health.Ready)

	mux.HandleFunc("/graph", rt.Graph.Graph)
	mux.HandleFunc("/graph/components", rt.Graph.Components)
	mux.HandleFunc("/entities/", rt.Graph.Entity)

	mux.HandleFunc("/rankings", rt.Rankings.Rankings)
	mux.HandleFunc("/modes", rt.Rankings.Modes)

	if rt.Metrics != nil {
		mux.Handle("/metrics", rt.Metrics)
	}
	if rt.Stream != nil {
		mux.Handle("/stream", rt.Stream)
	}
	if rt.Admin != nil && rt.AdminAuth != nil {
		mux.Handle("/internal/snapshots", rt.AdminAuth(http.HandlerFunc(rt.Admin.CreateSnapshot)))
		mux.Handle("/internal/ingest", rt.AdminAuth(http.HandlerFunc(rt.Admin.TriggerIngest)))
	}

	mux.HandleFunc("/", rt.index)
	return mux
}

func (rt Routes) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
		return
	}
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, IndexResponse{
		Service: "poigraph",
		Version: rt.Version,
		Modes:   ranking.Modes(),
	})
}
