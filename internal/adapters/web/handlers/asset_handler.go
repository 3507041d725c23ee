package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/exposuregraph/exposuregraph/internal/core/ports"
	"github.com/exposuregraph/exposuregraph/internal/core/services/graph"
	"github.com/exposuregraph/exposuregraph/internal/core/services/reporting"
)

// AssetHandler exposes read access to the exposure graph.
type AssetHandler struct {
	Store    ports.GraphStore
	Builder  *graph.Builder
	Overview *reporting.OverviewService
}

func NewAssetHandler(store ports.GraphStore, builder *graph.Builder, overview *reporting.OverviewService) *AssetHandler {
	return &AssetHandler{Store: store, Builder: builder, Overview: overview}
}

// HandleListDomains returns all monitored root domains.
func (h *AssetHandler) HandleListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.Store.GetDomains(r.Context())
	if err != nil {
		http.Error(w, "Failed to load domains: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(domains)
}

// HandleListSubdomains returns the subdomains of one root domain
// (query parameter "domain").
func (h *AssetHandler) HandleListSubdomains(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("domain")
	if name == "" {
		http.Error(w, "Missing domain parameter", http.StatusBadRequest)
		return
	}

	subs, err := h.Store.GetSubdomains(r.Context(), name)
	if err != nil {
		http.Error(w, "Failed to load subdomains: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subs)
}

// HandleTopRisks returns the highest-scored services. Optional query
// parameters: min_score, limit.
func (h *AssetHandler) HandleTopRisks(w http.ResponseWriter, r *http.Request) {
	minScore := 0
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > 100 {
			http.Error(w, "Invalid min_score", http.StatusBadRequest)
			return
		}
		minScore = v
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = v
	}

	services, err := h.Store.GetServicesByRisk(r.Context(), minScore, limit)
	if err != nil {
		http.Error(w, "Failed to load services: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(services)
}

// HandleGraph returns the full graph projection for the dashboard.
func (h *AssetHandler) HandleGraph(w http.ResponseWriter, r *http.Request) {
	data, err := h.Builder.BuildGraph(r.Context())
	if err != nil {
		http.Error(w, "Failed to build graph: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// HandleStats returns node counts and the risk overview.
func (h *AssetHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	overview, err := h.Overview.BuildOverview(r.Context())
	if err != nil {
		http.Error(w, "Failed to build overview: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(overview)
}
