package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/exposuregraph/exposuregraph/internal/core/ports"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scan"
)

var domainPattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)

// ScanHandler triggers reconnaissance runs and exposes scan history.
type ScanHandler struct {
	Pipeline *scan.Pipeline
	History  ports.ScanHistory
}

func NewScanHandler(pipeline *scan.Pipeline, history ports.ScanHistory) *ScanHandler {
	return &ScanHandler{Pipeline: pipeline, History: history}
}

type scanRequest struct {
	Target string `json:"target"`
}

// HandleStartScan kicks off a scan in the background and returns 202.
// Progress flows to clients over the websocket.
func (h *ScanHandler) HandleStartScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !domainPattern.MatchString(req.Target) {
		http.Error(w, "Invalid target domain", http.StatusBadRequest)
		return
	}
	if !h.Pipeline.Allowed(req.Target) {
		http.Error(w, "Target is outside the allowed scan scope", http.StatusForbidden)
		return
	}

	go func() {
		// Detach from the request context so the scan survives the response.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := h.Pipeline.Run(ctx, req.Target); err != nil {
			slog.Error("background scan failed", "target", req.Target, "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"target": req.Target, "status": "started"})
}

// HandleRescore recomputes every stored risk score with the current rules.
func (h *ScanHandler) HandleRescore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	count, err := h.Pipeline.Rescore(r.Context())
	if err != nil {
		http.Error(w, "Rescore failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"rescored": count})
}

// HandleListRuns returns recent scan history.
func (h *ScanHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.History.ListRuns(r.Context(), 50)
	if err != nil {
		http.Error(w, "Failed to load scan history: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}
