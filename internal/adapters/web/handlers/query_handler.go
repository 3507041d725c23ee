package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/exposuregraph/exposuregraph/internal/core/services/agent"
	"github.com/exposuregraph/exposuregraph/internal/telemetry"
)

// QueryHandler routes natural-language questions to the query agent.
type QueryHandler struct {
	Agent *agent.QueryAgent
}

func NewQueryHandler(a *agent.QueryAgent) *QueryHandler {
	return &QueryHandler{Agent: a}
}

type queryRequest struct {
	Question string `json:"question"`
}

func (h *QueryHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	answer := h.Agent.Ask(r.Context(), req.Question)
	if answer.Success {
		telemetry.LLMRequests.WithLabelValues("ok").Inc()
	} else {
		telemetry.LLMRequests.WithLabelValues("error").Inc()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(answer)
}
