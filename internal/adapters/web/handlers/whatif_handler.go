package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scoring"
)

// WhatIfHandler scores a hypothetical service without persisting it,
// so operators can preview how a deployment change shifts risk.
type WhatIfHandler struct {
	Calculator *scoring.RiskCalculator
}

func NewWhatIfHandler(calculator *scoring.RiskCalculator) *WhatIfHandler {
	return &WhatIfHandler{Calculator: calculator}
}

func (h *WhatIfHandler) HandleWhatIf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	var raw struct {
		URL          string   `json:"url"`
		StatusCode   int      `json:"status_code"`
		Title        *string  `json:"title"`
		Server       *string  `json:"server"`
		Technologies []string `json:"technologies"`
	}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	signal, err := domain.NewServiceSignal(raw.URL, raw.StatusCode, raw.Title, raw.Server, raw.Technologies)
	if err != nil {
		http.Error(w, "Invalid signal: "+err.Error(), http.StatusBadRequest)
		return
	}

	result := h.Calculator.CalculateScore(signal)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
