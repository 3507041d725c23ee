package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scoring"
)

func TestHandleWhatIf(t *testing.T) {
	h := NewWhatIfHandler(scoring.NewRiskCalculator())

	payload := map[string]interface{}{
		"url":         "http://staging.acme-corp.com",
		"status_code": 200,
		"server":      "nginx/1.0.5",
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/whatif", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleWhatIf(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.RiskResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 100, result.Score)
	assert.NotEmpty(t, result.Factors)
}

func TestHandleWhatIfRejectsInvalidSignal(t *testing.T) {
	h := NewWhatIfHandler(scoring.NewRiskCalculator())

	body, _ := json.Marshal(map[string]interface{}{"status_code": 200})
	req := httptest.NewRequest(http.MethodPost, "/api/whatif", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleWhatIf(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWhatIfRejectsGet(t *testing.T) {
	h := NewWhatIfHandler(scoring.NewRiskCalculator())

	req := httptest.NewRequest(http.MethodGet, "/api/whatif", nil)
	rec := httptest.NewRecorder()

	h.HandleWhatIf(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
