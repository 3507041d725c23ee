package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	pdfexport "github.com/exposuregraph/exposuregraph/internal/adapters/reporting"
	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/services/reporting"
)

// ReportHandler generates exposure reports in JSON or PDF form. Routes
// are registered on a gorilla/mux subrouter so the format rides in the
// path: /api/reports/{format}.
type ReportHandler struct {
	Generator   *reporting.ExposureReportGenerator
	PDFExporter *pdfexport.PDFExporter
}

func NewReportHandler(generator *reporting.ExposureReportGenerator, pdfExporter *pdfexport.PDFExporter) *ReportHandler {
	return &ReportHandler{Generator: generator, PDFExporter: pdfExporter}
}

// Routes registers the report endpoints on the given router.
func (h *ReportHandler) Routes(r *mux.Router) {
	r.HandleFunc("/api/reports/{format:json|pdf}", h.HandleGenerateReport).Methods(http.MethodGet)
}

func (h *ReportHandler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	format := domain.ReportFormat(mux.Vars(r)["format"])

	topN := 10
	if raw := r.URL.Query().Get("top"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 100 {
			http.Error(w, "Invalid top parameter", http.StatusBadRequest)
			return
		}
		topN = v
	}

	report, err := h.Generator.Generate(r.Context(), topN, format)
	if err != nil {
		http.Error(w, "Failed to generate report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	switch format {
	case domain.FormatPDF:
		data, err := h.PDFExporter.Export(report)
		if err != nil {
			http.Error(w, "Failed to render PDF: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=exposure-report-%s.pdf", report.Metadata.ID))
		w.Write(data)
	default:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(report)
	}
}
