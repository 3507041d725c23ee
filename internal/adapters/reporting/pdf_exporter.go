package reporting

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// PDFExporter renders exposure reports to PDF format
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter instance
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export generates a professional PDF from an exposure report
func (e *PDFExporter) Export(report *domain.ExposureReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, report)
	e.addOverview(pdf, report)
	e.addTopServices(pdf, report)
	e.addRecommendations(pdf, report)
	e.addFooter(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// addHeader adds the report header
func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, report *domain.ExposureReport) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102) // Dark blue
	pdf.CellFormat(0, 15, report.Metadata.Title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	dateStr := fmt.Sprintf("Generated: %s", report.Metadata.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.CellFormat(0, 6, dateStr, "", 1, "L", false, 0, "")
	pdf.Ln(8)
}

// addOverview adds asset counts and the severity distribution
func (e *PDFExporter) addOverview(pdf *gofpdf.Fpdf, report *domain.ExposureReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Attack Surface Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	stats := []struct {
		label string
		value string
		color []int
	}{
		{"Domains", fmt.Sprintf("%d", report.Overview.AssetCounts.Domains), []int{0, 102, 204}},
		{"Subdomains", fmt.Sprintf("%d", report.Overview.AssetCounts.Subdomains), []int{0, 102, 204}},
		{"Web Services", fmt.Sprintf("%d", report.Overview.AssetCounts.WebServices), []int{0, 102, 204}},
		{"Average Risk", fmt.Sprintf("%.1f/100", report.Overview.AverageRiskScore), []int{0, 102, 204}},
		{"Critical", fmt.Sprintf("%d", report.Overview.Distribution.Critical), []int{220, 53, 69}},
		{"High", fmt.Sprintf("%d", report.Overview.Distribution.High), []int{255, 149, 0}},
		{"Medium", fmt.Sprintf("%d", report.Overview.Distribution.Medium), []int{255, 204, 0}},
		{"Low", fmt.Sprintf("%d", report.Overview.Distribution.Low), []int{52, 199, 89}},
	}

	// Display in 2 columns
	colWidth := 85.0
	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(stat.color[0], stat.color[1], stat.color[2])
		pdf.CellFormat(colWidth-50, 7, stat.value, "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}

	pdf.Ln(10)
}

// addTopServices adds the highest-risk services table
func (e *PDFExporter) addTopServices(pdf *gofpdf.Fpdf, report *domain.ExposureReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Highest Risk Services", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(report.TopServices) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(0, 7, "No scored services in the graph", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	// Table header
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)

	pdf.CellFormat(80, 8, "URL", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 8, "Score", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 8, "Severity", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 8, "Top Factor", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, svc := range report.TopServices {
		url := svc.URL
		if len(url) > 45 {
			url = url[:42] + "..."
		}
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(80, 7, url, "1", 0, "L", false, 0, "")

		r, g, b := e.getRiskColor(svc.RiskScore)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", svc.RiskScore), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 7, svc.RiskLevel, "1", 0, "C", false, 0, "")

		factor := ""
		if len(svc.Factors) > 0 {
			factor = svc.Factors[0].Name
		}
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(45, 7, factor, "1", 1, "L", false, 0, "")
	}

	pdf.Ln(8)
}

// getRiskColor returns RGB color based on the 0-100 risk score
func (e *PDFExporter) getRiskColor(score int) (r, g, b int) {
	switch {
	case score >= 80:
		return 220, 53, 69 // Red (Critical)
	case score >= 60:
		return 255, 149, 0 // Orange (High)
	case score >= 40:
		return 255, 204, 0 // Yellow (Medium)
	default:
		return 52, 199, 89 // Green (Low)
	}
}

// addRecommendations adds the prioritized remediation list
func (e *PDFExporter) addRecommendations(pdf *gofpdf.Fpdf, report *domain.ExposureReport) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Priority Recommendations", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for i, rec := range report.Recommendations {
		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(60, 60, 60)
		pdf.CellFormat(0, 7, fmt.Sprintf("%d. %s [%s]", i+1, rec.Title, rec.Priority), "", 1, "L", false, 0, "")

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, rec.Description, "", "L", false)

		for _, action := range rec.Actions {
			pdf.CellFormat(0, 5, "  - "+action, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}
}

// addFooter adds the generation footer
func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf, report *domain.ExposureReport) {
	pdf.SetY(-20)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	footer := fmt.Sprintf("%s | Report %s", report.Metadata.GeneratedBy, report.Metadata.ID)
	pdf.CellFormat(0, 5, footer, "", 1, "C", false, 0, "")
}
