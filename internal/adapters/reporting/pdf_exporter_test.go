package reporting

import (
	"bytes"
	"testing"
	"time"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

func sampleReport() *domain.ExposureReport {
	return &domain.ExposureReport{
		Metadata: domain.ReportMetadata{
			ID:          "test-report-123",
			Title:       "Attack Surface Exposure Report",
			Format:      domain.FormatPDF,
			GeneratedAt: time.Now(),
			GeneratedBy: "ExposureGraph",
		},
		Overview: domain.RiskOverview{
			AssetCounts: domain.GraphStats{
				Domains:     1,
				Subdomains:  12,
				WebServices: 5,
			},
			Distribution: domain.RiskDistribution{
				Critical: 1,
				High:     2,
				Medium:   1,
				Low:      1,
			},
			AverageRiskScore:    64.0,
			TotalScoredServices: 5,
		},
		TopServices: []domain.ReportedService{
			{
				URL:       "http://staging.acme-corp.com",
				RiskScore: 100,
				RiskLevel: "critical",
				Server:    "nginx/1.0.5",
				Factors: []domain.RiskFactor{
					{Name: "Outdated Technology", Contribution: 20, Explanation: "End-of-life nginx 1.0.x"},
				},
			},
			{
				URL:       "https://api.acme-corp.com",
				RiskScore: 50,
				RiskLevel: "medium",
			},
		},
		Recommendations: []domain.Recommendation{
			{
				Priority:    "critical",
				Title:       "Upgrade End-of-Life Software",
				Description: "1 service runs software past its end-of-life date.",
				Actions:     []string{"Inventory affected services", "Plan upgrades"},
			},
		},
	}
}

func TestPDFExporterExport(t *testing.T) {
	exporter := NewPDFExporter()

	data, err := exporter.Export(sampleReport())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	if len(data) == 0 {
		t.Fatal("Expected non-empty PDF output")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("Output does not start with PDF magic bytes")
	}
}

func TestPDFExporterExportEmptyReport(t *testing.T) {
	exporter := NewPDFExporter()

	report := &domain.ExposureReport{
		Metadata: domain.ReportMetadata{
			ID:          "empty",
			Title:       "Empty Report",
			GeneratedAt: time.Now(),
			GeneratedBy: "ExposureGraph",
		},
	}

	data, err := exporter.Export(report)
	if err != nil {
		t.Fatalf("Export failed on empty report: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("Output does not start with PDF magic bytes")
	}
}
