package domain

import "time"

// ReportFormat identifies the output encoding of a generated report.
type ReportFormat string

const (
	FormatJSON ReportFormat = "json"
	FormatPDF  ReportFormat = "pdf"
)

// ReportMetadata describes one generated report.
type ReportMetadata struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Format      ReportFormat `json:"format"`
	GeneratedAt time.Time    `json:"generated_at"`
	GeneratedBy string       `json:"generated_by"`
}

// RiskDistribution buckets scored services by severity band.
type RiskDistribution struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// RiskOverview is the dashboard-level posture summary.
type RiskOverview struct {
	AssetCounts         GraphStats       `json:"asset_counts"`
	Distribution        RiskDistribution `json:"risk_distribution"`
	AverageRiskScore    float64          `json:"average_risk_score"`
	TotalScoredServices int              `json:"total_scored_services"`
}

// ReportedService is one service entry in an exposure report, with its
// decoded factors and severity band.
type ReportedService struct {
	URL       string       `json:"url"`
	RiskScore int          `json:"risk_score"`
	RiskLevel string       `json:"risk_level"`
	Server    string       `json:"server,omitempty"`
	Factors   []RiskFactor `json:"factors"`
}

// Recommendation is one prioritized remediation suggestion.
type Recommendation struct {
	Priority    string   `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

// ExposureReport is the executive attack-surface summary.
type ExposureReport struct {
	Metadata        ReportMetadata    `json:"metadata"`
	Overview        RiskOverview      `json:"overview"`
	TopServices     []ReportedService `json:"top_services"`
	Recommendations []Recommendation  `json:"recommendations"`
}
