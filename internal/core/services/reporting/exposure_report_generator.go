package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

// ExposureReportGenerator builds executive attack-surface reports.
type ExposureReportGenerator struct {
	store       ports.GraphStore
	overview    *OverviewService
	recommender *RecommendationEngine
}

// NewExposureReportGenerator creates a new report generator.
func NewExposureReportGenerator(store ports.GraphStore) *ExposureReportGenerator {
	return &ExposureReportGenerator{
		store:       store,
		overview:    NewOverviewService(store),
		recommender: NewRecommendationEngine(),
	}
}

// Generate produces an exposure report covering the riskiest services.
func (g *ExposureReportGenerator) Generate(ctx context.Context, topN int, format domain.ReportFormat) (*domain.ExposureReport, error) {
	if topN <= 0 {
		topN = 10
	}

	overview, err := g.overview.BuildOverview(ctx)
	if err != nil {
		return nil, err
	}

	services, err := g.store.GetServicesByRisk(ctx, 0, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top services: %w", err)
	}

	reported := make([]domain.ReportedService, 0, len(services))
	for _, svc := range services {
		if svc.RiskScore == nil {
			continue
		}
		entry := domain.ReportedService{
			URL:       svc.URL,
			RiskScore: *svc.RiskScore,
			RiskLevel: ClassifyRisk(*svc.RiskScore),
		}
		if svc.Server != nil {
			entry.Server = *svc.Server
		}
		if svc.RiskFactors != "" {
			// Stored factors are JSON; a decode failure leaves them empty
			// rather than failing the whole report.
			var factors []domain.RiskFactor
			if err := json.Unmarshal([]byte(svc.RiskFactors), &factors); err == nil {
				entry.Factors = factors
			}
		}
		reported = append(reported, entry)
	}

	return &domain.ExposureReport{
		Metadata: domain.ReportMetadata{
			ID:          uuid.New().String(),
			Title:       "Attack Surface Exposure Summary",
			Format:      format,
			GeneratedAt: time.Now().UTC(),
			GeneratedBy: "ExposureGraph",
		},
		Overview:        overview,
		TopServices:     reported,
		Recommendations: g.recommender.GenerateRecommendations(reported),
	}, nil
}
