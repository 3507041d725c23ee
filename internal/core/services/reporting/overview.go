package reporting

import (
	"context"
	"fmt"
	"math"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

// overviewFetchLimit bounds how many services one overview aggregates.
const overviewFetchLimit = 1000

// OverviewService aggregates dashboard-level statistics about the attack
// surface from the graph store.
type OverviewService struct {
	store ports.GraphStore
}

// NewOverviewService creates a new overview service.
func NewOverviewService(store ports.GraphStore) *OverviewService {
	return &OverviewService{store: store}
}

// BuildOverview computes asset counts, the risk distribution, and the
// average score across all scored services.
func (s *OverviewService) BuildOverview(ctx context.Context) (domain.RiskOverview, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return domain.RiskOverview{}, fmt.Errorf("failed to fetch graph stats: %w", err)
	}

	services, err := s.store.GetServicesByRisk(ctx, 0, overviewFetchLimit)
	if err != nil {
		return domain.RiskOverview{}, fmt.Errorf("failed to fetch scored services: %w", err)
	}

	var dist domain.RiskDistribution
	total := 0
	scored := 0
	for _, svc := range services {
		if svc.RiskScore == nil {
			continue
		}
		scored++
		total += *svc.RiskScore
		switch ClassifyRisk(*svc.RiskScore) {
		case "critical":
			dist.Critical++
		case "high":
			dist.High++
		case "medium":
			dist.Medium++
		default:
			dist.Low++
		}
	}

	avg := 0.0
	if scored > 0 {
		avg = math.Round(float64(total)/float64(scored)*10) / 10
	}

	return domain.RiskOverview{
		AssetCounts:         stats,
		Distribution:        dist,
		AverageRiskScore:    avg,
		TotalScoredServices: scored,
	}, nil
}
