package reporting

import (
	"fmt"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// RecommendationEngine generates actionable remediation suggestions from
// the risk factors observed across the portfolio.
type RecommendationEngine struct{}

// NewRecommendationEngine creates a new recommendation engine instance.
func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{}
}

// GenerateRecommendations creates prioritized recommendations from the top
// reported services. One recommendation is emitted per distinct factor
// name, capped at five.
func (re *RecommendationEngine) GenerateRecommendations(services []domain.ReportedService) []domain.Recommendation {
	counts := make(map[string]int)
	order := []string{}
	for _, svc := range services {
		for _, f := range svc.Factors {
			if counts[f.Name] == 0 {
				order = append(order, f.Name)
			}
			counts[f.Name]++
		}
	}

	var recommendations []domain.Recommendation
	for _, name := range order {
		if rec := re.recommendationForFactor(name, counts[name]); rec != nil {
			recommendations = append(recommendations, *rec)
		}
	}

	if len(recommendations) == 0 {
		recommendations = append(recommendations, domain.Recommendation{
			Priority:    "low",
			Title:       "Maintain Current Posture",
			Description: "No elevated risk factors were observed across the reported services.",
			Actions: []string{
				"Keep scheduled scans running to detect new exposure",
				"Review the allow-list of monitored domains periodically",
			},
		})
	}

	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}
	return recommendations
}

// recommendationForFactor maps a risk factor name to its remediation.
func (re *RecommendationEngine) recommendationForFactor(name string, affected int) *domain.Recommendation {
	switch name {
	case "Outdated Technology":
		return &domain.Recommendation{
			Priority:    "critical",
			Title:       "Upgrade End-of-Life Software",
			Description: fmt.Sprintf("%d service(s) run software past its end-of-life date with no security patches available.", affected),
			Actions: []string{
				"Inventory affected versions and plan upgrades to supported releases",
				"Prioritize internet-facing services",
				"Add the affected stacks to patch-management tracking",
			},
		}
	case "No HTTPS":
		return &domain.Recommendation{
			Priority:    "high",
			Title:       "Enforce TLS Everywhere",
			Description: fmt.Sprintf("%d service(s) accept unencrypted HTTP traffic.", affected),
			Actions: []string{
				"Provision certificates and redirect HTTP to HTTPS",
				"Enable HSTS once redirects are verified",
			},
		}
	case "Non-Production Exposed":
		return &domain.Recommendation{
			Priority:    "high",
			Title:       "Remove Non-Production Systems From the Internet",
			Description: fmt.Sprintf("%d staging/dev/test service(s) are reachable publicly.", affected),
			Actions: []string{
				"Move non-production environments behind a VPN or IP allow-list",
				"Audit DNS for forgotten environment records",
			},
		}
	case "Version Disclosure":
		return &domain.Recommendation{
			Priority:    "medium",
			Title:       "Suppress Server Version Banners",
			Description: fmt.Sprintf("%d service(s) reveal exact software versions in response headers.", affected),
			Actions: []string{
				"Disable version tokens in web server configuration",
				"Re-probe after the change to confirm headers are clean",
			},
		}
	case "Directory Listing":
		return &domain.Recommendation{
			Priority:    "medium",
			Title:       "Disable Directory Indexes",
			Description: fmt.Sprintf("%d service(s) appear to expose directory listings.", affected),
			Actions: []string{
				"Turn off autoindex/Options Indexes on affected hosts",
				"Check listed paths for sensitive files already exposed",
			},
		}
	case "Live Service":
		// Being live is context, not something to remediate on its own.
		return nil
	}
	return nil
}
