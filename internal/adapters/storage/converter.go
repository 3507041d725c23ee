package storage

import (
	"encoding/json"
	"fmt"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

func domainToEntity(m DomainModel) *domain.Domain {
	return &domain.Domain{
		Name:         m.Name,
		Source:       domain.DiscoverySource(m.Source),
		DiscoveredAt: m.DiscoveredAt,
	}
}

func subdomainToEntity(m SubdomainModel) *domain.Subdomain {
	return &domain.Subdomain{
		FQDN:         m.FQDN,
		ParentDomain: m.ParentDomain,
		DiscoveredAt: m.DiscoveredAt,
	}
}

func serviceToModel(svc domain.WebService) (WebServiceModel, error) {
	techs, err := json.Marshal(svc.Technologies)
	if err != nil {
		return WebServiceModel{}, fmt.Errorf("failed to encode technologies: %w", err)
	}
	return WebServiceModel{
		URL:          svc.URL,
		StatusCode:   svc.StatusCode,
		Title:        svc.Title,
		Server:       svc.Server,
		Technologies: string(techs),
		RiskScore:    svc.RiskScore,
		RiskFactors:  svc.RiskFactors,
	}, nil
}

func serviceToEntity(m WebServiceModel) *domain.WebService {
	var techs []string
	if m.Technologies != "" {
		// Tolerate rows written before tech fingerprinting existed.
		_ = json.Unmarshal([]byte(m.Technologies), &techs)
	}
	if techs == nil {
		techs = []string{}
	}
	return &domain.WebService{
		URL:           m.URL,
		SubdomainFQDN: m.SubdomainFQDN,
		StatusCode:    m.StatusCode,
		Title:         m.Title,
		Server:        m.Server,
		Technologies:  techs,
		RiskScore:     m.RiskScore,
		RiskFactors:   m.RiskFactors,
		DiscoveredAt:  m.DiscoveredAt,
	}
}

func servicesToEntities(models []WebServiceModel) []domain.WebService {
	services := make([]domain.WebService, len(models))
	for i, m := range models {
		services[i] = *serviceToEntity(m)
	}
	return services
}
