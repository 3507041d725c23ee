package domain

import "time"

// DiscoverySource identifies how an asset entered the graph.
type DiscoverySource string

const (
	SourceManual DiscoverySource = "manual"
	SourceScan   DiscoverySource = "scan"
	SourceDemo   DiscoverySource = "demo"
)

// Domain is a root domain under monitoring (e.g. "acme-corp.com").
type Domain struct {
	Name         string          `json:"name"`
	Source       DiscoverySource `json:"source"`
	DiscoveredAt time.Time       `json:"discovered_at"`
}

// Subdomain is a fully qualified name discovered under a root domain.
type Subdomain struct {
	FQDN         string    `json:"fqdn"`
	ParentDomain string    `json:"parent_domain"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// WebService is an HTTP/HTTPS service hosted on a subdomain, together with
// its fingerprint and (once scored) its risk assessment.
type WebService struct {
	URL           string    `json:"url"`
	SubdomainFQDN string    `json:"subdomain_fqdn"`
	StatusCode    int       `json:"status_code"`
	Title         *string   `json:"title,omitempty"`
	Server        *string   `json:"server,omitempty"`
	Technologies  []string  `json:"technologies"`
	RiskScore     *int      `json:"risk_score,omitempty"`
	RiskFactors   string    `json:"risk_factors,omitempty"` // JSON-encoded []RiskFactor
	DiscoveredAt  time.Time `json:"discovered_at"`
}

// Signal projects the service's observable facts for scoring.
func (w WebService) Signal() ServiceSignal {
	techs := w.Technologies
	if techs == nil {
		techs = []string{}
	}
	return ServiceSignal{
		URL:          w.URL,
		StatusCode:   w.StatusCode,
		Title:        w.Title,
		Server:       w.Server,
		Technologies: techs,
	}
}

// GraphStats holds per-label node counts for the whole graph.
type GraphStats struct {
	Domains     int `json:"domains"`
	Subdomains  int `json:"subdomains"`
	WebServices int `json:"webservices"`
}
