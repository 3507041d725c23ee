package ports

import (
	"context"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// GraphStore defines persistence for the exposure graph. All create/merge
// operations are idempotent so repeated scans never duplicate nodes.
type GraphStore interface {
	// MergeDomain creates or updates a root Domain node.
	MergeDomain(ctx context.Context, name string, source domain.DiscoverySource) (*domain.Domain, error)

	// MergeSubdomain creates or updates a Subdomain node and links it to its
	// parent Domain (creating the parent if needed).
	MergeSubdomain(ctx context.Context, fqdn, parentDomain string) (*domain.Subdomain, error)

	// MergeWebService creates or updates a WebService node, keyed by URL, and
	// links it to its hosting Subdomain.
	MergeWebService(ctx context.Context, svc domain.WebService) (*domain.WebService, error)

	// UpdateRiskScore sets score and factors JSON on an existing service.
	// Returns false if no service with that URL exists.
	UpdateRiskScore(ctx context.Context, url string, score int, factorsJSON string) (bool, error)

	// GetDomains returns all root domains ordered by name.
	GetDomains(ctx context.Context) ([]domain.Domain, error)

	// GetSubdomains returns the subdomains of a root domain ordered by FQDN.
	GetSubdomains(ctx context.Context, domainName string) ([]domain.Subdomain, error)

	// GetServicesByRisk returns scored services with risk >= minScore,
	// highest risk first, at most limit entries.
	GetServicesByRisk(ctx context.Context, minScore, limit int) ([]domain.WebService, error)

	// GetUnscoredServices returns services that have no risk score yet.
	GetUnscoredServices(ctx context.Context) ([]domain.WebService, error)

	// Stats returns per-label node counts.
	Stats(ctx context.Context) (domain.GraphStats, error)

	// Search runs a structured query produced by the query agent.
	Search(ctx context.Context, q domain.GraphQuery) ([]map[string]interface{}, error)

	// Close releases the underlying connection.
	Close() error
}

// SubdomainCollector discovers subdomains for a root domain.
type SubdomainCollector interface {
	Discover(ctx context.Context, target string) ([]string, error)
}

// ServiceProber probes hosts for live HTTP services and fingerprints them.
type ServiceProber interface {
	Probe(ctx context.Context, hosts []string) ([]domain.WebService, error)
}

// LLMClient generates text completions for the query agent.
type LLMClient interface {
	Complete(ctx context.Context, prompt, system string) (string, error)
}

// EventSink receives progress and log events for live dashboards.
// Implementations must never block the caller.
type EventSink interface {
	PublishLog(message, level string)
	PublishProgress(phase string, percent int, message string)
}
