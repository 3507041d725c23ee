package graph

import (
	"context"
	"fmt"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
	"github.com/exposuregraph/exposuregraph/internal/core/services/reporting"
)

// Builder constructs the dashboard graph projection from the store.
type Builder struct {
	store ports.GraphStore
}

// NewBuilder creates a new graph builder.
func NewBuilder(store ports.GraphStore) *Builder {
	return &Builder{store: store}
}

// BuildGraph generates the full graph projection: domains, their
// subdomains, and the services hosted on each subdomain. Service node
// tooltips carry the fingerprint; risk levels follow the standard
// classification thresholds.
func (b *Builder) BuildGraph(ctx context.Context) (domain.GraphData, error) {
	data := domain.GraphData{
		Nodes: []domain.GraphNode{},
		Edges: []domain.GraphEdge{},
	}

	domains, err := b.store.GetDomains(ctx)
	if err != nil {
		return data, fmt.Errorf("failed to load domains: %w", err)
	}

	serviceNodes, serviceEdges, err := b.serviceProjection(ctx)
	if err != nil {
		return data, err
	}

	for _, d := range domains {
		data.Nodes = append(data.Nodes, domain.GraphNode{
			ID:           "dom_" + d.Name,
			Label:        d.Name,
			Group:        domain.GroupDomain,
			DiscoveredAt: d.DiscoveredAt,
		})

		subs, err := b.store.GetSubdomains(ctx, d.Name)
		if err != nil {
			return data, fmt.Errorf("failed to load subdomains for %s: %w", d.Name, err)
		}
		for _, sub := range subs {
			data.Nodes = append(data.Nodes, domain.GraphNode{
				ID:           "sub_" + sub.FQDN,
				Label:        sub.FQDN,
				Group:        domain.GroupSubdomain,
				DiscoveredAt: sub.DiscoveredAt,
			})
			data.Edges = append(data.Edges, domain.GraphEdge{
				From: "dom_" + d.Name,
				To:   "sub_" + sub.FQDN,
				Type: domain.TypeHasSubdomain,
			})
		}
	}

	data.Nodes = append(data.Nodes, serviceNodes...)
	data.Edges = append(data.Edges, serviceEdges...)
	return data, nil
}

func (b *Builder) serviceProjection(ctx context.Context) ([]domain.GraphNode, []domain.GraphEdge, error) {
	scored, err := b.store.GetServicesByRisk(ctx, 0, 10000)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scored services: %w", err)
	}
	unscored, err := b.store.GetUnscoredServices(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load unscored services: %w", err)
	}
	services := append(scored, unscored...)

	var nodes []domain.GraphNode
	var edges []domain.GraphEdge
	for _, svc := range services {
		node := domain.GraphNode{
			ID:           "svc_" + svc.URL,
			Label:        svc.URL,
			Group:        domain.GroupService,
			StatusCode:   svc.StatusCode,
			RiskScore:    svc.RiskScore,
			DiscoveredAt: svc.DiscoveredAt,
		}
		if svc.RiskScore != nil {
			node.RiskLevel = reporting.ClassifyRisk(*svc.RiskScore)
		}
		if svc.Server != nil {
			node.Server = *svc.Server
		}
		if svc.Title != nil {
			node.Title = *svc.Title
		}
		nodes = append(nodes, node)

		if svc.SubdomainFQDN != "" {
			edges = append(edges, domain.GraphEdge{
				From: "sub_" + svc.SubdomainFQDN,
				To:   "svc_" + svc.URL,
				Type: domain.TypeHosts,
			})
		}
	}
	return nodes, edges, nil
}
