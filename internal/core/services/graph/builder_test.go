package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// MockGraphStore
type MockGraphStore struct {
	mock.Mock
}

func (m *MockGraphStore) MergeDomain(ctx context.Context, name string, source domain.DiscoverySource) (*domain.Domain, error) {
	args := m.Called(ctx, name, source)
	return nil, args.Error(1)
}

func (m *MockGraphStore) MergeSubdomain(ctx context.Context, fqdn, parent string) (*domain.Subdomain, error) {
	args := m.Called(ctx, fqdn, parent)
	return nil, args.Error(1)
}

func (m *MockGraphStore) MergeWebService(ctx context.Context, svc domain.WebService) (*domain.WebService, error) {
	args := m.Called(ctx, svc)
	return nil, args.Error(1)
}

func (m *MockGraphStore) UpdateRiskScore(ctx context.Context, url string, score int, factorsJSON string) (bool, error) {
	args := m.Called(ctx, url, score, factorsJSON)
	return args.Bool(0), args.Error(1)
}

func (m *MockGraphStore) GetDomains(ctx context.Context) ([]domain.Domain, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Domain), args.Error(1)
}

func (m *MockGraphStore) GetSubdomains(ctx context.Context, name string) ([]domain.Subdomain, error) {
	args := m.Called(ctx, name)
	return args.Get(0).([]domain.Subdomain), args.Error(1)
}

func (m *MockGraphStore) GetServicesByRisk(ctx context.Context, minScore, limit int) ([]domain.WebService, error) {
	args := m.Called(ctx, minScore, limit)
	return args.Get(0).([]domain.WebService), args.Error(1)
}

func (m *MockGraphStore) GetUnscoredServices(ctx context.Context) ([]domain.WebService, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.WebService), args.Error(1)
}

func (m *MockGraphStore) Stats(ctx context.Context) (domain.GraphStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.GraphStats), args.Error(1)
}

func (m *MockGraphStore) Search(ctx context.Context, q domain.GraphQuery) ([]map[string]interface{}, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]map[string]interface{}), args.Error(1)
}

func (m *MockGraphStore) Close() error { return nil }

func intptr(i int) *int       { return &i }
func strptr(s string) *string { return &s }

func TestBuildGraph(t *testing.T) {
	store := new(MockGraphStore)
	builder := NewBuilder(store)
	ctx := context.Background()

	store.On("GetDomains", ctx).Return([]domain.Domain{
		{Name: "acme-corp.com", Source: domain.SourceManual},
	}, nil)
	store.On("GetSubdomains", ctx, "acme-corp.com").Return([]domain.Subdomain{
		{FQDN: "staging.acme-corp.com", ParentDomain: "acme-corp.com"},
	}, nil)
	store.On("GetServicesByRisk", ctx, 0, mock.Anything).Return([]domain.WebService{
		{
			URL:           "http://staging.acme-corp.com",
			SubdomainFQDN: "staging.acme-corp.com",
			StatusCode:    200,
			Server:        strptr("nginx/1.0.5"),
			RiskScore:     intptr(100),
		},
	}, nil)
	store.On("GetUnscoredServices", ctx).Return([]domain.WebService{}, nil)

	data, err := builder.BuildGraph(ctx)
	require.NoError(t, err)

	require.Len(t, data.Nodes, 3)
	require.Len(t, data.Edges, 2)

	byID := map[string]domain.GraphNode{}
	for _, n := range data.Nodes {
		byID[n.ID] = n
	}

	assert.Equal(t, domain.GroupDomain, byID["dom_acme-corp.com"].Group)
	assert.Equal(t, domain.GroupSubdomain, byID["sub_staging.acme-corp.com"].Group)

	svc := byID["svc_http://staging.acme-corp.com"]
	assert.Equal(t, domain.GroupService, svc.Group)
	assert.Equal(t, "critical", svc.RiskLevel)
	assert.Equal(t, "nginx/1.0.5", svc.Server)

	assert.Contains(t, data.Edges, domain.GraphEdge{
		From: "dom_acme-corp.com",
		To:   "sub_staging.acme-corp.com",
		Type: domain.TypeHasSubdomain,
	})
	assert.Contains(t, data.Edges, domain.GraphEdge{
		From: "sub_staging.acme-corp.com",
		To:   "svc_http://staging.acme-corp.com",
		Type: domain.TypeHosts,
	})
}

func TestBuildGraphEmpty(t *testing.T) {
	store := new(MockGraphStore)
	builder := NewBuilder(store)
	ctx := context.Background()

	store.On("GetDomains", ctx).Return([]domain.Domain{}, nil)
	store.On("GetServicesByRisk", ctx, 0, mock.Anything).Return([]domain.WebService{}, nil)
	store.On("GetUnscoredServices", ctx).Return([]domain.WebService{}, nil)

	data, err := builder.BuildGraph(ctx)
	require.NoError(t, err)
	assert.Empty(t, data.Nodes)
	assert.Empty(t, data.Edges)
}
