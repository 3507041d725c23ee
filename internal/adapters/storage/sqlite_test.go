package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

func newTestStore(t *testing.T) *SQLiteGraphStore {
	t.Helper()
	store, err := NewSQLiteGraphStore(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func strptr(s string) *string { return &s }

func TestMergeDomainIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.MergeDomain(ctx, "Acme-Corp.com", domain.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, "acme-corp.com", first.Name)

	second, err := store.MergeDomain(ctx, "acme-corp.com", domain.SourceScan)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceScan, second.Source)

	domains, err := store.GetDomains(ctx)
	require.NoError(t, err)
	assert.Len(t, domains, 1)
}

func TestMergeSubdomainCreatesParent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.MergeSubdomain(ctx, "api.acme-corp.com", "acme-corp.com")
	require.NoError(t, err)

	domains, err := store.GetDomains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, domain.SourceScan, domains[0].Source)

	subs, err := store.GetSubdomains(ctx, "acme-corp.com")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "api.acme-corp.com", subs[0].FQDN)
}

func TestMergeWebServiceUpsertsByURL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	svc := domain.WebService{
		URL:           "https://api.acme-corp.com",
		SubdomainFQDN: "api.acme-corp.com",
		StatusCode:    200,
		Server:        strptr("nginx/1.18.0"),
		Technologies:  []string{"Nginx/1.18.0"},
	}
	_, err := store.MergeWebService(ctx, svc)
	require.NoError(t, err)

	svc.StatusCode = 503
	saved, err := store.MergeWebService(ctx, svc)
	require.NoError(t, err)
	assert.Equal(t, 503, saved.StatusCode)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.WebServices)
	assert.Equal(t, 1, stats.Subdomains)
}

func TestUpdateRiskScore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.MergeWebService(ctx, domain.WebService{
		URL:           "https://staging.acme-corp.com",
		SubdomainFQDN: "staging.acme-corp.com",
		StatusCode:    200,
	})
	require.NoError(t, err)

	updated, err := store.UpdateRiskScore(ctx, "https://staging.acme-corp.com", 65, `[{"name":"Live Service"}]`)
	require.NoError(t, err)
	assert.True(t, updated)

	missing, err := store.UpdateRiskScore(ctx, "https://nope.example.com", 10, "[]")
	require.NoError(t, err)
	assert.False(t, missing)

	unscored, err := store.GetUnscoredServices(ctx)
	require.NoError(t, err)
	assert.Empty(t, unscored)
}

func TestGetServicesByRiskOrdersDescending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []struct {
		url   string
		score int
	}{
		{"https://a.acme.com", 40},
		{"https://b.acme.com", 95},
		{"https://c.acme.com", 70},
	}
	for _, s := range seed {
		_, err := store.MergeWebService(ctx, domain.WebService{URL: s.url, SubdomainFQDN: "x.acme.com", StatusCode: 200})
		require.NoError(t, err)
		_, err = store.UpdateRiskScore(ctx, s.url, s.score, "[]")
		require.NoError(t, err)
	}
	// One unscored service should never appear.
	_, err := store.MergeWebService(ctx, domain.WebService{URL: "https://d.acme.com", SubdomainFQDN: "x.acme.com", StatusCode: 404})
	require.NoError(t, err)

	services, err := store.GetServicesByRisk(ctx, 50, 10)
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "https://b.acme.com", services[0].URL)
	assert.Equal(t, "https://c.acme.com", services[1].URL)
}

func TestSearchServicesFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	services := []domain.WebService{
		{URL: "https://api.acme.com", SubdomainFQDN: "api.acme.com", StatusCode: 200, Server: strptr("Apache/2.2.34")},
		{URL: "http://staging.acme.com", SubdomainFQDN: "staging.acme.com", StatusCode: 200, Server: strptr("nginx/1.18.0")},
		{URL: "https://www.other.org", SubdomainFQDN: "www.other.org", StatusCode: 301},
	}
	for i, svc := range services {
		_, err := store.MergeWebService(ctx, svc)
		require.NoError(t, err)
		_, err = store.UpdateRiskScore(ctx, svc.URL, 30*(i+1), "[]")
		require.NoError(t, err)
	}

	rows, err := store.Search(ctx, domain.GraphQuery{
		Label:          domain.GroupService,
		ServerContains: "apache",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "https://api.acme.com", rows[0]["url"])

	min := 60
	rows, err = store.Search(ctx, domain.GraphQuery{
		Label:       domain.GroupService,
		MinScore:    &min,
		OrderByRisk: true,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "https://www.other.org", rows[0]["url"])

	rows, err = store.Search(ctx, domain.GraphQuery{Label: domain.GroupService, Count: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0]["count"])
}

func TestSearchRejectsUnknownLabel(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), domain.GraphQuery{Label: "exploit"})
	assert.Error(t, err)
}

func TestUserRepositoryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	repo := NewUserRepository(store)
	ctx := context.Background()

	user, err := domain.NewUser("u-1", "analyst", domain.RoleAnalyst)
	require.NoError(t, err)
	user.PasswordHash = "$2a$10$fake"
	require.NoError(t, repo.SaveUser(ctx, user))

	loaded, err := repo.GetByUsername(ctx, "analyst")
	require.NoError(t, err)
	assert.Equal(t, "u-1", loaded.ID)
	assert.Equal(t, domain.RoleAnalyst, loaded.Role)

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = repo.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
