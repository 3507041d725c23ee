package mock

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exposuregraph/exposuregraph/internal/adapters/storage"
	"github.com/exposuregraph/exposuregraph/internal/core/services/scoring"
)

func newTestStore(t *testing.T) *storage.SQLiteGraphStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	store, err := storage.NewSQLiteGraphStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSeederPopulatesAndScoresGraph(t *testing.T) {
	store := newTestStore(t)
	seeder := NewSeeder(store, scoring.NewRiskCalculator())
	ctx := context.Background()

	require.NoError(t, seeder.Seed(ctx))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Domains)
	assert.Equal(t, 20, stats.Subdomains)
	assert.Equal(t, 20, stats.WebServices)

	// Every demo service must carry a score; the mix must span risk bands.
	scored, err := store.GetServicesByRisk(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, scored, 20)

	unscored, err := store.GetUnscoredServices(ctx)
	require.NoError(t, err)
	assert.Empty(t, unscored)

	var sawHigh, sawLow bool
	for _, svc := range scored {
		require.NotNil(t, svc.RiskScore)
		if *svc.RiskScore >= 60 {
			sawHigh = true
		}
		if *svc.RiskScore < 40 {
			sawLow = true
		}
	}
	assert.True(t, sawHigh, "expected at least one high-risk demo service")
	assert.True(t, sawLow, "expected at least one low-risk demo service")
}

func TestSeederIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	seeder := NewSeeder(store, scoring.NewRiskCalculator())
	ctx := context.Background()

	require.NoError(t, seeder.Seed(ctx))
	require.NoError(t, seeder.Seed(ctx))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Domains)
	assert.Equal(t, 20, stats.WebServices)
}

func TestMockCollectorAndProberAgree(t *testing.T) {
	ctx := context.Background()

	hosts, err := NewCollector().Discover(ctx, "Acme-Corp.com")
	require.NoError(t, err)
	require.Len(t, hosts, 10)
	assert.Equal(t, "www.acme-corp.com", hosts[0])

	services, err := NewProber().Probe(ctx, hosts)
	require.NoError(t, err)
	assert.Len(t, services, 10)

	for _, svc := range services {
		assert.NotEmpty(t, svc.URL)
		assert.NotZero(t, svc.StatusCode)
		assert.NotNil(t, svc.Technologies)
	}
}
