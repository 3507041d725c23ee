package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

// MockLLM
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Complete(ctx context.Context, prompt, system string) (string, error) {
	args := m.Called(ctx, prompt, system)
	return args.String(0), args.Error(1)
}

// StoreStub satisfies the parts of the graph store the agent never calls.
type StoreStub struct{}

func (StoreStub) MergeDomain(context.Context, string, domain.DiscoverySource) (*domain.Domain, error) {
	return nil, nil
}
func (StoreStub) MergeSubdomain(context.Context, string, string) (*domain.Subdomain, error) {
	return nil, nil
}
func (StoreStub) MergeWebService(context.Context, domain.WebService) (*domain.WebService, error) {
	return nil, nil
}
func (StoreStub) UpdateRiskScore(context.Context, string, int, string) (bool, error) {
	return false, nil
}
func (StoreStub) GetDomains(context.Context) ([]domain.Domain, error)            { return nil, nil }
func (StoreStub) GetSubdomains(context.Context, string) ([]domain.Subdomain, error) { return nil, nil }
func (StoreStub) GetServicesByRisk(context.Context, int, int) ([]domain.WebService, error) {
	return nil, nil
}
func (StoreStub) GetUnscoredServices(context.Context) ([]domain.WebService, error) { return nil, nil }
func (StoreStub) Stats(context.Context) (domain.GraphStats, error)                 { return domain.GraphStats{}, nil }
func (StoreStub) Close() error                                                     { return nil }

// MockStore implements only Search; the agent never touches the rest.
type MockStore struct {
	mock.Mock
	StoreStub
}

func (m *MockStore) Search(ctx context.Context, q domain.GraphQuery) ([]map[string]interface{}, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]map[string]interface{}), args.Error(1)
}

// MockHistory
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) SaveRun(ctx context.Context, run domain.ScanRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockHistory) ListRuns(ctx context.Context, limit int) ([]domain.ScanRun, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.ScanRun), args.Error(1)
}

func (m *MockHistory) LogQuery(ctx context.Context, entry domain.QueryLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistory) ListQueries(ctx context.Context, limit int) ([]domain.QueryLogEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.QueryLogEntry), args.Error(1)
}

func TestAskHappyPath(t *testing.T) {
	llm := new(MockLLM)
	store := new(MockStore)
	history := new(MockHistory)
	qa := NewQueryAgent(llm, store, history)

	rows := []map[string]interface{}{
		{"url": "https://staging.acme.com", "risk_score": 90},
	}

	// First call generates the query, second summarizes the rows.
	llm.On("Complete", mock.Anything, "what is my riskiest service?", querySystemPrompt).
		Return("```json\n{\"label\":\"service\",\"order_by_risk\":true,\"limit\":5}\n```", nil).Once()
	llm.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return len(p) > 0
	}), summarySystemPrompt).
		Return("Your riskiest service is https://staging.acme.com with a score of 90.", nil).Once()

	store.On("Search", mock.Anything, mock.MatchedBy(func(q domain.GraphQuery) bool {
		return q.Label == domain.GroupService && q.OrderByRisk && q.Limit == 5
	})).Return(rows, nil)

	history.On("LogQuery", mock.Anything, mock.MatchedBy(func(e domain.QueryLogEntry) bool {
		return e.Success && e.Rows == 1
	})).Return(nil)

	answer := qa.Ask(context.Background(), "what is my riskiest service?")

	assert.True(t, answer.Success)
	assert.Equal(t, rows, answer.Rows)
	assert.Contains(t, answer.Summary, "staging.acme.com")
	llm.AssertExpectations(t)
	store.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	llm := new(MockLLM)
	store := new(MockStore)
	qa := NewQueryAgent(llm, store, nil)

	answer := qa.Ask(context.Background(), "   ")

	assert.False(t, answer.Success)
	assert.NotEmpty(t, answer.Error)
	llm.AssertNotCalled(t, "Complete")
}

func TestAskInvalidModelReply(t *testing.T) {
	llm := new(MockLLM)
	store := new(MockStore)
	qa := NewQueryAgent(llm, store, nil)

	llm.On("Complete", mock.Anything, mock.Anything, querySystemPrompt).
		Return("I cannot answer that, sorry!", nil)

	answer := qa.Ask(context.Background(), "drop all nodes")

	assert.False(t, answer.Success)
	assert.Contains(t, answer.Error, "could not translate")
	store.AssertNotCalled(t, "Search")
}

func TestAskRejectsUnknownLabel(t *testing.T) {
	llm := new(MockLLM)
	store := new(MockStore)
	qa := NewQueryAgent(llm, store, nil)

	llm.On("Complete", mock.Anything, mock.Anything, querySystemPrompt).
		Return(`{"label":"exploit"}`, nil)

	answer := qa.Ask(context.Background(), "hack everything")

	assert.False(t, answer.Success)
	store.AssertNotCalled(t, "Search")
}

func TestAskSummaryFallbackOnLLMError(t *testing.T) {
	llm := new(MockLLM)
	store := new(MockStore)
	qa := NewQueryAgent(llm, store, nil)

	rows := []map[string]interface{}{{"url": "a"}, {"url": "b"}}
	llm.On("Complete", mock.Anything, mock.Anything, querySystemPrompt).
		Return(`{"label":"service"}`, nil).Once()
	llm.On("Complete", mock.Anything, mock.Anything, summarySystemPrompt).
		Return("", errors.New("model offline")).Once()
	store.On("Search", mock.Anything, mock.Anything).Return(rows, nil)

	answer := qa.Ask(context.Background(), "list services")

	assert.True(t, answer.Success)
	assert.Equal(t, "Found 2 matching assets.", answer.Summary)
}

func TestAskEmptyRows(t *testing.T) {
	llm := new(MockLLM)
	store := new(MockStore)
	qa := NewQueryAgent(llm, store, nil)

	llm.On("Complete", mock.Anything, mock.Anything, querySystemPrompt).
		Return(`{"label":"service","server_contains":"tomcat"}`, nil).Once()
	store.On("Search", mock.Anything, mock.Anything).Return([]map[string]interface{}{}, nil)

	answer := qa.Ask(context.Background(), "any tomcat servers?")

	assert.True(t, answer.Success)
	assert.Empty(t, answer.Rows)
	assert.Equal(t, "No matching assets were found in the graph.", answer.Summary)
	// No second model call for empty result sets.
	llm.AssertNumberOfCalls(t, "Complete", 1)
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  string
	}{
		{"bare object", `{"label":"service"}`, `{"label":"service"}`},
		{"fenced", "```json\n{\"label\":\"service\"}\n```", `{"label":"service"}`},
		{"fenced no lang", "```\n{\"label\":\"domain\"}\n```", `{"label":"domain"}`},
		{"prose around", `Sure! Here you go: {"label":"service","count":true} Hope that helps.`, `{"label":"service","count":true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractJSON(tc.reply))
		})
	}
}

func TestValidateQueryDefaultsAndCaps(t *testing.T) {
	q := domain.GraphQuery{}
	require.NoError(t, validateQuery(&q))
	assert.Equal(t, domain.GroupService, q.Label)
	assert.Equal(t, maxResultRows, q.Limit)

	q = domain.GraphQuery{Label: domain.GroupService, Limit: 10000}
	require.NoError(t, validateQuery(&q))
	assert.Equal(t, maxResultRows, q.Limit)

	bad := 150
	q = domain.GraphQuery{Label: domain.GroupService, MinScore: &bad}
	assert.Error(t, validateQuery(&q))
}
