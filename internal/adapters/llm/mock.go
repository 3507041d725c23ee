package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// MockClient is a deterministic stand-in for Ollama so the query agent
// works in demos and tests without a model server. It recognizes a few
// question shapes by keyword and answers summary prompts with a canned
// sentence.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (m *MockClient) Complete(_ context.Context, prompt, system string) (string, error) {
	// Summary prompts carry the rows inline; anything else is a
	// query-generation prompt.
	if strings.Contains(prompt, "Rows:") {
		return "Mock summary: review the listed services, highest risk first.", nil
	}

	q := strings.ToLower(prompt)
	query := map[string]interface{}{"label": "service"}
	switch {
	case strings.Contains(q, "how many"):
		query["count"] = true
		if strings.Contains(q, "subdomain") {
			query["label"] = "subdomain"
		} else if strings.Contains(q, "domain") {
			query["label"] = "domain"
		}
	case strings.Contains(q, "risk") || strings.Contains(q, "danger") || strings.Contains(q, "expos"):
		query["order_by_risk"] = true
		query["limit"] = 10
	case strings.Contains(q, "apache"):
		query["server_contains"] = "apache"
	case strings.Contains(q, "nginx"):
		query["server_contains"] = "nginx"
	case strings.Contains(q, "staging"):
		query["url_contains"] = "staging"
	default:
		query["limit"] = 10
	}

	out, _ := json.Marshal(query)
	return string(out), nil
}
