package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
	"github.com/exposuregraph/exposuregraph/internal/core/ports"
)

const (
	maxQuestionLength = 500
	maxResultRows     = 50
	maxSummaryRows    = 20
)

// Models love wrapping JSON in markdown fences.
var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

const querySystemPrompt = `You translate questions about an attack-surface graph into a JSON query.

The graph has three node labels:
- "domain": root domains. Fields: name, source.
- "subdomain": discovered hostnames. Fields: fqdn, parent_domain.
- "service": live web services. Fields: url, subdomain, status_code, server, title, technologies, risk_score (0-100, higher is worse).

Reply with ONLY a JSON object, no prose. Allowed keys:
  "label"           one of "domain", "subdomain", "service" (required)
  "url_contains"    substring filter on service URL or subdomain fqdn
  "server_contains" substring filter on the Server header
  "title_contains"  substring filter on the page title
  "domain"          restrict to assets under this root domain
  "min_score"       minimum risk score (integer)
  "max_score"       maximum risk score (integer)
  "order_by_risk"   true to sort riskiest first
  "count"           true to return only a count
  "limit"           maximum rows (integer)

Examples:
Q: what are my riskiest services?
{"label":"service","order_by_risk":true,"limit":10}
Q: how many subdomains does acme-corp.com have?
{"label":"subdomain","domain":"acme-corp.com","count":true}
Q: show services running Apache
{"label":"service","server_contains":"apache"}
Q: anything scored above 80?
{"label":"service","min_score":80,"order_by_risk":true}`

const summarySystemPrompt = `You are a security analyst. Given a question about an organization's attack surface and the raw query rows that answer it, write a short plain-English summary (2-3 sentences). Mention concrete URLs and risk scores where relevant. Do not invent data that is not in the rows.`

// QueryAgent answers natural-language questions about the exposure graph.
// The language model only ever produces a restricted query shape; the
// agent validates it and the store executes it read-only.
type QueryAgent struct {
	llm     ports.LLMClient
	store   ports.GraphStore
	history ports.ScanHistory
}

func NewQueryAgent(llm ports.LLMClient, store ports.GraphStore, history ports.ScanHistory) *QueryAgent {
	return &QueryAgent{llm: llm, store: store, history: history}
}

// Ask runs the full question -> query -> rows -> summary loop. Failures
// are reported inside the answer rather than as a transport error, so
// callers can always render something.
func (a *QueryAgent) Ask(ctx context.Context, question string) domain.AgentAnswer {
	answer := domain.AgentAnswer{Question: question, Rows: []map[string]interface{}{}}

	question = strings.TrimSpace(question)
	if question == "" {
		answer.Error = "question cannot be empty"
		return a.logged(ctx, answer)
	}
	if len(question) > maxQuestionLength {
		answer.Error = fmt.Sprintf("question too long (max %d characters)", maxQuestionLength)
		return a.logged(ctx, answer)
	}

	query, raw, err := a.generateQuery(ctx, question)
	if err != nil {
		slog.Warn("query generation failed", "question", question, "error", err)
		answer.Error = fmt.Sprintf("could not translate question: %v", err)
		return a.logged(ctx, answer)
	}
	answer.Query = raw

	rows, err := a.store.Search(ctx, query)
	if err != nil {
		slog.Warn("graph search failed", "query", raw, "error", err)
		answer.Error = fmt.Sprintf("query execution failed: %v", err)
		return a.logged(ctx, answer)
	}
	if rows == nil {
		rows = []map[string]interface{}{}
	}
	answer.Rows = rows
	answer.Success = true
	answer.Summary = a.summarize(ctx, question, rows)
	return a.logged(ctx, answer)
}

// generateQuery asks the model for the query JSON and validates it.
func (a *QueryAgent) generateQuery(ctx context.Context, question string) (domain.GraphQuery, string, error) {
	reply, err := a.llm.Complete(ctx, question, querySystemPrompt)
	if err != nil {
		return domain.GraphQuery{}, "", fmt.Errorf("language model unavailable: %w", err)
	}

	cleaned := extractJSON(reply)
	var query domain.GraphQuery
	if err := json.Unmarshal([]byte(cleaned), &query); err != nil {
		return domain.GraphQuery{}, "", fmt.Errorf("model produced invalid query: %w", err)
	}
	if err := validateQuery(&query); err != nil {
		return domain.GraphQuery{}, "", err
	}
	return query, cleaned, nil
}

// summarize asks the model to phrase the rows as prose. A plain count is
// used as fallback when the model call fails.
func (a *QueryAgent) summarize(ctx context.Context, question string, rows []map[string]interface{}) string {
	if len(rows) == 0 {
		return "No matching assets were found in the graph."
	}

	shown := rows
	if len(shown) > maxSummaryRows {
		shown = shown[:maxSummaryRows]
	}
	encoded, err := json.Marshal(shown)
	if err != nil {
		return fmt.Sprintf("Found %d matching assets.", len(rows))
	}

	prompt := fmt.Sprintf("Question: %s\nRows: %s", question, encoded)
	summary, err := a.llm.Complete(ctx, prompt, summarySystemPrompt)
	if err != nil {
		slog.Debug("summary generation failed, falling back to count", "error", err)
		return fmt.Sprintf("Found %d matching assets.", len(rows))
	}
	return strings.TrimSpace(summary)
}

func (a *QueryAgent) logged(ctx context.Context, answer domain.AgentAnswer) domain.AgentAnswer {
	if a.history == nil {
		return answer
	}
	entry := domain.QueryLogEntry{
		Question: answer.Question,
		Query:    answer.Query,
		Rows:     len(answer.Rows),
		Success:  answer.Success,
	}
	if err := a.history.LogQuery(ctx, entry); err != nil {
		slog.Warn("failed to record query log entry", "error", err)
	}
	return answer
}

// extractJSON strips markdown code fences and surrounding chatter,
// keeping the first JSON object found.
func extractJSON(reply string) string {
	reply = strings.TrimSpace(reply)
	if m := codeFencePattern.FindStringSubmatch(reply); len(m) == 2 {
		reply = strings.TrimSpace(m[1])
	}
	// Trim any prose before/after the object.
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start >= 0 && end > start {
		reply = reply[start : end+1]
	}
	return reply
}

func validateQuery(q *domain.GraphQuery) error {
	switch q.Label {
	case domain.GroupDomain, domain.GroupSubdomain, domain.GroupService:
	case "":
		q.Label = domain.GroupService
	default:
		return fmt.Errorf("unknown label %q", q.Label)
	}
	if q.MinScore != nil && (*q.MinScore < 0 || *q.MinScore > 100) {
		return fmt.Errorf("min_score %d out of range", *q.MinScore)
	}
	if q.MaxScore != nil && (*q.MaxScore < 0 || *q.MaxScore > 100) {
		return fmt.Errorf("max_score %d out of range", *q.MaxScore)
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if q.Limit == 0 || q.Limit > maxResultRows {
		q.Limit = maxResultRows
	}
	return nil
}
