package domain

// GraphQuery is the restricted, read-only query shape the query agent asks
// the language model to produce. The store executes it against the graph;
// by construction there is no way to express a mutation.
type GraphQuery struct {
	Label          GraphGroup `json:"label"`
	URLContains    string     `json:"url_contains,omitempty"`
	ServerContains string     `json:"server_contains,omitempty"`
	TitleContains  string     `json:"title_contains,omitempty"`
	DomainName     string     `json:"domain,omitempty"`
	MinScore       *int       `json:"min_score,omitempty"`
	MaxScore       *int       `json:"max_score,omitempty"`
	OrderByRisk    bool       `json:"order_by_risk,omitempty"`
	Count          bool       `json:"count,omitempty"`
	Limit          int        `json:"limit,omitempty"`
}

// AgentAnswer is the result of one natural-language query over the graph:
// the generated query, the raw rows it produced, and a summary for display.
type AgentAnswer struct {
	Question string                   `json:"question"`
	Query    string                   `json:"query"`
	Rows     []map[string]interface{} `json:"rows"`
	Summary  string                   `json:"summary"`
	Success  bool                     `json:"success"`
	Error    string                   `json:"error,omitempty"`
}
