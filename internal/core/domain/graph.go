package domain

import "time"

// GraphGroup defines the category of a node in the exposure graph projection.
type GraphGroup string

const (
	GroupDomain    GraphGroup = "domain"
	GroupSubdomain GraphGroup = "subdomain"
	GroupService   GraphGroup = "service"
)

// EdgeType defines the relation between two graph nodes.
type EdgeType string

const (
	TypeHasSubdomain EdgeType = "has_subdomain"
	TypeHosts        EdgeType = "hosts"
)

// GraphNode is one node of the dashboard graph projection.
type GraphNode struct {
	ID           string     `json:"id"`
	Label        string     `json:"label"`
	Group        GraphGroup `json:"group"`
	RiskScore    *int       `json:"risk_score,omitempty"`
	RiskLevel    string     `json:"risk_level,omitempty"`
	StatusCode   int        `json:"status_code,omitempty"`
	Server       string     `json:"server,omitempty"`
	Title        string     `json:"title,omitempty"` // Tooltip content
	DiscoveredAt time.Time  `json:"discovered_at,omitempty"`
}

// GraphEdge links two nodes by ID.
type GraphEdge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Type EdgeType `json:"type,omitempty"`
}

// GraphData allows sending the whole graph state to the frontend.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
