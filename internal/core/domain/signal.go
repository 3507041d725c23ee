package domain

import "errors"

var (
	ErrMissingURL        = errors.New("service signal requires a url")
	ErrMissingStatusCode = errors.New("service signal requires a status code")
)

// ServiceSignal holds the observable facts about one probed web service.
// It is the sole input to risk scoring and is never mutated by it.
// Title and Server are pointers so that "header absent" stays distinguishable
// from "header present but empty"; the scoring rules treat both as
// non-triggering, which callers must not rely on changing.
type ServiceSignal struct {
	URL          string   `json:"url"`
	StatusCode   int      `json:"status_code"`
	Title        *string  `json:"title,omitempty"`
	Server       *string  `json:"server,omitempty"`
	Technologies []string `json:"technologies"`
}

// NewServiceSignal builds a validated signal. Technologies is normalized to
// an empty slice so downstream code never sees nil.
func NewServiceSignal(url string, statusCode int, title, server *string, technologies []string) (ServiceSignal, error) {
	s := ServiceSignal{
		URL:          url,
		StatusCode:   statusCode,
		Title:        title,
		Server:       server,
		Technologies: technologies,
	}
	if s.Technologies == nil {
		s.Technologies = []string{}
	}
	if err := s.Validate(); err != nil {
		return ServiceSignal{}, err
	}
	return s, nil
}

// Validate enforces the construction-time invariants. Violations are
// rejected here, at the boundary, so the calculator stays total.
func (s ServiceSignal) Validate() error {
	if s.URL == "" {
		return ErrMissingURL
	}
	if s.StatusCode == 0 {
		return ErrMissingStatusCode
	}
	return nil
}

// RiskFactor is one independently-triggered, explainable contribution to a
// risk score. Field names are part of the persisted graph record format.
type RiskFactor struct {
	Name         string `json:"name"`
	Contribution int    `json:"contribution"`
	Explanation  string `json:"explanation"`
}

// RiskResult is a complete risk assessment for one service.
// Factors keeps rule evaluation order; it is never reordered or deduplicated.
type RiskResult struct {
	Score   int          `json:"score"`
	Factors []RiskFactor `json:"factors"`
}
