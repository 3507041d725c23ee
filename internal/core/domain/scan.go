package domain

import (
	"errors"
	"time"
)

// ScanStatus tracks the lifecycle of one reconnaissance run.
type ScanStatus string

const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

var ErrMissingTarget = errors.New("scan run requires a target domain")

// ScanRun records one end-to-end pipeline execution against a target.
type ScanRun struct {
	ID            string     `json:"id"`
	Target        string     `json:"target"`
	Status        ScanStatus `json:"status"`
	Subdomains    int        `json:"subdomains"`
	Services      int        `json:"services"`
	HighestScore  int        `json:"highest_score"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    time.Time  `json:"finished_at"`
}

// NewScanRun is the designated factory for scan runs.
func NewScanRun(id, target string) (*ScanRun, error) {
	if target == "" {
		return nil, ErrMissingTarget
	}
	return &ScanRun{
		ID:        id,
		Target:    target,
		Status:    ScanStatusRunning,
		StartedAt: time.Now().UTC(),
	}, nil
}

// Complete marks the run finished with its result counts.
func (r *ScanRun) Complete(subdomains, services, highest int) {
	r.Status = ScanStatusCompleted
	r.Subdomains = subdomains
	r.Services = services
	r.HighestScore = highest
	r.FinishedAt = time.Now().UTC()
}

// Fail marks the run failed with a reason.
func (r *ScanRun) Fail(err error) {
	r.Status = ScanStatusFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.FinishedAt = time.Now().UTC()
}

// QueryLogEntry records one natural-language question asked of the graph.
type QueryLogEntry struct {
	ID        uint      `json:"id"`
	Question  string    `json:"question"`
	Query     string    `json:"query"`
	Rows      int       `json:"rows"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}
