package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/exposuregraph/exposuregraph/internal/core/domain"
)

func TestSQLiteRepository(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()

	t.Run("SaveAndListRuns", func(t *testing.T) {
		run, err := domain.NewScanRun("run-1", "acme-corp.com")
		if err != nil {
			t.Fatalf("NewScanRun failed: %v", err)
		}
		if err := repo.SaveRun(ctx, *run); err != nil {
			t.Errorf("SaveRun failed: %v", err)
		}

		// Completing the run updates the same row.
		run.Complete(12, 5, 85)
		if err := repo.SaveRun(ctx, *run); err != nil {
			t.Errorf("SaveRun update failed: %v", err)
		}

		runs, err := repo.ListRuns(ctx, 10)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("Expected 1 run, got %d", len(runs))
		}
		if runs[0].Status != domain.ScanStatusCompleted {
			t.Errorf("Status mismatch: got %s, want completed", runs[0].Status)
		}
		if runs[0].HighestScore != 85 {
			t.Errorf("HighestScore mismatch: got %d, want 85", runs[0].HighestScore)
		}
		if runs[0].FinishedAt.IsZero() {
			t.Error("FinishedAt not persisted")
		}
	})

	t.Run("FailedRunKeepsError", func(t *testing.T) {
		run, _ := domain.NewScanRun("run-2", "other.org")
		run.Fail(errors.New("subfinder not found"))
		if err := repo.SaveRun(ctx, *run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}

		runs, err := repo.ListRuns(ctx, 10)
		if err != nil {
			t.Fatalf("ListRuns failed: %v", err)
		}
		if runs[0].ID != "run-2" {
			t.Errorf("Expected newest run first, got %s", runs[0].ID)
		}
		if runs[0].Error != "subfinder not found" {
			t.Errorf("Error mismatch: got %q", runs[0].Error)
		}
	})

	t.Run("QueryLog", func(t *testing.T) {
		entry := domain.QueryLogEntry{
			Question: "what are the riskiest services?",
			Query:    `{"label":"service","order_by_risk":true}`,
			Rows:     3,
			Success:  true,
		}
		if err := repo.LogQuery(ctx, entry); err != nil {
			t.Fatalf("LogQuery failed: %v", err)
		}

		entries, err := repo.ListQueries(ctx, 10)
		if err != nil {
			t.Fatalf("ListQueries failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("Expected 1 entry, got %d", len(entries))
		}
		if entries[0].Question != entry.Question {
			t.Errorf("Question mismatch: got %q", entries[0].Question)
		}
		if entries[0].ID == 0 {
			t.Error("Expected autoincrement ID")
		}
		if entries[0].Timestamp.IsZero() {
			t.Error("Timestamp not defaulted")
		}
	})
}
