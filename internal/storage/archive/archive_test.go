// internal/storage/archive/archive_test.go
package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tkaraxa/sibyl/internal/core"
	"github.com/tkaraxa/sibyl/internal/storage/report"
)

func sampleReport() report.Report {
	return report.Report{
		ID:        "7c9f0c0e-1b3a-4a9d-9a75-0d6f3f1a2b3c",
		CreatedAt: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Analysis: core.Analysis{
			Asset: "bitcoin",
			Days:  30,
			Recommendation: core.Recommendation{
				Action:     core.ActionBuy,
				Confidence: 80,
			},
		},
	}
}

func TestArchiver_RoundTrip(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	a := NewArchiver(fs, nil)
	ctx := context.Background()

	r := sampleReport()
	if err := a.Archive(ctx, r); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	paths, err := a.ListDay(ctx, "bitcoin", "2026-08-23")
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 archived report, got %d", len(paths))
	}
	if !strings.HasSuffix(paths[0], r.ID+".json") {
		t.Errorf("path = %s, want ID-based filename", paths[0])
	}

	loaded, err := a.Load(ctx, paths[0])
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != r.ID {
		t.Errorf("ID = %s, want %s", loaded.ID, r.ID)
	}
	if loaded.Analysis.Recommendation.Action != core.ActionBuy {
		t.Errorf("action = %s, want BUY", loaded.Analysis.Recommendation.Action)
	}
}

func TestArchiver_ListDayEmpty(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	a := NewArchiver(fs, nil)

	paths, err := a.ListDay(context.Background(), "bitcoin", "2026-01-01")
	if err != nil {
		t.Fatalf("ListDay: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected no paths, got %v", paths)
	}
}
