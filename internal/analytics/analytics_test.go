package analytics_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SirHooke/debias-batch-processor/internal/analytics"
	"github.com/SirHooke/debias-batch-processor/internal/batch"
)

func TestStore_RecordsRunsAndOutcomes(t *testing.T) {
	t.Parallel()

	store, err := analytics.OpenStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	recorder := analytics.NewRecorder(store, "run-1", started)

	recorder(batch.Event{Kind: batch.EventFileStarted, Job: batch.FileJob{Language: "en", BaseName: "a"}})
	recorder(batch.Event{Kind: batch.EventFileSucceeded, Job: batch.FileJob{Language: "en", BaseName: "a"}, Report: true})
	recorder(batch.Event{Kind: batch.EventFileSkipped, Job: batch.FileJob{Language: "de", BaseName: "b"}})
	recorder(batch.Event{Kind: batch.EventRunCompleted, Summary: batch.Summary{Files: 2, Succeeded: 1, Reported: 1, Skipped: 1}})

	runs, err := store.Runs(context.Background())
	if err != nil {
		t.Fatalf("query runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.ID != "run-1" || !r.StartedAt.Equal(started) {
		t.Fatalf("unexpected run record: %#v", r)
	}
	if r.Summary != (batch.Summary{Files: 2, Succeeded: 1, Reported: 1, Skipped: 1}) {
		t.Fatalf("unexpected summary: %#v", r.Summary)
	}
}

func seedArtifact(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
}

func TestScanOutputs_AggregatesIssues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	seedArtifact(t, dir, "a.json", `{"results":[
		{"language":"en","literal":"101,x","tags":[{"literal":"Aggressive","issue":"i","source":"s"}]},
		{"language":"en","literal":"102,y","tags":[]}
	]}`)
	seedArtifact(t, dir, "b.json", `{"results":[
		{"language":"en","literal":"1,z","tags":[{"literal":"aggressive","issue":"i","source":"s"},{"literal":"primitive","issue":"i2","source":"s"}]}
	]}`)
	seedArtifact(t, dir, "broken.json", `{notjson`)

	stats, err := analytics.ScanOutputs(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats.Files) != 2 {
		t.Fatalf("expected 2 parsable artifacts, got %d", len(stats.Files))
	}

	a := stats.Files[0]
	if a.File != "a.json" || a.Language != "en" || a.Records != 2 || a.Tagged != 1 || a.Tags != 1 {
		t.Fatalf("unexpected stats for a.json: %#v", a)
	}

	// Case-insensitive phrase counting across files.
	want := []analytics.IssueCount{
		{Language: "en", Literal: "aggressive", Count: 2},
		{Language: "en", Literal: "primitive", Count: 1},
	}
	if len(stats.Issues) != len(want) {
		t.Fatalf("expected %d issue rows, got %#v", len(want), stats.Issues)
	}
	for i, w := range want {
		if stats.Issues[i] != w {
			t.Fatalf("issue %d: got %#v, want %#v", i, stats.Issues[i], w)
		}
	}
}

func TestExportXLSX_WritesWorkbook(t *testing.T) {
	t.Parallel()

	stats := analytics.Stats{
		Files:  []analytics.FileStats{{File: "a.json", Language: "en", Records: 2, Tagged: 1, Tags: 1}},
		Issues: []analytics.IssueCount{{Language: "en", Literal: "aggressive", Count: 2}},
	}
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	if err := analytics.ExportXLSX(stats, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("workbook missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("workbook is empty")
	}
}
