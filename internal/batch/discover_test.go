package batch_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SirHooke/debias-batch-processor/internal/batch"
)

func seedInput(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func TestDiscoverJobs_OrderAndFiltering(t *testing.T) {
	t.Parallel()

	root := seedInput(t, map[string]string{
		"nl/b.csv":      "x",
		"nl/a.csv":      "x",
		"en/batch.csv":  "x",
		"xx/ignore.csv": "x", // unsupported code: contributes nothing
		"de/empty.csv":  "",
	})
	// An empty supported folder is silently skipped.
	if err := os.MkdirAll(filepath.Join(root, "fr"), 0o755); err != nil {
		t.Fatal(err)
	}
	// A stray file at the root is not a language folder.
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	jobs, err := batch.DiscoverJobs(root, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct{ lang, base string }{
		{"de", "empty"},
		{"en", "batch"},
		{"nl", "a"},
		{"nl", "b"},
	}
	if len(jobs) != len(want) {
		t.Fatalf("expected %d jobs, got %d: %#v", len(want), len(jobs), jobs)
	}
	for i, w := range want {
		if jobs[i].Language != w.lang || jobs[i].BaseName != w.base {
			t.Fatalf("job %d: got %s/%s, want %s/%s", i, jobs[i].Language, jobs[i].BaseName, w.lang, w.base)
		}
	}
}

func TestDiscoverJobs_MissingRoot(t *testing.T) {
	t.Parallel()

	if _, err := batch.DiscoverJobs(filepath.Join(t.TempDir(), "absent"), nil); err == nil {
		t.Fatal("expected an error for a missing input root")
	}
}

func TestDiscoverJobs_UnreadableFolderIsSkipped(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	root := seedInput(t, map[string]string{
		"de/locked.csv": "x",
		"en/open.csv":   "x",
	})
	locked := filepath.Join(root, "de")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Chmod(locked, 0o755)
	})

	jobs, err := batch.DiscoverJobs(root, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Language != "en" || jobs[0].BaseName != "open" {
		t.Fatalf("expected only en/open, got %#v", jobs)
	}
}
