package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SirHooke/debias-batch-processor/internal/debias"
	"github.com/SirHooke/debias-batch-processor/internal/source"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestReadRecords_SkipsEmptyLines(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "101,first\n\n   \n102,second\n\t\n103,third\n")
	records, err := source.ReadRecords(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []debias.Record{
		{Index: 1, Text: "101,first"},
		{Index: 2, Text: "102,second"},
		{Index: 3, Text: "103,third"},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, r := range records {
		if r != want[i] {
			t.Fatalf("record %d: got %#v, want %#v", i, r, want[i])
		}
	}
}

func TestReadRecords_WhitespaceOnlyFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "\n  \n\t\n")
	records, err := source.ReadRecords(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestReadRecords_EmptyFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "")
	records, err := source.ReadRecords(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestReadRecords_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := source.ReadRecords(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
