package report_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/SirHooke/debias-batch-processor/internal/debias"
	"github.com/SirHooke/debias-batch-processor/internal/report"
)

func taggedResult() debias.Result {
	return debias.Result{
		Entries: []debias.Entry{
			{
				Literal: "101,The man was aggressive",
				Tags: []debias.Tag{
					{Literal: "aggressive", Issue: "contentious adjective", Source: "vocab-a"},
					{Literal: "man", Issue: "gendered term", Source: "vocab-b"},
				},
			},
			{Literal: "102,She was calm", Tags: nil},
			{
				Literal: "103,A primitive tool",
				Tags: []debias.Tag{
					{Literal: "primitive", Issue: "outdated descriptor", Source: "vocab-a"},
				},
			},
		},
		Raw: []byte(`{"results":[]}`),
	}
}

func TestRows_OnePerEntryTagPair(t *testing.T) {
	t.Parallel()

	rows := report.Rows(taggedResult())
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (sum of tag counts), got %d", len(rows))
	}

	// Entry order, then tag order within each entry; record number and
	// literal repeat on every row of an entry.
	if rows[0].RecordNum != "101" || rows[0].Literal != "The man was aggressive" || rows[0].Tag.Literal != "aggressive" {
		t.Fatalf("unexpected row 0: %#v", rows[0])
	}
	if rows[1].RecordNum != "101" || rows[1].Literal != "The man was aggressive" || rows[1].Tag.Literal != "man" {
		t.Fatalf("unexpected row 1: %#v", rows[1])
	}
	if rows[2].RecordNum != "103" || rows[2].Tag.Literal != "primitive" {
		t.Fatalf("unexpected row 2: %#v", rows[2])
	}
}

func TestRows_LineWithoutComma(t *testing.T) {
	t.Parallel()

	rows := report.Rows(debias.Result{Entries: []debias.Entry{
		{Literal: "no delimiter here", Tags: []debias.Tag{{Literal: "x"}}},
	}})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].RecordNum != "no delimiter here" || rows[0].Literal != "" {
		t.Fatalf("unexpected split: %#v", rows[0])
	}
}

func TestBuildReport_NoTagsNoPDF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	res := debias.Result{Entries: []debias.Entry{
		{Literal: "101,clean", Tags: nil},
		{Literal: "102,also clean", Tags: []debias.Tag{}},
	}}

	path, built, err := report.BuildReport(dir, "batch_001", res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built || path != "" {
		t.Fatalf("expected no report, got built=%t path=%q", built, path)
	}
	if _, err := os.Stat(filepath.Join(dir, "batch_001.pdf")); !os.IsNotExist(err) {
		t.Fatalf("expected no pdf on disk, stat err=%v", err)
	}
}

func TestBuildReport_WritesPDF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, built, err := report.BuildReport(dir, "batch_001", taggedResult())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !built {
		t.Fatal("expected a report to be produced")
	}
	if path != filepath.Join(dir, "batch_001.pdf") {
		t.Fatalf("unexpected path: %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output does not look like a PDF: %q", data[:min(len(data), 8)])
	}
}

func TestBuildReport_Deterministic(t *testing.T) {
	t.Parallel()

	dirA := t.TempDir()
	dirB := t.TempDir()
	res := taggedResult()

	pathA, _, err := report.BuildReport(dirA, "batch_001", res)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	pathB, _, err := report.BuildReport(dirB, "batch_001", res)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}

	a, _ := os.ReadFile(pathA)
	b, _ := os.ReadFile(pathB)
	if !bytes.Equal(a, b) {
		t.Fatal("identical input must render byte-identical reports")
	}
}

func TestBuildReport_UnwritablePath(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "does", "not", "exist")
	_, _, err := report.BuildReport(dir, "batch_001", taggedResult())
	if err == nil {
		t.Fatal("expected an error for an unwritable output root")
	}
}

func TestWriteResult_VerbatimAndOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := []byte(`{"results":[{"literal":"x","tags":[],"extra":{"k":1}}]}`)

	path, err := report.WriteResult(dir, "batch_001", debias.Result{Raw: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != filepath.Join(dir, "batch_001.json") {
		t.Fatalf("unexpected path: %q", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatalf("artifact not verbatim:\n got: %s\nwant: %s", got, raw)
	}

	// Re-running with the same response overwrites in place.
	if _, err := report.WriteResult(dir, "batch_001", debias.Result{Raw: raw}); err != nil {
		t.Fatalf("second write: %v", err)
	}
	again, _ := os.ReadFile(path)
	if !bytes.Equal(again, raw) {
		t.Fatal("overwrite must leave identical content")
	}

	// The temp file must not linger.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the artifact in the output dir, got %d entries", len(entries))
	}
}
