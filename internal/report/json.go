// Package report persists annotation results: the raw JSON artifact for every
// successful file and, for flagged files, a tabular PDF report.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SirHooke/debias-batch-processor/internal/debias"
)

// WriteResult writes the verbatim response body to <base>.json under the
// output root and returns the written path. The write goes to a temp file in
// the same directory and is renamed into place, so readers of the output
// directory never observe a partial artifact.
func WriteResult(outputRoot, baseName string, res debias.Result) (string, error) {
	path := filepath.Join(outputRoot, baseName+".json")
	if err := writeFileAtomic(path, res.Raw); err != nil {
		return "", fmt.Errorf("write result artifact: %w", err)
	}
	return path, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
