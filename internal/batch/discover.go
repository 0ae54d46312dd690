package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/SirHooke/debias-batch-processor/internal/debias"
)

// FileJob is one discovered input file. Jobs are consumed once per run and
// carry no identity beyond it.
type FileJob struct {
	SourcePath string
	Language   string
	BaseName   string
}

// DiscoverJobs walks the supported language subfolders of the input root and
// returns one job per regular file, ordered by language folder and then file
// name (both lexicographic). Folders with unsupported names and empty or
// missing language folders contribute nothing, and an unreadable language
// folder is warned about and skipped. An unreadable input root is the only
// error: it is fatal to the run.
func DiscoverJobs(inputRoot string, logger *slog.Logger) ([]FileJob, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("read input root: %w", err)
	}

	var jobs []FileJob
	// os.ReadDir returns entries sorted by name, which gives the stable
	// language-then-file discovery order.
	for _, entry := range entries {
		if !entry.IsDir() || !debias.IsSupportedLanguage(entry.Name()) {
			continue
		}
		lang := entry.Name()
		files, err := os.ReadDir(filepath.Join(inputRoot, lang))
		if err != nil {
			logger.Warn("discover.folder_unreadable", "language", lang, "error", err)
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			name := f.Name()
			jobs = append(jobs, FileJob{
				SourcePath: filepath.Join(inputRoot, lang, name),
				Language:   lang,
				BaseName:   strings.TrimSuffix(name, filepath.Ext(name)),
			})
		}
	}
	return jobs, nil
}
