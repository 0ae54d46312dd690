package analytics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SirHooke/debias-batch-processor/internal/debias"
)

// FileStats summarizes one result artifact.
type FileStats struct {
	File     string
	Language string
	Records  int
	Tagged   int
	Tags     int
}

// IssueCount is the number of findings for one flagged phrase in one language.
type IssueCount struct {
	Language string
	Literal  string
	Count    int
}

// Stats aggregates every result artifact under an output root.
type Stats struct {
	Files  []FileStats
	Issues []IssueCount
}

// ScanOutputs reads all *.json artifacts under the output root and aggregates
// per-file and per-language issue statistics. Artifacts that fail to parse
// are skipped; the scan is a read-only view over whatever the pipeline wrote.
func ScanOutputs(outputRoot string) (Stats, error) {
	paths, err := filepath.Glob(filepath.Join(outputRoot, "*.json"))
	if err != nil {
		return Stats{}, fmt.Errorf("scan output folder: %w", err)
	}
	sort.Strings(paths)

	var stats Stats
	issues := make(map[string]map[string]int)
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		res, err := debias.ParseResult(raw)
		if err != nil {
			continue
		}

		fs := FileStats{
			File:    filepath.Base(path),
			Records: len(res.Entries),
			Tags:    res.TagCount(),
		}
		for _, e := range res.Entries {
			if fs.Language == "" && e.Language != "" {
				fs.Language = e.Language
			}
			if len(e.Tags) > 0 {
				fs.Tagged++
			}
			for _, tag := range e.Tags {
				lang := e.Language
				if issues[lang] == nil {
					issues[lang] = make(map[string]int)
				}
				issues[lang][strings.ToLower(tag.Literal)]++
			}
		}
		stats.Files = append(stats.Files, fs)
	}

	langs := make([]string, 0, len(issues))
	for lang := range issues {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		literals := make([]string, 0, len(issues[lang]))
		for lit := range issues[lang] {
			literals = append(literals, lit)
		}
		sort.Strings(literals)
		for _, lit := range literals {
			stats.Issues = append(stats.Issues, IssueCount{Language: lang, Literal: lit, Count: issues[lang][lit]})
		}
	}
	return stats, nil
}
