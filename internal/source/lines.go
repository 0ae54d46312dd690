// Package source reads batch input files into ordered records.
package source

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/SirHooke/debias-batch-processor/internal/debias"
)

// ReadRecords returns the non-empty lines of the file as records with dense
// 1-based indices. Whitespace-only lines are treated as empty and do not
// consume an index. A file with zero non-empty lines yields an empty slice,
// which is valid and not an error.
func ReadRecords(path string) ([]debias.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return readRecords(f)
}

func readRecords(r io.Reader) ([]debias.Record, error) {
	sc := bufio.NewScanner(r)
	// Input lines are free text; allow well beyond the default token size.
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []debias.Record
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, debias.Record{Index: len(records) + 1, Text: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input lines: %w", err)
	}
	return records, nil
}
