// Package report analyzes dwell state logs after an exhibition run:
// per-zone statistics, an interactive HTML activity chart and a static
// PNG plot for print material.
package report

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/lumenwerk/panomask/internal/dwell"
	"github.com/lumenwerk/panomask/internal/fsutil"
	"github.com/lumenwerk/panomask/internal/monitoring"
)

// LoadStateLog reads a state log into the sequence of counter vectors it
// records. Malformed lines are skipped with a warning so a truncated log
// from a crashed run still yields a report.
func LoadStateLog(fs fsutil.FileSystem, path string) ([][]uint32, error) {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state log %s: %w", path, err)
	}

	var vectors [][]uint32
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		counters, err := dwell.ParseCounters(line)
		if err != nil {
			monitoring.Logf("report: skipping %v", err)
			continue
		}
		vectors = append(vectors, counters)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read state log %s: %w", path, err)
	}

	return vectors, nil
}
