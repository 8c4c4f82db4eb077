package dwell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lumenwerk/panomask/internal/fsutil"
)

// StateLogger appends dwell counter vectors to a durable sink, one line
// per distinct vector. Content-based dedup bounds log volume to the number
// of actual state changes regardless of update frequency.
type StateLogger struct {
	fs   fsutil.FileSystem
	path string
	last string
}

// NewStateLogger creates (or truncates) the state log file. A fresh file
// per run keeps downstream consumers from replaying a previous session.
func NewStateLogger(fs fsutil.FileSystem, path string) (*StateLogger, error) {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	w, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("initialize state log %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("initialize state log %s: %w", path, err)
	}
	return &StateLogger{fs: fs, path: path}, nil
}

// Log appends the counter vector if it differs from the last emitted one.
func (l *StateLogger) Log(counters []uint32) error {
	line := FormatCounters(counters)
	if line == l.last {
		return nil
	}

	w, err := l.fs.Append(l.path)
	if err != nil {
		return fmt.Errorf("open state log %s: %w", l.path, err)
	}
	_, werr := io.WriteString(w, line+"\n")
	cerr := w.Close()
	if werr != nil {
		return fmt.Errorf("append state log %s: %w", l.path, werr)
	}
	if cerr != nil {
		return fmt.Errorf("close state log %s: %w", l.path, cerr)
	}

	l.last = line
	return nil
}

// Path returns the location of the state log file.
func (l *StateLogger) Path() string {
	return l.path
}

// FormatCounters renders a counter vector as a single log line, e.g.
// "[0 3 0 12]".
func FormatCounters(counters []uint32) string {
	return fmt.Sprint(counters)
}

// ParseCounters is the inverse of FormatCounters. It rejects lines that
// are not a bracketed space-separated vector of non-negative integers.
func ParseCounters(line string) ([]uint32, error) {
	line = strings.TrimSpace(line)
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return nil, fmt.Errorf("malformed counter line %q", line)
	}
	body := strings.TrimSpace(line[1 : len(line)-1])
	if body == "" {
		return []uint32{}, nil
	}

	fields := strings.Fields(body)
	counters := make([]uint32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed counter line %q: %w", line, err)
		}
		counters[i] = uint32(v)
	}
	return counters, nil
}
