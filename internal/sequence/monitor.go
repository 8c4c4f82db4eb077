// Package sequence glues the dwell tracker to the mask compositor: once
// per observation cycle it maps nonzero dwell counters onto sequence
// frame requests and triggers a composite, deduplicating unchanged
// counter vectors so redundant disk writes never happen.
package sequence

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/lumenwerk/panomask/internal/config"
	"github.com/lumenwerk/panomask/internal/mask"
)

// MaskProcessor is the compositing operation the monitor drives.
// *mask.Compositor implements it.
type MaskProcessor interface {
	ProcessAndSave(active map[uint8][]mask.SequenceRequest) (string, error)
}

// Monitor converts counter vectors into compositor input with change
// dedup. It exclusively owns the previous-vector state; nothing else
// reads or mutates it.
type Monitor struct {
	proc   MaskProcessor
	grays  []uint8
	logger *log.Logger

	prev []uint32
}

// NewMonitor creates a monitor for one panorama's layer set.
func NewMonitor(proc MaskProcessor, specs []config.LayerSpec, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.Default()
	}
	grays := make([]uint8, len(specs))
	for i, spec := range specs {
		grays[i] = spec.GrayValue
	}
	return &Monitor{proc: proc, grays: grays, logger: logger}
}

// ProcessState composites the state described by one counter snapshot.
// Empty, all-zero and unchanged vectors are no-ops. The returned path is
// empty when nothing was written. Compositor errors are logged and
// propagated; the caller decides whether the cycle is fatal.
func (m *Monitor) ProcessState(counters []uint32) (string, error) {
	if len(counters) == 0 || allZero(counters) || equal(counters, m.prev) {
		return "", nil
	}

	// Zone index doubles as sequence number, counter as frame position.
	var requests []mask.SequenceRequest
	for i, c := range counters {
		if c > 0 {
			requests = append(requests, mask.SequenceRequest{Seq: i, Frame: int(c)})
		}
	}

	// Every configured layer sees the same request list; the store
	// resolves which (gray, seq, frame) combinations actually exist.
	active := make(map[uint8][]mask.SequenceRequest, len(m.grays))
	for _, gray := range m.grays {
		active[gray] = requests
	}

	path, err := m.proc.ProcessAndSave(active)
	if err != nil {
		m.logger.Printf("sequence: compositing state %v failed: %v", counters, err)
		return "", fmt.Errorf("process state %v: %w", counters, err)
	}
	if path != "" {
		m.logger.Printf("sequence: generated %s", filepath.Base(path))
	}

	m.prev = append(m.prev[:0], counters...)
	return path, nil
}

// Reset forgets the previous vector, forcing the next nonzero state to
// composite. Called on scene switch alongside the tracker reset.
func (m *Monitor) Reset() {
	m.prev = nil
}

func allZero(counters []uint32) bool {
	for _, c := range counters {
		if c != 0 {
			return false
		}
	}
	return true
}

func equal(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
