package sensor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// replayRecord is the JSON-lines wire format of a recorded depth session:
// one object per frame.
type replayRecord struct {
	Distances []float64 `json:"distances"`
	OffsetMs  int64     `json:"offset_ms,omitempty"`
}

// ReplaySource replays a recorded depth session from a JSON-lines file.
// With pacing enabled it sleeps out the recorded inter-frame offsets so a
// replayed session drives the pipeline at its original cadence.
type ReplaySource struct {
	f       *os.File
	scanner *bufio.Scanner
	paced   bool

	started    time.Time
	lastOffset int64
}

// NewReplaySource opens a recording for replay.
func NewReplaySource(path string, paced bool) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	return &ReplaySource{f: f, scanner: scanner, paced: paced}, nil
}

// Next returns the next recorded frame. Malformed lines are skipped.
// Returns io.EOF once the recording is exhausted.
func (r *ReplaySource) Next(ctx context.Context) (Frame, error) {
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec replayRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // malformed line, keep replaying
		}

		if r.paced {
			if err := r.pace(ctx, rec.OffsetMs); err != nil {
				return Frame{}, err
			}
		}

		return Frame{Distances: rec.Distances, At: time.Now()}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("read replay file: %w", err)
	}
	return Frame{}, io.EOF
}

// pace sleeps until the recorded offset of the next frame is due.
func (r *ReplaySource) pace(ctx context.Context, offsetMs int64) error {
	if r.started.IsZero() {
		r.started = time.Now()
	}
	wait := time.Duration(offsetMs-r.lastOffset) * time.Millisecond
	r.lastOffset = offsetMs
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close releases the underlying file.
func (r *ReplaySource) Close() error {
	return r.f.Close()
}
