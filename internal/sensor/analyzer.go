// Package sensor derives per-zone presence from depth sensor frames.
// The camera driver itself lives outside this module; sources here are
// the seam it plugs into, plus a replay implementation for development.
package sensor

import (
	"context"
	"time"
)

// Frame is one observation from the depth stage: the per-cell distance
// grid flattened row-major, in meters.
type Frame struct {
	Distances []float64
	At        time.Time
}

// Source yields depth frames at the sensor's natural cadence.
type Source interface {
	// Next returns the next frame, blocking until one is available or the
	// context is cancelled. It returns io.EOF when the source is exhausted.
	Next(ctx context.Context) (Frame, error)
}

// Analyzer converts a distance grid into a per-column presence vector:
// a column is occupied when any of its cells reads inside the configured
// depth band.
type Analyzer struct {
	Cols     int     // horizontal grid divisions, one per zone
	Rows     int     // vertical grid divisions
	MinDepth float64 // lower presence threshold, meters
	MaxDepth float64 // upper presence threshold, meters
	Mirror   bool    // flip columns horizontally (installation faces a mirror)
}

// Presence returns one bool per column. Distances beyond the grid size
// are ignored; cells missing from a short frame read as out of range.
func (a *Analyzer) Presence(distances []float64) []bool {
	presence := make([]bool, a.Cols)

	for row := 0; row < a.Rows; row++ {
		for col := 0; col < a.Cols; col++ {
			i := row*a.Cols + col
			if i >= len(distances) {
				continue
			}
			d := distances[i]
			if d < a.MinDepth || d > a.MaxDepth {
				continue
			}
			out := col
			if a.Mirror {
				out = a.Cols - 1 - col
			}
			presence[out] = true
		}
	}

	return presence
}
