package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ZoneStats summarizes one zone's activity over a run.
type ZoneStats struct {
	Zone       int
	Final      uint32 // counter value at the end of the run
	Peak       uint32 // highest value observed (equals Final unless reset)
	Increments int    // number of upward steps across the log
}

// Summary aggregates the whole run.
type Summary struct {
	Zones       []ZoneStats
	States      int     // distinct logged states
	MeanFinal   float64 // mean of per-zone final counters
	MedianFinal float64
	MaxFinal    uint32
}

// Analyze computes per-zone and aggregate statistics from the counter
// vectors of one run. Vectors of differing lengths are tolerated; zones
// missing from a vector contribute nothing for that state.
func Analyze(vectors [][]uint32) Summary {
	zones := 0
	for _, v := range vectors {
		if len(v) > zones {
			zones = len(v)
		}
	}

	summary := Summary{States: len(vectors), Zones: make([]ZoneStats, zones)}
	for z := 0; z < zones; z++ {
		zs := ZoneStats{Zone: z}
		var prev uint32
		for _, v := range vectors {
			if z >= len(v) {
				continue
			}
			c := v[z]
			if c > zs.Peak {
				zs.Peak = c
			}
			if c > prev {
				zs.Increments += int(c - prev)
			}
			prev = c
			zs.Final = c
		}
		summary.Zones[z] = zs
	}

	if zones > 0 {
		finals := make([]float64, zones)
		for i, zs := range summary.Zones {
			finals[i] = float64(zs.Final)
			if zs.Final > summary.MaxFinal {
				summary.MaxFinal = zs.Final
			}
		}
		summary.MeanFinal = stat.Mean(finals, nil)

		sort.Float64s(finals)
		summary.MedianFinal = stat.Quantile(0.5, stat.Empirical, finals, nil)
	}

	return summary
}
