package monitoring

import "sync/atomic"

// PipelineStats tracks cheap counters for the dwell/compositing pipeline.
// All methods are safe for concurrent use.
type PipelineStats struct {
	framesDecoded     atomic.Int64
	cacheHits         atomic.Int64
	cacheMisses       atomic.Int64
	cacheEvictions    atomic.Int64
	compositesWritten atomic.Int64
	cyclesSkipped     atomic.Int64
}

// Stats is the process-wide pipeline stats instance.
var Stats = &PipelineStats{}

func (s *PipelineStats) AddFrameDecoded()     { s.framesDecoded.Add(1) }
func (s *PipelineStats) AddCacheHit()         { s.cacheHits.Add(1) }
func (s *PipelineStats) AddCacheMiss()        { s.cacheMisses.Add(1) }
func (s *PipelineStats) AddCacheEviction()    { s.cacheEvictions.Add(1) }
func (s *PipelineStats) AddCompositeWritten() { s.compositesWritten.Add(1) }
func (s *PipelineStats) AddCycleSkipped()     { s.cyclesSkipped.Add(1) }

// Snapshot returns the current counter values.
func (s *PipelineStats) Snapshot() (framesDecoded, cacheHits, cacheMisses, cacheEvictions, compositesWritten, cyclesSkipped int64) {
	return s.framesDecoded.Load(),
		s.cacheHits.Load(),
		s.cacheMisses.Load(),
		s.cacheEvictions.Load(),
		s.compositesWritten.Load(),
		s.cyclesSkipped.Load()
}

// Reset zeroes all counters. Intended for tests and scene switches.
func (s *PipelineStats) Reset() {
	s.framesDecoded.Store(0)
	s.cacheHits.Store(0)
	s.cacheMisses.Store(0)
	s.cacheEvictions.Store(0)
	s.compositesWritten.Store(0)
	s.cyclesSkipped.Store(0)
}
