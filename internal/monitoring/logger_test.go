package monitoring

import "testing"

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op logger that must not panic.
	SetLogger(nil)
	Logf("test message")
}

func TestPipelineStats(t *testing.T) {
	s := &PipelineStats{}

	s.AddFrameDecoded()
	s.AddCacheHit()
	s.AddCacheHit()
	s.AddCacheMiss()
	s.AddCacheEviction()
	s.AddCompositeWritten()
	s.AddCycleSkipped()

	decoded, hits, misses, evictions, written, skipped := s.Snapshot()
	if decoded != 1 || hits != 2 || misses != 1 || evictions != 1 || written != 1 || skipped != 1 {
		t.Errorf("unexpected counters: %d %d %d %d %d %d", decoded, hits, misses, evictions, written, skipped)
	}

	s.Reset()
	decoded, hits, misses, evictions, written, skipped = s.Snapshot()
	if decoded+hits+misses+evictions+written+skipped != 0 {
		t.Error("expected all counters zero after Reset")
	}
}
