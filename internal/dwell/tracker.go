package dwell

import (
	"time"

	"github.com/lumenwerk/panomask/internal/monitoring"
)

// Config holds configuration parameters for the zone tracker.
type Config struct {
	Zones             int           // Number of tracked zones
	ThresholdTime     time.Duration // Continuous presence required before counting starts
	IncrementInterval time.Duration // Minimum time between increments per zone
	Batched           bool          // Increment all counting zones together at interval boundaries
}

// DefaultConfig returns default tracker configuration: ten zones, a three
// second arming threshold and a half second increment cadence.
func DefaultConfig() Config {
	return Config{
		Zones:             10,
		ThresholdTime:     3 * time.Second,
		IncrementInterval: 500 * time.Millisecond,
		Batched:           false,
	}
}

// Tracker accumulates per-zone dwell counters from presence vectors.
// It is not safe for concurrent use; the pipeline calls it from a single
// cycle goroutine.
type Tracker struct {
	cfg Config
	now func() time.Time

	// Per-zone state. A zero dwellStart means the zone is idle; a zero
	// lastIncrement while dwellStart is set means the zone is still arming.
	dwellStart    []time.Time
	lastIncrement []time.Time
	counters      []uint32

	// Batched mode: zones whose counting state held through the current
	// interval, incremented together at the boundary.
	batchPending []bool
	batchStart   time.Time

	log *StateLogger
}

// NewTracker creates a tracker with the given config. A nil clock uses
// time.Now. The state logger may be nil to disable durable snapshots.
func NewTracker(cfg Config, clock func() time.Time, log *StateLogger) *Tracker {
	if cfg.Zones <= 0 {
		cfg.Zones = DefaultConfig().Zones
	}
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{
		cfg:           cfg,
		now:           clock,
		dwellStart:    make([]time.Time, cfg.Zones),
		lastIncrement: make([]time.Time, cfg.Zones),
		counters:      make([]uint32, cfg.Zones),
		batchPending:  make([]bool, cfg.Zones),
		log:           log,
	}
}

// Update advances every zone's state machine from one presence vector.
// A vector shorter than the zone count treats missing entries as absent.
// Timing is wall-clock based, so irregular call cadence is safe.
func (t *Tracker) Update(presence []bool) {
	now := t.now()
	changed := false

	for i := 0; i < t.cfg.Zones; i++ {
		active := i < len(presence) && presence[i]

		if !active {
			// Absence drops the zone back to idle immediately. The counter
			// persists until Reset.
			t.dwellStart[i] = time.Time{}
			t.lastIncrement[i] = time.Time{}
			t.batchPending[i] = false
			continue
		}

		switch {
		case t.dwellStart[i].IsZero():
			// Idle -> arming.
			t.dwellStart[i] = now
		case t.lastIncrement[i].IsZero():
			// Arming -> counting once the threshold has held.
			if now.Sub(t.dwellStart[i]) >= t.cfg.ThresholdTime {
				t.lastIncrement[i] = now
			}
		default:
			if t.cfg.Batched {
				t.batchPending[i] = true
			} else if now.Sub(t.lastIncrement[i]) >= t.cfg.IncrementInterval {
				t.counters[i]++
				t.lastIncrement[i] = now
				changed = true
			}
		}
	}

	if t.cfg.Batched {
		changed = t.flushBatch(now) || changed
	}

	if changed && t.log != nil {
		if err := t.log.Log(t.counters); err != nil {
			monitoring.Logf("dwell: state log write failed: %v", err)
		}
	}
}

// flushBatch increments every pending zone together once per interval.
func (t *Tracker) flushBatch(now time.Time) bool {
	if t.batchStart.IsZero() {
		t.batchStart = now
		return false
	}
	if now.Sub(t.batchStart) < t.cfg.IncrementInterval {
		return false
	}

	changed := false
	for i := range t.batchPending {
		if t.batchPending[i] {
			t.counters[i]++
			t.batchPending[i] = false
			changed = true
		}
	}
	t.batchStart = now
	return changed
}

// Counters returns a copy of the current counter vector. The copy gives
// callers a consistent snapshot that later Update calls cannot mutate.
func (t *Tracker) Counters() []uint32 {
	out := make([]uint32, len(t.counters))
	copy(out, t.counters)
	return out
}

// Active reports whether any zone currently has a presence timer running.
func (t *Tracker) Active() bool {
	for i := range t.dwellStart {
		if !t.dwellStart[i].IsZero() {
			return true
		}
	}
	return false
}

// Reset zeroes all counters and timers. Invoked on scene switch.
func (t *Tracker) Reset() {
	for i := 0; i < t.cfg.Zones; i++ {
		t.dwellStart[i] = time.Time{}
		t.lastIncrement[i] = time.Time{}
		t.counters[i] = 0
		t.batchPending[i] = false
	}
	t.batchStart = time.Time{}
}
