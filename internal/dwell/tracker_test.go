package dwell

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lumenwerk/panomask/internal/fsutil"
)

// fakeClock advances manually so timing behaviour is deterministic.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() Config {
	return Config{
		Zones:             4,
		ThresholdTime:     3 * time.Second,
		IncrementInterval: 500 * time.Millisecond,
	}
}

// stepActive calls Update with the given zones active, advancing the clock
// by step between calls.
func stepActive(t *Tracker, c *fakeClock, step time.Duration, n int, zones ...int) {
	presence := make([]bool, 4)
	for _, z := range zones {
		presence[z] = true
	}
	for i := 0; i < n; i++ {
		t.Update(presence)
		c.Advance(step)
	}
}

func TestDebounce_ShortTogglesNeverCount(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(testConfig(), clock.Now, nil)

	// Toggle zone 0 every second for 20 seconds; each active span is
	// shorter than the 3s threshold.
	for i := 0; i < 20; i++ {
		tr.Update([]bool{i%2 == 0, false, false, false})
		clock.Advance(time.Second)
	}

	if got := tr.Counters()[0]; got != 0 {
		t.Errorf("counter = %d, want 0 for sub-threshold toggling", got)
	}
}

func TestCountingCadence(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(testConfig(), clock.Now, nil)

	// Hold zone 1 active for 5.5s at a 100ms cadence: counting starts after
	// the 3s threshold, then increments every 500ms -> 5 increments.
	stepActive(tr, clock, 100*time.Millisecond, 56, 1)

	got := tr.Counters()[1]
	if got != 5 {
		t.Errorf("counter = %d, want 5 after 5.5s of continuous presence", got)
	}
}

func TestCounterPersistsAcrossDeactivation(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(testConfig(), clock.Now, nil)

	stepActive(tr, clock, 100*time.Millisecond, 45, 0) // 4.5s active
	before := tr.Counters()[0]
	if before == 0 {
		t.Fatal("expected some increments before deactivation")
	}

	// Zone drops out for a while.
	stepActive(tr, clock, 100*time.Millisecond, 30)
	if got := tr.Counters()[0]; got != before {
		t.Errorf("counter = %d after deactivation, want %d unchanged", got, before)
	}

	// Re-activation must re-arm from scratch: no increments within the
	// threshold window.
	stepActive(tr, clock, 100*time.Millisecond, 25, 0) // 2.5s < threshold
	if got := tr.Counters()[0]; got != before {
		t.Errorf("counter = %d during re-arming, want %d", got, before)
	}
}

func TestZonesCountIndependently(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(testConfig(), clock.Now, nil)

	stepActive(tr, clock, 100*time.Millisecond, 45, 0, 2)

	counters := tr.Counters()
	if counters[0] == 0 || counters[2] == 0 {
		t.Fatalf("expected zones 0 and 2 to count, got %v", counters)
	}
	if counters[0] != counters[2] {
		t.Errorf("simultaneous zones diverged: %v", counters)
	}
	if counters[1] != 0 || counters[3] != 0 {
		t.Errorf("inactive zones incremented: %v", counters)
	}
}

func TestShortPresenceVectorTreatedAsAbsent(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(testConfig(), clock.Now, nil)

	// Arm zone 3, then shrink the vector so zone 3 is missing: it must
	// drop back to idle rather than keep counting.
	stepActive(tr, clock, 100*time.Millisecond, 40, 3)
	if tr.Counters()[3] == 0 {
		t.Fatal("expected zone 3 to have counted")
	}
	before := tr.Counters()[3]

	for i := 0; i < 40; i++ {
		tr.Update([]bool{true}) // only zone 0 present in the vector
		clock.Advance(100 * time.Millisecond)
	}

	if got := tr.Counters()[3]; got != before {
		t.Errorf("counter = %d, want %d; missing entries must read as absent", got, before)
	}
}

func TestReset(t *testing.T) {
	clock := newFakeClock()
	tr := NewTracker(testConfig(), clock.Now, nil)

	stepActive(tr, clock, 100*time.Millisecond, 45, 0, 1, 2, 3)
	tr.Reset()

	want := []uint32{0, 0, 0, 0}
	if diff := cmp.Diff(want, tr.Counters()); diff != "" {
		t.Errorf("counters after Reset (-want +got):\n%s", diff)
	}
	if tr.Active() {
		t.Error("expected no active timers after Reset")
	}

	// A reset zone must pass the full threshold again before counting.
	stepActive(tr, clock, 100*time.Millisecond, 25, 0)
	if got := tr.Counters()[0]; got != 0 {
		t.Errorf("counter = %d right after Reset, want 0", got)
	}
}

func TestBatchedMode(t *testing.T) {
	cfg := testConfig()
	cfg.Batched = true
	clock := newFakeClock()
	tr := NewTracker(cfg, clock.Now, nil)

	// Two zones held active: past the threshold they are incremented
	// together at interval boundaries, staying in lockstep.
	stepActive(tr, clock, 100*time.Millisecond, 56, 0, 2)

	counters := tr.Counters()
	if counters[0] == 0 {
		t.Fatal("expected batched increments after threshold")
	}
	if counters[0] != counters[2] {
		t.Errorf("batched zones diverged: %v", counters)
	}
	if counters[1] != 0 || counters[3] != 0 {
		t.Errorf("inactive zones incremented: %v", counters)
	}
}

func TestDedupLogging(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	logger, err := NewStateLogger(mfs, "/logs/tmpl.log")
	if err != nil {
		t.Fatalf("NewStateLogger failed: %v", err)
	}

	clock := newFakeClock()
	tr := NewTracker(testConfig(), clock.Now, logger)

	// Many updates, few distinct counter vectors.
	stepActive(tr, clock, 100*time.Millisecond, 45, 0)

	data, err := mfs.ReadFile("/logs/tmpl.log")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")

	final := tr.Counters()[0]
	if len(lines) != int(final) {
		t.Errorf("got %d log lines, want one per distinct vector (%d)", len(lines), final)
	}

	// Repeating an unchanged vector emits nothing new.
	if err := logger.Log(tr.Counters()); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	data, _ = mfs.ReadFile("/logs/tmpl.log")
	if got := len(strings.Split(strings.TrimSpace(string(data)), "\n")); got != len(lines) {
		t.Errorf("duplicate vector appended a line: %d -> %d", len(lines), got)
	}
}

func TestStateLogRecordsCounterProgression(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	logger, err := NewStateLogger(mfs, "/logs/tmpl.log")
	if err != nil {
		t.Fatalf("NewStateLogger failed: %v", err)
	}

	clock := newFakeClock()
	tr := NewTracker(testConfig(), clock.Now, logger)

	// Hold zone 0 for 4.5s: the sink must carry one line per increment,
	// in order, not remain empty.
	stepActive(tr, clock, 100*time.Millisecond, 45, 0)

	data, err := mfs.ReadFile("/logs/tmpl.log")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatal("expected state log lines after sustained presence")
	}

	want := make([]string, 0, len(lines))
	for i := uint32(1); i <= tr.Counters()[0]; i++ {
		want = append(want, FormatCounters([]uint32{i, 0, 0, 0}))
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("state log progression (-want +got):\n%s", diff)
	}
}

func TestStateLoggerFormat(t *testing.T) {
	if got := FormatCounters([]uint32{0, 3, 0, 12}); got != "[0 3 0 12]" {
		t.Errorf("FormatCounters = %q", got)
	}
}
