package sequence

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/lumenwerk/panomask/internal/dwell"
	"github.com/lumenwerk/panomask/internal/monitoring"
	"github.com/lumenwerk/panomask/internal/sensor"
)

// SnapshotRecorder persists a counter snapshot after each composite.
// Implementations must tolerate being called from the runner goroutine.
type SnapshotRecorder interface {
	RecordSnapshot(at time.Time, counters []uint32, compositePath string) error
}

// Runner drives the full observation cycle: it pulls depth frames,
// derives presence, advances the dwell tracker and hands the resulting
// counter vector to the sequence monitor.
type Runner struct {
	source   sensor.Source
	analyzer *sensor.Analyzer
	tracker  *dwell.Tracker
	recorder SnapshotRecorder
	interval time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	monitor *Monitor
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// RunnerConfig contains configuration for Runner.
type RunnerConfig struct {
	// Source yields depth frames; io.EOF from it ends the run cleanly.
	Source sensor.Source
	// Analyzer maps distance grids onto the zone presence vector.
	Analyzer *sensor.Analyzer
	// Tracker holds per-zone dwell state.
	Tracker *dwell.Tracker
	// Monitor composites counter snapshots for the current panorama.
	Monitor *Monitor
	// Recorder is optional; when set, every composite is also persisted.
	Recorder SnapshotRecorder
	// Interval is the observation cycle period (e.g. 40*time.Millisecond).
	Interval time.Duration
	// Logger is optional; if nil, uses log.Default()
	Logger *log.Logger
}

// NewRunner creates a new Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		source:   cfg.Source,
		analyzer: cfg.Analyzer,
		tracker:  cfg.Tracker,
		monitor:  cfg.Monitor,
		recorder: cfg.Recorder,
		interval: cfg.Interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Run starts the observation loop. It blocks until the context is
// cancelled, Stop() is called or the frame source is exhausted. Returns
// nil on clean shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil // already running
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	defer func() {
		close(r.doneCh)
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	if r.interval <= 0 {
		r.logger.Printf("Runner: interval is zero or negative, not starting")
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Printf("Runner started: interval=%v", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Printf("Runner stopping due to context cancellation")
			return nil
		case <-r.stopCh:
			r.logger.Printf("Runner stopping due to Stop() call")
			return nil
		case <-ticker.C:
			done, err := r.cycle(ctx)
			if err != nil {
				return err
			}
			if done {
				r.logger.Printf("Runner stopping: frame source exhausted")
				return nil
			}
		}
	}
}

// Stop requests the runner to stop. It is safe to call multiple times.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	select {
	case <-r.stopCh:
		// already closed
	default:
		close(r.stopCh)
	}
	r.mu.Unlock()

	// Wait for completion
	<-r.doneCh
}

// IsRunning returns whether the runner is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// SwitchScene replaces the active monitor and clears all dwell state so
// the new panorama starts from a blank slate.
func (r *Runner) SwitchScene(monitor *Monitor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracker.Reset()
	monitor.Reset()
	r.monitor = monitor
	r.logger.Printf("Runner: scene switched, dwell state cleared")
}

// cycle runs one observation step. The bool result reports source
// exhaustion; a non-nil error is a fatal source failure. Compositing
// errors are logged and counted but never abort the loop.
func (r *Runner) cycle(ctx context.Context) (bool, error) {
	frame, err := r.source.Next(ctx)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	presence := r.analyzer.Presence(frame.Distances)
	r.tracker.Update(presence)
	counters := r.tracker.Counters()

	r.mu.Lock()
	monitor := r.monitor
	r.mu.Unlock()

	path, err := monitor.ProcessState(counters)
	if err != nil {
		monitoring.Stats.AddCycleSkipped()
		r.logger.Printf("Runner: cycle skipped: %v", err)
		return false, nil
	}

	if path != "" && r.recorder != nil {
		if err := r.recorder.RecordSnapshot(frame.At, counters, path); err != nil {
			r.logger.Printf("Runner: error recording snapshot: %v", err)
		}
	}

	return false, nil
}
