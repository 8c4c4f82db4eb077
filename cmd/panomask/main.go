package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lumenwerk/panomask/internal/config"
	"github.com/lumenwerk/panomask/internal/db"
	"github.com/lumenwerk/panomask/internal/dwell"
	"github.com/lumenwerk/panomask/internal/fsutil"
	"github.com/lumenwerk/panomask/internal/mask"
	"github.com/lumenwerk/panomask/internal/monitoring"
	"github.com/lumenwerk/panomask/internal/sensor"
	"github.com/lumenwerk/panomask/internal/sequence"
)

var (
	tuningPath    = flag.String("tuning", "", "Path to tuning config JSON (optional, defaults apply)")
	mappingPath   = flag.String("mapping", "mask_mapping.json", "Path to the mask mapping JSON")
	landscapesDir = flag.String("landscapes", "landscapes", "Directory holding panorama mask assets")
	panoramaID    = flag.String("panorama", "", "Panorama to run (required)")
	resultsDir    = flag.String("results", "results", "Directory for composite mask output")
	stateLogPath  = flag.String("state-log", "state.log", "Path to the dwell state log")
	dbFile        = flag.String("db", "panomask.db", "Path to the SQLite database file (empty disables persistence)")
	migrationsDir = flag.String("migrations", "migrations", "Path to the SQL migrations directory")
	replayPath    = flag.String("replay", "", "Replay a recorded depth session (JSON lines) instead of a live sensor")
	replayPaced   = flag.Bool("paced", false, "Honor recorded frame timing during replay")
)

func main() {
	flag.Parse()

	if *panoramaID == "" {
		log.Fatal("-panorama is required")
	}
	if *replayPath == "" {
		log.Fatal("-replay is required (live sensor input arrives over a replay recording or an external bridge)")
	}

	cfg := config.EmptyTuningConfig()
	if *tuningPath != "" {
		var err error
		if cfg, err = config.LoadTuningConfig(*tuningPath); err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		log.Printf("Loaded tuning config from %s", *tuningPath)
	}

	mapping, err := config.LoadMaskMapping(*mappingPath)
	if err != nil {
		log.Fatalf("Failed to load mask mapping: %v", err)
	}
	if issues := mapping.CheckPanoramaTree(*landscapesDir, *panoramaID); len(issues) > 0 {
		for _, issue := range issues {
			log.Printf("Mapping issue: %s", issue)
		}
		log.Fatalf("Panorama %q has %d unresolved mapping issues", *panoramaID, len(issues))
	}
	specs, err := mapping.LayerSpecs(*panoramaID)
	if err != nil {
		log.Fatalf("Failed to resolve layers for panorama %q: %v", *panoramaID, err)
	}
	log.Printf("Panorama %q: %d mask layers", *panoramaID, len(specs))

	fs := fsutil.OSFileSystem{}

	stateLog, err := dwell.NewStateLogger(fs, *stateLogPath)
	if err != nil {
		log.Fatalf("Failed to initialize state log: %v", err)
	}
	tracker := dwell.NewTracker(dwell.Config{
		Zones:             cfg.GetZones(),
		ThresholdTime:     cfg.GetThresholdTime(),
		IncrementInterval: cfg.GetIncrementInterval(),
		Batched:           cfg.GetBatchedIncrement(),
	}, nil, stateLog)

	panoDir := filepath.Join(*landscapesDir, *panoramaID)
	store := mask.NewStore(fs, panoDir, *panoramaID, specs, cfg.GetFrameCacheCapacity())
	if err := store.LoadStaticMasks(); err != nil {
		log.Fatalf("Failed to load static masks: %v", err)
	}
	frames, err := store.ScanSequences()
	if err != nil {
		log.Fatalf("Failed to scan mask sequences: %v", err)
	}
	log.Printf("Indexed %d sequence frames under %s", frames, panoDir)

	compositor, err := mask.NewCompositor(store, fs, *resultsDir, cfg.GetOutputWidth(), cfg.GetOutputHeight())
	if err != nil {
		log.Fatalf("Failed to initialize compositor: %v", err)
	}

	source, err := sensor.NewReplaySource(*replayPath, *replayPaced)
	if err != nil {
		log.Fatalf("Failed to open replay source: %v", err)
	}
	defer source.Close()

	analyzer := &sensor.Analyzer{
		Cols:     cfg.GetZones(),
		Rows:     cfg.GetGridRows(),
		MinDepth: cfg.GetMinDepthMeters(),
		MaxDepth: cfg.GetMaxDepthMeters(),
		Mirror:   cfg.GetMirrorMode(),
	}

	var recorder sequence.SnapshotRecorder
	if *dbFile != "" {
		database, err := db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer database.Close()
		if err := database.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		sessionID, err := database.BeginSession(*panoramaID, time.Now())
		if err != nil {
			log.Fatalf("Failed to begin session: %v", err)
		}
		log.Printf("Recording session %s", sessionID)
		recorder = database.Recorder(sessionID)
	}

	runner := sequence.NewRunner(sequence.RunnerConfig{
		Source:   source,
		Analyzer: analyzer,
		Tracker:  tracker,
		Monitor:  sequence.NewMonitor(compositor, specs, nil),
		Recorder: recorder,
		Interval: cfg.GetCycleInterval(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		log.Fatalf("Pipeline error: %v", err)
	}

	decoded, hits, misses, evictions, written, skipped := monitoring.Stats.Snapshot()
	log.Printf("Run complete: %d frames decoded, %d composites written, %d cycles skipped", decoded, written, skipped)
	log.Printf("Frame cache: %d hits, %d misses, %d evictions", hits, misses, evictions)
	log.Printf("Final counters: %s", dwell.FormatCounters(tracker.Counters()))
}
