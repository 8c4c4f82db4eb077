package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lumenwerk/panomask/internal/config"
	"github.com/lumenwerk/panomask/internal/db"
	"github.com/lumenwerk/panomask/internal/fsutil"
	"github.com/lumenwerk/panomask/internal/report"
)

var (
	stateLogPath  = flag.String("state-log", "", "Path to a dwell state log to analyze")
	dbFile        = flag.String("db", "", "Path to the SQLite database file")
	sessionID     = flag.String("session", "", "Session to analyze from the database (use -list to discover)")
	listSessions  = flag.Bool("list", false, "List recorded sessions and exit")
	outDir        = flag.String("out", "report", "Directory for generated report files")
	title         = flag.String("title", "Dwell activity", "Report title")
	mappingPath   = flag.String("mapping", "", "Validate a mask mapping against a landscapes directory and exit")
	landscapesDir = flag.String("landscapes", "landscapes", "Directory holding panorama mask assets (with -mapping)")
)

func main() {
	flag.Parse()

	if *mappingPath != "" {
		os.Exit(checkMapping())
	}

	if *listSessions {
		if *dbFile == "" {
			log.Fatal("-list requires -db")
		}
		printSessions()
		return
	}

	vectors, err := loadVectors()
	if err != nil {
		log.Fatal(err)
	}
	if len(vectors) == 0 {
		log.Fatal("No dwell states found; nothing to report")
	}

	summary := report.Analyze(vectors)
	fmt.Printf("states: %d\n", summary.States)
	fmt.Printf("zones:  %d\n", len(summary.Zones))
	fmt.Printf("final counters: mean=%.1f median=%.1f max=%d\n", summary.MeanFinal, summary.MedianFinal, summary.MaxFinal)
	for _, z := range summary.Zones {
		fmt.Printf("  zone %2d: final=%-4d peak=%-4d increments=%d\n", z.Zone, z.Final, z.Peak, z.Increments)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	htmlPath := filepath.Join(*outDir, "activity.html")
	if err := report.WriteActivityChart(nil, htmlPath, *title, vectors); err != nil {
		log.Fatalf("Failed to write activity chart: %v", err)
	}
	log.Printf("Wrote %s", htmlPath)

	pngPath := filepath.Join(*outDir, "zones.png")
	if err := report.WriteZonePlot(pngPath, *title, vectors); err != nil {
		log.Fatalf("Failed to write zone plot: %v", err)
	}
	log.Printf("Wrote %s", pngPath)
}

// loadVectors pulls counter vectors from either a state log file or a
// recorded database session.
func loadVectors() ([][]uint32, error) {
	switch {
	case *stateLogPath != "":
		return report.LoadStateLog(fsutil.OSFileSystem{}, *stateLogPath)
	case *dbFile != "" && *sessionID != "":
		database, err := db.NewDB(*dbFile)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		defer database.Close()

		snapshots, err := database.SnapshotsForSession(*sessionID)
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", *sessionID, err)
		}
		vectors := make([][]uint32, len(snapshots))
		for i, s := range snapshots {
			vectors[i] = s.Counters
		}
		return vectors, nil
	default:
		return nil, fmt.Errorf("either -state-log or -db with -session is required")
	}
}

func printSessions() {
	database, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	sessions, err := database.Sessions()
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions recorded")
		return
	}
	for _, s := range sessions {
		started := time.Unix(s.StartedUnix, 0).Format(time.RFC3339)
		fmt.Printf("%s  %-20s  %s  %d snapshots\n", s.ID, s.PanoramaID, started, s.SnapshotCount)
	}
}

// checkMapping validates a mask mapping file against the on-disk asset
// tree for every panorama it names. Returns a process exit code.
func checkMapping() int {
	mapping, err := config.LoadMaskMapping(*mappingPath)
	if err != nil {
		log.Printf("Failed to load mask mapping: %v", err)
		return 1
	}

	failures := 0
	for _, pano := range mapping.Panoramas() {
		issues := mapping.CheckPanoramaTree(*landscapesDir, pano)
		if len(issues) == 0 {
			fmt.Printf("%s: ok\n", pano)
			continue
		}
		failures++
		fmt.Printf("%s: %d issues\n", pano, len(issues))
		for _, issue := range issues {
			fmt.Printf("  %s\n", issue)
		}
	}
	if failures > 0 {
		return 1
	}
	return 0
}
