package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lumenwerk/panomask/internal/fsutil"
)

func TestLoadStateLog(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	content := "[0 0 0]\n[0 3 0]\nnot a vector\n[0 3 12]\n\n"
	if err := fs.WriteFile("/log/state.log", []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	vectors, err := LoadStateLog(fs, "/log/state.log")
	if err != nil {
		t.Fatalf("LoadStateLog failed: %v", err)
	}

	want := [][]uint32{{0, 0, 0}, {0, 3, 0}, {0, 3, 12}}
	if diff := cmp.Diff(want, vectors); diff != "" {
		t.Errorf("vectors mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadStateLog_MissingFile(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	if _, err := LoadStateLog(fs, "/log/absent.log"); err == nil {
		t.Error("expected error for missing state log")
	}
}

func TestAnalyze(t *testing.T) {
	vectors := [][]uint32{
		{0, 1, 0},
		{0, 2, 4},
		{0, 3, 4},
		{1, 3, 6},
	}

	got := Analyze(vectors)

	if got.States != 4 {
		t.Errorf("States = %d, want 4", got.States)
	}
	wantZones := []ZoneStats{
		{Zone: 0, Final: 1, Peak: 1, Increments: 1},
		{Zone: 1, Final: 3, Peak: 3, Increments: 3},
		{Zone: 2, Final: 6, Peak: 6, Increments: 6},
	}
	if diff := cmp.Diff(wantZones, got.Zones); diff != "" {
		t.Errorf("zone stats mismatch (-want +got):\n%s", diff)
	}
	if got.MaxFinal != 6 {
		t.Errorf("MaxFinal = %d, want 6", got.MaxFinal)
	}
	if want := (1.0 + 3.0 + 6.0) / 3.0; got.MeanFinal != want {
		t.Errorf("MeanFinal = %v, want %v", got.MeanFinal, want)
	}
	if got.MedianFinal != 3 {
		t.Errorf("MedianFinal = %v, want 3", got.MedianFinal)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	got := Analyze(nil)
	if got.States != 0 || len(got.Zones) != 0 {
		t.Errorf("unexpected summary for empty log: %+v", got)
	}
}

func TestWriteActivityChart(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	vectors := [][]uint32{{0, 1}, {0, 2}, {1, 2}}

	if err := WriteActivityChart(fs, "/out/activity.html", "test run", vectors); err != nil {
		t.Fatalf("WriteActivityChart failed: %v", err)
	}

	data, err := fs.ReadFile("/out/activity.html")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	html := string(data)
	if !strings.Contains(html, "zone 0") || !strings.Contains(html, "zone 1") {
		t.Error("chart output is missing zone series")
	}
	if !strings.Contains(html, "test run") {
		t.Error("chart output is missing the title")
	}
}

func TestWriteZonePlot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.png")
	vectors := [][]uint32{{0, 1}, {0, 2}, {1, 2}}

	if err := WriteZonePlot(path, "test run", vectors); err != nil {
		t.Fatalf("WriteZonePlot failed: %v", err)
	}
}
