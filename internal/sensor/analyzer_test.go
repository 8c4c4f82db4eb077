package sensor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testAnalyzer(mirror bool) *Analyzer {
	return &Analyzer{
		Cols:     4,
		Rows:     2,
		MinDepth: 0.4,
		MaxDepth: 1.8,
		Mirror:   mirror,
	}
}

func TestPresence(t *testing.T) {
	a := testAnalyzer(false)

	// Row 0: only column 1 inside the band. Row 1: column 3 inside.
	distances := []float64{
		9.0, 1.0, 0.1, 3.0,
		5.0, 9.0, 9.0, 0.5,
	}

	got := a.Presence(distances)
	want := []bool{false, true, false, true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Presence mismatch (-want +got):\n%s", diff)
	}
}

func TestPresence_Mirror(t *testing.T) {
	a := testAnalyzer(true)

	distances := []float64{
		1.0, 9.0, 9.0, 9.0,
		9.0, 9.0, 9.0, 9.0,
	}

	got := a.Presence(distances)
	// Column 0 is occupied; mirrored it reads as column 3.
	want := []bool{false, false, false, true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Presence mismatch (-want +got):\n%s", diff)
	}
}

func TestPresence_BandBoundaries(t *testing.T) {
	a := testAnalyzer(false)
	a.Rows = 1

	got := a.Presence([]float64{0.4, 1.8, 0.39, 1.81})
	want := []bool{true, true, false, false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Presence mismatch (-want +got):\n%s", diff)
	}
}

func TestPresence_ShortFrame(t *testing.T) {
	a := testAnalyzer(false)

	// Only the first three cells delivered; everything else is absent.
	got := a.Presence([]float64{1.0, 9.0, 9.0})
	want := []bool{true, false, false, false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Presence mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaySource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.jsonl")
	content := `{"distances": [1.0, 2.0]}
not json, skipped
{"distances": [3.0]}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	src, err := NewReplaySource(path, false)
	if err != nil {
		t.Fatalf("NewReplaySource failed: %v", err)
	}
	defer src.Close()

	ctx := context.Background()

	frame, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if diff := cmp.Diff([]float64{1.0, 2.0}, frame.Distances); diff != "" {
		t.Errorf("frame 1 mismatch (-want +got):\n%s", diff)
	}

	frame, err = src.Next(ctx)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if diff := cmp.Diff([]float64{3.0}, frame.Distances); diff != "" {
		t.Errorf("frame 2 mismatch (-want +got):\n%s", diff)
	}

	if _, err := src.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF at end of recording, got %v", err)
	}
}

func TestReplaySource_MissingFile(t *testing.T) {
	if _, err := NewReplaySource("/does/not/exist.jsonl", false); err == nil {
		t.Error("expected error for missing replay file")
	}
}
