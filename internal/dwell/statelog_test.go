package dwell

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCounters(t *testing.T) {
	tests := []struct {
		line string
		want []uint32
	}{
		{"[0 3 0 12]", []uint32{0, 3, 0, 12}},
		{"[7]", []uint32{7}},
		{"[]", []uint32{}},
		{"  [1 2]  ", []uint32{1, 2}},
	}
	for _, tt := range tests {
		got, err := ParseCounters(tt.line)
		if err != nil {
			t.Errorf("ParseCounters(%q) failed: %v", tt.line, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("ParseCounters(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestParseCounters_Malformed(t *testing.T) {
	for _, line := range []string{"", "0 3 0", "[0 3", "[a b]", "[-1]", "[1,2]"} {
		if _, err := ParseCounters(line); err == nil {
			t.Errorf("ParseCounters(%q) succeeded, want error", line)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	counters := []uint32{0, 3, 0, 12}
	got, err := ParseCounters(FormatCounters(counters))
	if err != nil {
		t.Fatalf("ParseCounters failed: %v", err)
	}
	if diff := cmp.Diff(counters, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
