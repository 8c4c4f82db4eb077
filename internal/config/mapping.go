package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// BackgroundIndex is the sentinel value reserved for unpainted composite
// pixels. No layer may map to it.
const BackgroundIndex = 255

// MaskMapping is the on-disk mapping artifact: panorama ID to the gray
// value -> output index maps for static and sequence layers.
type MaskMapping map[string]PanoramaMapping

// PanoramaMapping describes the layer set of one panorama.
type PanoramaMapping struct {
	StaticMasks   map[string]int `json:"static_masks"`
	SequenceMasks map[string]int `json:"sequence_masks"`
}

// LayerSpec binds a source gray value to the index burned into the
// composite mask for that layer.
type LayerSpec struct {
	GrayValue   uint8
	OutputIndex uint8
}

// LoadMaskMapping reads and validates the mask mapping artifact.
// Any structural problem is fatal: the mapping is loaded once at scene
// activation, before the per-cycle loop starts.
func LoadMaskMapping(path string) (MaskMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mask mapping: %w", err)
	}

	var mapping MaskMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse mask mapping %s: %w", path, err)
	}

	if err := mapping.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mask mapping %s: %w", path, err)
	}

	return mapping, nil
}

// Validate checks the mapping structure: every panorama must carry both
// mask maps, keys must be gray values in [0,255], and no output index may
// collide with the background sentinel.
func (m MaskMapping) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("mapping contains no panoramas")
	}
	for id, pano := range m {
		if pano.StaticMasks == nil {
			return fmt.Errorf("panorama %s: missing static_masks", id)
		}
		if pano.SequenceMasks == nil {
			return fmt.Errorf("panorama %s: missing sequence_masks", id)
		}
		for kind, masks := range map[string]map[string]int{
			"static_masks":   pano.StaticMasks,
			"sequence_masks": pano.SequenceMasks,
		} {
			for key, idx := range masks {
				gray, err := strconv.Atoi(key)
				if err != nil {
					return fmt.Errorf("panorama %s: %s key %q is not numeric", id, kind, key)
				}
				if gray < 0 || gray > 255 {
					return fmt.Errorf("panorama %s: %s gray value %d out of range", id, kind, gray)
				}
				if idx < 0 || idx > 255 {
					return fmt.Errorf("panorama %s: %s index %d out of range", id, kind, idx)
				}
				if idx == BackgroundIndex {
					return fmt.Errorf("panorama %s: %s index for gray %d collides with background sentinel %d",
						id, kind, gray, BackgroundIndex)
				}
			}
		}
	}
	return nil
}

// Panoramas returns the configured panorama IDs in sorted order.
func (m MaskMapping) Panoramas() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LayerSpecs merges the static and sequence maps of one panorama into the
// immutable layer spec set the compositor consumes. A gray value present
// in both maps keeps the sequence index: the original artwork encodes the
// authoritative index on the animated entry.
func (m MaskMapping) LayerSpecs(panoramaID string) ([]LayerSpec, error) {
	pano, ok := m[panoramaID]
	if !ok {
		return nil, fmt.Errorf("unknown panorama %q", panoramaID)
	}

	merged := make(map[uint8]uint8)
	for _, masks := range []map[string]int{pano.StaticMasks, pano.SequenceMasks} {
		for key, idx := range masks {
			gray, _ := strconv.Atoi(key) // validated at load
			merged[uint8(gray)] = uint8(idx)
		}
	}

	specs := make([]LayerSpec, 0, len(merged))
	for gray, idx := range merged {
		specs = append(specs, LayerSpec{GrayValue: gray, OutputIndex: idx})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].GrayValue < specs[j].GrayValue })
	return specs, nil
}

// CheckPanoramaTree verifies that the directory tree for a panorama matches
// its mapping: the panorama directory itself, one file per static mask and
// one directory per sequence layer. It returns the list of problems found;
// an empty list means the tree is complete.
func (m MaskMapping) CheckPanoramaTree(landscapesDir, panoramaID string) []string {
	var issues []string

	pano, ok := m[panoramaID]
	if !ok {
		return []string{fmt.Sprintf("panorama %q not present in mapping", panoramaID)}
	}

	panoDir := filepath.Join(landscapesDir, panoramaID)
	if _, err := os.Stat(panoDir); err != nil {
		return []string{fmt.Sprintf("panorama directory not found: %s", panoDir)}
	}

	for key := range pano.StaticMasks {
		bmpPath := filepath.Join(panoDir, fmt.Sprintf("%s_%s.bmp", panoramaID, key))
		pngPath := filepath.Join(panoDir, fmt.Sprintf("%s_%s.png", panoramaID, key))
		if !fileExists(bmpPath) && !fileExists(pngPath) {
			issues = append(issues, fmt.Sprintf("missing static mask file: %s(.bmp|.png)",
				filepath.Join(panoDir, panoramaID+"_"+key)))
		}
	}

	for key := range pano.SequenceMasks {
		seqPrefix := filepath.Join(panoDir, fmt.Sprintf("%s_%s", panoramaID, key))
		if !hasSequenceDir(panoDir, panoramaID+"_"+key+"_") {
			issues = append(issues, fmt.Sprintf("missing sequence directories: %s_*", seqPrefix))
		}
	}

	sort.Strings(issues)
	return issues
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func hasSequenceDir(panoDir, prefix string) bool {
	entries, err := os.ReadDir(panoDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() && len(e.Name()) > len(prefix) && e.Name()[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
