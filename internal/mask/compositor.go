package mask

import (
	"fmt"
	"image"
	"path/filepath"
	"sort"

	"github.com/lumenwerk/panomask/internal/config"
	"github.com/lumenwerk/panomask/internal/fsutil"
	"github.com/lumenwerk/panomask/internal/monitoring"
)

// SequenceRequest selects one frame of one animated sequence: the zone
// index doubles as the sequence number and the dwell counter as the frame
// position.
type SequenceRequest struct {
	Seq   int
	Frame int
}

// Compositor layers the active bitmaps of a panorama into one indexed
// composite mask and persists it under an incrementing filename.
type Compositor struct {
	store      *Store
	fs         fsutil.FileSystem
	resultsDir string
	width      int
	height     int

	// ordered layer specs: descending output index, ties broken by gray
	// value descending. Layers earlier in this order win pixel conflicts.
	ordered []config.LayerSpec

	nextIndex int
}

// NewCompositor creates a compositor writing W x H composites into
// resultsDir, creating the directory if needed.
func NewCompositor(store *Store, fs fsutil.FileSystem, resultsDir string, width, height int) (*Compositor, error) {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	if err := fs.MkdirAll(resultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir %s: %w", resultsDir, err)
	}

	ordered := make([]config.LayerSpec, len(store.Specs()))
	copy(ordered, store.Specs())
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].OutputIndex != ordered[j].OutputIndex {
			return ordered[i].OutputIndex > ordered[j].OutputIndex
		}
		return ordered[i].GrayValue > ordered[j].GrayValue
	})

	return &Compositor{
		store:      store,
		fs:         fs,
		resultsDir: resultsDir,
		width:      width,
		height:     height,
		ordered:    ordered,
	}, nil
}

// ProcessAndSave composites the active layers and writes the result as
// {n}.bmp with a strictly increasing n. An empty request map is a no-op
// returning an empty path. Missing frames degrade to thinner layers;
// write failures propagate.
func (c *Compositor) ProcessAndSave(active map[uint8][]SequenceRequest) (string, error) {
	if len(active) == 0 {
		return "", nil
	}

	out := image.NewGray(image.Rect(0, 0, c.width, c.height))
	for i := range out.Pix {
		out.Pix[i] = config.BackgroundIndex
	}

	var combined []uint8
	for _, spec := range c.ordered {
		layers := c.gatherLayers(spec.GrayValue, active[spec.GrayValue])
		if len(layers) == 0 {
			continue
		}

		if combined == nil {
			combined = make([]uint8, len(out.Pix))
		}
		copy(combined, layers[0].Pix)
		for _, layer := range layers[1:] {
			for i, v := range layer.Pix {
				if v > combined[i] {
					combined[i] = v
				}
			}
		}

		// Earlier (higher-priority) layers own their pixels; only untouched
		// background may be claimed. No layer index equals the sentinel, so
		// the check is unambiguous.
		for i, v := range combined {
			if v > 0 && out.Pix[i] == config.BackgroundIndex {
				out.Pix[i] = spec.OutputIndex
			}
		}
	}

	data, err := EncodeBMP(out)
	if err != nil {
		return "", err
	}

	path := filepath.Join(c.resultsDir, fmt.Sprintf("%d.bmp", c.nextIndex+1))
	if err := c.fs.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write composite %s: %w", path, err)
	}
	c.nextIndex++
	monitoring.Stats.AddCompositeWritten()

	return path, nil
}

// gatherLayers collects the bitmaps active for one gray value: the static
// mask plus every resolvable requested sequence frame. Bitmaps whose size
// does not match the composite are dropped with a warning rather than
// corrupting the output.
func (c *Compositor) gatherLayers(gray uint8, requests []SequenceRequest) []*image.Gray {
	var layers []*image.Gray

	appendFit := func(img *image.Gray) {
		if img == nil {
			return
		}
		if img.Bounds().Dx() != c.width || img.Bounds().Dy() != c.height {
			monitoring.Logf("mask: gray %d bitmap is %dx%d, composite is %dx%d; skipping",
				gray, img.Bounds().Dx(), img.Bounds().Dy(), c.width, c.height)
			return
		}
		layers = append(layers, img)
	}

	appendFit(c.store.StaticMask(gray))
	for _, req := range requests {
		appendFit(c.store.GetFrame(gray, req.Seq, req.Frame))
	}
	return layers
}

// NextIndex returns the index the next composite will be saved under.
func (c *Compositor) NextIndex() int {
	return c.nextIndex + 1
}

// ResetIndex restarts the output numbering. Only an explicit external
// reset may do this; the increasing sequence is the downstream contract.
func (c *Compositor) ResetIndex() {
	c.nextIndex = 0
}
