package mask

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lumenwerk/panomask/internal/config"
	"github.com/lumenwerk/panomask/internal/fsutil"
	"github.com/lumenwerk/panomask/internal/monitoring"
)

// sequenceInfo records the frames discovered for one (gray, sequence)
// pair: file paths keyed by frame number, plus the highest frame number.
// Pixel data is loaded on demand, never during the scan.
type sequenceInfo struct {
	frames   map[int]string
	maxFrame int
}

// Store owns the bitmap layers of one panorama: optional static masks and
// the indexed animated sequences, served through a bounded frame cache.
// The filesystem subtree is treated as read-only after ScanSequences.
//
// Store is not safe for concurrent use; the pipeline owns it from a single
// cycle goroutine.
type Store struct {
	fs         fsutil.FileSystem
	dir        string // per-panorama directory, e.g. landscapes/<id>
	panoramaID string
	specs      []config.LayerSpec

	statics   map[uint8]*image.Gray
	sequences map[uint8]map[int]*sequenceInfo
	cache     *frameCache
}

// NewStore creates a store for one panorama. A nil filesystem uses the OS.
func NewStore(fs fsutil.FileSystem, dir, panoramaID string, specs []config.LayerSpec, cacheCapacity int) *Store {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &Store{
		fs:         fs,
		dir:        dir,
		panoramaID: panoramaID,
		specs:      specs,
		statics:    make(map[uint8]*image.Gray),
		sequences:  make(map[uint8]map[int]*sequenceInfo),
		cache:      newFrameCache(cacheCapacity),
	}
}

// PanoramaID returns the panorama this store serves.
func (s *Store) PanoramaID() string {
	return s.panoramaID
}

// Specs returns the immutable layer spec set.
func (s *Store) Specs() []config.LayerSpec {
	return s.specs
}

// LoadStaticMasks loads and binarizes the static mask for every configured
// gray value, preferring .bmp over .png. Layers without a static mask are
// skipped silently; decode failures on present files propagate.
func (s *Store) LoadStaticMasks() error {
	for _, spec := range s.specs {
		base := fmt.Sprintf("%s_%d", s.panoramaID, spec.GrayValue)
		var path string
		for _, ext := range []string{".bmp", ".png"} {
			candidate := filepath.Join(s.dir, base+ext)
			if s.fs.Exists(candidate) {
				path = candidate
				break
			}
		}
		if path == "" {
			continue // static masks are optional per layer
		}

		img, err := s.loadBitmap(path)
		if err != nil {
			return fmt.Errorf("static mask for gray %d: %w", spec.GrayValue, err)
		}
		s.statics[spec.GrayValue] = img
	}
	return nil
}

// StaticMask returns the cached static mask for a gray value, or nil.
func (s *Store) StaticMask(gray uint8) *image.Gray {
	return s.statics[gray]
}

// ScanSequences discovers sequence directories ({panorama}_{gray}_{seq})
// and their frame files (*_{frame}.bmp) for every configured gray value.
// Only directory entries are touched, so startup cost scales with entry
// count rather than decode count. Malformed numeric suffixes are skipped.
// Returns the total number of frames discovered.
func (s *Store) ScanSequences() (int, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("scan panorama dir %s: %w", s.dir, err)
	}

	total := 0
	for _, spec := range s.specs {
		prefix := fmt.Sprintf("%s_%d_", s.panoramaID, spec.GrayValue)
		for _, entry := range entries {
			if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
				continue
			}
			seq, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), prefix))
			if err != nil {
				continue // not a sequence directory for this layer
			}

			info, err := s.scanFrames(filepath.Join(s.dir, entry.Name()))
			if err != nil {
				return total, err
			}
			if len(info.frames) == 0 {
				continue
			}

			if s.sequences[spec.GrayValue] == nil {
				s.sequences[spec.GrayValue] = make(map[int]*sequenceInfo)
			}
			s.sequences[spec.GrayValue][seq] = info
			total += len(info.frames)
		}
	}
	return total, nil
}

// scanFrames indexes the *_{frame}.bmp entries of one sequence directory.
func (s *Store) scanFrames(dir string) (*sequenceInfo, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan sequence dir %s: %w", dir, err)
	}

	info := &sequenceInfo{frames: make(map[int]string)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".bmp") {
			continue
		}
		stem := strings.TrimSuffix(name, ".bmp")
		idx := strings.LastIndex(stem, "_")
		if idx < 0 {
			continue
		}
		frame, err := strconv.Atoi(stem[idx+1:])
		if err != nil {
			continue // malformed frame suffix, not fatal
		}

		info.frames[frame] = filepath.Join(dir, name)
		if frame > info.maxFrame {
			info.maxFrame = frame
		}
	}
	return info, nil
}

// GetFrame returns the binarized bitmap for (gray, seq, frame), or nil if
// the layer or sequence is unknown, no frames were discovered, or the
// backing file has vanished since the scan. Frame numbers beyond the
// discovered maximum clamp to the last frame (freeze-on-last-frame).
func (s *Store) GetFrame(gray uint8, seq, frame int) *image.Gray {
	seqs, ok := s.sequences[gray]
	if !ok {
		return nil
	}
	info, ok := seqs[seq]
	if !ok || len(info.frames) == 0 {
		return nil
	}

	if frame > info.maxFrame {
		frame = info.maxFrame
	}

	key := frameKey{gray: gray, seq: seq, frame: frame}
	if img, ok := s.cache.get(key); ok {
		return img
	}

	path, ok := info.frames[frame]
	if !ok {
		return nil
	}

	img, err := s.loadBitmap(path)
	if err != nil {
		// A path that disappeared between scan and load degrades to a
		// missing layer for this cycle.
		monitoring.Logf("mask: frame %d of sequence %d (gray %d) unavailable: %v", frame, seq, gray, err)
		return nil
	}

	s.cache.put(key, img)
	return img
}

// SequenceCount returns how many sequences were discovered for a layer.
func (s *Store) SequenceCount(gray uint8) int {
	return len(s.sequences[gray])
}

// MaxFrame returns the highest discovered frame number for a sequence and
// whether the sequence exists.
func (s *Store) MaxFrame(gray uint8, seq int) (int, bool) {
	info, ok := s.sequences[gray][seq]
	if !ok {
		return 0, false
	}
	return info.maxFrame, true
}

// ClearCache drops all cached frames. Called on scene switch.
func (s *Store) ClearCache() {
	s.cache.clear()
}

func (s *Store) loadBitmap(path string) (*image.Gray, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, err := DecodeGray(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	Binarize(img, BinarizeThreshold)
	monitoring.Stats.AddFrameDecoded()
	return img, nil
}
