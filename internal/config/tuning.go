package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig holds runtime tuning for the dwell/compositing pipeline.
// All fields are optional pointers; the Get* methods supply defaults for
// fields omitted from the JSON file, so partial configs are safe.
type TuningConfig struct {
	// Dwell tracker params
	Zones             *int    `json:"zones,omitempty"`
	ThresholdTime     *string `json:"threshold_time,omitempty"`     // duration string like "3s"
	IncrementInterval *string `json:"increment_interval,omitempty"` // duration string like "500ms"
	BatchedIncrement  *bool   `json:"batched_increment,omitempty"`

	// Presence analyzer params
	MinDepthMeters *float64 `json:"min_depth_meters,omitempty"`
	MaxDepthMeters *float64 `json:"max_depth_meters,omitempty"`
	GridRows       *int     `json:"grid_rows,omitempty"`
	MirrorMode     *bool    `json:"mirror_mode,omitempty"`

	// Mask pipeline params
	FrameCacheCapacity *int `json:"frame_cache_capacity,omitempty"`
	OutputWidth        *int `json:"output_width,omitempty"`
	OutputHeight       *int `json:"output_height,omitempty"`

	// Cycle loop params
	CycleInterval *string `json:"cycle_interval,omitempty"` // duration string like "40ms"
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.Zones != nil && *c.Zones <= 0 {
		return fmt.Errorf("zones must be positive, got %d", *c.Zones)
	}

	for name, v := range map[string]*string{
		"threshold_time":     c.ThresholdTime,
		"increment_interval": c.IncrementInterval,
		"cycle_interval":     c.CycleInterval,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}

	if c.MinDepthMeters != nil && *c.MinDepthMeters < 0 {
		return fmt.Errorf("min_depth_meters must be non-negative, got %f", *c.MinDepthMeters)
	}
	if c.MinDepthMeters != nil && c.MaxDepthMeters != nil && *c.MaxDepthMeters <= *c.MinDepthMeters {
		return fmt.Errorf("max_depth_meters (%f) must exceed min_depth_meters (%f)",
			*c.MaxDepthMeters, *c.MinDepthMeters)
	}

	if c.FrameCacheCapacity != nil && *c.FrameCacheCapacity < 1 {
		return fmt.Errorf("frame_cache_capacity must be at least 1, got %d", *c.FrameCacheCapacity)
	}
	if c.OutputWidth != nil && *c.OutputWidth <= 0 {
		return fmt.Errorf("output_width must be positive, got %d", *c.OutputWidth)
	}
	if c.OutputHeight != nil && *c.OutputHeight <= 0 {
		return fmt.Errorf("output_height must be positive, got %d", *c.OutputHeight)
	}

	return nil
}

// GetZones returns the zone count or the default.
func (c *TuningConfig) GetZones() int {
	if c.Zones == nil {
		return 10 // default: one zone per horizontal grid column
	}
	return *c.Zones
}

// GetThresholdTime parses and returns the dwell threshold as a time.Duration.
func (c *TuningConfig) GetThresholdTime() time.Duration {
	return c.getDuration(c.ThresholdTime, 3*time.Second)
}

// GetIncrementInterval parses and returns the counter increment interval.
func (c *TuningConfig) GetIncrementInterval() time.Duration {
	return c.getDuration(c.IncrementInterval, 500*time.Millisecond)
}

// GetBatchedIncrement returns whether the batched increment mode is enabled.
func (c *TuningConfig) GetBatchedIncrement() bool {
	if c.BatchedIncrement == nil {
		return false
	}
	return *c.BatchedIncrement
}

// GetMinDepthMeters returns the lower presence threshold or the default.
func (c *TuningConfig) GetMinDepthMeters() float64 {
	if c.MinDepthMeters == nil {
		return 0.4 // 40cm
	}
	return *c.MinDepthMeters
}

// GetMaxDepthMeters returns the upper presence threshold or the default.
func (c *TuningConfig) GetMaxDepthMeters() float64 {
	if c.MaxDepthMeters == nil {
		return 1.8
	}
	return *c.MaxDepthMeters
}

// GetGridRows returns the vertical grid division count or the default.
func (c *TuningConfig) GetGridRows() int {
	if c.GridRows == nil {
		return 6
	}
	return *c.GridRows
}

// GetMirrorMode returns whether the presence grid is mirrored horizontally.
func (c *TuningConfig) GetMirrorMode() bool {
	if c.MirrorMode == nil {
		return true
	}
	return *c.MirrorMode
}

// GetFrameCacheCapacity returns the sequence frame cache capacity.
func (c *TuningConfig) GetFrameCacheCapacity() int {
	if c.FrameCacheCapacity == nil {
		return 100
	}
	return *c.FrameCacheCapacity
}

// GetOutputWidth returns the composite mask width in pixels.
func (c *TuningConfig) GetOutputWidth() int {
	if c.OutputWidth == nil {
		return 3840
	}
	return *c.OutputWidth
}

// GetOutputHeight returns the composite mask height in pixels.
func (c *TuningConfig) GetOutputHeight() int {
	if c.OutputHeight == nil {
		return 1280
	}
	return *c.OutputHeight
}

// GetCycleInterval returns the observation cycle interval.
func (c *TuningConfig) GetCycleInterval() time.Duration {
	return c.getDuration(c.CycleInterval, 40*time.Millisecond)
}

func (c *TuningConfig) getDuration(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}
