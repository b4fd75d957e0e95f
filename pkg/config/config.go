// Package config holds the export parameters and loads them from YAML
// presets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/shadevol/pkg/sample"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid export configuration")

// Defaults.
const (
	DefaultVoxelCount = 20
	DefaultGridName   = "density"
	DefaultIso        = 0.5
)

// Export is the full set of export parameters.
type Export struct {
	// VoxelCount is the lattice half extent; the grid has
	// (2*VoxelCount)^3 cells.
	VoxelCount int `yaml:"voxel_count"`
	// ClampNegative stores negative densities as 0.
	ClampNegative bool `yaml:"clamp_negative"`
	// Workers is the number of concurrent x-slab evaluators; 1 sweeps
	// sequentially.
	Workers int `yaml:"workers"`
	// GridName names the grid in the output file.
	GridName string `yaml:"grid_name"`
	// Iso is the density level the STL writer extracts a surface at.
	Iso float64 `yaml:"iso"`
	// Output is the destination path. Its extension picks the writer.
	Output string `yaml:"output,omitempty"`
}

// Default returns the stock parameters.
func Default() Export {
	return Export{
		VoxelCount: DefaultVoxelCount,
		Workers:    1,
		GridName:   DefaultGridName,
		Iso:        DefaultIso,
	}
}

// Validate reports the first invalid field.
func (e Export) Validate() error {
	switch {
	case e.VoxelCount < 1 || e.VoxelCount > sample.MaxVoxelCount:
		return fmt.Errorf("%w: voxel_count must be in [1, %d], got %d", ErrInvalid, sample.MaxVoxelCount, e.VoxelCount)
	case e.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, e.Workers)
	case strings.TrimSpace(e.GridName) == "":
		return fmt.Errorf("%w: grid_name must not be empty", ErrInvalid)
	case math.IsNaN(e.Iso) || math.IsInf(e.Iso, 0):
		return fmt.Errorf("%w: iso must be finite, got %v", ErrInvalid, e.Iso)
	}
	return nil
}

// SampleConfig returns the sampler view of the parameters.
func (e Export) SampleConfig() sample.Config {
	return sample.Config{
		VoxelCount:    e.VoxelCount,
		ClampNegative: e.ClampNegative,
		Workers:       e.Workers,
	}
}

// ParsePreset decodes a YAML preset on top of the defaults. Fields the
// preset omits keep their default; unknown fields are an error.
func ParsePreset(data []byte) (Export, error) {
	e := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&e); err != nil && !errors.Is(err, io.EOF) {
		return Export{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := e.Validate(); err != nil {
		return Export{}, err
	}
	return e, nil
}

// LoadPreset reads and decodes the preset at path.
func LoadPreset(path string) (Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Export{}, fmt.Errorf("reading preset: %w", err)
	}
	e, err := ParsePreset(data)
	if err != nil {
		return Export{}, fmt.Errorf("preset %s: %w", filepath.Base(path), err)
	}
	return e, nil
}

// SavePreset writes e to path as YAML.
func SavePreset(path string, e Export) error {
	if err := e.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding preset: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing preset: %w", err)
	}
	return nil
}
