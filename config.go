package schematic2bls

import (
	"io/ioutil"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/divark/schematic2bls/voxels"
	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"gopkg.in/yaml.v3"
)

const (
	DefaultScale = 4
	MaxScale     = 255
)

// Config controls a conversion.
type Config struct {
	// Scale is the number of bricks along each axis of a
	// single model voxel.
	Scale int `toml:"scale" yaml:"scale"`

	// OutputDir is where .bls files are written.
	OutputDir string `toml:"output_dir" yaml:"output_dir"`

	// GridSize is the voxel resolution used for meshes.
	GridSize int `toml:"grid_size" yaml:"grid_size"`

	// Voxelizer is the mesh voxelization method.
	Voxelizer string `toml:"voxelizer" yaml:"voxelizer"`

	// Threshold is the fill threshold for JSON grids.
	Threshold float64 `toml:"threshold" yaml:"threshold"`

	// Workers limits concurrent conversions in batch mode.
	Workers int `toml:"workers" yaml:"workers"`

	// DumpGrid saves the scaled occupancy grid next to
	// each save file as a <stem>.grid.npz archive.
	DumpGrid bool `toml:"dump_grid" yaml:"dump_grid"`

	Log LogConfig `toml:"log" yaml:"log"`
}

// DefaultConfig gets the configuration used when no file
// or flags override it.
func DefaultConfig() Config {
	opts := voxels.DefaultOptions()
	return Config{
		Scale:     DefaultScale,
		OutputDir: ".",
		GridSize:  opts.GridSize,
		Voxelizer: string(opts.Method),
		Threshold: opts.Threshold,
		Workers:   4,
	}
}

// LoadConfig reads a TOML or YAML configuration file.
// Missing keys keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, errors.Wrap(err, "load config")
		}
	case ".yaml", ".yml":
		raw, err := ioutil.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(err, "load config")
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "load config %s", path)
		}
	default:
		return cfg, errors.Errorf("load config: unknown format %q", filepath.Ext(path))
	}
	return cfg, cfg.Validate()
}

// Validate clamps out of range values and rejects
// settings that cannot be used.
func (c *Config) Validate() error {
	c.Scale = clampScale(c.Scale)
	c.Workers = essentials.MaxInt(c.Workers, 1)
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.GridSize < 1 {
		return errors.Errorf("invalid config: grid size %d", c.GridSize)
	}
	if _, err := voxels.ParseMethod(c.Voxelizer); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// VoxelOptions gets the decoding options for models.
func (c *Config) VoxelOptions() voxels.Options {
	method, _ := voxels.ParseMethod(c.Voxelizer)
	return voxels.Options{
		GridSize:  c.GridSize,
		Method:    method,
		Threshold: c.Threshold,
	}
}

// ParseScale parses a scale factor argument.
//
// Arguments that are not integers yield fallback, and
// the result is clamped to [1, MaxScale].
func ParseScale(arg string, fallback int) int {
	scale, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		log.Printf("Invalid scale factor %q, using %d", arg, fallback)
		scale = fallback
	}
	return clampScale(scale)
}

func clampScale(scale int) int {
	return essentials.MaxInt(1, essentials.MinInt(scale, MaxScale))
}
