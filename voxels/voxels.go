// Package voxels decodes models of various formats into
// occupancy grids.
package voxels

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/divark/schematic2bls/cubes"
	"github.com/pkg/errors"
)

// ErrUnsupportedFormat is returned when a model's file
// extension has no decoder.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// Options controls how models are turned into grids.
type Options struct {
	// GridSize is the number of voxels along each axis of
	// a voxelized mesh.
	GridSize int

	// Method is the mesh voxelization method.
	Method Method

	// Threshold is the minimum value of a filled voxel in
	// a JSON grid.
	Threshold float64
}

// DefaultOptions gets the options used when none are
// configured.
func DefaultOptions() Options {
	return Options{
		GridSize:  64,
		Method:    Connect,
		Threshold: 0.5,
	}
}

// Extensions lists the file extensions Load can decode.
var Extensions = []string{".schematic", ".npy", ".npz", ".json", ".off"}

// Supported checks if Load can decode the file at path.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Load decodes a model file into a grid, choosing the
// decoder by file extension.
func Load(path string, opts Options) (*cubes.Grid, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".npz" {
		return ReadNPZ(path)
	}
	if !Supported(path) {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "load %s", path)
	}

	r, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load model")
	}
	defer r.Close()

	var g *cubes.Grid
	switch ext {
	case ".schematic":
		g, err = ReadSchematic(r)
	case ".npy":
		g, err = ReadNumpy(r)
	case ".json":
		g, err = ReadJSON(r, opts.Threshold)
	case ".off":
		g, err = ReadMesh(r, opts.GridSize, opts.Method)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return g, nil
}
