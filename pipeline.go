// Package schematic2bls converts voxel models into
// Blockland save files built from cubic bricks.
package schematic2bls

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/divark/schematic2bls/blockland"
	"github.com/divark/schematic2bls/cubes"
	"github.com/divark/schematic2bls/voxels"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"golang.org/x/sync/errgroup"
)

// Result summarizes a converted model.
type Result struct {
	Input  string
	Output string

	// Voxels is the number of filled voxels after scaling.
	Voxels int

	Bricks     int
	UnitBricks int
	Bytes      int64
}

// Convert scales a grid by the given factor and covers it
// with cube bricks.
func Convert(g *cubes.Grid, scale int) ([]blockland.Brick, error) {
	if g == nil {
		return nil, &cubes.ShapeError{Op: "convert", Reason: "nil grid"}
	}
	scaled, err := g.Upscale(scale)
	if err != nil {
		return nil, errors.Wrap(err, "convert")
	}
	return convertScaled(scaled)
}

func convertScaled(scaled *cubes.Grid) ([]blockland.Brick, error) {
	found, err := cubes.ExtractGrid(scaled)
	if err != nil {
		return nil, errors.Wrap(err, "convert")
	}
	return blockland.BundleUnitCubes(blockland.MapCubes(found)), nil
}

// OutputPath gets the save file path for a model.
func OutputPath(input, outputDir string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+".bls")
}

// ConvertFile loads a model and writes its save file into
// cfg.OutputDir.
func ConvertFile(path string, cfg Config) (Result, error) {
	res := Result{Input: path, Output: OutputPath(path, cfg.OutputDir)}

	g, err := voxels.Load(path, cfg.VoxelOptions())
	if err != nil {
		return res, err
	}
	scaled, err := g.Upscale(cfg.Scale)
	if err != nil {
		return res, errors.Wrapf(err, "convert %s", path)
	}
	res.Voxels = scaled.Filled()

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return res, errors.Wrap(err, "convert file")
	}
	if cfg.DumpGrid {
		npzPath := strings.TrimSuffix(res.Output, ".bls") + ".grid.npz"
		if err := voxels.WriteNPZ(npzPath, scaled); err != nil {
			return res, err
		}
	}

	bricks, err := convertScaled(scaled)
	if err != nil {
		return res, errors.Wrapf(err, "convert %s", path)
	}
	res.Bricks = len(bricks)
	for _, b := range bricks {
		if b.Size == 1 {
			res.UnitBricks++
		}
	}

	f, err := os.Create(res.Output)
	if err != nil {
		return res, errors.Wrap(err, "convert file")
	}
	res.Bytes, err = blockland.WriteSaveFile(f, bricks)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return res, errors.Wrapf(err, "convert %s", path)
	}

	log.Printf("Wrote %s: %s voxels as %s bricks (%s)", res.Output,
		humanize.Comma(int64(res.Voxels)), humanize.Comma(int64(res.Bricks)),
		humanize.Bytes(uint64(res.Bytes)))
	return res, nil
}

// ConvertDir converts every supported model below dir.
//
// Save files mirror the directory layout under
// cfg.OutputDir. Results are ordered by input path.
func ConvertDir(ctx context.Context, dir string, cfg Config) ([]Result, error) {
	inputs, err := findModels(dir)
	if err != nil {
		return nil, err
	}

	configs := make([]Config, len(inputs))
	outputs := map[string]string{}
	for i, input := range inputs {
		rel, err := filepath.Rel(dir, filepath.Dir(input))
		if err != nil {
			return nil, errors.Wrap(err, "convert dir")
		}
		configs[i] = cfg
		configs[i].OutputDir = filepath.Join(cfg.OutputDir, rel)
		out := OutputPath(input, configs[i].OutputDir)
		if other, ok := outputs[out]; ok {
			return nil, errors.Errorf("convert dir: %s and %s both write %s", other, input, out)
		}
		outputs[out] = input
	}
	log.Printf("Converting %s models from %s", humanize.Comma(int64(len(inputs))), dir)

	results := make([]Result, len(inputs))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(essentials.MaxInt(cfg.Workers, 1))
	for i, input := range inputs {
		i, input := i, input
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			log.Println("Converting", input, "...")
			res, err := ConvertFile(input, configs[i])
			results[i] = res
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func findModels(dir string) ([]string, error) {
	var inputs []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		// Skip grids dumped by earlier runs.
		if !info.IsDir() && voxels.Supported(path) && !strings.HasSuffix(path, ".grid.npz") {
			inputs = append(inputs, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "convert dir")
	}
	return inputs, nil
}
