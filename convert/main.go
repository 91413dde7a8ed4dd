// Command convert turns a voxel model into a Blockland
// save file built from cube bricks.
//
// The model may be a Minecraft .schematic, a numpy grid
// (.npy or .npz), a JSON grid, or an OFF mesh. When the
// path is a directory, every supported model below it is
// converted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/divark/schematic2bls"
	"github.com/dustin/go-humanize"
	"github.com/unixpickle/essentials"
)

func main() {
	var configPath string
	var outputDir string
	var gridSize int
	var voxelizer string
	var threshold float64
	var workers int
	var dumpGrid bool
	var logFile string

	defaults := schematic2bls.DefaultConfig()
	flag.StringVar(&configPath, "config", "", "TOML or YAML configuration file")
	flag.StringVar(&outputDir, "output-dir", defaults.OutputDir, "directory for .bls files")
	flag.IntVar(&gridSize, "grid-size", defaults.GridSize, "number of voxels along each dimension of a mesh")
	flag.StringVar(&voxelizer, "voxelizer", defaults.Voxelizer, "mesh voxelizer (connect or parity)")
	flag.Float64Var(&threshold, "threshold", defaults.Threshold, "minimum value for a filled JSON voxel")
	flag.IntVar(&workers, "workers", defaults.Workers, "concurrent conversions for directories")
	flag.BoolVar(&dumpGrid, "dump-grid", false, "also save the scaled voxel grid as .npz")
	flag.StringVar(&logFile, "log-file", "", "rotating log file (default stderr)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage:", os.Args[0], "[flags] <path_to_model> [scale_factor]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	flag.Parse()
	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
	}

	cfg := defaults
	if configPath != "" {
		var err error
		cfg, err = schematic2bls.LoadConfig(configPath)
		essentials.Must(err)
	}

	// Flags given on the command line win over the config.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output-dir":
			cfg.OutputDir = outputDir
		case "grid-size":
			cfg.GridSize = gridSize
		case "voxelizer":
			cfg.Voxelizer = voxelizer
		case "threshold":
			cfg.Threshold = threshold
		case "workers":
			cfg.Workers = workers
		case "dump-grid":
			cfg.DumpGrid = dumpGrid
		case "log-file":
			cfg.Log.Logfile = logFile
		}
	})
	if flag.NArg() == 2 {
		cfg.Scale = schematic2bls.ParseScale(flag.Arg(1), schematic2bls.DefaultScale)
	}
	essentials.Must(cfg.Validate())

	closer := cfg.Log.SetLogger()
	defer closer.Close()

	inPath := flag.Arg(0)
	info, err := os.Stat(inPath)
	if err != nil {
		log.Fatal(err)
	}

	if !info.IsDir() {
		log.Println("Converting", inPath, "...")
		if _, err := schematic2bls.ConvertFile(inPath, cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, err := schematic2bls.ConvertDir(ctx, inPath, cfg)
	if err != nil {
		log.Fatal(err)
	}
	var bricks int
	var size int64
	for _, r := range results {
		bricks += r.Bricks
		size += r.Bytes
	}
	log.Printf("Converted %d models into %s bricks (%s)", len(results),
		humanize.Comma(int64(bricks)), humanize.Bytes(uint64(size)))
}
