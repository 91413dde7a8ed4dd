package voxels

import (
	"fmt"
	"io"
	"io/ioutil"

	"github.com/Tnze/go-mc/nbt"
	"github.com/divark/schematic2bls/cubes"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// schematic is the subset of an MCEdit schematic needed
// to build a grid.
type schematic struct {
	Width  int16  `nbt:"Width"`
	Height int16  `nbt:"Height"`
	Length int16  `nbt:"Length"`
	Blocks []byte `nbt:"Blocks"`
}

// ReadSchematic decodes a gzipped MCEdit schematic.
//
// Every non-air block is filled. The schematic's vertical
// y axis becomes the grid's z axis, so the grid is
// Width x Length x Height.
func ReadSchematic(r io.Reader) (*cubes.Grid, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "read schematic")
	}
	defer zr.Close()
	data, err := ioutil.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "read schematic")
	}

	var s schematic
	if err := nbt.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "read schematic")
	}
	width, height, length := int(s.Width), int(s.Height), int(s.Length)
	if len(s.Blocks) != width*height*length {
		return nil, &cubes.ShapeError{
			Op: "read schematic",
			Reason: fmt.Sprintf("%d blocks for dimensions %dx%dx%d",
				len(s.Blocks), width, height, length),
		}
	}

	g, err := cubes.NewGrid(width, length, height)
	if err != nil {
		return nil, errors.Wrap(err, "read schematic")
	}
	for i, block := range s.Blocks {
		if block == 0 {
			continue
		}
		x := i % width
		z := (i / width) % length
		y := i / (width * length)
		g.Set(x, z, y, true)
	}
	return g, nil
}
