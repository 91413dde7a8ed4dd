// Package cubes packs boolean voxel grids into
// non-overlapping axis-aligned cubes whose sides are
// powers of two.
package cubes

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxVoxels bounds the number of cells in any grid.
const MaxVoxels = 1 << 30

// ShapeError is returned when a grid's dimensions are
// negative or inconsistent.
type ShapeError struct {
	Op     string
	Reason string
}

func (s *ShapeError) Error() string {
	return s.Op + ": " + s.Reason
}

// A Grid is a rectangular 3D occupancy grid.
//
// Voxels are indexed [x][y][z], with z being the
// vertical axis of the resulting model.
type Grid struct {
	Length int
	Width  int
	Height int

	voxels []bool
}

// NewGrid creates an empty grid.
//
// Dimensions must be non-negative, and the grid may hold
// at most MaxVoxels voxels.
func NewGrid(length, width, height int) (*Grid, error) {
	count, err := cellCount("new grid", length, width, height)
	if err != nil {
		return nil, err
	}
	return &Grid{
		Length: length,
		Width:  width,
		Height: height,
		voxels: make([]bool, count),
	}, nil
}

// cellCount multiplies dimensions, failing before the
// product can pass MaxVoxels.
func cellCount(op string, dims ...int) (int, error) {
	count := 1
	for _, d := range dims {
		if d < 0 {
			return 0, &ShapeError{Op: op, Reason: "negative dimensions " + formatDims(dims)}
		}
		if d > MaxVoxels || (d != 0 && count > MaxVoxels/d) {
			return 0, &ShapeError{
				Op:     op,
				Reason: fmt.Sprintf("dimensions %s exceed %d cells", formatDims(dims), MaxVoxels),
			}
		}
		count *= d
	}
	return count, nil
}

func formatDims(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "x")
}

// GridFromSlices creates a grid from a nested [x][y][z]
// array. Every row must have the same length.
func GridFromSlices(voxels [][][]bool) (*Grid, error) {
	length := len(voxels)
	var width, height int
	if length > 0 {
		width = len(voxels[0])
		if width > 0 {
			height = len(voxels[0][0])
		}
	}
	g, err := NewGrid(length, width, height)
	if err != nil {
		return nil, err
	}
	for x, plane := range voxels {
		if len(plane) != width {
			return nil, &ShapeError{
				Op:     "grid from slices",
				Reason: fmt.Sprintf("plane %d has width %d, expected %d", x, len(plane), width),
			}
		}
		for y, column := range plane {
			if len(column) != height {
				return nil, &ShapeError{
					Op: "grid from slices",
					Reason: fmt.Sprintf("column (%d, %d) has height %d, expected %d",
						x, y, len(column), height),
				}
			}
			copy(g.voxels[g.index(x, y, 0):], column)
		}
	}
	return g, nil
}

func (g *Grid) index(x, y, z int) int {
	return (x*g.Width+y)*g.Height + z
}

// InBounds checks if a voxel coordinate lies inside the
// grid.
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.Length && y < g.Width && z < g.Height
}

// Get checks if a voxel is filled.
// Out of bounds voxels are empty.
func (g *Grid) Get(x, y, z int) bool {
	if !g.InBounds(x, y, z) {
		return false
	}
	return g.voxels[g.index(x, y, z)]
}

// Set fills or clears a voxel.
// It panics if the voxel is out of bounds.
func (g *Grid) Set(x, y, z int, filled bool) {
	if !g.InBounds(x, y, z) {
		panic(fmt.Sprintf("voxel (%d, %d, %d) out of bounds", x, y, z))
	}
	g.voxels[g.index(x, y, z)] = filled
}

// Filled counts the filled voxels.
func (g *Grid) Filled() int {
	var n int
	for _, v := range g.voxels {
		if v {
			n++
		}
	}
	return n
}

// Empty checks if the grid has no voxels at all.
func (g *Grid) Empty() bool {
	return len(g.voxels) == 0
}

// Upscale replicates every voxel into a scale^3 block.
// A scale of 1 or less returns a copy of the grid.
func (g *Grid) Upscale(scale int) (*Grid, error) {
	if scale < 1 {
		scale = 1
	}
	var dims [3]int
	for i, d := range [3]int{g.Length, g.Width, g.Height} {
		if d != 0 && scale > MaxVoxels/d {
			return nil, &ShapeError{
				Op: "upscale",
				Reason: fmt.Sprintf("scaling %dx%dx%d by %d exceeds %d cells",
					g.Length, g.Width, g.Height, scale, MaxVoxels),
			}
		}
		dims[i] = d * scale
	}
	res, err := NewGrid(dims[0], dims[1], dims[2])
	if err != nil {
		return nil, err
	}
	for x := 0; x < g.Length; x++ {
		for y := 0; y < g.Width; y++ {
			for z := 0; z < g.Height; z++ {
				if !g.voxels[g.index(x, y, z)] {
					continue
				}
				for i := x * scale; i < (x+1)*scale; i++ {
					for j := y * scale; j < (y+1)*scale; j++ {
						start := res.index(i, j, z*scale)
						for k := 0; k < scale; k++ {
							res.voxels[start+k] = true
						}
					}
				}
			}
		}
	}
	return res, nil
}

// Slices converts the grid into a nested [x][y][z] array.
func (g *Grid) Slices() [][][]bool {
	res := make([][][]bool, g.Length)
	for x := range res {
		res[x] = make([][]bool, g.Width)
		for y := range res[x] {
			start := g.index(x, y, 0)
			res[x][y] = append([]bool{}, g.voxels[start:start+g.Height]...)
		}
	}
	return res
}

// Voxels returns the flat voxel array, with z varying
// fastest and x slowest.
func (g *Grid) Voxels() []bool {
	return g.voxels
}
