package cubes

import (
	"github.com/unixpickle/essentials"
)

// A DistanceGrid stores, for every voxel, the side length
// of the largest filled cube whose far corner is that
// voxel.
//
// The grid is one cell larger than the occupancy grid
// along every axis. Cell (i, j, k) describes voxel
// (i-1, j-1, k-1), and cells with a zero coordinate form
// an all-zero border.
type DistanceGrid struct {
	SizeX int
	SizeY int
	SizeZ int

	values []int32
}

// NewDistanceGrid creates an all-zero distance grid with
// the given number of cells along each axis.
func NewDistanceGrid(sizeX, sizeY, sizeZ int) (*DistanceGrid, error) {
	count, err := cellCount("new distance grid", sizeX, sizeY, sizeZ)
	if err != nil {
		return nil, err
	}
	return &DistanceGrid{
		SizeX:  sizeX,
		SizeY:  sizeY,
		SizeZ:  sizeZ,
		values: make([]int32, count),
	}, nil
}

// BuildDistanceGrid computes the distance grid of an
// occupancy grid.
func BuildDistanceGrid(g *Grid) (*DistanceGrid, error) {
	if g == nil {
		return nil, &ShapeError{Op: "build distance grid", Reason: "nil grid"}
	}
	count, err := cellCount("build distance grid", g.Length, g.Width, g.Height)
	if err != nil {
		return nil, err
	}
	if len(g.voxels) != count {
		return nil, &ShapeError{Op: "build distance grid", Reason: "voxel count does not match dimensions"}
	}
	d, err := NewDistanceGrid(g.Length+1, g.Width+1, g.Height+1)
	if err != nil {
		return nil, err
	}
	for i := 1; i <= g.Length; i++ {
		for j := 1; j <= g.Width; j++ {
			for k := 1; k <= g.Height; k++ {
				if !g.voxels[g.index(i-1, j-1, k-1)] {
					continue
				}
				smallest := essentials.MinInt(
					d.at(i, j, k-1),
					d.at(i, j-1, k-1),
					d.at(i-1, j, k-1),
					d.at(i-1, j-1, k-1),
					d.at(i, j-1, k),
					d.at(i-1, j-1, k),
					d.at(i-1, j, k),
				)
				d.values[d.Index(i, j, k)] = int32(smallest + 1)
			}
		}
	}
	return d, nil
}

// Index converts cell coordinates into a flat index.
func (d *DistanceGrid) Index(x, y, z int) int {
	return (z*d.SizeY+y)*d.SizeX + x
}

// Coords converts a flat index back into cell
// coordinates.
func (d *DistanceGrid) Coords(idx int) (x, y, z int) {
	plane := d.SizeX * d.SizeY
	z = idx / plane
	idx -= z * plane
	return idx % d.SizeX, idx / d.SizeX, z
}

// Len gets the total number of cells.
func (d *DistanceGrid) Len() int {
	return len(d.values)
}

// Get gets the value of a cell.
// Out of bounds cells have value 0.
func (d *DistanceGrid) Get(x, y, z int) int {
	if x < 0 || y < 0 || z < 0 || x >= d.SizeX || y >= d.SizeY || z >= d.SizeZ {
		return 0
	}
	return d.at(x, y, z)
}

// Set overwrites the value of a cell.
func (d *DistanceGrid) Set(x, y, z, value int) {
	d.values[d.Index(x, y, z)] = int32(value)
}

func (d *DistanceGrid) at(x, y, z int) int {
	return int(d.values[d.Index(x, y, z)])
}

// Largest finds the cell with the largest value, without
// snapping it to the palette.
//
// Ties are resolved like they are during extraction. The
// second return value is false if every cell is zero.
func (d *DistanceGrid) Largest() (Cube, bool) {
	best := -1
	for i, v := range d.values {
		if v > 0 && (best < 0 || v >= d.values[best]) {
			best = i
		}
	}
	if best < 0 {
		return Cube{}, false
	}
	x, y, z := d.Coords(best)
	return Cube{Side: int(d.values[best]), Anchor: [3]int{x, y, z}}, true
}
