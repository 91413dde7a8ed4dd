package cubes

import (
	"container/heap"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

var (
	// ErrPaletteExhausted is returned if no palette size
	// can be claimed at a cell. A correctly built distance
	// grid never causes it.
	ErrPaletteExhausted = errors.New("no palette size fits")

	// ErrSpanUnderflow is returned if a cube would extend
	// past the origin of the distance grid.
	ErrSpanUnderflow = errors.New("cube extends past grid origin")
)

// A Cube is an extracted cube, described by its side
// length and its far (maximum-index) corner in distance
// grid coordinates.
type Cube struct {
	Side   int
	Anchor [3]int
}

// Min gets the near corner of the cube in distance grid
// coordinates.
func (c Cube) Min() [3]int {
	return [3]int{
		c.Anchor[0] - c.Side + 1,
		c.Anchor[1] - c.Side + 1,
		c.Anchor[2] - c.Side + 1,
	}
}

// Contains checks if the cube covers a voxel of the
// occupancy grid.
func (c Cube) Contains(x, y, z int) bool {
	for i, v := range [3]int{x, y, z} {
		if v < c.Anchor[i]-c.Side || v >= c.Anchor[i] {
			return false
		}
	}
	return true
}

// An Option configures Extract.
type Option func(e *extractor)

// WithScale multiplies every extracted anchor by scale.
//
// This translates anchors from the units of a coarse grid
// into the units the caller places bricks in.
func WithScale(scale int) Option {
	return func(e *extractor) {
		if scale > 1 {
			e.scale = scale
		}
	}
}

// ExtractGrid builds the distance grid of g and extracts
// cubes from it.
func ExtractGrid(g *Grid, opts ...Option) ([]Cube, error) {
	d, err := BuildDistanceGrid(g)
	if err != nil {
		return nil, errors.Wrap(err, "extract cubes")
	}
	return Extract(d, opts...)
}

// Extract greedily claims non-overlapping palette cubes
// from a distance grid, largest values first.
//
// When two cells have the same value, the one with the
// larger flat index (the lexicographically larger
// (z, y, x)) is claimed first.
//
// If a snapped cube overlaps a cube that was already
// claimed, it is halved until it fits. Every filled voxel
// ends up in exactly one cube.
func Extract(d *DistanceGrid, opts ...Option) ([]Cube, error) {
	if d == nil {
		return nil, &ShapeError{Op: "extract cubes", Reason: "nil distance grid"}
	}
	e := &extractor{
		grid:    d,
		visited: bitset.New(uint(d.Len())),
		scale:   1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e.run()
}

type extractor struct {
	grid    *DistanceGrid
	visited *bitset.BitSet
	scale   int
}

func (e *extractor) run() ([]Cube, error) {
	queue := newCellQueue(e.grid.values)
	var result []Cube
	for queue.Len() > 0 {
		idx := heap.Pop(queue).(int)
		if e.visited.Test(uint(idx)) {
			continue
		}
		value := int(e.grid.values[idx])
		if value == 0 {
			break
		}
		x, y, z := e.grid.Coords(idx)
		size := SnapDown(value)
		for {
			claimed, err := e.claim(x, y, z, size)
			if err != nil {
				return nil, errors.Wrapf(err, "extract cubes: cell (%d, %d, %d)", x, y, z)
			}
			if claimed {
				break
			}
			size, err = nextSmaller(size)
			if err != nil {
				return nil, errors.Wrapf(err, "extract cubes: cell (%d, %d, %d)", x, y, z)
			}
		}
		result = append(result, Cube{
			Side:   size,
			Anchor: [3]int{x * e.scale, y * e.scale, z * e.scale},
		})
	}
	return result, nil
}

// claim marks every cell of the cube with far corner
// (x, y, z) as visited, unless one of them already is.
func (e *extractor) claim(x, y, z, size int) (bool, error) {
	minX, minY, minZ := x-size+1, y-size+1, z-size+1
	if minX < 1 || minY < 1 || minZ < 1 {
		return false, ErrSpanUnderflow
	}
	for k := minZ; k <= z; k++ {
		for j := minY; j <= y; j++ {
			for i := minX; i <= x; i++ {
				if e.visited.Test(uint(e.grid.Index(i, j, k))) {
					return false, nil
				}
			}
		}
	}
	for k := minZ; k <= z; k++ {
		for j := minY; j <= y; j++ {
			for i := minX; i <= x; i++ {
				e.visited.Set(uint(e.grid.Index(i, j, k)))
			}
		}
	}
	return true, nil
}

// cellQueue is a max-heap of distance grid cells.
type cellQueue struct {
	values []int32
	cells  []int
}

func newCellQueue(values []int32) *cellQueue {
	q := &cellQueue{values: values}
	for i, v := range values {
		if v > 0 {
			q.cells = append(q.cells, i)
		}
	}
	heap.Init(q)
	return q
}

func (c *cellQueue) Len() int {
	return len(c.cells)
}

func (c *cellQueue) Less(i, j int) bool {
	a, b := c.cells[i], c.cells[j]
	if c.values[a] != c.values[b] {
		return c.values[a] > c.values[b]
	}
	return a > b
}

func (c *cellQueue) Swap(i, j int) {
	c.cells[i], c.cells[j] = c.cells[j], c.cells[i]
}

func (c *cellQueue) Push(x interface{}) {
	c.cells = append(c.cells, x.(int))
}

func (c *cellQueue) Pop() interface{} {
	n := len(c.cells)
	res := c.cells[n-1]
	c.cells = c.cells[:n-1]
	return res
}
