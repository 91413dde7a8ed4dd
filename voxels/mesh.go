package voxels

import (
	"io"
	"math"
	"sort"

	"github.com/divark/schematic2bls/cubes"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

// Method selects how a mesh is voxelized.
type Method string

const (
	// Connect fills every voxel that cannot be reached
	// from outside the mesh, plus voxels bordering its
	// surface.
	Connect Method = "connect"

	// Parity fills voxels whose centers are inside the
	// mesh along all three axes, by counting surface
	// crossings.
	Parity Method = "parity"
)

// ParseMethod validates a voxelization method name.
func ParseMethod(name string) (Method, error) {
	switch m := Method(name); m {
	case Connect, Parity:
		return m, nil
	case "":
		return Connect, nil
	}
	return "", errors.Errorf("unknown voxelization method %q", name)
}

// ReadMesh reads an OFF mesh and voxelizes it into a
// gridSize^3 grid.
func ReadMesh(r io.Reader, gridSize int, method Method) (*cubes.Grid, error) {
	if gridSize < 1 {
		return nil, &cubes.ShapeError{Op: "read mesh", Reason: "grid size must be positive"}
	}
	triangles, err := model3d.ReadOFF(r)
	if err != nil {
		return nil, errors.Wrap(err, "read mesh")
	}
	if len(triangles) == 0 {
		return nil, errors.New("read mesh: no triangles")
	}
	return Voxelize(model3d.NewMeshTriangles(triangles), gridSize, method)
}

// Voxelize converts a mesh into a gridSize^3 grid.
//
// The mesh is centered in a cube fitting its largest
// dimension, so thin models leave empty layers on their
// shorter axes.
func Voxelize(m *model3d.Mesh, gridSize int, method Method) (*cubes.Grid, error) {
	g, err := cubes.NewGrid(gridSize, gridSize, gridSize)
	if err != nil {
		return nil, errors.Wrap(err, "voxelize")
	}
	v := newVoxelizer(m, gridSize)
	switch method {
	case Connect, "":
		v.floodFill(g)
	case Parity:
		v.parityFill(g)
	default:
		return nil, errors.Errorf("voxelize: unknown method %q", method)
	}
	return g, nil
}

type voxelCoord [3]int

// hitEpsilon merges crossings closer than this many
// cells, which come from shared edges or duplicate
// triangles.
const hitEpsilon = 1e-6

type voxelizer struct {
	origin   model3d.Coord3D
	cellSize float64
	gridSize int

	// lines[axis] has the sorted surface crossings along
	// each padded grid line parallel to axis. A crossing
	// at t lies t cells past the center of the line's
	// first (padding) voxel, so voxel k is at t = k+1.
	lines [3][][]float64
}

func newVoxelizer(m *model3d.Mesh, gridSize int) *voxelizer {
	collider := model3d.MeshToCollider(m)

	sizes := collider.Max().Sub(collider.Min())
	size := math.Max(math.Max(sizes.X, sizes.Y), sizes.Z)

	unit := model3d.Coord3D{X: 1, Y: 1, Z: 1}
	v := &voxelizer{
		origin:   sizes.Sub(unit.Scale(size)).Scale(0.5).Add(collider.Min()),
		cellSize: size / float64(gridSize),
		gridSize: gridSize,
	}
	for axis := range v.lines {
		v.lines[axis] = v.castLines(collider, axis)
	}
	return v
}

// center gets the mesh-space center of a voxel.
func (v *voxelizer) center(c voxelCoord) model3d.Coord3D {
	var arr [3]float64
	for i, x := range c {
		arr[i] = (float64(x) + 0.5) * v.cellSize
	}
	return v.origin.Add(model3d.NewCoord3DArray(arr))
}

// castLines casts one ray along axis through every row
// of padded voxels.
func (v *voxelizer) castLines(collider model3d.Collider, axis int) [][]float64 {
	side := v.gridSize + 2
	var dir [3]float64
	dir[axis] = 1
	ray := &model3d.Ray{Direction: model3d.NewCoord3DArray(dir)}

	lines := make([][]float64, side*side)
	for i := range lines {
		var start voxelCoord
		start[axis] = -1
		start[(axis+1)%3] = i/side - 1
		start[(axis+2)%3] = i%side - 1
		ray.Origin = v.center(start)

		var hits []float64
		collider.RayCollisions(ray, func(rc model3d.RayCollision) {
			hits = append(hits, rc.Scale/v.cellSize)
		})
		sort.Float64s(hits)
		merged := hits[:0]
		for _, h := range hits {
			if len(merged) == 0 || h-merged[len(merged)-1] > hitEpsilon {
				merged = append(merged, h)
			}
		}
		lines[i] = merged
	}
	return lines
}

// line gets the crossings on the row through c along
// axis, and c's position on that row.
func (v *voxelizer) line(c voxelCoord, axis int) ([]float64, float64) {
	side := v.gridSize + 2
	idx := (c[(axis+1)%3]+1)*side + c[(axis+2)%3] + 1
	return v.lines[axis][idx], float64(c[axis] + 1)
}

// crossing finds a surface crossing between c and its
// neighbor step voxels away along axis.
func (v *voxelizer) crossing(c voxelCoord, axis, step int) (float64, bool) {
	hits, pos := v.line(c, axis)
	lo, hi := pos, pos+float64(step)
	if step < 0 {
		lo, hi = hi, lo
	}
	i := sort.SearchFloat64s(hits, lo)
	if i < len(hits) && hits[i] <= hi {
		return hits[i], true
	}
	return 0, false
}

// floodFill searches outward from a corner outside the
// mesh along grid lines. Voxels the search cannot reach
// are inside the mesh, and voxels where the search stops
// at a surface nearer to them than to the next voxel are
// on the boundary; both are filled.
func (v *voxelizer) floodFill(g *cubes.Grid) {
	reachable := newPaddedVoxels(v.gridSize)
	boundary := newPaddedVoxels(v.gridSize)

	start := voxelCoord{-1, -1, -1}
	reachable.set(start)
	queue := []voxelCoord{start}
	for i := 0; i < len(queue); i++ {
		coord := queue[i]
		for axis := 0; axis < 3; axis++ {
			for _, step := range []int{-1, 1} {
				next := coord
				next[axis] += step
				if !reachable.inBounds(next) {
					continue
				}
				if hit, ok := v.crossing(coord, axis, step); ok {
					if math.Abs(hit-float64(coord[axis]+1)) < 0.5 {
						boundary.set(coord)
					}
					continue
				}
				if !reachable.get(next) {
					reachable.set(next)
					queue = append(queue, next)
				}
			}
		}
	}

	n := v.gridSize
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				c := voxelCoord{x, y, z}
				g.Set(x, y, z, boundary.get(c) || !reachable.get(c))
			}
		}
	}
}

// parityFill fills voxels with an odd number of surface
// crossings on both sides of them along every axis.
func (v *voxelizer) parityFill(g *cubes.Grid) {
	n := v.gridSize
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			for z := 0; z < n; z++ {
				g.Set(x, y, z, v.inside(voxelCoord{x, y, z}))
			}
		}
	}
}

func (v *voxelizer) inside(c voxelCoord) bool {
	for axis := 0; axis < 3; axis++ {
		hits, pos := v.line(c, axis)
		before := sort.SearchFloat64s(hits, pos)
		if before%2 == 0 || (len(hits)-before)%2 == 0 {
			return false
		}
	}
	return true
}

// paddedVoxels is a cubic voxel set with a one voxel
// border on every side, so coordinates range from -1 to
// size inclusive.
type paddedVoxels struct {
	size int
	data []bool
}

func newPaddedVoxels(size int) *paddedVoxels {
	side := size + 2
	return &paddedVoxels{size: size, data: make([]bool, side*side*side)}
}

func (p *paddedVoxels) index(c voxelCoord) int {
	side := p.size + 2
	return ((c[0]+1)*side+c[1]+1)*side + c[2] + 1
}

func (p *paddedVoxels) get(c voxelCoord) bool {
	return p.data[p.index(c)]
}

func (p *paddedVoxels) set(c voxelCoord) {
	p.data[p.index(c)] = true
}

func (p *paddedVoxels) inBounds(c voxelCoord) bool {
	for _, x := range c {
		if x < -1 || x > p.size {
			return false
		}
	}
	return true
}
