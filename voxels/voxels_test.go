package voxels

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/divark/schematic2bls/cubes"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
)

func testGrid(t *testing.T) *cubes.Grid {
	t.Helper()
	g, err := cubes.NewGrid(3, 2, 4)
	require.NoError(t, err)
	g.Set(0, 0, 0, true)
	g.Set(2, 1, 3, true)
	g.Set(1, 0, 2, true)
	return g
}

// nbtWriter builds raw NBT payloads for tests.
type nbtWriter struct {
	bytes.Buffer
}

func (n *nbtWriter) name(tagType byte, name string) {
	n.WriteByte(tagType)
	binary.Write(n, binary.BigEndian, uint16(len(name)))
	n.WriteString(name)
}

func (n *nbtWriter) short(name string, v int16) {
	n.name(2, name)
	binary.Write(n, binary.BigEndian, v)
}

func (n *nbtWriter) str(name, v string) {
	n.name(8, name)
	binary.Write(n, binary.BigEndian, uint16(len(v)))
	n.WriteString(v)
}

func (n *nbtWriter) byteArray(name string, v []byte) {
	n.name(7, name)
	binary.Write(n, binary.BigEndian, int32(len(v)))
	n.Write(v)
}

func encodeSchematic(t *testing.T, width, height, length int16, blocks []byte) []byte {
	t.Helper()
	var n nbtWriter
	n.name(10, "Schematic")
	n.short("Width", width)
	n.short("Height", height)
	n.short("Length", length)
	n.str("Materials", "Alpha")
	n.byteArray("Blocks", blocks)
	n.WriteByte(0)

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(n.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestReadSchematic(t *testing.T) {
	// Width (x) 3, Height (y) 2, Length (z) 2.
	blocks := make([]byte, 3*2*2)
	setBlock := func(x, y, z int, id byte) {
		blocks[(y*2+z)*3+x] = id
	}
	setBlock(0, 0, 0, 1)
	setBlock(2, 1, 0, 1)
	setBlock(1, 1, 1, 35)

	data := encodeSchematic(t, 3, 2, 2, blocks)
	g, err := ReadSchematic(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 3, g.Length)
	assert.Equal(t, 2, g.Width)
	assert.Equal(t, 2, g.Height)
	assert.Equal(t, 3, g.Filled())
	assert.True(t, g.Get(0, 0, 0))
	assert.True(t, g.Get(2, 0, 1))
	assert.True(t, g.Get(1, 1, 1))
	assert.False(t, g.Get(1, 0, 0))
}

func TestReadSchematicErrors(t *testing.T) {
	_, err := ReadSchematic(strings.NewReader("not gzip"))
	assert.Error(t, err)

	data := encodeSchematic(t, 2, 2, 2, []byte{1, 1, 1})
	_, err = ReadSchematic(bytes.NewReader(data))
	var shapeErr *cubes.ShapeError
	require.True(t, errors.As(err, &shapeErr))
}

func TestNumpyRoundTrip(t *testing.T) {
	g := testGrid(t)
	encoded := EncodeNumpy(g)

	headerLen := binary.LittleEndian.Uint16(encoded[8:10])
	assert.Zero(t, (10+int(headerLen))%64)
	assert.Equal(t, byte('\n'), encoded[10+int(headerLen)-1])

	decoded, err := ReadNumpy(bytes.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, g.Slices(), decoded.Slices())
}

func TestReadNumpyFortranOrder(t *testing.T) {
	header := "{'descr': '|u1', 'fortran_order': True, 'shape': (2, 2, 2), }"
	for (10+len(header)+1)%64 != 0 {
		header += " "
	}
	header += "\n"
	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY\x01\x00")
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	data := make([]byte, 8)
	// Fortran order: x varies fastest.
	data[1] = 1 // (1, 0, 0)
	data[6] = 7 // (0, 1, 1)
	buf.Write(data)

	g, err := ReadNumpy(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Filled())
	assert.True(t, g.Get(1, 0, 0))
	assert.True(t, g.Get(0, 1, 1))
}

func TestReadNumpyErrors(t *testing.T) {
	_, err := ReadNumpy(strings.NewReader("\x93NUMPZ\x01\x00\x00\x00"))
	assert.Error(t, err)

	header := "{'descr': '<f8', 'fortran_order': False, 'shape': (1, 1, 1), }\n"
	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY\x01\x00")
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	_, err = ReadNumpy(&buf)
	assert.Error(t, err)

	header = "{'descr': '|b1', 'fortran_order': False, 'shape': (4, 4), }\n"
	buf.Reset()
	buf.WriteString("\x93NUMPY\x01\x00")
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	_, err = ReadNumpy(&buf)
	var shapeErr *cubes.ShapeError
	require.True(t, errors.As(err, &shapeErr))
}

func TestReadNumpyHugeShape(t *testing.T) {
	header := "{'descr': '|b1', 'fortran_order': False, 'shape': (4294967296, 4294967296, 1), }\n"
	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY\x01\x00")
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	_, err := ReadNumpy(&buf)
	var shapeErr *cubes.ShapeError
	require.True(t, errors.As(err, &shapeErr))

	buf.Reset()
	buf.WriteString("\x93NUMPY\x02\x00")
	binary.Write(&buf, binary.LittleEndian, uint32(1<<31))
	_, err = ReadNumpy(&buf)
	assert.Error(t, err)
}

func TestNPZRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.npz")
	g := testGrid(t)
	require.NoError(t, WriteNPZ(path, g))

	decoded, err := ReadNPZ(path)
	require.NoError(t, err)
	assert.Equal(t, g.Slices(), decoded.Slices())

	loaded, err := Load(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, g.Slices(), loaded.Slices())
}

func TestReadJSON(t *testing.T) {
	// z, then y, then x.
	doc := `[
		[[0.9, 0.1], [0.5, false], [true, 0]],
		[[0, 0], [0, 0], [0, 0.75]]
	]`
	g, err := ReadJSON(strings.NewReader(doc), 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Length)
	assert.Equal(t, 3, g.Width)
	assert.Equal(t, 2, g.Height)

	assert.True(t, g.Get(0, 0, 0))
	assert.False(t, g.Get(1, 0, 0))
	assert.True(t, g.Get(0, 1, 0))
	assert.True(t, g.Get(0, 2, 0))
	assert.True(t, g.Get(1, 2, 1))
	assert.Equal(t, 4, g.Filled())

	strict, err := ReadJSON(strings.NewReader(doc), 0.8)
	require.NoError(t, err)
	assert.Equal(t, 2, strict.Filled())
	assert.True(t, strict.Get(0, 2, 0))
}

func TestReadJSONErrors(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`[[[1, 0]], [[1]]]`), 0.5)
	var shapeErr *cubes.ShapeError
	require.True(t, errors.As(err, &shapeErr))

	_, err = ReadJSON(strings.NewReader(`[[["a"]]]`), 0.5)
	assert.Error(t, err)

	_, err = ReadJSON(strings.NewReader(`{"voxels": []}`), 0.5)
	assert.Error(t, err)

	_, err = ReadJSON(strings.NewReader(`[[[1`), 0.5)
	assert.Error(t, err)
}

// boxMeshOFF is a closed box that does not line up with
// voxel boundaries, plus two small triangles stretching
// the bounds to the unit cube.
const boxMeshOFF = `OFF
14 14 0
0.13 0.17 0.11
0.61 0.17 0.11
0.61 0.59 0.11
0.13 0.59 0.11
0.13 0.17 0.67
0.61 0.17 0.67
0.61 0.59 0.67
0.13 0.59 0.67
0 0 0
0.01 0 0
0 0.01 0
1 1 1
0.99 1 1
1 0.99 1
3 0 2 1
3 0 3 2
3 4 5 6
3 4 6 7
3 0 1 5
3 0 5 4
3 1 2 6
3 1 6 5
3 2 3 7
3 2 7 6
3 3 0 4
3 3 4 7
3 8 9 10
3 11 12 13
`

func TestReadMesh(t *testing.T) {
	for _, method := range []Method{Connect, Parity} {
		t.Run(string(method), func(t *testing.T) {
			g, err := ReadMesh(strings.NewReader(boxMeshOFF), 10, method)
			require.NoError(t, err)
			assert.Equal(t, 10, g.Length)
			assert.Equal(t, 10, g.Width)
			assert.Equal(t, 10, g.Height)

			for x := 1; x <= 5; x++ {
				for y := 2; y <= 5; y++ {
					for z := 1; z <= 6; z++ {
						assert.True(t, g.Get(x, y, z), "interior voxel (%d, %d, %d)", x, y, z)
					}
				}
			}
			assert.False(t, g.Get(0, 9, 0))
			assert.False(t, g.Get(9, 0, 5))
			assert.False(t, g.Get(3, 8, 3))
		})
	}
}

func TestVoxelizeDuplicateTriangles(t *testing.T) {
	triangles, err := model3d.ReadOFF(strings.NewReader(boxMeshOFF))
	require.NoError(t, err)
	var doubled []*model3d.Triangle
	for _, tri := range triangles {
		dup := *tri
		doubled = append(doubled, tri, &dup)
	}

	for _, method := range []Method{Connect, Parity} {
		t.Run(string(method), func(t *testing.T) {
			single, err := Voxelize(model3d.NewMeshTriangles(triangles), 10, method)
			require.NoError(t, err)
			double, err := Voxelize(model3d.NewMeshTriangles(doubled), 10, method)
			require.NoError(t, err)
			assert.Equal(t, single.Slices(), double.Slices())
			if method == Parity {
				assert.Equal(t, 5*4*6, single.Filled())
			}
		})
	}
}

func TestReadMeshErrors(t *testing.T) {
	_, err := ReadMesh(strings.NewReader(boxMeshOFF), 0, Connect)
	var shapeErr *cubes.ShapeError
	require.True(t, errors.As(err, &shapeErr))

	_, err = ParseMethod("marching")
	assert.Error(t, err)
	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, Connect, m)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "model.JSON")
	require.NoError(t, ioutil.WriteFile(jsonPath, []byte(`[[[1, 1]]]`), 0644))
	g, err := Load(jsonPath, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, g.Filled())

	npyPath := filepath.Join(dir, "model.npy")
	require.NoError(t, ioutil.WriteFile(npyPath, EncodeNumpy(testGrid(t)), 0644))
	g, err = Load(npyPath, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, g.Filled())

	schematicPath := filepath.Join(dir, "model.schematic")
	data := encodeSchematic(t, 1, 1, 1, []byte{1})
	require.NoError(t, ioutil.WriteFile(schematicPath, data, 0644))
	g, err = Load(schematicPath, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, g.Filled())

	_, err = Load(filepath.Join(dir, "model.obj"), DefaultOptions())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Load(filepath.Join(dir, "missing.json"), DefaultOptions())
	assert.True(t, os.IsNotExist(errors.Cause(err)))

	assert.True(t, Supported("a/b/c.OFF"))
	assert.False(t, Supported("c.stl"))
}
