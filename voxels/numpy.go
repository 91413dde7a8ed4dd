package voxels

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/divark/schematic2bls/cubes"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

// NPZEntry is the name of the array inside .npz archives
// written by WriteNPZ.
const NPZEntry = "voxels.npy"

const numpyMagic = "\x93NUMPY"

// maxNumpyHeader bounds the header dict, which only
// describes dtype, order and shape.
const maxNumpyHeader = 1 << 16

var (
	descrExpr   = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	fortranExpr = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	shapeExpr   = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

// ReadNPZ reads a grid from a .npz archive.
//
// The archive's voxels.npy entry is used if present,
// otherwise its first .npy entry.
func ReadNPZ(npzPath string) (*cubes.Grid, error) {
	archive, err := zip.OpenReader(npzPath)
	if err != nil {
		return nil, errors.Wrap(err, "read npz")
	}
	defer archive.Close()

	var entry *zip.File
	for _, f := range archive.File {
		if f.Name == NPZEntry {
			entry = f
			break
		}
		if entry == nil && path.Ext(f.Name) == ".npy" {
			entry = f
		}
	}
	if entry == nil {
		return nil, errors.New("read npz: no .npy entry")
	}
	r, err := entry.Open()
	if err != nil {
		return nil, errors.Wrap(err, "read npz")
	}
	defer r.Close()
	g, err := ReadNumpy(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read npz entry %s", entry.Name)
	}
	return g, nil
}

// ReadNumpy reads a grid from a 3D boolean or uint8 .npy
// array. Non-zero entries are filled.
func ReadNumpy(r io.Reader) (*cubes.Grid, error) {
	br := bufio.NewReader(r)
	prefix := make([]byte, len(numpyMagic)+2)
	if _, err := io.ReadFull(br, prefix); err != nil {
		return nil, errors.Wrap(err, "read numpy")
	}
	if string(prefix[:len(numpyMagic)]) != numpyMagic {
		return nil, errors.New("read numpy: bad magic")
	}

	var headerLen int
	switch major := prefix[len(numpyMagic)]; major {
	case 1:
		var n uint16
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, errors.Wrap(err, "read numpy")
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(br, binary.LittleEndian, &n); err != nil {
			return nil, errors.Wrap(err, "read numpy")
		}
		headerLen = int(n)
	default:
		return nil, errors.Errorf("read numpy: unsupported version %d", major)
	}
	if headerLen > maxNumpyHeader {
		return nil, errors.Errorf("read numpy: header length %d too large", headerLen)
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, errors.Wrap(err, "read numpy header")
	}

	shape, fortran, err := parseNumpyHeader(string(header))
	if err != nil {
		return nil, err
	}
	g, err := cubes.NewGrid(shape[0], shape[1], shape[2])
	if err != nil {
		return nil, errors.Wrap(err, "read numpy")
	}
	data := make([]byte, len(g.Voxels()))
	if _, err := io.ReadFull(br, data); err != nil {
		return nil, errors.Wrap(err, "read numpy data")
	}

	voxels := g.Voxels()
	if !fortran {
		for i, b := range data {
			voxels[i] = b != 0
		}
		return g, nil
	}
	for i, b := range data {
		x := i % shape[0]
		y := (i / shape[0]) % shape[1]
		z := i / (shape[0] * shape[1])
		g.Set(x, y, z, b != 0)
	}
	return g, nil
}

func parseNumpyHeader(header string) (shape [3]int, fortran bool, err error) {
	descr := descrExpr.FindStringSubmatch(header)
	order := fortranExpr.FindStringSubmatch(header)
	dims := shapeExpr.FindStringSubmatch(header)
	if descr == nil || order == nil || dims == nil {
		return shape, false, errors.New("read numpy: malformed header")
	}
	switch descr[1] {
	case "|b1", "|u1", "<u1", "|i1":
	default:
		return shape, false, errors.Errorf("read numpy: unsupported dtype %s", descr[1])
	}

	var sizes []int
	for _, field := range strings.Split(dims[1], ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return shape, false, errors.Wrap(err, "read numpy shape")
		}
		sizes = append(sizes, n)
	}
	if len(sizes) != 3 {
		return shape, false, &cubes.ShapeError{
			Op:     "read numpy",
			Reason: fmt.Sprintf("expected 3 dimensions but got %d", len(sizes)),
		}
	}
	copy(shape[:], sizes)
	return shape, order[1] == "True", nil
}

// EncodeNumpy encodes a grid as a C-ordered boolean .npy
// array of shape (Length, Width, Height).
func EncodeNumpy(g *cubes.Grid) []byte {
	header := "\x93NUMPY\x01\x00\x00\x00{'descr': '|b1', 'fortran_order': False, 'shape': ("
	header += fmt.Sprintf("%d, %d, %d), }", g.Length, g.Width, g.Height)
	for (len(header)+1)%64 != 0 {
		header += " "
	}
	header += "\n"
	result := []byte(header)
	binary.LittleEndian.PutUint16(result[8:], uint16(len(header)-10))

	for _, v := range g.Voxels() {
		if v {
			result = append(result, 1)
		} else {
			result = append(result, 0)
		}
	}
	return result
}

// WriteNPZ saves a grid as a .npz archive holding a
// single voxels.npy array.
func WriteNPZ(path string, g *cubes.Grid) error {
	w, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "write npz")
	}
	defer w.Close()
	zipWriter := zip.NewWriter(w)
	fileWriter, err := zipWriter.Create(NPZEntry)
	if err != nil {
		return errors.Wrap(err, "write npz")
	}
	if _, err := fileWriter.Write(EncodeNumpy(g)); err != nil {
		return errors.Wrap(err, "write npz")
	}
	if err := zipWriter.Close(); err != nil {
		return errors.Wrap(err, "write npz")
	}
	return w.Close()
}
