package voxels

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/divark/schematic2bls/cubes"
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const gridSchemaSource = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"items": {
		"type": "array",
		"items": {
			"type": "array",
			"items": {"type": ["number", "boolean"]}
		}
	}
}`

var gridSchema = jsonschema.MustCompileString("voxel-grid.schema.json", gridSchemaSource)

// ReadJSON reads a grid encoded as a JSON 3D array with z
// on the outer dimension, then y, then x.
//
// Entries may be booleans or numbers. Numbers greater
// than or equal to threshold are filled.
func ReadJSON(r io.Reader, threshold float64) (*cubes.Grid, error) {
	var object interface{}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&object); err != nil {
		return nil, errors.Wrap(err, "read voxel grid")
	}
	if err := gridSchema.Validate(object); err != nil {
		return nil, errors.Wrap(err, "read voxel grid")
	}

	zPlanes := object.([]interface{})
	height := len(zPlanes)
	var width, length int
	if height > 0 {
		width = len(zPlanes[0].([]interface{}))
		if width > 0 {
			length = len(zPlanes[0].([]interface{})[0].([]interface{}))
		}
	}
	g, err := cubes.NewGrid(length, width, height)
	if err != nil {
		return nil, errors.Wrap(err, "read voxel grid")
	}
	for z, yPlane := range zPlanes {
		yPlane := yPlane.([]interface{})
		if len(yPlane) != width {
			return nil, invalidDimensions(z, -1, len(yPlane), width)
		}
		for y, xLine := range yPlane {
			xLine := xLine.([]interface{})
			if len(xLine) != length {
				return nil, invalidDimensions(z, y, len(xLine), length)
			}
			for x, value := range xLine {
				switch value := value.(type) {
				case bool:
					g.Set(x, y, z, value)
				case float64:
					g.Set(x, y, z, value >= threshold)
				}
			}
		}
	}
	return g, nil
}

func invalidDimensions(z, y, got, expected int) error {
	where := fmt.Sprintf("plane z=%d", z)
	if y >= 0 {
		where = fmt.Sprintf("line z=%d y=%d", z, y)
	}
	return &cubes.ShapeError{
		Op:     "read voxel grid",
		Reason: fmt.Sprintf("invalid dimensions: %s has %d entries, expected %d", where, got, expected),
	}
}
