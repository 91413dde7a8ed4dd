// Package blockland turns extracted cubes into Blockland
// bricks and writes them as .bls save files.
package blockland

import (
	"github.com/divark/schematic2bls/cubes"
)

// UnitHeight is the vertical distance between two stacked
// 1x cube pieces, in placement units.
const UnitHeight float32 = 0.3

// A Brick is a single placed cube brick.
type Brick struct {
	Position [3]float32
	Size     int

	// Floored is set for bricks resting on the baseplate.
	Floored bool

	// Bottom1xCube selects the bottom half of a 1x cube.
	// It is ignored for larger bricks.
	Bottom1xCube bool

	// Anchor is the far corner of the source cube in
	// distance grid coordinates. Bundling compares anchors
	// rather than positions.
	Anchor [3]int
}

// MapCube computes the placement of a cube.
//
// Each grid step is half a placement unit, and bricks are
// positioned by their centers.
func MapCube(c cubes.Cube) Brick {
	size := float32(c.Side)
	x := (float32(c.Anchor[0]) - size/2) / 2
	y := (float32(c.Anchor[1]) - size/2) / 2
	var z float32
	if c.Side > 1 {
		z = float32(c.Anchor[2])/2 - size/4
	} else {
		z = UnitHeight * float32(c.Anchor[2])
	}
	return Brick{
		Position: [3]float32{x, y, z},
		Size:     c.Side,
		Floored:  c.Anchor[2] == c.Side,
		Anchor:   c.Anchor,
	}
}

// MapCubes maps every cube to a brick, keeping the order.
func MapCubes(cs []cubes.Cube) []Brick {
	res := make([]Brick, len(cs))
	for i, c := range cs {
		res[i] = MapCube(c)
	}
	return res
}
