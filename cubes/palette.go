package cubes

import (
	"math/bits"

	"github.com/unixpickle/essentials"
)

// Palette lists the cube sizes that can be placed, from
// smallest to largest.
var Palette = []int{1, 2, 4, 8, 16, 32, 64}

const (
	MinCubeSize = 1
	MaxCubeSize = 64
)

// SnapDown clamps a raw cube size to the palette range and
// rounds it down to a power of two.
func SnapDown(raw int) int {
	raw = essentials.MaxInt(MinCubeSize, essentials.MinInt(raw, MaxCubeSize))
	return 1 << uint(bits.Len(uint(raw))-1)
}

// InPalette checks if a size can be placed as-is.
func InPalette(size int) bool {
	return size >= MinCubeSize && size <= MaxCubeSize && size&(size-1) == 0
}

// nextSmaller gets the next palette size below size.
func nextSmaller(size int) (int, error) {
	if size <= MinCubeSize {
		return 0, ErrPaletteExhausted
	}
	return size / 2, nil
}
