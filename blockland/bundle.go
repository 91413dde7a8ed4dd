package blockland

import "sort"

// UnitCubeBundles groups the indices of 1x bricks into
// vertical runs.
//
// Bricks within a bundle share x and y, and each one sits
// one grid layer above the previous. Bundles are ordered
// by anchor, and so are the bricks inside them.
func UnitCubeBundles(bricks []Brick) [][]int {
	var units []int
	for i, b := range bricks {
		if b.Size == 1 {
			units = append(units, i)
		}
	}
	sort.SliceStable(units, func(i, j int) bool {
		return anchorLess(bricks[units[i]].Anchor, bricks[units[j]].Anchor)
	})

	var bundles [][]int
	for _, idx := range units {
		if n := len(bundles); n > 0 {
			last := bundles[n-1]
			if stackedOn(bricks[idx], bricks[last[len(last)-1]]) {
				bundles[n-1] = append(last, idx)
				continue
			}
		}
		bundles = append(bundles, []int{idx})
	}
	return bundles
}

// BundleUnitCubes labels every 1x brick as a bottom or top
// piece, alternating up each bundle starting at the
// bottom. A lone 1x brick becomes a bottom piece.
//
// The input is not modified.
func BundleUnitCubes(bricks []Brick) []Brick {
	res := append([]Brick{}, bricks...)
	for _, bundle := range UnitCubeBundles(res) {
		for i, idx := range bundle {
			res[idx].Bottom1xCube = i%2 == 0
		}
	}
	return res
}

func anchorLess(a1, a2 [3]int) bool {
	for i := range a1 {
		if a1[i] != a2[i] {
			return a1[i] < a2[i]
		}
	}
	return false
}

func stackedOn(upper, lower Brick) bool {
	return upper.Anchor[0] == lower.Anchor[0] &&
		upper.Anchor[1] == lower.Anchor[1] &&
		upper.Anchor[2] == lower.Anchor[2]+1
}
