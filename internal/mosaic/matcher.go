package mosaic

import "sort"

// MatchRepeats selects, for every cell, the palette row whose mean color is
// nearest in LAB space. The same row may be selected any number of times.
//
// Distances are squared Euclidean over the full N x P matrix. Ties resolve
// to the lowest palette row index, so the result is a pure function of its
// inputs.
func MatchRepeats(cells, palette []RGB) []int {
	cellLab := ToLab(cells)
	paletteLab := ToLab(palette)

	selection := make([]int, len(cells))
	for i, cell := range cellLab {
		best := 0
		bestDist := labDistSq(cell, paletteLab[0])
		for p := 1; p < len(paletteLab); p++ {
			if d := labDistSq(cell, paletteLab[p]); d < bestDist {
				best = p
				bestDist = d
			}
		}
		selection[i] = best
	}
	return selection
}

// MatchUnique selects a palette row per cell without reuse while the pool
// lasts.
//
// Cells are processed in raster order (row-major, row ascending, then
// column ascending): each cell takes its nearest not-yet-used row and
// removes it from the pool, so earlier cells get first pick and later
// cells accept degraded matches. Once the pool is exhausted (more cells
// than palette rows) remaining cells silently fall back to their single
// globally nearest row, repeats and all. The processing order and the
// lowest-index tie-break are part of the contract; changing either changes
// the output.
func MatchUnique(cells, palette []RGB) []int {
	cellLab := ToLab(cells)
	paletteLab := ToLab(palette)

	available := make([]bool, len(paletteLab))
	for i := range available {
		available[i] = true
	}
	remaining := len(paletteLab)

	selection := make([]int, len(cellLab))
	ranked := make([]int, len(paletteLab))
	dists := make([]float64, len(paletteLab))

	for i, cell := range cellLab {
		for p, pal := range paletteLab {
			dists[p] = labDistSq(cell, pal)
			ranked[p] = p
		}
		sort.Slice(ranked, func(a, b int) bool {
			if dists[ranked[a]] != dists[ranked[b]] {
				return dists[ranked[a]] < dists[ranked[b]]
			}
			return ranked[a] < ranked[b]
		})

		if remaining == 0 {
			selection[i] = ranked[0]
			continue
		}
		for _, p := range ranked {
			if available[p] {
				selection[i] = p
				available[p] = false
				remaining--
				break
			}
		}
	}
	return selection
}

func labDistSq(a, b Lab) float64 {
	dl := a[0] - b[0]
	da := a[1] - b[1]
	db := a[2] - b[2]
	return dl*dl + da*da + db*db
}
