package quant

// OptimizePalette renumbers indices in place to a dense palette
// containing only colors actually used, in first-appearance order, per
// spec.md §4.5.3 and original_source/src/quant.c's foptimize_palette
// migration-map scheme. It returns the trimmed RGB palette (3 bytes per
// color) and the number of colors it contains.
func OptimizePalette(indices []int, palette []byte) (trimmed []byte, ncolors int) {
	ncolors = len(palette) / 3
	migration := make([]int, ncolors) // 0 = unused, else new_index+1
	trimmed = make([]byte, 0, len(palette))
	next := 0
	for i, idx := range indices {
		m := migration[idx]
		if m == 0 {
			trimmed = append(trimmed, palette[idx*3], palette[idx*3+1], palette[idx*3+2])
			next++
			m = next
			migration[idx] = m
		}
		indices[i] = m - 1
	}
	return trimmed, next
}
