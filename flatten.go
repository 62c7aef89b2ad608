package spmstitch

// Flatten removes per-row linear tilt from a real-valued image in place,
// fitting z = m*c + b per row by ordinary least squares against the
// column index and subtracting it (spec.md §4.3). Rows are independent;
// no cross-row fit is performed.
func Flatten(real [][]float64) {
	if len(real) == 0 || len(real[0]) == 0 {
		return
	}
	cols := len(real[0])
	xbar := float64(cols-1) / 2
	sumMuSq := 0.0
	for c := 0; c < cols; c++ {
		d := float64(c) - xbar
		sumMuSq += d * d
	}
	if sumMuSq == 0 {
		return
	}

	for _, row := range real {
		zbar := mean(row)
		sumMuZ := 0.0
		for c, z := range row {
			sumMuZ += (float64(c) - xbar) * (z - zbar)
		}
		m := sumMuZ / sumMuSq
		b := zbar - m*xbar
		for c := range row {
			row[c] -= m*float64(c) + b
		}
	}
}

// FlattenTile applies Flatten to a Tile's Real raster, the single place
// the pipeline mutates a decoded tile (spec.md §3's ownership note).
func FlattenTile(t *Tile) {
	Flatten(t.Real)
}

func mean(row []float64) float64 {
	sum := 0.0
	for _, v := range row {
		sum += v
	}
	return sum / float64(len(row))
}
