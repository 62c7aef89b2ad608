package spmstitch

// Mosaic is a dense H x W matrix of physical-unit samples, plus an
// explicit occupancy mask recording which pixels have been painted. The
// mask replaces the "0.0 as sentinel" convention flagged in spec.md §9:
// a legitimately-zero sample no longer looks unwritten.
type Mosaic struct {
	Values   [][]float64
	Written  [][]bool
	H, W     int
}

func newMosaic(size int) *Mosaic {
	values := make([][]float64, size)
	written := make([][]bool, size)
	for i := range values {
		values[i] = make([]float64, size)
		written[i] = make([]bool, size)
	}
	return &Mosaic{Values: values, Written: written, H: size, W: size}
}

// Composite paints each tile's real raster onto a new canvas using the
// placements produced by PlanCanvas, first-writer-wins: once a pixel has
// been written by an earlier tile, later tiles never overwrite it
// (spec.md §4.6). placements[0] is the bounding-box tombstone; placements
// for tile i live at placements[i+1].
func Composite(tiles []*Tile, placements []Placement) *Mosaic {
	box := placements[0]
	size := CanvasSize(box)
	m := newMosaic(size)

	for i, t := range tiles {
		p := placements[i+1]
		for r := 0; r < t.Rows(); r++ {
			tr := p.YStart - box.YStart + r
			for c := 0; c < t.Cols(); c++ {
				tc := p.XStart - box.XStart + c
				if m.Written[tr][tc] {
					continue
				}
				m.Values[tr][tc] = t.Real[r][c]
				m.Written[tr][tc] = true
			}
		}
	}
	return m
}
