package spmstitch

import "math"

// Displacement is the pixel displacement of tileO relative to tileT.
type Displacement struct {
	DX, DY int
}

// AlignOptions tunes the 10%-inset, physical-prior search window computed
// in step 2 below. The defaults match spec.md §4.4 exactly.
type AlignOptions struct {
	// EdgeInset is the fraction of each tile edge excluded from the
	// search window to suppress scan-edge artifacts (default 0.10).
	EdgeInset float64
	// OverlapMargin is the extra fraction trimmed off the window width
	// once the physical prior has shrunk it to the overlap region
	// (default 0.10, for a combined 0.20 used in the width/height
	// formulas of spec.md §4.4).
	OverlapMargin float64
}

func defaultAlignOptions() AlignOptions {
	return AlignOptions{EdgeInset: 0.1, OverlapMargin: 0.1}
}

// AlignPair determines the pixel displacement of tileO relative to tileT
// given their decoded (and already flattened) real rasters and their
// physical stage coordinates (spec.md §4.4).
func AlignPair(tileT, tileO *Tile, opts AlignOptions) (Displacement, error) {
	if len(tileT.Real) == 0 || len(tileT.Real[0]) == 0 {
		return Displacement{}, &AlignmentInputError{Reason: "template tile is empty"}
	}
	if len(tileO.Real) == 0 || len(tileO.Real[0]) == 0 {
		return Displacement{}, &AlignmentInputError{Reason: "offset tile is empty"}
	}

	normT := normalizeTo8Bit(tileT.Real)
	normO := normalizeTo8Bit(tileO.Real)

	w := float64(tileT.Header.ScanSizeNM)
	cols := float64(tileT.Cols())
	rows := float64(tileT.Rows())

	xDiff := float64((tileO.Header.EngageXNM + tileO.Header.XOffsetNM) - (tileT.Header.EngageXNM + tileT.Header.XOffsetNM))
	yDiff := float64((tileO.Header.EngageYNM + tileO.Header.YOffsetNM) - (tileT.Header.EngageYNM + tileT.Header.YOffsetNM))

	inset := opts.EdgeInset
	margin := opts.OverlapMargin

	var xStart, width int
	if w == 0 {
		xStart, width = int(inset*cols), int((1-2*inset)*cols)
	} else if xDiff >= 0 {
		xStart = int(inset * cols)
		width = int((1 - xDiff/w - (inset + margin)) * cols)
	} else {
		xStart = int((-xDiff/w + inset) * cols)
		width = int(cols) - xStart - int(inset*cols)
	}

	var yStart, height int
	if w == 0 {
		yStart, height = int(inset*rows), int((1-2*inset)*rows)
	} else if yDiff >= 0 {
		yStart = int((yDiff/w + inset) * rows)
		height = int(rows) - yStart - int(inset*rows)
	} else {
		yStart = int(inset * rows)
		height = int((1 + yDiff/w - (inset + margin)) * rows)
	}

	if width <= 0 || height <= 0 || xStart < 0 || yStart < 0 ||
		xStart+width > len(normT[0]) || yStart+height > len(normT) {
		return Displacement{}, &AlignmentInputError{Reason: "computed search window lies outside the template tile"}
	}

	template := cropWindow(normT, xStart, yStart, width, height)

	mx, my := matchTemplateNCC(template, normO)

	return Displacement{DX: xStart - mx, DY: yStart - my}, nil
}

// normalizeTo8Bit linearly rescales real into [0, 255] over its own
// min/max (spec.md §4.4 step 1).
func normalizeTo8Bit(real [][]float64) [][]float64 {
	min, max := real[0][0], real[0][0]
	for _, row := range real {
		for _, v := range row {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	out := make([][]float64, len(real))
	spread := max - min
	for r, row := range real {
		line := make([]float64, len(row))
		if spread == 0 {
			out[r] = line
			continue
		}
		for c, v := range row {
			line[c] = (v - min) / spread * 255
		}
		out[r] = line
	}
	return out
}

func cropWindow(img [][]float64, x, y, w, h int) [][]float64 {
	out := make([][]float64, h)
	for r := 0; r < h; r++ {
		row := make([]float64, w)
		copy(row, img[y+r][x:x+w])
		out[r] = row
	}
	return out
}

// matchTemplateNCC finds the top-left location in search that maximizes
// the zero-mean normalized cross-correlation against template (OpenCV's
// TM_CCOEFF_NORMED), returning the argmax location.
func matchTemplateNCC(template, search [][]float64) (int, int) {
	th, tw := len(template), len(template[0])
	sh, sw := len(search), len(search[0])

	tmean := 0.0
	for _, row := range template {
		for _, v := range row {
			tmean += v
		}
	}
	tmean /= float64(th * tw)

	tnorm := make([][]float64, th)
	tss := 0.0
	for r, row := range template {
		line := make([]float64, tw)
		for c, v := range row {
			d := v - tmean
			line[c] = d
			tss += d * d
		}
		tnorm[r] = line
	}

	bestScore := math.Inf(-1)
	bestX, bestY := 0, 0

	maxY := sh - th
	maxX := sw - tw
	for y := 0; y <= maxY; y++ {
		for x := 0; x <= maxX; x++ {
			smean := 0.0
			for r := 0; r < th; r++ {
				for c := 0; c < tw; c++ {
					smean += search[y+r][x+c]
				}
			}
			smean /= float64(th * tw)

			num := 0.0
			sss := 0.0
			for r := 0; r < th; r++ {
				for c := 0; c < tw; c++ {
					d := search[y+r][x+c] - smean
					num += d * tnorm[r][c]
					sss += d * d
				}
			}

			denom := math.Sqrt(tss * sss)
			var score float64
			if denom == 0 {
				score = 0
			} else {
				score = num / denom
			}
			if score > bestScore {
				bestScore = score
				bestX, bestY = x, y
			}
		}
	}
	return bestX, bestY
}
