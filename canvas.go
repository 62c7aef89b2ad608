package spmstitch

// Placement is a per-tile rectangle in canvas pixels.
type Placement struct {
	XStart, XEnd, YStart, YEnd int
}

func (p Placement) translated(d Displacement) Placement {
	return Placement{
		XStart: p.XStart + d.DX,
		XEnd:   p.XEnd + d.DX,
		YStart: p.YStart + d.DY,
		YEnd:   p.YEnd + d.DY,
	}
}

// CanvasAlignment is the alignment boundary that the padded square canvas
// must be a multiple of (spec.md §4.5: 64 scanlines).
const CanvasAlignment = 64

// PlanCanvas computes each tile's placement on a padded square canvas
// given the per-tile width/height (assumed identical across tiles) and
// the ordered pairwise displacements between consecutive tiles. Index 0
// of the returned slice is a tombstone holding the overall bounding box;
// indices 1..N hold the N tiles' placements.
func PlanCanvas(tileWidth, tileHeight int, displacements []Displacement) []Placement {
	n := len(displacements) + 1
	placements := make([]Placement, n+1)

	first := Placement{XStart: 0, XEnd: tileWidth, YStart: 0, YEnd: tileHeight}
	placements[1] = first
	minX, maxX, minY, maxY := first.XStart, first.XEnd, first.YStart, first.YEnd

	for i := 1; i < n; i++ {
		placements[i+1] = placements[i].translated(displacements[i-1])
		p := placements[i+1]
		if p.XStart < minX {
			minX = p.XStart
		}
		if p.XEnd > maxX {
			maxX = p.XEnd
		}
		if p.YStart < minY {
			minY = p.YStart
		}
		if p.YEnd > maxY {
			maxY = p.YEnd
		}
	}

	rh := maxY - minY
	rw := maxX - minX
	if rh < rw {
		maxX += padTo64(rw)
		rw = maxX - minX
		maxY += rw - rh
	} else {
		maxY += padTo64(rh)
		rh = maxY - minY
		maxX += rh - rw
	}

	placements[0] = Placement{XStart: minX, XEnd: maxX, YStart: minY, YEnd: maxY}
	return placements
}

// padTo64 returns the padding needed to bring r up to the next multiple
// of CanvasAlignment, 0 if r is already a multiple (the corrected
// formula — spec.md §9 flags the source's unconditional full-64 padding
// as a bug).
func padTo64(r int) int {
	return (CanvasAlignment - r%CanvasAlignment) % CanvasAlignment
}

// CanvasSize returns the square canvas's side length from its bounding
// box placement (placements[0]).
func CanvasSize(box Placement) int {
	return box.XEnd - box.XStart
}
