package spmstitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPadTo64(t *testing.T) {
	cases := []struct {
		r, want int
	}{
		{0, 0},
		{64, 0},
		{128, 0},
		{1, 63},
		{63, 1},
		{65, 63},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, padTo64(c.r))
	}
}

// Canvas alignment invariant: the produced canvas is square and its
// side is a multiple of 64; every tile placement lies fully inside the
// canvas.
func TestPlanCanvasSquareAndAligned(t *testing.T) {
	displacements := []Displacement{{DX: 10, DY: -5}, {DX: -3, DY: 8}}
	placements := PlanCanvas(256, 256, displacements)

	box := placements[0]
	size := CanvasSize(box)
	assert.Equal(t, box.YEnd-box.YStart, size)
	assert.Equal(t, 0, size%CanvasAlignment)

	for i := 1; i < len(placements); i++ {
		p := placements[i]
		assert.GreaterOrEqual(t, p.XStart, box.XStart)
		assert.GreaterOrEqual(t, p.YStart, box.YStart)
		assert.LessOrEqual(t, p.XEnd, box.XEnd)
		assert.LessOrEqual(t, p.YEnd, box.YEnd)
	}
}

// Scenario 1: a single 256x256 tile needs no padding since 256 is
// already a multiple of 64.
func TestPlanCanvasSingleTileNeedsNoPadding(t *testing.T) {
	placements := PlanCanvas(256, 256, nil)
	box := placements[0]
	assert.Equal(t, 256, CanvasSize(box))
}

func TestPlanCanvasPadsNonMultipleOf64(t *testing.T) {
	placements := PlanCanvas(100, 100, nil)
	box := placements[0]
	size := CanvasSize(box)
	assert.Equal(t, 0, size%CanvasAlignment)
	assert.Greater(t, size, 100)
}
