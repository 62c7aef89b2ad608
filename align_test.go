package spmstitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientReal(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, cols)
		for c := 0; c < cols; c++ {
			row[c] = float64(r*cols + c)
		}
		out[r] = row
	}
	return out
}

// Scenario 2: two identical tiles at zero physical offset must align
// with displacement (0,0), within +-1 pixel.
func TestAlignPairIdenticalTilesZeroDisplacement(t *testing.T) {
	rows, cols := 40, 40
	// A bowl-shaped surface: unlike a linear ramp, whose every window
	// correlates perfectly with every other, it has a single NCC peak.
	real := make([][]float64, rows)
	for r := range real {
		row := make([]float64, cols)
		for c := range row {
			row[c] = float64((r-13)*(r-13) + (c-17)*(c-17))
		}
		real[r] = row
	}

	hdr := TileHeader{ScanSizeNM: 1000, SampsPerLine: cols, NumberOfLines: rows}
	tileT := &Tile{Header: hdr, Real: real}
	tileO := &Tile{Header: hdr, Real: real}

	d, err := AlignPair(tileT, tileO, defaultAlignOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0, d.DX, 1)
	assert.InDelta(t, 0, d.DY, 1)
}

// Scenario 3 (simplified): tileO is a crop of the same underlying scene
// shifted dx pixels in x relative to tileT; aligner must recover a
// displacement within +-2 pixels of the ground truth.
func TestAlignPairDetectsPhysicalXOffset(t *testing.T) {
	const (
		cols     = 80
		rows     = 40
		dx       = 4
		spikeCol = 50
	)
	makeRow := func(spikeAt int) []float64 {
		row := make([]float64, cols)
		if spikeAt >= 0 && spikeAt < cols {
			row[spikeAt] = 100
		}
		return row
	}
	tReal := make([][]float64, rows)
	oReal := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		tReal[r] = makeRow(spikeCol)
		oReal[r] = makeRow(spikeCol - dx)
	}
	// A horizontal line on the same row of both tiles pins the y match;
	// without it every vertical position correlates equally well.
	for c := 0; c < cols; c++ {
		tReal[20][c] = 100
		oReal[20][c] = 100
	}

	hdr := TileHeader{ScanSizeNM: cols, SampsPerLine: cols, NumberOfLines: rows}
	tileT := &Tile{Header: hdr, Real: tReal}
	tileO := &Tile{Header: hdr, Real: oReal}

	d, err := AlignPair(tileT, tileO, defaultAlignOptions())
	require.NoError(t, err)
	assert.InDelta(t, dx, d.DX, 2)
	assert.InDelta(t, 0, d.DY, 2)
}

func TestAlignPairRejectsEmptyTiles(t *testing.T) {
	hdr := TileHeader{ScanSizeNM: 1000, SampsPerLine: 10, NumberOfLines: 10}
	empty := &Tile{Header: hdr, Real: nil}
	nonEmpty := &Tile{Header: hdr, Real: gradientReal(10, 10)}

	_, err := AlignPair(empty, nonEmpty, defaultAlignOptions())
	assert.IsType(t, &AlignmentInputError{}, err)

	_, err = AlignPair(nonEmpty, empty, defaultAlignOptions())
	assert.IsType(t, &AlignmentInputError{}, err)
}

func TestAlignPairRejectsWindowOutsideTile(t *testing.T) {
	// A tiny tile with an edge inset that consumes the whole window
	// leaves no room for a valid search window.
	hdr := TileHeader{ScanSizeNM: 1000, SampsPerLine: 4, NumberOfLines: 4}
	tile := &Tile{Header: hdr, Real: gradientReal(4, 4)}

	_, err := AlignPair(tile, tile, AlignOptions{EdgeInset: 0.49, OverlapMargin: 0.49})
	assert.IsType(t, &AlignmentInputError{}, err)
}
