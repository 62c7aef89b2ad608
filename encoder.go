package spmstitch

import (
	"encoding/binary"
	"math"
)

// DefaultHeadroomFactor is the 1.5x multiplier spec.md §4.7 applies to
// the computed Z-scale to reserve headroom against clipping.
const DefaultHeadroomFactor = 1.5

// EncodedMosaic is the fixed-point raw raster and the Z-scale used to
// produce it, ready for packing and handoff to the tile codec's write
// path.
type EncodedMosaic struct {
	Raw     [][]int32
	ZScale  float64
}

// EncodeMosaic computes a new Z-scale with headroom and quantizes the
// mosaic's physical-unit samples back into the template channel's
// fixed-point raw range (spec.md §4.7).
func EncodeMosaic(m *Mosaic, bytesPerPixel int, zScaleSensV float64, headroom float64) (*EncodedMosaic, error) {
	minV, maxV, any := mosaicRange(m)
	if !any {
		return nil, &EmptyInput{Op: "EncodeMosaic"}
	}
	if minV == maxV {
		return nil, &DegenerateRange{Value: minV}
	}

	maxRaw := pow2(8*bytesPerPixel) - 1
	zScale := ((maxV - minV) * pow2(8*bytesPerPixel)) / (maxRaw * zScaleSensV) * headroom
	zScale = (math.Round(zScale*1e7) + 1) / 1e7

	raw := make([][]int32, m.H)
	for r := 0; r < m.H; r++ {
		line := make([]int32, m.W)
		for c := 0; c < m.W; c++ {
			v := m.Values[r][c] / zScaleSensV / zScale * pow2(8*bytesPerPixel)
			line[c] = int32(math.Trunc(v))
		}
		raw[r] = line
	}

	// Reverse rows before serialization: the encoder inverts §4.2's
	// bottom-to-top/top-to-bottom row-order convention.
	reverseRows(raw)

	return &EncodedMosaic{Raw: raw, ZScale: zScale}, nil
}

func mosaicRange(m *Mosaic) (min, max float64, any bool) {
	for r := 0; r < m.H; r++ {
		for c := 0; c < m.W; c++ {
			if !m.Written[r][c] {
				continue
			}
			v := m.Values[r][c]
			if !any {
				min, max, any = v, v, true
				continue
			}
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return
}

func reverseRows(rows [][]int32) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// PackRaster serializes raw rows little-endian at the given pixel width
// (2 or 4 bytes/sample), ready for WriteTile's raster argument.
func PackRaster(raw [][]int32, bytesPerPixel int) []byte {
	if len(raw) == 0 {
		return nil
	}
	cols := len(raw[0])
	buf := make([]byte, len(raw)*cols*bytesPerPixel)
	off := 0
	for _, row := range raw {
		for _, v := range row {
			switch bytesPerPixel {
			case 2:
				binary.LittleEndian.PutUint16(buf[off:], uint16(int16(v)))
				off += 2
			case 4:
				binary.LittleEndian.PutUint32(buf[off:], uint32(v))
				off += 4
			}
		}
	}
	return buf
}
