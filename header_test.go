package spmstitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderTextGetters(t *testing.T) {
	h := NewHeaderText("\\Data length: 131072\r\n\\Samps/line: 256\r\n\\Frame direction: Up\r\n")
	assert.Equal(t, int64(131072), h.GetInt(patDataLength))
	assert.Equal(t, int64(256), h.GetInt(patSampsPerLine))
	assert.Equal(t, "Up", h.GetString(patFrameDirection))
}

// Scenario 5: Engage X Pos in differing units normalizes to the same
// nanometer value.
func TestGetValueWithUnitNormalizesAcrossUnits(t *testing.T) {
	a := NewHeaderText("\\Engage X Pos: 1.5 um\r\n")
	b := NewHeaderText("\\Engage X Pos: 1500 nm\r\n")
	assert.Equal(t, int64(1500), a.GetValueWithUnit(patEngageXPos))
	assert.Equal(t, int64(1500), b.GetValueWithUnit(patEngageXPos))
}

func TestReplaceIntPreservesSurroundingBytes(t *testing.T) {
	h := NewHeaderText("\\Data length: 131072\r\n")
	ok := h.ReplaceInt(patDataLength, 65536)
	assert.True(t, ok)
	assert.Equal(t, "\\Data length: 65536\r\n", h.String())
}

func TestReplaceDoubleOnlySplicesItsOwnCaptureGroup(t *testing.T) {
	// patZScale has three capture groups (token, value, unit); splicing
	// with it would corrupt the token bracket, so the write path uses
	// patZScaleValueOnly instead.
	h := NewHeaderText("\\@2:Z scale: V [Sens. ZsensSens] (0.0001 V/LSB) 1.2345 V\r\n")
	ok := h.ReplaceDouble(patZScaleValueOnly, 9.875)
	assert.True(t, ok)
	assert.Equal(t, "\\@2:Z scale: V [Sens. ZsensSens] (0.0001 V/LSB) 9.875 V\r\n", h.String())
}

func TestReplaceReturnsFalseOnNoMatch(t *testing.T) {
	h := NewHeaderText("\\Frame direction: Up\r\n")
	assert.False(t, h.ReplaceInt(patDataLength, 1))
	assert.Equal(t, "\\Frame direction: Up\r\n", h.String())
}

func TestZScaleSensPattern(t *testing.T) {
	head := NewHeaderText("\\@Sens. ZsensSens: V 68.322 nm/V\r\n")
	got := head.GetDouble(zScaleSensPattern("Sens. ZsensSens"))
	assert.InDelta(t, 68.322, got, 1e-6)
}
