package spmstitch

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSectionsRejectsHeaderWithoutChannels(t *testing.T) {
	_, _, err := splitSections("\\Scan Size: 1000 nm\r\n")
	require.Error(t, err)
	assert.IsType(t, &MalformedHeader{}, err)
}

func TestSplitSectionsHeadAndSections(t *testing.T) {
	text := "\\Scan Size: 1000 nm\r\n" +
		"\\*Ciao image list\r\n" +
		"\\@2:Image Data: S [Height] \"Height\"\r\n" +
		"\\*Ciao image list\r\n" +
		"\\@2:Image Data: S [AmplitudeError] \"AmplitudeError\"\r\n" +
		"\\*File list end\r\n"
	head, sections, err := splitSections(text)
	require.NoError(t, err)
	assert.Contains(t, head, "Scan Size")
	require.Len(t, sections, 2)
	assert.Contains(t, sections[0], "Height")
	assert.Contains(t, sections[1], "AmplitudeError")
}

// buildSyntheticSPM assembles a minimal two-row, two-column SPM file with
// one "Height" channel, raw[0] == [1,1] (first on-disk row) and
// raw[1] == [9,9] (last on-disk row).
func buildSyntheticSPM(t *testing.T) string {
	t.Helper()
	head := "" +
		"\\Scan Size: 1000 nm\r\n" +
		"\\Engage X Pos: 0 nm\r\n" +
		"\\Engage Y Pos: 0 nm\r\n" +
		"\\X Offset: 0 nm\r\n" +
		"\\Y Offset: 0 nm\r\n" +
		"\\@Sens. ZsensSens: V 1 nm/V\r\n"
	section := "" +
		"\\@2:Image Data: S [Height] \"Height\"\r\n" +
		"\\Data length: 8\r\n" +
		"\\Data offset: __OFFSET__\r\n" +
		"\\Bytes/pixel: 2\r\n" +
		"\\Samps/line: 2\r\n" +
		"\\Number of lines: 2\r\n" +
		"\\Frame direction: Up\r\n" +
		"\\Capture start line: 0\r\n" +
		"\\Color Table Index: 0\r\n" +
		"\\Relative frame time: 0\r\n" +
		"\\@2:Z scale: V [Sens. ZsensSens] (0.0001 V/LSB) 1 V\r\n"

	textPart := head + "\\*Ciao image list\r\n" + section + "\\*File list end\r\n"
	offset := len(textPart) + 2 // 1 eof sentinel + 1 pad byte; placeholder is
	// fixed-width so substitution never changes textPart's length above.
	placeholder := "__OFFSET__"
	digits := fmt.Sprintf("%0*d", len(placeholder), offset)
	textPart = strings.Replace(textPart, placeholder, digits, 1)

	raster := []byte{1, 0, 1, 0, 9, 0, 9, 0} // row0=[1,1] row1=[9,9], int16 LE
	data := append([]byte(textPart), 0x1A, 0x00)
	data = append(data, raster...)

	dir := t.TempDir()
	path := filepath.Join(dir, "tile.spm")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// Scenario 4: bottom-to-top row order. raw[0]==[1,1] (first disk row),
// raw[last]==[9,9] (last disk row); decoded real[0] must equal [9,9].
func TestReadTileRowOrderConvention(t *testing.T) {
	path := buildSyntheticSPM(t)
	tile, err := ReadTile(path, "Height")
	require.NoError(t, err)

	assert.Equal(t, []int32{1, 1}, tile.Raw[0])
	assert.Equal(t, []int32{9, 9}, tile.Raw[1])
	assert.InDelta(t, 9*tile.Header.ZScaleSensV*tile.Header.ZScaleValue/pow2(16), tile.Real[0][0], 1e-12)
	assert.InDelta(t, 1*tile.Header.ZScaleSensV*tile.Header.ZScaleValue/pow2(16), tile.Real[1][0], 1e-12)
}

func TestReadTileParsesScalarFields(t *testing.T) {
	path := buildSyntheticSPM(t)
	tile, err := ReadTile(path, "Height")
	require.NoError(t, err)

	assert.Equal(t, int64(1000), tile.Header.ScanSizeNM)
	assert.Equal(t, 2, tile.Header.BytesPerPixel)
	assert.Equal(t, 2, tile.Header.SampsPerLine)
	assert.Equal(t, 2, tile.Header.NumberOfLines)
	assert.Equal(t, 1.0, tile.Header.ZScaleValue)
	assert.Equal(t, 1.0, tile.Header.ZScaleSensV)
}

func TestReadTileUnknownChannelFails(t *testing.T) {
	path := buildSyntheticSPM(t)
	_, err := ReadTile(path, "AmplitudeError")
	require.Error(t, err)
	assert.IsType(t, &MalformedHeader{}, err)
}

// Raw<->real inverse: quantizing real back to raw recovers raw exactly
// within representable range.
func TestRawRealInverse(t *testing.T) {
	hdr := &TileHeader{ZScaleSensV: 2.5, ZScaleValue: 0.75, BytesPerPixel: 2}
	raw := [][]int32{{100, -200}, {30000, -30000}}
	real := rawToReal(raw, hdr)

	scale := hdr.ZScaleSensV * hdr.ZScaleValue / pow2(8*hdr.BytesPerPixel)
	for r := range real {
		src := raw[len(raw)-1-r]
		for c := range real[r] {
			got := int32(math.Trunc(real[r][c] / scale))
			assert.Equal(t, src[c], got)
		}
	}
}
