package spmstitch

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	markerCiaoImageList = `\*Ciao image list`
	markerFileListEnd   = `\*File list end`

	eofSentinel byte = 0x1A
)

// TileHeader holds the fields parsed from one SPM image-channel section,
// plus the shared head-level fields (spec.md §3).
type TileHeader struct {
	Label string

	ScanSizeNM  int64
	EngageXNM   int64
	EngageYNM   int64
	XOffsetNM   int64
	YOffsetNM   int64

	DataLength     int64
	DataOffset     int64
	BytesPerPixel  int
	SampsPerLine   int
	NumberOfLines  int
	ZScaleValue    float64
	ZScaleSensKey  string
	ZScaleSensV    float64

	FrameDirection   string
	CaptureStartLine int64
	ColorTableIndex  int64
	RelativeFrameTim float64

	// ValidDataLenX/Y carry the optional "Valid data len X/Y" lines,
	// which mirror Samps/line and Number of lines when present.
	HasValidDataLen bool
	ValidDataLenX   int64
	ValidDataLenY   int64
}

// Tile is one decoded image channel: its header fragment plus the
// fixed-point raw raster (widened uniformly to int32) and the
// physical-unit real raster derived from it.
type Tile struct {
	Header TileHeader

	// Raw holds on-disk sample values, widened to int32 regardless of
	// on-disk width. Raw[0] is the first row as stored on disk
	// (bottom-to-top, see §4.2) — it is Real that is reindexed top-down.
	Raw [][]int32

	// Real[row][col] = Raw(bottom-to-top-reindexed) * ZScaleSensV *
	// ZScaleValue / 2^(8*BytesPerPixel). Real[0] is the top of the image.
	Real [][]float64
}

func (t *Tile) Rows() int { return t.Header.NumberOfLines }
func (t *Tile) Cols() int { return t.Header.SampsPerLine }

// splitSections splits an SPM text header into the head section and the
// subsequent per-channel sections, in file order. Each returned section's
// text does not include the marker line that opened it.
func splitSections(text string) (head string, sections []string, err error) {
	lines := strings.SplitAfter(text, "\n")
	var cur strings.Builder
	started := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(trimmed, `\*`) {
			if trimmed == markerCiaoImageList {
				if !started {
					head = cur.String()
					started = true
				} else {
					sections = append(sections, cur.String())
				}
				cur.Reset()
				continue
			}
			if trimmed == markerFileListEnd {
				if started {
					sections = append(sections, cur.String())
				}
				break
			}
		}
		cur.WriteString(line)
	}
	if !started || len(sections) == 0 {
		return "", nil, &MalformedHeader{Reason: "fewer than two sections (head + at least one image channel)"}
	}
	return head, sections, nil
}

// ReadTile decodes one requested image channel from an SPM file.
func ReadTile(path string, requestedLabel string) (*Tile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}

	head, sections, err := splitSections(string(raw))
	if err != nil {
		if mh, ok := err.(*MalformedHeader); ok {
			mh.Path = path
		}
		return nil, err
	}

	headText := NewHeaderText(head)

	var sectionText string
	found := false
	for _, s := range sections {
		label := firstCapture(patImageDataLabel, s)
		if label == requestedLabel {
			sectionText = s
			found = true
			break
		}
	}
	if !found {
		return nil, &MalformedHeader{Path: path, Reason: fmt.Sprintf("requested channel %q not present", requestedLabel)}
	}

	hdr, err := parseTileHeader(headText, NewHeaderText(sectionText), requestedLabel)
	if err != nil {
		if mh, ok := err.(*MalformedHeader); ok {
			mh.Path = path
		}
		return nil, err
	}

	if hdr.BytesPerPixel != 2 && hdr.BytesPerPixel != 4 {
		return nil, &UnsupportedPixelWidth{Path: path, BytesPerPixel: hdr.BytesPerPixel, RequestedLabel: requestedLabel}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	defer f.Close()

	if _, err := f.Seek(hdr.DataOffset, io.SeekStart); err != nil {
		return nil, &IoError{Path: path, Op: "seek", Err: err}
	}
	data := make([]byte, hdr.DataLength)
	if _, err := io.ReadFull(bufio.NewReader(f), data); err != nil {
		return nil, &IoError{Path: path, Op: "read raster", Err: err}
	}

	rawRows, err := unpackRaster(data, hdr.BytesPerPixel, hdr.SampsPerLine, hdr.NumberOfLines)
	if err != nil {
		return nil, &IoError{Path: path, Op: "unpack raster", Err: err}
	}

	real := rawToReal(rawRows, hdr)

	return &Tile{Header: *hdr, Raw: rawRows, Real: real}, nil
}

func parseTileHeader(head, section *HeaderText, label string) (*TileHeader, error) {
	hdr := &TileHeader{Label: label}

	hdr.ScanSizeNM = head.GetInt(patScanSizeNM)
	hdr.EngageXNM = head.GetValueWithUnit(patEngageXPos)
	hdr.EngageYNM = head.GetValueWithUnit(patEngageYPos)
	// Unlike Engage X/Y Pos, the original reads X/Y Offset as a plain
	// integer and ignores the unit suffix entirely (spm_reader.hpp's
	// parseFileHeadAttributes: getIntFromTextByRegex, not the NM-converting
	// accessor); matched here rather than normalizing, since the two
	// diverge for any non-nm-valued file.
	hdr.XOffsetNM = head.GetInt(patXOffset)
	hdr.YOffsetNM = head.GetInt(patYOffset)

	hdr.DataLength = section.GetInt(patDataLength)
	hdr.DataOffset = section.GetInt(patDataOffset)
	hdr.BytesPerPixel = int(section.GetInt(patBytesPerPixel))
	hdr.SampsPerLine = int(section.GetInt(patSampsPerLine))
	hdr.NumberOfLines = int(section.GetInt(patNumberOfLines))
	hdr.FrameDirection = section.GetString(patFrameDirection)
	hdr.CaptureStartLine = section.GetInt(patCaptureStartLine)
	hdr.ColorTableIndex = section.GetInt(patColorTableIndex)
	hdr.RelativeFrameTim = section.GetDouble(patRelativeFrameTim)

	if vx := section.GetString(patValidDataLenX); vx != "" {
		hdr.HasValidDataLen = true
		hdr.ValidDataLenX = section.GetInt(patValidDataLenX)
		hdr.ValidDataLenY = section.GetInt(patValidDataLenY)
	}

	zm := regexpFindSubmatch(patZScale, section.String())
	if zm == nil {
		return nil, &MalformedHeader{Reason: "missing @2:Z scale line"}
	}
	hdr.ZScaleSensKey = zm[1]
	zval := parseFloatOrZero(zm[2])
	hdr.ZScaleValue = normalizeVoltage(zval, zm[3])

	sensV := head.GetDouble(zScaleSensPattern(hdr.ZScaleSensKey))
	hdr.ZScaleSensV = sensV

	if hdr.SampsPerLine <= 0 || hdr.NumberOfLines <= 0 {
		return nil, &MalformedHeader{Reason: "non-positive raster dimensions"}
	}

	return hdr, nil
}

func unpackRaster(data []byte, bytesPerPixel, cols, rows int) ([][]int32, error) {
	want := bytesPerPixel * cols * rows
	if len(data) < want {
		return nil, fmt.Errorf("raster data too short: have %d want %d", len(data), want)
	}
	out := make([][]int32, rows)
	off := 0
	for r := 0; r < rows; r++ {
		row := make([]int32, cols)
		for c := 0; c < cols; c++ {
			switch bytesPerPixel {
			case 2:
				row[c] = int32(int16(binary.LittleEndian.Uint16(data[off : off+2])))
				off += 2
			case 4:
				row[c] = int32(binary.LittleEndian.Uint32(data[off : off+4]))
				off += 4
			}
		}
		out[r] = row
	}
	return out, nil
}

// rawToReal converts the on-disk bottom-to-top raw raster into a
// top-to-bottom real-valued raster (spec.md §4.2's row-order convention):
// real[0] is built from raw's last row, real[1] from the second-to-last,
// and so on.
func rawToReal(raw [][]int32, hdr *TileHeader) [][]float64 {
	rows := len(raw)
	scale := hdr.ZScaleSensV * hdr.ZScaleValue / pow2(8*hdr.BytesPerPixel)
	real := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		src := raw[rows-1-r]
		line := make([]float64, len(src))
		for c, v := range src {
			line[c] = float64(v) * scale
		}
		real[r] = line
	}
	return real
}

func pow2(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 2
	}
	return v
}
