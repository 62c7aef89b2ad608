package spmstitch

import (
	"bufio"
	"os"
	"strings"
)

// TileFieldUpdate carries the new scalar values for one output channel,
// spliced into the template's text header (spec.md §4.2 "Write").
type TileFieldUpdate struct {
	Label         string
	DataLength    int64
	ZScaleValue   float64
	SampsPerLine  int64
	NumberOfLines int64
	ScanSizeNM    int64
}

// WriteTile streams tmplPath line by line into outPath, splicing the new
// field values for the selected channel, stopping after that channel's
// block, then appending the 0x1A/0x00 padding and the raw raster bytes at
// binary-append time. Unrelated bytes of the template up to the end of
// that block are preserved exactly, including line terminators; the
// closing "\*File list end" marker is always written with a bare "\n".
func WriteTile(tmplPath, outPath string, update TileFieldUpdate, raster []byte) error {
	raw, err := os.ReadFile(tmplPath)
	if err != nil {
		return &FileOpenError{Path: tmplPath, Err: err}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return &IoError{Path: outPath, Op: "create", Err: err}
	}

	var written int64
	flushErr := func(s string) {
		if err == nil {
			n, werr := out.WriteString(s)
			written += int64(n)
			if werr != nil {
				err = werr
			}
		}
	}

	lines := splitLinesKeepEnds(string(raw))

	sectionIndex := 0 // 0 = head
	var section strings.Builder
	targetIndex := -1

	// First pass: find which section index carries the requested label,
	// so the streaming pass below knows when field substitution applies.
	{
		head, sections, serr := splitSections(string(raw))
		_ = head
		if serr != nil {
			out.Close()
			os.Remove(outPath)
			if mh, ok := serr.(*MalformedHeader); ok {
				mh.Path = tmplPath
			}
			return serr
		}
		for i, s := range sections {
			if firstCapture(patImageDataLabel, s) == update.Label {
				targetIndex = i + 1 // +1: section 0 is the head
				break
			}
		}
		if targetIndex < 0 {
			out.Close()
			os.Remove(outPath)
			return &MalformedHeader{Path: tmplPath, Reason: "requested output channel not found in template"}
		}
	}

	done := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == markerCiaoImageList || trimmed == markerFileListEnd {
			if sectionIndex < targetIndex {
				flushErr(section.String())
			} else if sectionIndex == targetIndex {
				flushErr(section.String())
				done = true
			}
			sectionIndex++
			section.Reset()
			if done {
				break
			}
		}

		line = spliceFields(line, sectionIndex, targetIndex, update)
		section.WriteString(line)
	}
	flushErr("\\*File list end\n")

	if err != nil {
		out.Close()
		os.Remove(outPath)
		return &IoError{Path: outPath, Op: "write header", Err: err}
	}
	if err := out.Close(); err != nil {
		return &IoError{Path: outPath, Op: "close", Err: err}
	}

	return appendRaster(outPath, written, update.DataLength, raster)
}

// spliceFields applies the substitution rules of spec.md §4.2: Scan Size
// and Z scale are head-level and apply wherever they're found; Data
// length, Samps/line, Number of lines, and Valid data len X/Y only apply
// while accumulating the selected channel's own section.
func spliceFields(line string, sectionIndex, targetIndex int, u TileFieldUpdate) string {
	h := NewHeaderText(line)

	if strings.HasPrefix(strings.TrimLeft(line, " \t"), `\Scan Size:`) {
		if h.ReplaceInt(patScanSizeNM, u.ScanSizeNM) {
			line = h.String()
			h = NewHeaderText(line)
		}
	}
	if strings.HasPrefix(strings.TrimLeft(line, " \t"), `\@2:Z scale:`) {
		if h.ReplaceDouble(patZScaleValueOnly, u.ZScaleValue) {
			line = h.String()
			h = NewHeaderText(line)
		}
	}

	if sectionIndex != targetIndex {
		return line
	}

	trimmed := strings.TrimLeft(line, " \t")
	switch {
	case strings.HasPrefix(trimmed, `\Data length:`):
		h.ReplaceInt(patDataLength, u.DataLength)
		line = h.String()
	case strings.HasPrefix(trimmed, `\Samps/line:`):
		h.ReplaceInt(patSampsPerLine, u.SampsPerLine)
		line = h.String()
	case strings.HasPrefix(trimmed, `\Number of lines:`):
		h.ReplaceInt(patNumberOfLines, u.NumberOfLines)
		line = h.String()
	case strings.HasPrefix(trimmed, `\Valid data len X:`):
		h.ReplaceInt(patValidDataLenX, u.SampsPerLine)
		line = h.String()
	case strings.HasPrefix(trimmed, `\Valid data len Y:`):
		h.ReplaceInt(patValidDataLenY, u.NumberOfLines)
		line = h.String()
	}
	return line
}

func splitLinesKeepEnds(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// appendRaster pads the output file (already holding the text header) up
// to dataLength bytes with a single 0x1A sentinel plus 0x00 bytes, per the
// SPM MS-DOS-EOF convention, then appends the raster bytes. When the file
// already holds dataLength bytes or more, no padding is written.
func appendRaster(outPath string, currentSize, dataLength int64, raster []byte) error {
	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &IoError{Path: outPath, Op: "reopen for append", Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if currentSize < dataLength {
		if _, err := w.Write([]byte{eofSentinel}); err != nil {
			return &IoError{Path: outPath, Op: "write eof sentinel", Err: err}
		}
		pad := int(dataLength - currentSize - 1)
		zeros := make([]byte, pad)
		if _, err := w.Write(zeros); err != nil {
			return &IoError{Path: outPath, Op: "write padding", Err: err}
		}
	}
	if _, err := w.Write(raster); err != nil {
		return &IoError{Path: outPath, Op: "write raster", Err: err}
	}
	if err := w.Flush(); err != nil {
		return &IoError{Path: outPath, Op: "flush", Err: err}
	}
	return nil
}
