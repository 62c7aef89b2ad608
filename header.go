package spmstitch

import (
	"regexp"
	"strconv"
)

// HeaderText is a mutable buffer over one section of an SPM text header
// (the head section, or a single image-channel section). ReplaceInt and
// ReplaceDouble splice values in place; unrelated bytes — including
// surrounding whitespace and punctuation — are left untouched.
type HeaderText struct {
	buf string
}

func NewHeaderText(s string) *HeaderText {
	return &HeaderText{buf: s}
}

func (h *HeaderText) String() string { return h.buf }

// GetInt returns the first regex capture group as a signed integer, or 0
// if the pattern does not match.
func (h *HeaderText) GetInt(pattern string) int64 {
	m := firstCapture(pattern, h.buf)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// GetDouble returns the first regex capture group as a double, or 0.0 if
// the pattern does not match.
func (h *HeaderText) GetDouble(pattern string) float64 {
	m := firstCapture(pattern, h.buf)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// GetString returns the first regex capture group verbatim, or "" if the
// pattern does not match.
func (h *HeaderText) GetString(pattern string) string {
	return firstCapture(pattern, h.buf)
}

// GetValueWithUnit captures a "<value> <unit>" pair and returns the value
// normalized to nanometers: nm -> x1, um/µm -> x1000, mm -> x1_000_000.
// An unrecognized unit, or a non-matching pattern, returns 0.
func (h *HeaderText) GetValueWithUnit(pattern string) int64 {
	re := regexp.MustCompile(pattern)
	m := re.FindStringSubmatch(h.buf)
	if len(m) < 3 {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return toNanometers(v, m[2])
}

// ReplaceInt locates the first capture group's span matching pattern and
// splices the decimal representation of newValue in its place. Returns
// false if the pattern does not match.
func (h *HeaderText) ReplaceInt(pattern string, newValue int64) bool {
	return h.replace(pattern, strconv.FormatInt(newValue, 10))
}

// ReplaceDouble locates the first capture group's span matching pattern
// and splices the decimal representation of newValue in its place.
// Returns false if the pattern does not match.
func (h *HeaderText) ReplaceDouble(pattern string, newValue float64) bool {
	return h.replace(pattern, strconv.FormatFloat(newValue, 'f', -1, 64))
}

func (h *HeaderText) replace(pattern, replacement string) bool {
	re := regexp.MustCompile(pattern)
	loc := re.FindStringSubmatchIndex(h.buf)
	if loc == nil || len(loc) < 4 || loc[2] < 0 {
		return false
	}
	start, end := loc[2], loc[3]
	h.buf = h.buf[:start] + replacement + h.buf[end:]
	return true
}

func firstCapture(pattern, s string) string {
	re := regexp.MustCompile(pattern)
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// regexpFindSubmatch returns the full FindStringSubmatch result, or nil if
// the pattern does not match.
func regexpFindSubmatch(pattern, s string) []string {
	re := regexp.MustCompile(pattern)
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	return m
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Recognized header field patterns. Adding a new field requires only a
// new regex and, if needed, an accessor — no new parsing machinery.
const (
	patScanSizeNM       = `\\Scan Size: (\d+(?:\.\d+)?) nm`
	patEngageXPos       = `\\Engage X Pos: ([0-9.-]+) (nm|um|µm|mm)`
	patEngageYPos       = `\\Engage Y Pos: ([0-9.-]+) (nm|um|µm|mm)`
	patXOffset          = `\\X Offset: ([0-9.-]+) (nm|um|µm|mm)`
	patYOffset          = `\\Y Offset: ([0-9.-]+) (nm|um|µm|mm)`
	patDataLength       = `\\Data length: (\d+)`
	patDataOffset       = `\\Data offset: (\d+)`
	patBytesPerPixel    = `\\Bytes/pixel: ([24])`
	patSampsPerLine     = `\\Samps/line: (\d+)`
	patNumberOfLines    = `\\Number of lines: (\d+)`
	patFrameDirection   = `\\Frame direction: ([A-Za-z]+)`
	patCaptureStartLine = `\\Capture start line: (\d+)`
	patColorTableIndex  = `\\Color Table Index: (\d+)`
	patRelativeFrameTim = `\\Relative frame time: (\d+(?:\.\d+)?)`
	patImageDataLabel   = `\\@2:Image Data: S \[.*?\] "(.*?)"`
	patZScale           = `\\@2:Z scale: V \[(.*?)\] \(.*?\) (\d+(?:\.\d+)?) (\S+)`
	patZScaleValueOnly  = `\\@2:Z scale: V \[.*?\] \(.*?\) (\d+(?:\.\d+)?) \S+`
	patValidDataLenX    = `\\Valid data len X: (\d+)`
	patValidDataLenY    = `\\Valid data len Y: (\d+)`
)

// zScaleSensPattern builds the regex used to look up a Z-scale
// sensitivity token (e.g. "Sens. ZsensSens") in the head section:
// "\@<token>: V <number> ..."
func zScaleSensPattern(token string) string {
	return `\\@` + regexp.QuoteMeta(token) + `: V (\d+(?:\.\d+)?)`
}
