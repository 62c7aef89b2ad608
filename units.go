package spmstitch

import "strings"

// nmPerUnit maps the length-unit tokens found in SPM headers to their
// nanometer multiplier. An unrecognized unit normalizes to 0, per spec.
var nmPerUnit = map[string]int64{
	"nm": 1,
	"um": 1000,
	"µm": 1000,
	"mm": 1_000_000,
}

func toNanometers(value float64, unit string) int64 {
	mult, ok := nmPerUnit[unit]
	if !ok {
		return 0
	}
	return int64(value * float64(mult))
}

// normalizeVoltage converts a Z-scale value given in mV to V; any other
// unit (chiefly "V") passes through unchanged.
func normalizeVoltage(value float64, unit string) float64 {
	if strings.EqualFold(unit, "mV") {
		return value / 1000
	}
	return value
}
