package spmstitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNanometers(t *testing.T) {
	cases := []struct {
		value float64
		unit  string
		want  int64
	}{
		{1500, "nm", 1500},
		{1.5, "um", 1500},
		{1.5, "µm", 1500},
		{0.0015, "mm", 1500},
		{1, "furlongs", 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, toNanometers(c.value, c.unit))
	}
}

func TestNormalizeVoltage(t *testing.T) {
	assert.Equal(t, 1.5, normalizeVoltage(1500, "mV"))
	assert.Equal(t, 1.5, normalizeVoltage(1.5, "V"))
}
