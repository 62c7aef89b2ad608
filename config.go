package spmstitch

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Config collects the tunable constants of the stitching pipeline. The
// zero value is not valid; use NewConfig, which applies DefaultConfig's
// values before any Options are applied.
type Config struct {
	ChannelLabel string

	EdgeInset     float64
	OverlapMargin float64

	HeadroomFactor float64

	CanvasAlignment int
}

// DefaultConfig matches the constants spec.md §4.4/§4.5/§4.7 specify.
func DefaultConfig() Config {
	return Config{
		ChannelLabel:    string(ChannelHeight),
		EdgeInset:       0.1,
		OverlapMargin:   0.1,
		HeadroomFactor:  DefaultHeadroomFactor,
		CanvasAlignment: CanvasAlignment,
	}
}

// Option mutates a Config during construction.
type Option func(*Config) error

// WithChannelLabel selects which image channel is loaded and stitched.
func WithChannelLabel(label string) Option {
	return func(c *Config) error {
		if label == "" {
			return &ErrInvalidOption{Name: "ChannelLabel", Reason: "must not be empty"}
		}
		c.ChannelLabel = label
		return nil
	}
}

// WithAlignmentWindow overrides the edge-inset and overlap-margin
// fractions used to shrink the NCC search window (spec.md §4.4).
func WithAlignmentWindow(edgeInset, overlapMargin float64) Option {
	return func(c *Config) error {
		if edgeInset <= 0 || edgeInset >= 0.5 {
			return &ErrInvalidOption{Name: "EdgeInset", Reason: "must be in (0, 0.5)"}
		}
		if overlapMargin < 0 || overlapMargin >= 0.5 {
			return &ErrInvalidOption{Name: "OverlapMargin", Reason: "must be in [0, 0.5)"}
		}
		c.EdgeInset = edgeInset
		c.OverlapMargin = overlapMargin
		return nil
	}
}

// WithHeadroomFactor overrides the Z-scale headroom multiplier applied
// in C7 (spec.md §4.7, default 1.5).
func WithHeadroomFactor(f float64) Option {
	return func(c *Config) error {
		if f <= 1.0 {
			return &ErrInvalidOption{Name: "HeadroomFactor", Reason: "must be > 1.0"}
		}
		c.HeadroomFactor = f
		return nil
	}
}

// WithCanvasAlignment sets Config.CanvasAlignment (default 64). PlanCanvas
// does not read this field: it always pads to the CanvasAlignment
// constant, so the value set here does not change the canvas.
func WithCanvasAlignment(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return &ErrInvalidOption{Name: "CanvasAlignment", Reason: "must be positive"}
		}
		c.CanvasAlignment = n
		return nil
	}
}

// NewConfig builds a Config from DefaultConfig plus the given Options,
// applied in order (github.com/airbusgeo-style functional options).
func NewConfig(opts ...Option) (Config, error) {
	c := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return Config{}, err
		}
	}
	return c, nil
}

// ErrInvalidOption is returned by an Option when its argument is out of
// range.
type ErrInvalidOption struct {
	Name   string
	Reason string
}

func (e *ErrInvalidOption) Error() string {
	return fmt.Sprintf("invalid option %s: %s", e.Name, e.Reason)
}

// yamlConfig mirrors Config's exported fields for file-based loading.
type yamlConfig struct {
	ChannelLabel    string  `json:"channelLabel"`
	EdgeInset       float64 `json:"edgeInset"`
	OverlapMargin   float64 `json:"overlapMargin"`
	HeadroomFactor  float64 `json:"headroomFactor"`
	CanvasAlignment int     `json:"canvasAlignment"`
}

// LoadConfigFile reads a YAML (or JSON, since YAML is a JSON superset)
// config file and applies its fields over DefaultConfig, then applies
// any additional Options on top.
func LoadConfigFile(path string, opts ...Option) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &FileOpenError{Path: path, Err: err}
	}

	y := yamlConfig{
		ChannelLabel:    string(ChannelHeight),
		EdgeInset:       0.1,
		OverlapMargin:   0.1,
		HeadroomFactor:  DefaultHeadroomFactor,
		CanvasAlignment: CanvasAlignment,
	}
	if err := yaml.Unmarshal(data, &y); err != nil {
		return Config{}, &MalformedHeader{Path: path, Reason: fmt.Sprintf("invalid config: %v", err)}
	}

	base := []Option{
		WithChannelLabel(y.ChannelLabel),
		WithAlignmentWindow(y.EdgeInset, y.OverlapMargin),
		WithHeadroomFactor(y.HeadroomFactor),
		WithCanvasAlignment(y.CanvasAlignment),
	}
	return NewConfig(append(base, opts...)...)
}
