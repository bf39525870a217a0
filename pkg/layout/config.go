package layout

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/pipegraph/pkg/errors"
)

// =============================================================================
// Strategies
// =============================================================================

// Strategy names a layout algorithm.
type Strategy string

const (
	StrategyHierarchical Strategy = "hierarchical"
	StrategyForce        Strategy = "force"
	StrategyCircular     Strategy = "circular"
	StrategyGrid         Strategy = "grid"
)

// DefaultStrategy is used when no strategy is given.
const DefaultStrategy = StrategyHierarchical

// Strategies lists every supported strategy in display order.
var Strategies = []Strategy{StrategyHierarchical, StrategyForce, StrategyCircular, StrategyGrid}

// ParseStrategy converts a user-supplied name into a Strategy. Matching is
// case-insensitive and an empty name selects [DefaultStrategy].
func ParseStrategy(name string) (Strategy, error) {
	if name == "" {
		return DefaultStrategy, nil
	}
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if err := ValidateStrategy(s); err != nil {
		return "", err
	}
	return s, nil
}

// ValidateStrategy checks that s is a known strategy.
func ValidateStrategy(s Strategy) error {
	if !slices.Contains(Strategies, s) {
		return errors.New(errors.ErrCodeInvalidStrategy,
			"invalid strategy: %q (must be one of: hierarchical, force, circular, grid)", s)
	}
	return nil
}

// =============================================================================
// Config
// =============================================================================

const (
	DefaultNodeWidth         = 180.0
	DefaultNodeHeight        = 60.0
	DefaultHorizontalSpacing = 60.0
	DefaultVerticalSpacing   = 100.0
	DefaultPadding           = 50.0
	DefaultWidth             = 1200.0
	DefaultHeight            = 800.0

	// DefaultIterations is the number of force simulation rounds.
	DefaultIterations = 100

	// DefaultSeed seeds the random placement of unpositioned nodes.
	DefaultSeed = uint64(42)
)

// Config controls node spacing and the canvas every strategy works in.
// Zero values are replaced by defaults in [Config.WithDefaults].
type Config struct {
	NodeWidth         float64 `json:"node_width,omitempty" toml:"node_width"`
	NodeHeight        float64 `json:"node_height,omitempty" toml:"node_height"`
	HorizontalSpacing float64 `json:"horizontal_spacing,omitempty" toml:"horizontal_spacing"`
	VerticalSpacing   float64 `json:"vertical_spacing,omitempty" toml:"vertical_spacing"`
	Padding           float64 `json:"padding,omitempty" toml:"padding"`
	Width             float64 `json:"width,omitempty" toml:"width"`
	Height            float64 `json:"height,omitempty" toml:"height"`

	// Force simulation.
	Iterations      int     `json:"iterations,omitempty" toml:"iterations"`
	BaseTemperature float64 `json:"base_temperature,omitempty" toml:"base_temperature"` // default Width/10
	Tolerance       float64 `json:"tolerance,omitempty" toml:"tolerance"`               // 0 disables early exit
	Seed            uint64  `json:"seed,omitempty" toml:"seed"`

	// Circular placement. Zero means the canvas center and a radius that
	// fits the canvas.
	CenterX float64 `json:"center_x,omitempty" toml:"center_x"`
	CenterY float64 `json:"center_y,omitempty" toml:"center_y"`
	Radius  float64 `json:"radius,omitempty" toml:"radius"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns a copy of c with zero fields set to their defaults.
func (c Config) WithDefaults() Config {
	if c.NodeWidth == 0 {
		c.NodeWidth = DefaultNodeWidth
	}
	if c.NodeHeight == 0 {
		c.NodeHeight = DefaultNodeHeight
	}
	if c.HorizontalSpacing == 0 {
		c.HorizontalSpacing = DefaultHorizontalSpacing
	}
	if c.VerticalSpacing == 0 {
		c.VerticalSpacing = DefaultVerticalSpacing
	}
	if c.Padding == 0 {
		c.Padding = DefaultPadding
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.Iterations == 0 {
		c.Iterations = DefaultIterations
	}
	if c.BaseTemperature == 0 {
		c.BaseTemperature = c.Width / 10
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if c.CenterX == 0 {
		c.CenterX = c.Width / 2
	}
	if c.CenterY == 0 {
		c.CenterY = c.Height / 2
	}
	if c.Radius == 0 {
		c.Radius = max(min(c.Width, c.Height)/2-c.Padding-c.NodeHeight, c.NodeWidth)
	}
	return c
}

// Validate rejects negative sizes and iteration counts.
func (c Config) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"node_width", c.NodeWidth},
		{"node_height", c.NodeHeight},
		{"horizontal_spacing", c.HorizontalSpacing},
		{"vertical_spacing", c.VerticalSpacing},
		{"padding", c.Padding},
		{"width", c.Width},
		{"height", c.Height},
		{"base_temperature", c.BaseTemperature},
		{"tolerance", c.Tolerance},
		{"radius", c.Radius},
	}
	for _, f := range fields {
		if f.value < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s must not be negative (got %s)", f.name, fmt.Sprint(f.value))
		}
	}
	if c.Iterations < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "iterations must not be negative (got %d)", c.Iterations)
	}
	return nil
}
