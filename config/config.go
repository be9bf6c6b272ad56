// Package config provides configuration loading and access for the
// continuum-crowds core.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all core configuration parameters.
type Config struct {
	Cost       CostConfig       `yaml:"cost"`
	Density    DensityConfig    `yaml:"density"`
	Discomfort DiscomfortConfig `yaml:"discomfort"`
	Grid       GridConfig       `yaml:"grid"`
	Advection  AdvectionConfig  `yaml:"advection"`

	// Derived holds values computed after loading.
	Derived DerivedConfig `yaml:"-"`
}

// CostConfig holds the weights of the per-group unit-cost formula
// C = (alpha*f + beta + gamma*g) / f^2.
type CostConfig struct {
	Alpha float64 `yaml:"alpha"`
	Beta  float64 `yaml:"beta"`
	Gamma float64 `yaml:"gamma"`
}

// DensityConfig holds the global density-field parameters shared by every
// group.
type DensityConfig struct {
	RhoBar float64 `yaml:"rho_bar"`
	RhoMin float64 `yaml:"rho_min"`
	RhoMax float64 `yaml:"rho_max"`
}

// DiscomfortConfig controls the predictive mobile-discomfort splat.
type DiscomfortConfig struct {
	NumFrames int     `yaml:"num_frames"`
	StepSize  float64 `yaml:"step_size"`
	// Directional enables the directional sD/mD blend of static/mobile
	// discomfort; when false the y-channels are summed directly.
	Directional bool `yaml:"directional"`
}

// GridConfig holds construction-time grid parameters.
type GridConfig struct {
	Downscale int `yaml:"downscale"`
	// UpdateInterval is the number of ticks between group potential-field
	// resolves; must be >= 1.
	UpdateInterval int `yaml:"update_interval"`
}

// AdvectionConfig selects the velocity-interpolation mode used to drive
// agents.
type AdvectionConfig struct {
	Mode string `yaml:"mode"` // "bilinear" or "cardinal"
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	RhoBar32 float32
	RhoMin32 float32
	RhoMax32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, merging over embedded
// defaults. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, or does not exist, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if uerr := yaml.Unmarshal(data, cfg); uerr != nil {
				return nil, fmt.Errorf("parsing config file: %w", uerr)
			}
		case os.IsNotExist(err):
			// no override, embedded defaults stand
		default:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()
	return cfg, nil
}

// WriteYAML marshals c to path, for saving a search result or a modified
// runtime config back out for inspection or reuse.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Finalize re-validates c and recomputes its Derived fields. Callers that
// mutate a Config returned by Load (e.g. a parameter search writing
// candidate weights directly into Cost/Density) must call this before using
// the config to construct a Grid.
func (c *Config) Finalize() error {
	if err := c.validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

func (c *Config) validate() error {
	if !finite(c.Cost.Alpha) || !finite(c.Cost.Beta) || !finite(c.Cost.Gamma) {
		return fmt.Errorf("config: cost weights must be finite")
	}
	if c.Density.RhoMin >= c.Density.RhoMax {
		return fmt.Errorf("config: rho_min (%v) must be < rho_max (%v)", c.Density.RhoMin, c.Density.RhoMax)
	}
	if c.Density.RhoBar <= 0 {
		return fmt.Errorf("config: rho_bar must be > 0")
	}
	if c.Grid.Downscale < 1 {
		return fmt.Errorf("config: grid.downscale must be >= 1")
	}
	if c.Grid.UpdateInterval < 1 {
		return fmt.Errorf("config: grid.update_interval must be >= 1")
	}
	if c.Advection.Mode != "bilinear" && c.Advection.Mode != "cardinal" {
		return fmt.Errorf("config: advection.mode must be bilinear or cardinal, got %q", c.Advection.Mode)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// computeDerived calculates values derived from the loaded config.
func (c *Config) computeDerived() {
	c.Derived.RhoBar32 = float32(c.Density.RhoBar)
	c.Derived.RhoMin32 = float32(c.Density.RhoMin)
	c.Derived.RhoMax32 = float32(c.Density.RhoMax)
}
