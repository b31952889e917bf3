package statesave

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable parts of change tracking. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	// FloatTolerance is the absolute difference under which two float
	// components count as unchanged. Physics engines rarely settle to
	// bit-identical values, so exact comparison would re-send nearly
	// every spatial field on every frame.
	FloatTolerance float64 `json:"float_tolerance" yaml:"float_tolerance"`
}

// DefaultConfig returns the settings used when none are provided.
func DefaultConfig() Config {
	return Config{
		FloatTolerance: 1e-6,
	}
}

// LoadJSON loads config from a JSON reader. Missing keys keep defaults.
func LoadJSON(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := json.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// LoadYAML loads config from a YAML reader. Missing keys keep defaults.
func LoadYAML(r io.Reader) (Config, error) {
	c := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// Validate reports whether the settings are usable.
func (c Config) Validate() error {
	if c.FloatTolerance < 0 || math.IsNaN(c.FloatTolerance) {
		return fmt.Errorf("statesave: float tolerance %v must be a non-negative number", c.FloatTolerance)
	}
	return nil
}
