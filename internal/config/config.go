// Package config reads the optional TOML run configuration. Every key is
// optional; a key that is absent leaves the built-in default alone, and
// an explicit command-line flag wins over both.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type Fit struct {
	MaxReads *int     `toml:"max_reads,omitempty" comment:"reads sampled for training"`
	L        *int     `toml:"L,omitempty" comment:"bases upstream of the read start"`
	R        *int     `toml:"R,omitempty" comment:"bases downstream of the read start"`
	Penalty  *float64 `toml:"complexity_penalty,omitempty"`
	Seed     *uint64  `toml:"seed,omitempty"`
}

type Tabulate struct {
	L        *int    `toml:"L,omitempty"`
	R        *int    `toml:"R,omitempty"`
	K        *int    `toml:"k,omitempty"`
	MaxReads *int    `toml:"max_reads,omitempty"`
	Seed     *uint64 `toml:"seed,omitempty"`
}

// Config is the whole file.
type Config struct {
	Fit      Fit      `toml:"fit"`
	Tabulate Tabulate `toml:"tabulate"`
}

// Decode parses one TOML document. Unknown keys are an error so that a
// misspelt option does not silently fall back to its default.
func Decode(r io.Reader) (*Config, error) {
	var c Config
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return nil, fmt.Errorf("config: %s", sme.String())
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads path. An empty path yields an empty configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer fh.Close()
	c, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate rejects values no command could accept.
func (c *Config) Validate() error {
	neg := func(section, key string, v *int) error {
		if v != nil && *v < 0 {
			return fmt.Errorf("config: [%s] %s must be >= 0, got %d", section, key, *v)
		}
		return nil
	}
	for _, e := range []error{
		neg("fit", "L", c.Fit.L),
		neg("fit", "R", c.Fit.R),
		neg("tabulate", "L", c.Tabulate.L),
		neg("tabulate", "R", c.Tabulate.R),
	} {
		if e != nil {
			return e
		}
	}
	if v := c.Fit.MaxReads; v != nil && *v <= 0 {
		return fmt.Errorf("config: [fit] max_reads must be > 0, got %d", *v)
	}
	if v := c.Tabulate.MaxReads; v != nil && *v <= 0 {
		return fmt.Errorf("config: [tabulate] max_reads must be > 0, got %d", *v)
	}
	if v := c.Tabulate.K; v != nil && *v < 1 {
		return fmt.Errorf("config: [tabulate] k must be >= 1, got %d", *v)
	}
	if v := c.Fit.Penalty; v != nil && *v < 0 {
		return fmt.Errorf("config: [fit] complexity_penalty must be >= 0, got %g", *v)
	}
	return nil
}

// Write encodes c as TOML.
func Write(w io.Writer, c *Config) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}
