// Package eqconfig loads cmd/equity's optional HCL configuration file:
// named range presets and default engine options. CLI flags always
// override whatever a config file sets, following this codebase's
// existing server/client config convention.
package eqconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete decoded configuration file.
type Config struct {
	Defaults DefaultSettings `hcl:"defaults,block"`
	Presets  []PresetConfig  `hcl:"preset,block"`
}

// DefaultSettings are the engine options used when a CLI flag doesn't
// override them: cmd/equity falls back to stdev_target and workers when
// its matching flag is 0, and both commands apply max_join_size.
// update_interval paces cmd/equity-server's progress messages; cmd/equity's
// live view refreshes on its own fixed 150ms interval.
type DefaultSettings struct {
	StdevTarget    float64 `hcl:"stdev_target,optional"`
	UpdateInterval string  `hcl:"update_interval,optional"`
	Workers        int     `hcl:"workers,optional"`
	MaxJoinSize    int     `hcl:"max_join_size,optional"`
}

// PresetConfig names a reusable range string, so a CLI invocation can say
// `loose-button` as a player's range instead of repeating a long range
// expression.
type PresetConfig struct {
	Name  string `hcl:"name,label"`
	Range string `hcl:"range"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Defaults: DefaultSettings{
			StdevTarget:    0.0005,
			UpdateInterval: "200ms",
			Workers:        0, // 0 means "use runtime.NumCPU()"
			MaxJoinSize:    10_000,
		},
	}
}

// Load reads and decodes filename, falling back to Default() if the file
// doesn't exist, and filling in any zero-valued field left unset by the
// file.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("eqconfig: parse %s: %s", filename, diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("eqconfig: decode %s: %s", filename, diags.Error())
	}

	defaults := Default()
	if cfg.Defaults.StdevTarget == 0 {
		cfg.Defaults.StdevTarget = defaults.Defaults.StdevTarget
	}
	if cfg.Defaults.UpdateInterval == "" {
		cfg.Defaults.UpdateInterval = defaults.Defaults.UpdateInterval
	}
	if cfg.Defaults.MaxJoinSize == 0 {
		cfg.Defaults.MaxJoinSize = defaults.Defaults.MaxJoinSize
	}

	return &cfg, nil
}

// UpdateIntervalDuration parses DefaultSettings.UpdateInterval, defaulting to
// 200ms if the configured string doesn't parse.
func (d DefaultSettings) UpdateIntervalDuration() time.Duration {
	dur, err := time.ParseDuration(d.UpdateInterval)
	if err != nil {
		return 200 * time.Millisecond
	}
	return dur
}

// PresetRange looks up a named preset's range string.
func (c *Config) PresetRange(name string) (string, bool) {
	for _, p := range c.Presets {
		if p.Name == name {
			return p.Range, true
		}
	}
	return "", false
}

// Validate checks the decoded configuration for values the engine would
// otherwise reject.
func (c *Config) Validate() error {
	if c.Defaults.StdevTarget < 0 {
		return fmt.Errorf("eqconfig: stdev_target must be non-negative")
	}
	if c.Defaults.Workers < 0 {
		return fmt.Errorf("eqconfig: workers must be non-negative")
	}
	if c.Defaults.MaxJoinSize < 0 {
		return fmt.Errorf("eqconfig: max_join_size must be non-negative")
	}
	if _, err := time.ParseDuration(c.Defaults.UpdateInterval); err != nil {
		return fmt.Errorf("eqconfig: invalid update_interval %q: %w", c.Defaults.UpdateInterval, err)
	}
	names := make(map[string]bool, len(c.Presets))
	for _, p := range c.Presets {
		if names[p.Name] {
			return fmt.Errorf("eqconfig: duplicate preset name %q", p.Name)
		}
		names[p.Name] = true
	}
	return nil
}
