package emu

import (
	"encoding/json"
	"os"

	"github.com/fraido/mame/timing/cache"
	"github.com/fraido/mame/timing/latency"
	"github.com/pkg/errors"
)

// Config holds the host-side configuration of a core, set once before the
// first run.
type Config struct {
	// Model is the model name, e.g. "R3000A".
	Model string `json:"model"`

	// Endianness is "big" or "little". Default: "big".
	Endianness string `json:"endianness"`

	// FPURevision is the FCR0 value of an attached FPU. Zero means no FPU.
	FPURevision uint32 `json:"fpu_revision"`

	// ICacheSize and DCacheSize override the model's cache sizes in bytes
	// when non-negative. Default: -1 (use the model's sizes).
	ICacheSize int `json:"icache_size"`
	DCacheSize int `json:"dcache_size"`

	// BranchLikely enables the branch-likely encodings.
	BranchLikely bool `json:"branch_likely"`

	// Timing overrides the model's cycle-cost table.
	Timing *latency.TimingConfig `json:"timing,omitempty"`
}

// DefaultConfig returns a big-endian R3000A configuration without an FPU.
func DefaultConfig() *Config {
	return &Config{
		Model:      "R3000A",
		Endianness: "big",
		ICacheSize: -1,
		DCacheSize: -1,
	}
}

// LoadConfig loads a Config from a JSON file.
// Fields missing from the file keep their default values, including the
// fields of a partial "timing" object.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read cpu config file")
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, errors.Wrap(err, "failed to parse cpu config")
	}

	config := DefaultConfig()
	config.Timing = latency.DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse cpu config")
	}
	if _, ok := keys["timing"]; !ok {
		config.Timing = nil
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize cpu config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write cpu config file")
	}

	return nil
}

// Validate checks that the configuration names a known model, a valid
// byte order and whole-line cache sizes.
func (c *Config) Validate() error {
	if _, err := LookupModel(c.Model); err != nil {
		return err
	}
	if _, err := parseEndianness(c.Endianness); err != nil {
		return err
	}
	if err := validateCacheSize("icache_size", c.ICacheSize); err != nil {
		return err
	}
	if err := validateCacheSize("dcache_size", c.DCacheSize); err != nil {
		return err
	}
	if c.Timing != nil {
		if err := c.Timing.Validate(); err != nil {
			return errors.Wrap(err, "invalid timing")
		}
	}
	return nil
}

// Options converts the configuration into core options.
func (c *Config) Options() ([]CPUOption, error) {
	endian, err := parseEndianness(c.Endianness)
	if err != nil {
		return nil, err
	}

	opts := []CPUOption{WithEndianness(endian)}
	if c.FPURevision != 0 {
		opts = append(opts, WithFPU(c.FPURevision))
	}
	if c.ICacheSize >= 0 || c.DCacheSize >= 0 {
		opts = append(opts, WithCacheSizes(c.ICacheSize, c.DCacheSize))
	}
	if c.BranchLikely {
		opts = append(opts, WithBranchLikely(true))
	}
	if c.Timing != nil {
		opts = append(opts, WithTiming(c.Timing))
	}
	return opts, nil
}

// NewCPUFromConfig validates config and builds a core on bus.
func NewCPUFromConfig(config *Config, bus Bus, opts ...CPUOption) (*CPU, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	model, err := LookupModel(config.Model)
	if err != nil {
		return nil, err
	}

	configOpts, err := config.Options()
	if err != nil {
		return nil, err
	}

	return NewCPU(model, bus, append(configOpts, opts...)...), nil
}

// validateCacheSize accepts -1 (model default), 0 (disabled) and positive
// multiples of the line size.
func validateCacheSize(name string, size int) error {
	if size == -1 || size == 0 {
		return nil
	}
	if size < 0 || size%cache.LineSize != 0 {
		return errors.Errorf("%s must be -1, 0 or a multiple of %d, got %d",
			name, cache.LineSize, size)
	}
	return nil
}

func parseEndianness(s string) (Endianness, error) {
	switch s {
	case "", "big":
		return BigEndian, nil
	case "little":
		return LittleEndian, nil
	default:
		return BigEndian, errors.Errorf("invalid endianness %q", s)
	}
}
