package latency

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// TimingConfig holds cycle costs for different instruction classes.
// Values approximate an R3000-class pipeline with a one-cycle issue rate.
type TimingConfig struct {
	// ALULatency is the cost of register and immediate ALU operations,
	// shifts and HI/LO moves. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// BranchLatency is the cost of branches and jumps. Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// LoadLatency is the cost of a load including the load delay slot.
	// Default: 2 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the cost of a store through the write buffer.
	// Default: 2 cycles.
	StoreLatency uint64 `json:"store_latency"`

	// MultiplyLatency is the cost of MULT/MULTU. Default: 12 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatency is the cost of DIV/DIVU. Default: 35 cycles.
	DivideLatency uint64 `json:"divide_latency"`

	// CoprocessorLatency is the cost of coprocessor moves, branches and
	// operations. Default: 1 cycle.
	CoprocessorLatency uint64 `json:"coprocessor_latency"`

	// TrapLatency is the cost of SYSCALL and BREAK. Default: 1 cycle.
	TrapLatency uint64 `json:"trap_latency"`

	// ExceptionLatency is the cost of a step that only enters an exception,
	// such as an interrupt or a faulting instruction fetch. Default: 1 cycle.
	ExceptionLatency uint64 `json:"exception_latency"`
}

// DefaultTimingConfig returns a TimingConfig with R3000-based default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:         1,
		BranchLatency:      1,
		LoadLatency:        2,
		StoreLatency:       2,
		MultiplyLatency:    12,
		DivideLatency:      35,
		CoprocessorLatency: 1,
		TrapLatency:        1,
		ExceptionLatency:   1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
// Fields missing from the file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read timing config file")
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse timing config")
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize timing config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write timing config file")
	}

	return nil
}

// Validate checks that all cycle costs are valid (> 0).
func (c *TimingConfig) Validate() error {
	checks := []struct {
		name  string
		value uint64
	}{
		{"alu_latency", c.ALULatency},
		{"branch_latency", c.BranchLatency},
		{"load_latency", c.LoadLatency},
		{"store_latency", c.StoreLatency},
		{"multiply_latency", c.MultiplyLatency},
		{"divide_latency", c.DivideLatency},
		{"coprocessor_latency", c.CoprocessorLatency},
		{"trap_latency", c.TrapLatency},
		{"exception_latency", c.ExceptionLatency},
	}
	for _, check := range checks {
		if check.value == 0 {
			return errors.Errorf("%s must be > 0", check.name)
		}
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
