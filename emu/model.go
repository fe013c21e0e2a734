package emu

import (
	"strings"

	"github.com/fraido/mame/timing/latency"
	"github.com/pkg/errors"
)

// ErrUnknownModel is returned when a model name is not recognized.
var ErrUnknownModel = errors.New("unknown cpu model")

// Model describes the capabilities of one member of the MIPS-I family.
type Model struct {
	// Name identifies the model, e.g. "R3000A".
	Name string

	// PRId is the implementation/revision value of coprocessor 0 register 15.
	PRId uint32

	// HasTLB selects the 64-entry TLB and its coprocessor 0 registers.
	HasTLB bool

	// Layout selects the model-specific coprocessor 0 registers.
	Layout Cop0Layout

	// ICacheSize and DCacheSize are the default on-chip cache sizes in bytes.
	ICacheSize int
	DCacheSize int

	// BranchLikely enables the branch-likely encodings. No MIPS-I part
	// implements them, so every built-in model leaves this off.
	BranchLikely bool

	// Timing is the default cycle-cost table. Nil selects the R3000 table.
	Timing *latency.TimingConfig
}

func tlbModel(name string, prid uint32) Model {
	return Model{Name: name, PRId: prid, HasTLB: true, Layout: LayoutTLB}
}

func cachedModel(name string, prid uint32, layout Cop0Layout, icache, dcache int) Model {
	return Model{
		Name:       name,
		PRId:       prid,
		Layout:     layout,
		ICacheSize: icache,
		DCacheSize: dcache,
	}
}

// Built-in models.
var (
	R2000      = tlbModel("R2000", 0x0100)
	R2000A     = tlbModel("R2000A", 0x0210)
	R3000      = tlbModel("R3000", 0x0220)
	R3000A     = tlbModel("R3000A", 0x0230)
	R3052E     = Model{Name: "R3052E", PRId: 0x0200, HasTLB: true, Layout: LayoutTLB, ICacheSize: 8192, DCacheSize: 2048}
	R3041      = cachedModel("R3041", 0x0700, LayoutR3041, 2048, 512)
	R3051      = cachedModel("R3051", 0x0200, LayoutBase, 4096, 2048)
	R3052      = cachedModel("R3052", 0x0200, LayoutBase, 8192, 2048)
	R3071      = cachedModel("R3071", 0x0200, LayoutConfig, 16384, 4096)
	R3081      = cachedModel("R3081", 0x0200, LayoutConfig, 16384, 4096)
	SonyPS2IOP = cachedModel("SONYPS2_IOP", 0x001F, LayoutBase, 4096, 1024)
)

// Models returns every built-in model.
func Models() []Model {
	return []Model{
		R2000, R2000A, R3000, R3000A, R3052E,
		R3041, R3051, R3052, R3071, R3081, SonyPS2IOP,
	}
}

// LookupModel returns the built-in model with the given name, ignoring case.
func LookupModel(name string) (Model, error) {
	switch strings.ToUpper(name) {
	case "R2000":
		return R2000, nil
	case "R2000A":
		return R2000A, nil
	case "R3000":
		return R3000, nil
	case "R3000A":
		return R3000A, nil
	case "R3052E":
		return R3052E, nil
	case "R3041":
		return R3041, nil
	case "R3051":
		return R3051, nil
	case "R3052":
		return R3052, nil
	case "R3071":
		return R3071, nil
	case "R3081":
		return R3081, nil
	case "SONYPS2_IOP", "IOP":
		return SonyPS2IOP, nil
	default:
		return Model{}, errors.Wrapf(ErrUnknownModel, "%q", name)
	}
}
