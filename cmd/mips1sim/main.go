// Package main provides a command-line harness for the MIPS-I core.
// It loads a 32-bit MIPS ELF image into RAM, runs it for a cycle budget in
// fixed slices until the budget is spent or the program parks in an idle
// loop, and prints the final register state.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fraido/mame/emu"
	"github.com/fraido/mame/loader"
	"github.com/fraido/mame/timing/cache"
	"github.com/fraido/mame/timing/core"
	"github.com/fraido/mame/timing/latency"
)

// Physical memory map of the harness.
const (
	ramBase uint32 = 0x00000000
	romBase uint32 = 0x1FC00000
	romSize uint32 = 0x00400000
)

var (
	model      = flag.String("model", "R3000A", "CPU model (ignored when -config is given)")
	configPath = flag.String("config", "", "Path to CPU configuration JSON file")
	timingPath = flag.String("timing", "", "Path to timing configuration JSON file")
	fpu        = flag.Uint("fpu", 0, "FPU revision reported in FCR0 (0 for no FPU)")
	ramMB      = flag.Uint("ram", 8, "RAM size in MiB")
	budget     = flag.Uint64("cycles", 1000000, "Total cycle budget")
	slice      = flag.Uint64("slice", 10000, "Cycles per run slice")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: mips1sim [options] <program.elf>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := run(flag.Arg(0), logger); err != nil {
		logger.WithError(err).Error("simulation failed")
		os.Exit(1)
	}
}

func run(programPath string, logger *logrus.Logger) error {
	if *slice == 0 {
		return errors.New("slice must be at least one cycle")
	}

	prog, err := loader.Load(programPath)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"program":  programPath,
		"entry":    fmt.Sprintf("0x%08x", prog.EntryPoint),
		"segments": len(prog.Segments),
		"endian":   prog.Endianness,
	}).Info("loaded")

	ramSize := uint32(*ramMB) << 20
	mem := emu.NewMemory(prog.Endianness)
	if err := mem.Map(ramBase, ramSize); err != nil {
		return err
	}
	if err := mem.Map(romBase, romSize); err != nil {
		return err
	}
	if err := prog.CopyTo(mem); err != nil {
		return err
	}

	config, err := buildConfig(prog)
	if err != nil {
		return err
	}

	cpu, err := emu.NewCPUFromConfig(config, mem, emu.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := cpu.SetRegister("pc", prog.EntryPoint); err != nil {
		return err
	}
	if err := cpu.SetRegister("sp", 0x80000000+ramSize-16); err != nil {
		return err
	}

	c := core.NewCore(cpu, mem)
	c.SetSlice(*slice)
	used, running := c.RunCycles(*budget)
	if !running {
		logger.WithField("pc", fmt.Sprintf("0x%08x", cpu.RegFile().PC)).Info("idle loop reached")
	}

	printState(c, used)
	return nil
}

// buildConfig returns the CPU configuration from -config, or one built from
// the individual flags. The byte order always follows the executable.
func buildConfig(prog *loader.Program) (*emu.Config, error) {
	config := emu.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = emu.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	} else {
		config.Model = *model
		config.FPURevision = uint32(*fpu)
	}
	config.Endianness = prog.Endianness.String()

	if *timingPath != "" {
		timing, err := latency.LoadConfig(*timingPath)
		if err != nil {
			return nil, err
		}
		config.Timing = timing
	}

	return config, config.Validate()
}

func printState(c *core.Core, used uint64) {
	cpu := c.CPU()
	fmt.Println(cpu)
	for _, reg := range cpu.Registers() {
		fmt.Printf("  %-8s %-7s 0x%08x\n", reg.Name, reg.Group, reg.Value)
	}

	stats := cpu.Stats()
	sched := c.Stats()
	fmt.Printf("\nCycles:         %d (budget used %d)\n", stats.Cycles, used)
	fmt.Printf("Slices:         %d (yielded %d)\n", sched.Slices, sched.Yields)
	fmt.Printf("Instructions:   %d\n", stats.Instructions)
	fmt.Printf("Exceptions:     %d (interrupts %d)\n", stats.Exceptions, stats.Interrupts)
	fmt.Printf("Loads/Stores:   %d / %d\n", stats.Loads, stats.Stores)
	fmt.Printf("Branches:       %d (taken %d, nullified %d)\n",
		stats.Branches, stats.BranchesTaken, stats.Nullified)

	printCache("I-cache", cpu.ICache())
	printCache("D-cache", cpu.DCache())
}

func printCache(name string, c *cache.Cache) {
	if !c.Enabled() {
		return
	}
	stats := c.Stats()
	total := stats.Hits + stats.Misses
	rate := 0.0
	if total > 0 {
		rate = float64(stats.Hits) / float64(total) * 100
	}
	fmt.Printf("%-15s %d hits, %d misses (%.1f%% hit rate)\n", name+":", stats.Hits, stats.Misses, rate)
}
