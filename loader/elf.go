// Package loader provides ELF binary loading for 32-bit MIPS executables.
package loader

import (
	"debug/elf"
	"io"

	"github.com/pkg/errors"

	"github.com/fraido/mame/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded ELF program ready for execution.
type Program struct {
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint32
	// Endianness is the byte order the executable was built for.
	Endianness emu.Endianness
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
}

// Load parses a 32-bit MIPS ELF binary and returns a Program ready for
// copying into the emulator's memory.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ELF file")
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, errors.New("not a 32-bit ELF file")
	}
	if f.Machine != elf.EM_MIPS {
		return nil, errors.Errorf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		Endianness: emu.BigEndian,
	}
	if f.Data == elf.ELFDATA2LSB {
		prog.Endianness = emu.LittleEndian
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, errors.Wrapf(err, "failed to read segment at 0x%x", phdr.Vaddr)
			}
			if uint64(n) != phdr.Filesz {
				return nil, errors.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}

// PhysAddr returns the physical address of a kseg0 or kseg1 address. Other
// addresses are returned unchanged.
func PhysAddr(vaddr uint32) uint32 {
	if vaddr >= 0x80000000 && vaddr < 0xC0000000 {
		return vaddr & 0x1FFFFFFF
	}
	return vaddr
}

// CopyTo writes every segment into mem at its physical address and clears
// the part of each segment not backed by file data.
func (p *Program) CopyTo(mem *emu.Memory) error {
	for _, seg := range p.Segments {
		base := PhysAddr(seg.VirtAddr)
		if err := mem.LoadProgram(base, seg.Data); err != nil {
			return errors.Wrapf(err, "failed to load segment at 0x%08x", seg.VirtAddr)
		}
		if seg.MemSize > uint32(len(seg.Data)) {
			bss := make([]byte, seg.MemSize-uint32(len(seg.Data)))
			if err := mem.LoadProgram(base+uint32(len(seg.Data)), bss); err != nil {
				return errors.Wrapf(err, "failed to clear segment at 0x%08x", seg.VirtAddr)
			}
		}
	}
	return nil
}
