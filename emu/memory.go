package emu

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrBusError is returned by a Bus when no device answers a physical access.
var ErrBusError = errors.New("bus error")

// Size is the width of a memory access.
type Size uint8

// Access widths.
const (
	SizeByte Size = 1
	SizeHalf Size = 2
	SizeWord Size = 4
)

// Endianness selects the byte order of the core and its bus.
type Endianness uint8

// Byte orders.
const (
	BigEndian Endianness = iota
	LittleEndian
)

// String returns "big" or "little".
func (e Endianness) String() string {
	if e == LittleEndian {
		return "little"
	}
	return "big"
}

// Bus is the physical memory interface consumed by the core.
//
// Values are right-justified: a byte read returns the byte in bits [7:0].
// Write applies only the value bits selected by mask, which lets partial
// word stores update a subset of byte lanes in one transaction. Any non-nil
// error is reported to software as a bus error exception.
type Bus interface {
	// Fetch reads an instruction word.
	Fetch(addr uint32) (uint32, error)
	// Read reads a value of the given size.
	Read(addr uint32, size Size) (uint32, error)
	// Write writes the masked value of the given size.
	Write(addr uint32, size Size, value, mask uint32) error
}

// region is a contiguous block of backing storage.
type region struct {
	base uint32
	data []byte
}

func (r *region) contains(addr uint32, size Size) bool {
	if addr < r.base {
		return false
	}
	off := uint64(addr - r.base)
	return off+uint64(size) <= uint64(len(r.data))
}

// Memory is a Bus implementation backed by mapped RAM regions.
// Accesses outside every region fail with ErrBusError.
type Memory struct {
	endian  Endianness
	regions []*region
}

// NewMemory creates an empty memory with the given byte order.
func NewMemory(endian Endianness) *Memory {
	return &Memory{endian: endian}
}

// Endianness returns the byte order of the memory.
func (m *Memory) Endianness() Endianness {
	return m.endian
}

// Map adds a zero-filled RAM region of size bytes at base.
func (m *Memory) Map(base, size uint32) error {
	if size == 0 {
		return errors.Errorf("empty region at 0x%08x", base)
	}
	end := uint64(base) + uint64(size)
	if end > 1<<32 {
		return errors.Errorf("region 0x%08x+0x%x exceeds the address space", base, size)
	}
	for _, r := range m.regions {
		rEnd := uint64(r.base) + uint64(len(r.data))
		if uint64(base) < rEnd && end > uint64(r.base) {
			return errors.Errorf("region 0x%08x+0x%x overlaps 0x%08x", base, size, r.base)
		}
	}

	m.regions = append(m.regions, &region{base: base, data: make([]byte, size)})
	sort.Slice(m.regions, func(i, j int) bool {
		return m.regions[i].base < m.regions[j].base
	})
	return nil
}

// LoadProgram copies data into mapped memory at addr.
func (m *Memory) LoadProgram(addr uint32, data []byte) error {
	for i, b := range data {
		if err := m.Write8(addr+uint32(i), b); err != nil {
			return errors.Wrapf(err, "loading byte %d at 0x%08x", i, addr+uint32(i))
		}
	}
	return nil
}

func (m *Memory) find(addr uint32, size Size) (*region, uint32, error) {
	for _, r := range m.regions {
		if r.contains(addr, size) {
			return r, addr - r.base, nil
		}
	}
	return nil, 0, errors.Wrapf(ErrBusError, "no device at 0x%08x", addr)
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	r, off, err := m.find(addr, SizeByte)
	if err != nil {
		return 0, err
	}
	return r.data[off], nil
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value uint8) error {
	r, off, err := m.find(addr, SizeByte)
	if err != nil {
		return err
	}
	r.data[off] = value
	return nil
}

// Read16 reads a halfword in the memory's byte order.
func (m *Memory) Read16(addr uint32) (uint16, error) {
	v, err := m.Read(addr, SizeHalf)
	return uint16(v), err
}

// Read32 reads a word in the memory's byte order.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	return m.Read(addr, SizeWord)
}

// Write32 writes a word in the memory's byte order.
func (m *Memory) Write32(addr, value uint32) error {
	return m.Write(addr, SizeWord, value, 0xFFFFFFFF)
}

// Fetch reads an instruction word.
func (m *Memory) Fetch(addr uint32) (uint32, error) {
	return m.Read(addr, SizeWord)
}

// Read reads a right-justified value of the given size.
func (m *Memory) Read(addr uint32, size Size) (uint32, error) {
	r, off, err := m.find(addr, size)
	if err != nil {
		return 0, err
	}

	var value uint32
	for i := uint32(0); i < uint32(size); i++ {
		b := uint32(r.data[off+i])
		if m.endian == BigEndian {
			value = value<<8 | b
		} else {
			value |= b << (8 * i)
		}
	}
	return value, nil
}

// Write writes the bytes of value selected by mask. Nothing is written
// when the access is not fully backed by one region.
func (m *Memory) Write(addr uint32, size Size, value, mask uint32) error {
	r, off, err := m.find(addr, size)
	if err != nil {
		return err
	}

	for i := uint32(0); i < uint32(size); i++ {
		var shift uint32
		if m.endian == BigEndian {
			shift = 8 * (uint32(size) - 1 - i)
		} else {
			shift = 8 * i
		}
		if (mask>>shift)&0xFF == 0 {
			continue
		}
		lane := uint8(value >> shift)
		keep := uint8(^(mask >> shift))
		r.data[off+i] = (r.data[off+i] & keep) | (lane &^ keep)
	}
	return nil
}
