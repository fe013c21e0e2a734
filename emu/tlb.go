package emu

// TLBEntries is the number of slots in the translation lookaside buffer.
const TLBEntries = 64

// tlbWired is the number of slots the Random register never selects.
const tlbWired = 8

// TLBEntry is one EntryHi/EntryLo pair.
type TLBEntry struct {
	Hi uint32
	Lo uint32
}

// VPN returns the virtual page number bits of the entry.
func (e TLBEntry) VPN() uint32 { return e.Hi & EntryHiVPN }

// ASID returns the address space identifier bits of the entry.
func (e TLBEntry) ASID() uint32 { return e.Hi & EntryHiASID }

// PFN returns the physical frame number bits of the entry.
func (e TLBEntry) PFN() uint32 { return e.Lo & EntryLoPFN }

// NonCacheable reports whether the N bit is set.
func (e TLBEntry) NonCacheable() bool { return e.Lo&EntryLoN != 0 }

// Dirty reports whether the D (write enable) bit is set.
func (e TLBEntry) Dirty() bool { return e.Lo&EntryLoD != 0 }

// Valid reports whether the V bit is set.
func (e TLBEntry) Valid() bool { return e.Lo&EntryLoV != 0 }

// Global reports whether the G bit is set.
func (e TLBEntry) Global() bool { return e.Lo&EntryLoG != 0 }

// matches reports whether the entry translates key, a VPN|ASID pair.
func (e TLBEntry) matches(key uint32) bool {
	mask := EntryHiVPN
	if !e.Global() {
		mask |= EntryHiASID
	}
	return (e.Hi^key)&mask == 0
}

// TLB is the fully associative 64-entry translation table.
type TLB struct {
	entries [TLBEntries]TLBEntry

	doubleMatches uint64
}

// NewTLB creates a TLB whose slots hold distinct, unmapped-segment pages so
// that a fresh table never matches a mapped address.
func NewTLB() *TLB {
	t := &TLB{}
	for i := range t.entries {
		t.entries[i].Hi = 0x80000000 + uint32(i)<<12
	}
	return t
}

// Entry returns slot index.
func (t *TLB) Entry(index int) TLBEntry {
	return t.entries[index&(TLBEntries-1)]
}

// Write stores an entry in slot index, discarding the reserved bits.
func (t *TLB) Write(index int, hi, lo uint32) {
	t.entries[index&(TLBEntries-1)] = TLBEntry{
		Hi: hi & entryHiMask,
		Lo: lo & entryLoMask,
	}
}

// Match returns the index of the first entry translating key and the
// number of entries that match it. A count above one means software
// programmed conflicting entries.
func (t *TLB) Match(key uint32) (index int, count int) {
	index = -1
	for i := range t.entries {
		if !t.entries[i].matches(key) {
			continue
		}
		if index < 0 {
			index = i
		}
		count++
	}
	return index, count
}

// Probe returns the index of the first entry matching key, or -1.
func (t *TLB) Probe(key uint32) int {
	index, _ := t.Match(key)
	return index
}

// DoubleMatches returns how many lookups found more than one matching entry.
func (t *TLB) DoubleMatches() uint64 {
	return t.doubleMatches
}
