package emu

// Intent is the kind of access being translated.
type Intent uint8

// Access intents.
const (
	IntentFetch Intent = iota
	IntentLoad
	IntentStore
)

// String returns the intent name.
func (i Intent) String() string {
	switch i {
	case IntentFetch:
		return "fetch"
	case IntentLoad:
		return "load"
	case IntentStore:
		return "store"
	default:
		return "unknown"
	}
}

// Segment boundaries of the 32-bit virtual address space.
const (
	kseg0Base uint32 = 0x80000000
	kseg1Base uint32 = 0xA0000000
	kseg2Base uint32 = 0xC0000000

	// kusegOffset relocates kuseg on cores without a TLB.
	kusegOffset uint32 = 0x40000000
)

// TranslateResult is the outcome of an address translation.
type TranslateResult struct {
	// Phys is the physical address when OK is true.
	Phys uint32
	// Cached reports whether the access may be cached.
	Cached bool
	// OK is false when the access faults.
	OK bool
	// Code is the exception the access raises when OK is false.
	Code ExceptionCode
	// Refill is true for a TLB miss in kuseg, which uses the refill vector.
	Refill bool
	// Matches is the number of TLB entries that matched.
	Matches int
}

// tlbKey returns the VPN|ASID lookup key for vaddr under the current
// EntryHi ASID.
func (c *CPU) tlbKey(vaddr uint32) uint32 {
	return (vaddr & EntryHiVPN) | (c.cop[0].Data[Cop0EntryHi] & EntryHiASID)
}

// lookup performs translation without touching any state. user selects
// whether the user-mode segment check applies.
func (c *CPU) lookup(vaddr uint32, intent Intent, user bool) TranslateResult {
	if user && vaddr&kseg0Base != 0 {
		return TranslateResult{Code: addressErrorCode(intent)}
	}

	switch {
	case vaddr >= kseg2Base:
		if c.tlb == nil {
			return TranslateResult{Phys: vaddr, Cached: true, OK: true}
		}
		return c.lookupTLB(vaddr, intent)

	case vaddr >= kseg1Base:
		return TranslateResult{Phys: vaddr - kseg1Base, OK: true}

	case vaddr >= kseg0Base:
		return TranslateResult{Phys: vaddr - kseg0Base, Cached: true, OK: true}

	default:
		if c.tlb == nil {
			return TranslateResult{Phys: vaddr + kusegOffset, Cached: true, OK: true}
		}
		return c.lookupTLB(vaddr, intent)
	}
}

func (c *CPU) lookupTLB(vaddr uint32, intent Intent) TranslateResult {
	index, count := c.tlb.Match(c.tlbKey(vaddr))
	if index < 0 {
		return TranslateResult{
			Code:   tlbMissCode(intent),
			Refill: vaddr < kseg0Base,
		}
	}

	entry := c.tlb.Entry(index)
	switch {
	case !entry.Valid():
		return TranslateResult{Code: tlbMissCode(intent), Matches: count}
	case intent == IntentStore && !entry.Dirty():
		return TranslateResult{Code: ExcMod, Matches: count}
	}

	return TranslateResult{
		Phys:    entry.PFN() | (vaddr &^ EntryHiVPN),
		Cached:  !entry.NonCacheable(),
		OK:      true,
		Matches: count,
	}
}

// translate maps vaddr for an access by the running program. On a fault
// it loads the fault registers and enters the exception handler.
func (c *CPU) translate(vaddr uint32, intent Intent) (uint32, bool, bool) {
	r := c.lookup(vaddr, intent, c.userMode())

	if r.Matches > 1 {
		c.tlb.doubleMatches++
		c.logger.WithField("vaddr", vaddr).Warn("multiple tlb entries match")
		if c.tlbDiagnostic != nil {
			c.tlbDiagnostic(vaddr, r.Matches)
		}
	}

	if r.OK {
		return r.Phys, r.Cached, true
	}

	bank := &c.cop[0]
	bank.Data[Cop0BadVAddr] = vaddr
	if r.Code != ExcAdEL && r.Code != ExcAdES {
		bank.Data[Cop0EntryHi] = c.tlbKey(vaddr)
		bank.Data[Cop0Context] = (bank.Data[Cop0Context] & contextPTEBase) |
			((vaddr >> 10) & contextBadVPN)
	}
	c.raiseException(r.Code, 0, r.Refill)
	return 0, false, false
}

// Translate maps vaddr the way an access of the given intent would, without
// loading fault registers, counting diagnostics or raising exceptions. It
// uses the kernel view so debuggers can inspect every segment.
func (c *CPU) Translate(vaddr uint32, intent Intent) TranslateResult {
	return c.lookup(vaddr, intent, false)
}

func addressErrorCode(intent Intent) ExceptionCode {
	if intent == IntentStore {
		return ExcAdES
	}
	return ExcAdEL
}

func tlbMissCode(intent Intent) ExceptionCode {
	if intent == IntentStore {
		return ExcTLBS
	}
	return ExcTLBL
}
