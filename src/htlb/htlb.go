// Package htlb implements the hierarchical TLB: split direct-mapped L1
// instruction/data TLBs backed by a unified, also direct-mapped, L2 TLB.
package htlb

import (
	"addr"
	"defs"
	"mem"
	"pagewalk"
)

const (
	L1Lines    = 16
	L2Lines    = 64
	l1IndexBit = 4 // log2(L1Lines)
	l2IndexBit = 6 // log2(L2Lines)
)

// AccessKind distinguishes an instruction fetch from a data access, since
// the two have separate L1 TLBs.
type AccessKind int

const (
	Instruction AccessKind = iota
	Data
)

// line is one direct-mapped TLB entry.
type line struct {
	tag        uint64
	phyPageNum uint32
	valid      bool
}

// Hierarchy is the split-L1/unified-L2 TLB.
type Hierarchy struct {
	l1i [L1Lines]line
	l1d [L1Lines]line
	l2  [L2Lines]line
}

// New returns an empty, flushed hierarchy.
func New() *Hierarchy {
	return &Hierarchy{}
}

// Flush invalidates every line in all three TLBs.
func (h *Hierarchy) Flush() defs.Err_t {
	h.l1i = [L1Lines]line{}
	h.l1d = [L1Lines]line{}
	h.l2 = [L2Lines]line{}
	return defs.ENONE
}

func (h *Hierarchy) l1For(kind AccessKind) *[L1Lines]line {
	if kind == Instruction {
		return &h.l1i
	}
	return &h.l1d
}

func (h *Hierarchy) otherL1For(kind AccessKind) *[L1Lines]line {
	if kind == Instruction {
		return &h.l1d
	}
	return &h.l1i
}

func l1Split(vpn uint64) (tag uint64, idx uint32) {
	return vpn >> l1IndexBit, uint32(vpn & (1<<l1IndexBit - 1))
}

func l2Split(vpn uint64) (tag uint64, idx uint32) {
	return vpn >> l2IndexBit, uint32(vpn & (1<<l2IndexBit - 1))
}

// Search resolves v through the L1/L2 hierarchy, falling back to a page
// walk on a full miss. kind selects which L1 (instruction or data)
// participates.
func (h *Hierarchy) Search(m *mem.Memory, v addr.Virtual, kind AccessKind) (addr.Physical, bool, defs.Err_t) {
	vpn := v.VPN()
	l1 := h.l1For(kind)
	l1Tag, l1Idx := l1Split(vpn)

	if l1[l1Idx].valid && l1[l1Idx].tag == l1Tag {
		p, _ := addr.NewPhysicalFromPageNum(l1[l1Idx].phyPageNum, v.Offset())
		return p, true, defs.ENONE
	}

	l2Tag, l2Idx := l2Split(vpn)
	if h.l2[l2Idx].valid && h.l2[l2Idx].tag == l2Tag {
		pageNum := h.l2[l2Idx].phyPageNum
		l1[l1Idx] = line{tag: l1Tag, phyPageNum: pageNum, valid: true}
		p, _ := addr.NewPhysicalFromPageNum(pageNum, v.Offset())
		return p, true, defs.ENONE
	}

	p, e := pagewalk.Walk(m, v)
	if e != defs.ENONE {
		return addr.Physical{}, false, e
	}

	h.evictAndInsertL2(kind, l2Idx, l2Tag, p.PageNum())
	l1[l1Idx] = line{tag: l1Tag, phyPageNum: p.PageNum(), valid: true}

	return p, false, defs.ENONE
}

// evictAndInsertL2 installs a fresh entry at l2[l2Idx], and if that slot
// held a valid line belonging to a different VPN, invalidates the
// corresponding line in the L1 that is not being serviced by this access
// — the evicted translation can no longer be trusted to agree with L2.
func (h *Hierarchy) evictAndInsertL2(kind AccessKind, l2Idx uint32, l2Tag uint64, newPageNum uint32) {
	old := h.l2[l2Idx]
	h.l2[l2Idx] = line{tag: l2Tag, phyPageNum: newPageNum, valid: true}

	if !old.valid {
		return
	}
	adjustedTag := old.tag<<(l2IndexBit-l1IndexBit) | uint64(l2Idx)>>l1IndexBit
	l1Idx := l2Idx & (1<<l1IndexBit - 1)

	other := h.otherL1For(kind)
	if other[l1Idx].valid && other[l1Idx].tag == adjustedTag {
		other[l1Idx] = line{}
	}
}
