// Package tlb implements a fully-associative translation lookaside
// buffer with an LRU replacement policy.
package tlb

import (
	"addr"
	"defs"
	"mem"
	"pagewalk"
)

// Lines is the number of entries in the fully-associative TLB.
const Lines = 128

// Entry is one fully-associative TLB line.
type Entry struct {
	Tag        uint64
	PhyPageNum uint32
	Valid      bool
}

// TLB is a 128-entry fully-associative TLB with LRU replacement.
type TLB struct {
	entries [Lines]Entry
	order   *arenaList
}

// New returns an empty, flushed TLB.
func New() *TLB {
	return &TLB{order: newArenaList(Lines)}
}

// Flush invalidates every entry.
func (t *TLB) Flush() defs.Err_t {
	for i := range t.entries {
		t.entries[i] = Entry{}
	}
	return defs.ENONE
}

// Hit looks up v's virtual page number among valid entries. On a hit it
// promotes the matching line to most-recently-used and returns the
// translated physical address.
func (t *TLB) Hit(v addr.Virtual) (addr.Physical, bool) {
	vpn := v.VPN()
	for i := range t.entries {
		e := &t.entries[i]
		if e.Valid && e.Tag == vpn {
			t.order.MoveBack(i)
			p, _ := addr.NewPhysicalFromPageNum(e.PhyPageNum, v.Offset())
			return p, true
		}
	}
	return addr.Physical{}, false
}

// Insert installs a translation at the given line index.
func (t *TLB) Insert(line int, e Entry) defs.Err_t {
	if line < 0 || line >= Lines {
		return defs.EBADPARAMETER
	}
	t.entries[line] = e
	return defs.ENONE
}

// Search resolves v through the TLB, falling back to a full page walk and
// installing the result in the least-recently-used line on a miss.
func (t *TLB) Search(m *mem.Memory, v addr.Virtual) (addr.Physical, bool, defs.Err_t) {
	if p, hit := t.Hit(v); hit {
		return p, true, defs.ENONE
	}

	p, e := pagewalk.Walk(m, v)
	if e != defs.ENONE {
		return addr.Physical{}, false, e
	}

	victim := t.order.Front()
	if e := t.Insert(victim, Entry{Tag: v.VPN(), PhyPageNum: p.PageNum(), Valid: true}); e != defs.ENONE {
		return addr.Physical{}, false, e
	}
	t.order.MoveBack(victim)

	return p, false, defs.ENONE
}
