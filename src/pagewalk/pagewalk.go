// Package pagewalk performs the four-level page table translation that
// every TLB miss falls back to.
package pagewalk

import (
	"addr"
	"defs"
	"mem"
)

// readEntry loads the pageStart-relative, index-th page-table entry and
// returns the physical page base it names.
func readEntry(m *mem.Memory, pageStart uint32, index uint32) (uint32, defs.Err_t) {
	wordIdx := pageStart/4 + index
	return m.ReadWord(wordIdx)
}

// Walk translates a virtual address into a physical address by resolving
// the PGD, PUD, PMD, and PTE tables in turn. Each lookup reads one 32-bit
// little-endian word naming the next table's physical base.
func Walk(m *mem.Memory, v addr.Virtual) (addr.Physical, defs.Err_t) {
	pudBase, e := readEntry(m, 0, v.PgdIndex())
	if e != defs.ENONE {
		return addr.Physical{}, e
	}
	pmdBase, e := readEntry(m, pudBase, v.PudIndex())
	if e != defs.ENONE {
		return addr.Physical{}, e
	}
	pteBase, e := readEntry(m, pmdBase, v.PmdIndex())
	if e != defs.ENONE {
		return addr.Physical{}, e
	}
	pageBase, e := readEntry(m, pteBase, v.PteIndex())
	if e != defs.ENONE {
		return addr.Physical{}, e
	}
	return addr.NewPhysical(pageBase, v.Offset())
}
