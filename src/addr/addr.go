// Package addr models virtual and physical addresses as opaque values.
//
// A Virtual address packs four 9-bit page-table indices and a 12-bit
// page offset into a 48-bit quantity. A Physical address packs a 20-bit
// page number and a 12-bit offset into 32 bits. Neither type exposes its
// bit layout directly; callers go through the accessors below.
package addr

import "defs"

const (
	OffsetBits = 12
	IndexBits  = 9
	OffsetMask = (1 << OffsetBits) - 1
	IndexMask  = (1 << IndexBits) - 1

	PageSize = 1 << OffsetBits

	PhyPageBits = 20
	PhyPageMask = (1 << PhyPageBits) - 1
)

// Virtual is a 64-bit virtual address: pgd(9) pud(9) pmd(9) pte(9) offset(12).
type Virtual struct {
	pgd, pud, pmd, pte uint32
	offset             uint32
}

// NewVirtual builds a Virtual address from its four table indices and a
// page offset, rejecting any field that overflows its bit width.
func NewVirtual(pgd, pud, pmd, pte, offset uint32) (Virtual, defs.Err_t) {
	if pgd > IndexMask || pud > IndexMask || pmd > IndexMask || pte > IndexMask {
		return Virtual{}, defs.EBADPARAMETER
	}
	if offset > OffsetMask {
		return Virtual{}, defs.EBADPARAMETER
	}
	return Virtual{pgd: pgd, pud: pud, pmd: pmd, pte: pte, offset: offset}, defs.ENONE
}

// DecodeVirtual64 splits the low 48 bits of v into its five fields.
func DecodeVirtual64(v uint64) Virtual {
	return Virtual{
		pgd:    uint32((v >> 39) & IndexMask),
		pud:    uint32((v >> 30) & IndexMask),
		pmd:    uint32((v >> 21) & IndexMask),
		pte:    uint32((v >> 12) & IndexMask),
		offset: uint32(v & OffsetMask),
	}
}

// Encode64 packs the address back into a 64-bit integer (top 16 bits zero).
func (v Virtual) Encode64() uint64 {
	return uint64(v.pgd)<<39 | uint64(v.pud)<<30 | uint64(v.pmd)<<21 |
		uint64(v.pte)<<12 | uint64(v.offset)
}

func (v Virtual) PgdIndex() uint32 { return v.pgd }
func (v Virtual) PudIndex() uint32 { return v.pud }
func (v Virtual) PmdIndex() uint32 { return v.pmd }
func (v Virtual) PteIndex() uint32 { return v.pte }
func (v Virtual) Offset() uint32   { return v.offset }

// VPN returns the 36-bit virtual page number (everything above the offset).
func (v Virtual) VPN() uint64 {
	return uint64(v.pgd)<<27 | uint64(v.pud)<<18 | uint64(v.pmd)<<9 | uint64(v.pte)
}

// Physical is a 32-bit physical address: phy_page_num(20) offset(12).
type Physical struct {
	pageNum uint32
	offset  uint32
}

// NewPhysical builds a Physical address from a page-aligned base address
// and a byte offset within that page.
func NewPhysical(pageBase uint32, offset uint32) (Physical, defs.Err_t) {
	if pageBase%PageSize != 0 {
		return Physical{}, defs.EBADPARAMETER
	}
	if offset > OffsetMask {
		return Physical{}, defs.EBADPARAMETER
	}
	pageNum := pageBase >> OffsetBits
	if pageNum > PhyPageMask {
		return Physical{}, defs.EBADPARAMETER
	}
	return Physical{pageNum: pageNum, offset: offset}, defs.ENONE
}

// NewPhysicalFromPageNum builds a Physical address from an already-shifted
// page number, as produced by a page-table entry or TLB lookup.
func NewPhysicalFromPageNum(pageNum uint32, offset uint32) (Physical, defs.Err_t) {
	if pageNum > PhyPageMask || offset > OffsetMask {
		return Physical{}, defs.EBADPARAMETER
	}
	return Physical{pageNum: pageNum, offset: offset}, defs.ENONE
}

func (p Physical) PageNum() uint32 { return p.pageNum }
func (p Physical) Offset() uint32  { return p.offset }

// Bytes returns the raw 32-bit physical address value.
func (p Physical) Bytes() uint32 {
	return p.pageNum<<OffsetBits | p.offset
}

// WordIndex returns the index of the 32-bit word containing this address
// in a memory slice viewed as an array of words.
func (p Physical) WordIndex() uint32 {
	return p.Bytes() >> 2
}
