// Package cachehier orchestrates the exclusive L1 instruction, L1 data,
// and unified L2 caches: translated physical accesses land here after
// TLB/page-walk resolution.
package cachehier

import (
	"addr"
	"cache"
	"config"
	"defs"
	"mem"
)

// AccessKind distinguishes an instruction fetch from a data access.
type AccessKind int

const (
	Instruction AccessKind = iota
	Data
)

const lineWords = 4

// Geometries for the three cache levels, per the sizing table this
// simulator follows by default; New uses these unless given an
// explicit config.Geometry.
var (
	L1IGeometry = cache.Geometry{Sets: 64, Ways: 2, LineWords: lineWords, TagBits: 22}
	L1DGeometry = cache.Geometry{Sets: 64, Ways: 4, LineWords: lineWords, TagBits: 22}
	L2Geometry  = cache.Geometry{Sets: 512, Ways: 8, LineWords: lineWords, TagBits: 19}
)

// Hierarchy wires the three cache levels to the main memory they back.
type Hierarchy struct {
	L1I *cache.Cache
	L1D *cache.Cache
	L2  *cache.Cache
	mem *mem.Memory
}

// New builds an empty exclusive cache hierarchy over m, using the
// simulator's documented default geometry.
func New(m *mem.Memory) *Hierarchy {
	return NewWithGeometry(m, config.Geometry{L1I: L1IGeometry, L1D: L1DGeometry, L2: L2Geometry})
}

// NewWithGeometry builds an empty exclusive cache hierarchy over m,
// sized according to geom (typically loaded via config.Load) rather
// than the built-in defaults.
func NewWithGeometry(m *mem.Memory, geom config.Geometry) *Hierarchy {
	return &Hierarchy{
		L1I: cache.New(geom.L1I),
		L1D: cache.New(geom.L1D),
		L2:  cache.New(geom.L2),
		mem: m,
	}
}

// Flush resets all three cache levels to their initial invalidated state.
func (h *Hierarchy) Flush() defs.Err_t {
	h.L1I.Flush()
	h.L1D.Flush()
	h.L2.Flush()
	return defs.ENONE
}

// split decomposes a physical address's byte value into a cache's tag,
// set index, and word-select, per that cache's geometry.
func split(geom cache.Geometry, addrBytes uint32) (tag uint32, set int, wordSel int) {
	setBits := uint(bitlen(geom.Sets - 1))
	wordSel = int((addrBytes >> 2) & 0x3)
	set = int((addrBytes >> 4) & uint32((1<<setBits)-1))
	tag = addrBytes >> (4 + setBits)
	return tag, set, wordSel
}

func bitlen(n int) int {
	bits := 0
	for (1 << bits) <= n {
		bits++
	}
	return bits
}

// lineBaseWordIndex returns the word index of the first word of the
// cache line containing addrBytes.
func lineBaseWordIndex(addrBytes uint32) uint32 {
	return (addrBytes &^ 0xF) / 4
}

func (h *Hierarchy) entryInit(addrBytes uint32, tag uint32) (cache.Entry, defs.Err_t) {
	base := lineBaseWordIndex(addrBytes)
	words := make([]uint32, lineWords)
	for i := 0; i < lineWords; i++ {
		w, e := h.mem.ReadWord(base + uint32(i))
		if e != defs.ENONE {
			return cache.Entry{}, e
		}
		words[i] = w
	}
	return cache.Entry{Valid: true, Age: 0, Tag: tag, Words: words}, defs.ENONE
}

func (h *Hierarchy) writeLineBack(addrBytes uint32, words []uint32) defs.Err_t {
	base := lineBaseWordIndex(addrBytes)
	for i, w := range words {
		if e := h.mem.WriteWord(base+uint32(i), w); e != defs.ENONE {
			return e
		}
	}
	return defs.ENONE
}

func (h *Hierarchy) l1For(kind AccessKind) *cache.Cache {
	if kind == Instruction {
		return h.L1I
	}
	return h.L1D
}

// Read resolves a word access for the given physical address and access
// kind through the exclusive hierarchy, falling back to main memory on a
// double miss.
func (h *Hierarchy) Read(p addr.Physical, kind AccessKind) (uint32, defs.Err_t) {
	addrBytes := p.Bytes()
	l1 := h.l1For(kind)

	l1Tag, l1Set, wordSel := split(l1.Geom, addrBytes)
	if way, ok := l1.Lookup(l1Set, l1Tag); ok {
		l1.AgeUpdate(l1Set, way)
		return l1.Way(l1Set, way).Words[wordSel], defs.ENONE
	}

	l2Tag, l2Set, _ := split(h.L2.Geom, addrBytes)
	if way, ok := h.L2.Lookup(l2Set, l2Tag); ok {
		entry := *h.L2.Way(l2Set, way)
		h.L2.Way(l2Set, way).Valid = false

		value := entry.Words[wordSel]
		entry.Tag = l1Tag
		h.insertOrEvict(l1, l1Set, entry)
		return value, defs.ENONE
	}

	entry, e := h.entryInit(addrBytes, l1Tag)
	if e != defs.ENONE {
		return 0, e
	}
	value := entry.Words[wordSel]
	h.insertOrEvict(l1, l1Set, entry)
	return value, defs.ENONE
}

// Write updates a word at the given physical address through the
// exclusive hierarchy, always propagating the new line to main memory.
func (h *Hierarchy) Write(p addr.Physical, value uint32) defs.Err_t {
	addrBytes := p.Bytes()
	l1Tag, l1Set, wordSel := split(h.L1D.Geom, addrBytes)

	if way, ok := h.L1D.Lookup(l1Set, l1Tag); ok {
		entry := h.L1D.Way(l1Set, way)
		entry.Words[wordSel] = value
		h.L1D.AgeUpdate(l1Set, way)
		return h.writeLineBack(addrBytes, entry.Words)
	}

	l2Tag, l2Set, _ := split(h.L2.Geom, addrBytes)
	if way, ok := h.L2.Lookup(l2Set, l2Tag); ok {
		entry := *h.L2.Way(l2Set, way)
		entry.Words = append([]uint32(nil), entry.Words...)
		entry.Words[wordSel] = value

		h.L2.Way(l2Set, way).Valid = false

		entry.Tag = l1Tag
		h.insertOrEvict(h.L1D, l1Set, entry)
		return h.writeLineBack(addrBytes, entry.Words)
	}

	entry, e := h.entryInit(addrBytes, l1Tag)
	if e != defs.ENONE {
		return e
	}
	entry.Words[wordSel] = value
	if e := h.writeLineBack(addrBytes, entry.Words); e != defs.ENONE {
		return e
	}
	h.insertOrEvict(h.L1D, l1Set, entry)
	return defs.ENONE
}

// ReadByte derives the containing word access, then extracts the
// selected byte in little-endian order.
func (h *Hierarchy) ReadByte(p addr.Physical, kind AccessKind) (uint8, defs.Err_t) {
	wordAddr, _ := addr.NewPhysicalFromPageNum(p.PageNum(), p.Offset()&^0x3)
	word, e := h.Read(wordAddr, kind)
	if e != defs.ENONE {
		return 0, e
	}
	shift := (p.Offset() & 0x3) * 8
	return uint8(word >> shift), defs.ENONE
}

// WriteByte derives the containing word, splices in the new byte, and
// writes the word back through Write.
func (h *Hierarchy) WriteByte(p addr.Physical, value uint8) defs.Err_t {
	wordAddr, _ := addr.NewPhysicalFromPageNum(p.PageNum(), p.Offset()&^0x3)
	word, e := h.Read(wordAddr, Data)
	if e != defs.ENONE {
		return e
	}
	shift := (p.Offset() & 0x3) * 8
	mask := uint32(0xFF) << shift
	word = (word &^ mask) | uint32(value)<<shift
	return h.Write(wordAddr, word)
}

// insertOrEvict places entry into l1's set, following the documented
// rule: an invalid way is preferred; otherwise the oldest valid way is
// captured as a victim, overwritten, and demoted into L2.
func (h *Hierarchy) insertOrEvict(l1 *cache.Cache, set int, entry cache.Entry) {
	for way := 0; way < l1.Geom.Ways; way++ {
		if !l1.Way(set, way).Valid {
			*l1.Way(set, way) = entry
			l1.AgeIncrease(set, way)
			return
		}
	}

	victimWay := l1.VictimWay(set)
	victim := *l1.Way(set, victimWay)
	*l1.Way(set, victimWay) = entry
	l1.AgeUpdateFromOldAge(set, victimWay, victim.Age)

	// Rebuild the victim's line address from its L1 tag and set, then split
	// it by L2's geometry; with the default sizes this is
	// l2Set = (tag & 0x7)<<6 | set and l2Tag = tag >> 3.
	victimAddr := victim.Tag<<(4+uint(bitlen(l1.Geom.Sets-1))) | uint32(set)<<4
	l2Tag, l2Set, _ := split(h.L2.Geom, victimAddr)
	l2Entry := cache.Entry{Valid: true, Age: 0, Tag: l2Tag, Words: victim.Words}
	h.insertOrEvictL2(l2Set, l2Entry)
}

// insertOrEvictL2 applies the same rule to L2, but silently drops the
// victim instead of demoting it further — there is no level below L2.
func (h *Hierarchy) insertOrEvictL2(set int, entry cache.Entry) {
	for way := 0; way < h.L2.Geom.Ways; way++ {
		if !h.L2.Way(set, way).Valid {
			*h.L2.Way(set, way) = entry
			h.L2.AgeIncrease(set, way)
			return
		}
	}
	victimWay := h.L2.VictimWay(set)
	oldAge := h.L2.Way(set, victimWay).Age
	*h.L2.Way(set, victimWay) = entry
	h.L2.AgeUpdateFromOldAge(set, victimWay, oldAge)
}
