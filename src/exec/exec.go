// Package exec drives a parsed program through a translation strategy
// and the cache hierarchy, producing the ordered results of each access.
package exec

import (
	"addr"
	"cachehier"
	"defs"
	"diag"
	"htlb"
	"mem"
	"pagewalk"
	"program"
	"tlb"
)

// AccessKind mirrors cachehier/htlb's split between instruction and data
// accesses, at the level the executor operates.
type AccessKind = cachehier.AccessKind

const (
	Instruction = cachehier.Instruction
	Data        = cachehier.Data
)

// Translator resolves a virtual address to a physical one using whatever
// translation strategy the executor was configured with, reporting
// whether the resolution hit in a TLB or fell all the way to a page walk.
type Translator interface {
	Translate(m *mem.Memory, v addr.Virtual, kind AccessKind) (p addr.Physical, hit bool, e defs.Err_t)
}

// FullyAssocTranslator adapts the single-level fully-associative TLB to
// the Translator interface; access kind is irrelevant to that TLB.
type FullyAssocTranslator struct {
	TLB *tlb.TLB
}

func (t FullyAssocTranslator) Translate(m *mem.Memory, v addr.Virtual, _ AccessKind) (addr.Physical, bool, defs.Err_t) {
	return t.TLB.Search(m, v)
}

// HierarchicalTranslator adapts the split-L1/unified-L2 TLB, which does
// care about access kind.
type HierarchicalTranslator struct {
	Hier *htlb.Hierarchy
}

func (t HierarchicalTranslator) Translate(m *mem.Memory, v addr.Virtual, kind AccessKind) (addr.Physical, bool, defs.Err_t) {
	var hk htlb.AccessKind
	if kind == Instruction {
		hk = htlb.Instruction
	} else {
		hk = htlb.Data
	}
	return t.Hier.Search(m, v, hk)
}

// BypassTranslator skips every TLB and always runs a fresh page walk.
type BypassTranslator struct{}

func (BypassTranslator) Translate(m *mem.Memory, v addr.Virtual, _ AccessKind) (addr.Physical, bool, defs.Err_t) {
	p, e := pagewalk.Walk(m, v)
	return p, false, e
}

// Result is the outcome of replaying one command.
type Result struct {
	Command program.Command
	Value   uint32 // the read value, or the value written
}

// Executor replays a Program against a memory image, a translator, and
// the cache hierarchy. Counters is optional; when set, each step's
// translation outcome is recorded under diag.LevelTLB.
type Executor struct {
	Mem        *mem.Memory
	Translator Translator
	Cache      *cachehier.Hierarchy
	Counters   *diag.Counters
}

// New builds an Executor over the given memory, translation strategy,
// and cache hierarchy.
func New(m *mem.Memory, t Translator, c *cachehier.Hierarchy) *Executor {
	return &Executor{Mem: m, Translator: t, Cache: c}
}

// Run replays every command in p in order, returning their results.
func (ex *Executor) Run(p *program.Program) ([]Result, defs.Err_t) {
	results := make([]Result, 0, p.Len())
	for i := 0; i < p.Len(); i++ {
		r, e := ex.Step(p.At(i))
		if e != defs.ENONE {
			return results, e
		}
		results = append(results, r)
	}
	return results, defs.ENONE
}

// Step replays a single command.
func (ex *Executor) Step(c program.Command) (Result, defs.Err_t) {
	kind := Data
	if c.Kind == program.InstructionFetch {
		kind = Instruction
	}

	paddr, hit, e := ex.Translator.Translate(ex.Mem, c.Vaddr, kind)
	if ex.Counters != nil {
		if hit {
			ex.Counters.RecordHit(diag.LevelTLB)
		} else {
			ex.Counters.RecordMiss(diag.LevelTLB)
		}
	}
	if e != defs.ENONE {
		return Result{}, e
	}

	if c.Order == program.Read {
		if c.DataSize == 4 {
			v, e := ex.Cache.Read(paddr, kind)
			return Result{Command: c, Value: v}, e
		}
		v, e := ex.Cache.ReadByte(paddr, kind)
		return Result{Command: c, Value: uint32(v)}, e
	}

	// Writes are always data accesses; Program.Add already rejects
	// instruction writes.
	if c.DataSize == 4 {
		e := ex.Cache.Write(paddr, c.WriteData)
		return Result{Command: c, Value: c.WriteData}, e
	}
	e = ex.Cache.WriteByte(paddr, uint8(c.WriteData))
	return Result{Command: c, Value: c.WriteData}, e
}
