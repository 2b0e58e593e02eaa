// Package diag exports per-level hit/miss/eviction counters as a
// pprof-format profile, so a run's cache behavior can be inspected with
// standard pprof tooling instead of ad hoc text.
package diag

import (
	"io"

	"github.com/google/pprof/profile"

	"defs"
)

// Level identifies one counted component of the hierarchy.
type Level string

const (
	LevelL1I   Level = "l1i"
	LevelL1D   Level = "l1d"
	LevelL2    Level = "l2"
	LevelTLB   Level = "tlb"
	LevelTLBL1 Level = "tlb_l1"
	LevelTLBL2 Level = "tlb_l2"
)

// Counters accumulates hits, misses, and evictions per level across a run.
type Counters struct {
	hits      map[Level]int64
	misses    map[Level]int64
	evictions map[Level]int64
}

// NewCounters returns an empty counter set.
func NewCounters() *Counters {
	return &Counters{
		hits:      make(map[Level]int64),
		misses:    make(map[Level]int64),
		evictions: make(map[Level]int64),
	}
}

func (c *Counters) RecordHit(l Level)      { c.hits[l]++ }
func (c *Counters) RecordMiss(l Level)     { c.misses[l]++ }
func (c *Counters) RecordEviction(l Level) { c.evictions[l]++ }

// TotalHits, TotalMisses, and TotalEvictions sum a kind of event across
// every recorded level, for callers that want one run-wide figure rather
// than a per-level breakdown.
func (c *Counters) TotalHits() int64      { return sumLevels(c.hits) }
func (c *Counters) TotalMisses() int64    { return sumLevels(c.misses) }
func (c *Counters) TotalEvictions() int64 { return sumLevels(c.evictions) }

func sumLevels(m map[Level]int64) int64 {
	var total int64
	for _, v := range m {
		total += v
	}
	return total
}

// WriteProfile encodes the accumulated counters as a gzipped pprof
// profile, one sample per (level, event-kind) pair, and writes it to w.
func WriteProfile(w io.Writer, c *Counters) defs.Err_t {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "count", Unit: "count"},
		},
		PeriodType: &profile.ValueType{Type: "event", Unit: "count"},
		Period:     1,
	}

	levelFn := map[string]*profile.Function{}
	nextID := uint64(1)
	funcFor := func(name string) *profile.Function {
		if fn, ok := levelFn[name]; ok {
			return fn
		}
		fn := &profile.Function{ID: nextID, Name: name}
		nextID++
		levelFn[name] = fn
		prof.Function = append(prof.Function, fn)
		return fn
	}

	addSample := func(level Level, kind string, value int64) {
		if value == 0 {
			return
		}
		name := string(level) + "_" + kind
		fn := funcFor(name)
		loc := &profile.Location{
			ID:   uint64(len(prof.Location) + 1),
			Line: []profile.Line{{Function: fn}},
		}
		prof.Location = append(prof.Location, loc)
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{value},
		})
	}

	for level, v := range c.hits {
		addSample(level, "hit", v)
	}
	for level, v := range c.misses {
		addSample(level, "miss", v)
	}
	for level, v := range c.evictions {
		addSample(level, "eviction", v)
	}

	if err := prof.Write(w); err != nil {
		return defs.EIO
	}
	return defs.ENONE
}
