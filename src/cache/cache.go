// Package cache implements a generic set-associative cache container,
// parameterized at construction time by its geometry rather than baked
// in per cache level.
package cache

import "defs"

// Geometry describes the shape of one cache instance.
type Geometry struct {
	Sets      int
	Ways      int
	LineWords int
	TagBits   uint
}

// Entry is one cache line: a validity bit, an LRU age, a tag, and the
// line's data words.
type Entry struct {
	Valid bool
	Age   int
	Tag   uint32
	Words []uint32
}

// Cache is a set-associative array of Entry, all sharing one Geometry.
type Cache struct {
	Geom Geometry
	sets [][]Entry
}

// New allocates an empty (all-invalid) cache of the given geometry.
func New(geom Geometry) *Cache {
	c := &Cache{Geom: geom, sets: make([][]Entry, geom.Sets)}
	for s := range c.sets {
		ways := make([]Entry, geom.Ways)
		for w := range ways {
			ways[w].Words = make([]uint32, geom.LineWords)
		}
		c.sets[s] = ways
	}
	return c
}

// Flush invalidates every entry, ages included.
func (c *Cache) Flush() defs.Err_t {
	for s := range c.sets {
		for w := range c.sets[s] {
			c.sets[s][w].Valid = false
			c.sets[s][w].Age = 0
			c.sets[s][w].Tag = 0
		}
	}
	return defs.ENONE
}

// Way returns a pointer to the entry at (set, way) for direct inspection
// or mutation by the cache-hierarchy orchestration layer.
func (c *Cache) Way(set, way int) *Entry {
	return &c.sets[set][way]
}

// Lookup scans a set for a valid entry matching tag, returning its way.
func (c *Cache) Lookup(set int, tag uint32) (way int, ok bool) {
	for w := range c.sets[set] {
		if c.sets[set][w].Valid && c.sets[set][w].Tag == tag {
			return w, true
		}
	}
	return 0, false
}

// VictimWay picks the way to evict in a set: an invalid way if one
// exists, else the way with the greatest LRU age.
func (c *Cache) VictimWay(set int) int {
	for w := range c.sets[set] {
		if !c.sets[set][w].Valid {
			return w
		}
	}
	oldest := 0
	for w := 1; w < c.Geom.Ways; w++ {
		if c.sets[set][w].Age > c.sets[set][oldest].Age {
			oldest = w
		}
	}
	return oldest
}

// AgeIncrease is used when installedWay held an invalid entry: every
// other way in the set whose age is below the maximum is bumped, then
// installedWay itself becomes the new most-recently-used (age 0).
func (c *Cache) AgeIncrease(set, installedWay int) {
	maxAge := c.Geom.Ways - 1
	for w := range c.sets[set] {
		if w != installedWay && c.sets[set][w].Valid && c.sets[set][w].Age < maxAge {
			c.sets[set][w].Age++
		}
	}
	c.sets[set][installedWay].Age = 0
}

// AgeUpdate is used on a hit: every other way whose age is less than
// touchedWay's age (as it stood before this call) is bumped, then
// touchedWay becomes age 0.
func (c *Cache) AgeUpdate(set, touchedWay int) {
	c.AgeUpdateFromOldAge(set, touchedWay, c.sets[set][touchedWay].Age)
}

// AgeUpdateFromOldAge applies LRU_age_update using an explicitly supplied
// old age, for the case where touchedWay's entry was just overwritten (by
// an eviction) and its own Age field no longer reflects the position it
// held in the LRU order.
func (c *Cache) AgeUpdateFromOldAge(set, touchedWay, oldAge int) {
	for w := range c.sets[set] {
		if w != touchedWay && c.sets[set][w].Age < oldAge {
			c.sets[set][w].Age++
		}
	}
	c.sets[set][touchedWay].Age = 0
}
