// Package mem simulates the flat byte-addressed main memory the rest of
// the hierarchy translates and caches accesses against.
package mem

import (
	"io"
	"os"

	"addr"
	"defs"
	"util"
)

/// PGSHIFT is the base-2 exponent for the page size.
const PGSHIFT uint = 12

/// PGSIZE is the size of a single page in bytes.
const PGSIZE int = 1 << PGSHIFT

// Memory is a simulated physical address space: a flat byte slice whose
// length is always a multiple of PGSIZE.
type Memory struct {
	bytes []uint8
}

// New allocates size bytes of zeroed memory. size must be a positive
// multiple of PGSIZE.
func New(size int) (*Memory, defs.Err_t) {
	if size <= 0 || size%PGSIZE != 0 {
		return nil, defs.ESIZE
	}
	return &Memory{bytes: make([]uint8, size)}, defs.ENONE
}

// Size returns the memory's byte length.
func (m *Memory) Size() int {
	return len(m.bytes)
}

// ReadWord reads the little-endian 32-bit word whose index (in words,
// not bytes) is idx.
func (m *Memory) ReadWord(idx uint32) (uint32, defs.Err_t) {
	off := int(idx) * 4
	if off < 0 || off+4 > len(m.bytes) {
		return 0, defs.EMEM
	}
	return util.ReadLE32(m.bytes, off), defs.ENONE
}

// WriteWord writes val as the little-endian 32-bit word at word index idx.
func (m *Memory) WriteWord(idx uint32, val uint32) defs.Err_t {
	off := int(idx) * 4
	if off < 0 || off+4 > len(m.bytes) {
		return defs.EMEM
	}
	util.WriteLE32(m.bytes, off, val)
	return defs.ENONE
}

// ReadByte reads a single byte at the given physical byte offset.
func (m *Memory) ReadByte(off uint32) (uint8, defs.Err_t) {
	if int(off) >= len(m.bytes) {
		return 0, defs.EMEM
	}
	return m.bytes[off], defs.ENONE
}

// WriteByte writes a single byte at the given physical byte offset.
func (m *Memory) WriteByte(off uint32, val uint8) defs.Err_t {
	if int(off) >= len(m.bytes) {
		return defs.EMEM
	}
	m.bytes[off] = val
	return defs.ENONE
}

// ReadPhysicalWord reads the word containing the given physical address.
func (m *Memory) ReadPhysicalWord(p addr.Physical) (uint32, defs.Err_t) {
	return m.ReadWord(p.WordIndex())
}

// WritePhysicalWord writes the word containing the given physical address.
func (m *Memory) WritePhysicalWord(p addr.Physical, val uint32) defs.Err_t {
	return m.WriteWord(p.WordIndex(), val)
}

// CopyFrom loads raw bytes starting at physical offset 0, failing if they
// overflow the memory's capacity.
func (m *Memory) CopyFrom(data []byte) defs.Err_t {
	if len(data) > len(m.bytes) {
		return defs.ESIZE
	}
	copy(m.bytes, data)
	return defs.ENONE
}

// CopyAt loads raw bytes starting at the given physical byte offset.
func (m *Memory) CopyAt(off uint32, data []byte) defs.Err_t {
	end := int(off) + len(data)
	if int(off) < 0 || end > len(m.bytes) {
		return defs.EMEM
	}
	copy(m.bytes[off:end], data)
	return defs.ENONE
}

// LoadBinary reads a flat binary memory dump from path. The file's size
// must be a positive multiple of PGSIZE, matching the on-disk format
// mem_init_from_dumpfile expects.
func LoadBinary(path string) (*Memory, defs.Err_t) {
	f, err := os.Open(path)
	if err != nil {
		return nil, defs.EIO
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, defs.EIO
	}
	size := info.Size()
	if size <= 0 || size%int64(PGSIZE) != 0 {
		return nil, defs.ESIZE
	}

	m, e := New(int(size))
	if e != defs.ENONE {
		return nil, e
	}
	if _, err := io.ReadFull(f, m.bytes); err != nil {
		return nil, defs.EIO
	}
	return m, defs.ENONE
}

// DumpBinary writes m's raw contents to w, producing the same format
// LoadBinary reads back.
func DumpBinary(w io.Writer, m *Memory) defs.Err_t {
	if _, err := w.Write(m.bytes); err != nil {
		return defs.EIO
	}
	return defs.ENONE
}
