// Package dump renders addresses, cache contents, and memory regions in
// the human-readable forms the command-line driver prints.
package dump

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"addr"
	"cache"
	"mem"
)

// FormatVirtual renders a virtual address as:
//
//	PGD=0xNN; PUD=0xNN; PMD=0xNN; PTE=0xNN; offset=0xNNN
func FormatVirtual(v addr.Virtual) string {
	return fmt.Sprintf("PGD=0x%02X; PUD=0x%02X; PMD=0x%02X; PTE=0x%02X; offset=0x%03X",
		v.PgdIndex(), v.PudIndex(), v.PmdIndex(), v.PteIndex(), v.Offset())
}

// FormatPhysical renders a physical address as:
//
//	page num=0xNNNNN; offset=0xNNN
func FormatPhysical(p addr.Physical) string {
	return fmt.Sprintf("page num=0x%05X; offset=0x%03X", p.PageNum(), p.Offset())
}

// isColorTarget reports whether w is a terminal that should receive ANSI
// color codes, rather than a file or pipe that should stay plain.
func isColorTarget(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

const (
	ansiDim   = "\x1b[2m"
	ansiGreen = "\x1b[32m"
	ansiReset = "\x1b[0m"
)

// DumpCache writes one line per entry of c, in WAY/LINE: V: AGE: TAG:
// WORDS form, with invalid entries rendered as dashes.
func DumpCache(w io.Writer, c *cache.Cache) error {
	color := isColorTarget(w)
	for set := 0; set < c.Geom.Sets; set++ {
		for way := 0; way < c.Geom.Ways; way++ {
			e := c.Way(set, way)
			line := formatCacheEntry(way, set, e, color)
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatCacheEntry(way, set int, e *cache.Entry, color bool) string {
	if !e.Valid {
		dash := "-"
		if color {
			dash = ansiDim + dash + ansiReset
		}
		return fmt.Sprintf("%d/%d: %s: %s: %s: %s", way, set, dash, dash, dash, dash)
	}
	words := fmt.Sprintf("%v", e.Words)
	v, tag := "1", fmt.Sprintf("0x%X", e.Tag)
	if color {
		v = ansiGreen + v + ansiReset
	}
	return fmt.Sprintf("%d/%d: %s: %d: %s: %s", way, set, v, e.Age, tag, words)
}

// DumpMemoryRegion writes the bytes of m in [base, base+length) as both
// raw hex bytes and their little-endian word decoding, one line per
// 16-byte row.
func DumpMemoryRegion(w io.Writer, m *mem.Memory, base, length uint32) error {
	const rowBytes = 16
	for off := base; off < base+length; off += rowBytes {
		end := off + rowBytes
		if end > base+length {
			end = base + length
		}
		if _, err := fmt.Fprintf(w, "%08X: ", off); err != nil {
			return err
		}
		row := make([]byte, 0, rowBytes)
		for i := off; i < end; i++ {
			b, e := m.ReadByte(i)
			if e != 0 {
				return fmt.Errorf("dump: %v", e)
			}
			row = append(row, b)
			if _, err := fmt.Fprintf(w, "%02X ", b); err != nil {
				return err
			}
		}
		for j := 0; j+4 <= len(row); j += 4 {
			word := uint32(row[j]) | uint32(row[j+1])<<8 | uint32(row[j+2])<<16 | uint32(row[j+3])<<24
			if _, err := fmt.Fprintf(w, " %08X", word); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
