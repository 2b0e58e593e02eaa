package mem

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"addr"
	"defs"
	"pagewalk"
)

// maxFilenameLen bounds how long a filename token in a descriptor file may
// be, mirroring the width-limited fscanf specifier the format requires.
const maxFilenameLen = 256

// LoadDescriptor reads a text descriptor file describing a memory image
// assembled from page fragments, per the format:
//
//	<memory_size_bytes>
//	<pgd_filename>
//	<n>
//	<n> lines of "<phys_addr_hex> <filename>"
//	zero or more lines of "<virtual_address_hex> <filename>"
//
// baseDir resolves relative filenames found inside the descriptor.
func LoadDescriptor(path string, baseDir string) (*Memory, defs.Err_t) {
	f, err := os.Open(path)
	if err != nil {
		return nil, defs.EIO
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 4096), 1<<20)

	size, e := nextUint(sc, 10, 64)
	if e != defs.ENONE {
		return nil, e
	}
	m, e := New(int(size))
	if e != defs.ENONE {
		return nil, e
	}

	pgdName, e := nextToken(sc)
	if e != defs.ENONE {
		return nil, e
	}
	if e := loadFragment(m, 0, resolvePath(baseDir, pgdName)); e != defs.ENONE {
		return nil, e
	}

	n, e := nextUint(sc, 10, 32)
	if e != defs.ENONE {
		return nil, e
	}
	for i := uint64(0); i < n; i++ {
		line, e := nextToken(sc)
		if e != defs.ENONE {
			return nil, e
		}
		physTok, name, e := splitTwo(line)
		if e != defs.ENONE {
			return nil, e
		}
		if len(name) > maxFilenameLen {
			return nil, defs.EBADPARAMETER
		}
		phys, err := strconv.ParseUint(physTok, 16, 32)
		if err != nil {
			return nil, defs.EBADPARAMETER
		}
		if e := loadFragment(m, uint32(phys), resolvePath(baseDir, name)); e != defs.ENONE {
			return nil, e
		}
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		vaddrTok, name, e := splitTwo(line)
		if e != defs.ENONE {
			return nil, e
		}
		vaddr64, err := strconv.ParseUint(vaddrTok, 16, 64)
		if err != nil {
			return nil, defs.EIO
		}
		v := addr.DecodeVirtual64(vaddr64)
		p, e := pagewalk.Walk(m, v)
		if e != defs.ENONE {
			return nil, e
		}
		pageBase := p.PageNum() << 12
		if e := loadFragment(m, pageBase, resolvePath(baseDir, name)); e != defs.ENONE {
			return nil, e
		}
	}
	if err := sc.Err(); err != nil {
		return nil, defs.EIO
	}

	return m, defs.ENONE
}

func resolvePath(baseDir, name string) string {
	if filepath.IsAbs(name) || baseDir == "" {
		return name
	}
	return filepath.Join(baseDir, name)
}

func loadFragment(m *Memory, physOffset uint32, path string) defs.Err_t {
	data, err := os.ReadFile(path)
	if err != nil {
		return defs.EIO
	}
	return m.CopyAt(physOffset, data)
}

func nextToken(sc *bufio.Scanner) (string, defs.Err_t) {
	for sc.Scan() {
		tok := sc.Text()
		if tok == "" {
			continue
		}
		if len(tok) > maxFilenameLen {
			return "", defs.EBADPARAMETER
		}
		return tok, defs.ENONE
	}
	return "", defs.EIO
}

func nextUint(sc *bufio.Scanner, base int, bits int) (uint64, defs.Err_t) {
	tok, e := nextToken(sc)
	if e != defs.ENONE {
		return 0, e
	}
	v, err := strconv.ParseUint(tok, base, bits)
	if err != nil {
		return 0, defs.EBADPARAMETER
	}
	return v, defs.ENONE
}

func splitTwo(line string) (string, string, defs.Err_t) {
	var a, b string
	n, err := fmt.Sscan(line, &a, &b)
	if err != nil || n != 2 {
		return "", "", defs.EBADPARAMETER
	}
	return a, b, defs.ENONE
}
