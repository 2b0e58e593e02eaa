package mem

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"defs"
)

func TestNewRejectsBadSize(t *testing.T) {
	if _, e := New(0); e != defs.ESIZE {
		t.Fatalf("expected ESIZE for zero size, got %v", e)
	}
	if _, e := New(100); e != defs.ESIZE {
		t.Fatalf("expected ESIZE for non-multiple-of-page size, got %v", e)
	}
}

func TestWordReadWriteRoundTrip(t *testing.T) {
	m, e := New(PGSIZE)
	if e != defs.ENONE {
		t.Fatalf("New: %v", e)
	}
	if e := m.WriteWord(10, 0xDEADBEEF); e != defs.ENONE {
		t.Fatalf("WriteWord: %v", e)
	}
	v, e := m.ReadWord(10)
	if e != defs.ENONE {
		t.Fatalf("ReadWord: %v", e)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("got 0x%X, want 0xDEADBEEF", v)
	}
}

func TestWordOutOfBounds(t *testing.T) {
	m, _ := New(PGSIZE)
	if _, e := m.ReadWord(uint32(PGSIZE / 4)); e != defs.EMEM {
		t.Fatalf("expected EMEM, got %v", e)
	}
}

func TestLoadBinaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.bin")

	data := make([]byte, PGSIZE*2)
	data[0] = 0xAB
	data[PGSIZE+1] = 0xCD
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	m, e := LoadBinary(path)
	if e != defs.ENONE {
		t.Fatalf("LoadBinary: %v", e)
	}
	if m.Size() != len(data) {
		t.Fatalf("size = %d, want %d", m.Size(), len(data))
	}

	var out bytes.Buffer
	if e := DumpBinary(&out, m); e != defs.ENONE {
		t.Fatalf("DumpBinary: %v", e)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatal("round trip through LoadBinary/DumpBinary changed the image")
	}
}

func TestLoadBinaryRejectsBadSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, e := LoadBinary(path); e != defs.ESIZE {
		t.Fatalf("expected ESIZE, got %v", e)
	}
}
