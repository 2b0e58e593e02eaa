package addr

import (
	"defs"
	"testing"
)

func TestVirtualRoundTrip(t *testing.T) {
	cases := []uint64{
		0,
		0x0000_FFFF_FFFF_FFFF,
		0x0000_1234_5678_9ABC & 0x0000_FFFF_FFFF_FFFF,
		0x0000_8000_0000_0000 - 1,
	}
	for _, v64 := range cases {
		v := DecodeVirtual64(v64)
		if got := v.Encode64(); got != v64 {
			t.Errorf("round trip failed: decode(0x%X).encode() = 0x%X", v64, got)
		}
	}
}

func TestVirtualFieldSplit(t *testing.T) {
	v, e := NewVirtual(0x1AA, 0x155, 0x0AA, 0x1FF, 0xABC)
	if e != defs.ENONE {
		t.Fatalf("NewVirtual returned error %v", e)
	}
	if v.PgdIndex() != 0x1AA || v.PudIndex() != 0x155 || v.PmdIndex() != 0x0AA ||
		v.PteIndex() != 0x1FF || v.Offset() != 0xABC {
		t.Fatalf("field mismatch: %+v", v)
	}
}

func TestVirtualOffsetBound(t *testing.T) {
	if _, e := NewVirtual(0, 0, 0, 0, 4096); e == defs.ENONE {
		t.Fatal("expected rejection of offset >= 4096")
	}
	if _, e := NewVirtual(0, 0, 0, 0, 4095); e != defs.ENONE {
		t.Fatal("expected offset 4095 to be accepted")
	}
}

func TestVirtualFieldOverflow(t *testing.T) {
	if _, e := NewVirtual(0x200, 0, 0, 0, 0); e == defs.ENONE {
		t.Fatal("expected rejection of a 9-bit field overflow")
	}
}

func TestVPN(t *testing.T) {
	v, _ := NewVirtual(1, 2, 3, 4, 0)
	want := uint64(1)<<27 | uint64(2)<<18 | uint64(3)<<9 | 4
	if got := v.VPN(); got != want {
		t.Fatalf("VPN() = 0x%X, want 0x%X", got, want)
	}
}

func TestPhysicalAlignment(t *testing.T) {
	if _, e := NewPhysical(4097, 0); e == defs.ENONE {
		t.Fatal("expected rejection of a non-page-aligned base")
	}
	p, e := NewPhysical(4096, 0x10)
	if e != defs.ENONE {
		t.Fatalf("NewPhysical returned error %v", e)
	}
	if p.PageNum() != 1 || p.Offset() != 0x10 {
		t.Fatalf("unexpected physical fields: %+v", p)
	}
}

func TestPhysicalWordIndex(t *testing.T) {
	p, _ := NewPhysical(0x1000, 0x10)
	if got := p.WordIndex(); got != (0x1000+0x10)/4 {
		t.Fatalf("WordIndex() = %d, want %d", got, (0x1000+0x10)/4)
	}
}
