package navmsg

import (
	"math"
	"testing"
)

func newSubframeBuffer() []byte {
	return make([]byte, 38) // (300+7)/8
}

func setFieldU(buf []byte, pos, n int, value uint32) {
	for i := 0; i < n; i++ {
		bit := (value >> uint(n-1-i)) & 1
		if bit == 1 {
			buf[(pos+i)/8] |= 1 << uint(7-(pos+i)%8)
		}
	}
}

func setFieldS(buf []byte, pos, n int, value int32) {
	mask := uint32(1)<<uint(n) - 1
	setFieldU(buf, pos, n, uint32(value)&mask)
}

// setFieldU2/setFieldS2 write a value split across two ranges the same way
// getBitU2/getBitS2 read it back: the high l1 bits of value in the first
// range, the low l2 bits in the second.
func setFieldU2(buf []byte, p1, l1, p2, l2 int, value uint32) {
	setFieldU(buf, p1, l1, value>>uint(l2))
	setFieldU(buf, p2, l2, value&(uint32(1)<<uint(l2)-1))
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBuilderAssemblesEphemerisAcrossThreeSubframes(t *testing.T) {
	const iode = 42

	sf1 := newSubframeBuffer()
	setFieldU(sf1, 60, 10, 500)
	setFieldU(sf1, 72, 4, 3)
	setFieldU(sf1, 76, 6, 0)
	setFieldS(sf1, 196, 8, -10)
	setFieldU(sf1, 218, 16, 1000)
	setFieldS(sf1, 240, 8, 5)
	setFieldS(sf1, 248, 16, -200)
	setFieldS(sf1, 270, 22, 12345)

	sf2 := newSubframeBuffer()
	setFieldU(sf2, 60, 8, iode)
	setFieldS(sf2, 68, 16, 100)
	setFieldS(sf2, 90, 16, -50)
	setFieldU2(sf2, 106, 8, 120, 24, 777777)
	setFieldS(sf2, 150, 16, 300)
	setFieldU2(sf2, 166, 8, 180, 24, 555555)
	setFieldS(sf2, 210, 16, -400)
	setFieldU2(sf2, 226, 8, 240, 24, 2_700_000_000)
	setFieldU(sf2, 270, 16, 600)

	sf3 := newSubframeBuffer()
	setFieldS(sf3, 60, 16, 111)
	setFieldU2(sf3, 76, 8, 90, 24, 888888)
	setFieldS(sf3, 120, 16, -222)
	setFieldU2(sf3, 136, 8, 150, 24, 999999)
	setFieldS(sf3, 180, 16, 333)
	setFieldU2(sf3, 196, 8, 210, 24, 444444)
	setFieldS(sf3, 240, 24, -12345)
	setFieldU(sf3, 270, 8, iode)
	setFieldS(sf3, 278, 14, 77)

	b := NewBuilder(5)

	if _, ok, consistent := b.Feed(&Subframe{ID: 1, Packed: sf1}); ok || !consistent {
		t.Fatalf("subframe 1 alone should not complete an ephemeris")
	}
	if _, ok, consistent := b.Feed(&Subframe{ID: 2, Packed: sf2}); ok || !consistent {
		t.Fatalf("subframe 1+2 should not complete an ephemeris")
	}
	eph, ok, consistent := b.Feed(&Subframe{ID: 3, Packed: sf3})
	if !consistent {
		t.Fatalf("expected consistent IODE across subframes 2 and 3")
	}
	if !ok {
		t.Fatalf("expected a completed ephemeris after subframes 1, 2, 3")
	}

	if eph.SV != 5 {
		t.Fatalf("SV = %d, want 5", eph.SV)
	}
	if eph.IODE != iode {
		t.Fatalf("IODE = %d, want %d", eph.IODE, iode)
	}
	if eph.Health != 0 {
		t.Fatalf("Health = %d, want 0", eph.Health)
	}
	if !almostEqual(eph.TGD, -10*p2_31, 1e-15) {
		t.Fatalf("TGD = %v, want %v", eph.TGD, -10*p2_31)
	}
	if eph.Toc != 1000*16.0 {
		t.Fatalf("Toc = %v, want %v", eph.Toc, 1000*16.0)
	}
	if !almostEqual(eph.Crs, 100*p2_5, 1e-12) {
		t.Fatalf("Crs = %v, want %v", eph.Crs, 100*p2_5)
	}
	if !almostEqual(eph.M0, 777777*p2_31*sc2Rad, 1e-9) {
		t.Fatalf("M0 = %v, want %v", eph.M0, 777777*p2_31*sc2Rad)
	}
	if !almostEqual(eph.Ecc, 555555*p2_33, 1e-12) {
		t.Fatalf("Ecc = %v, want %v", eph.Ecc, 555555*p2_33)
	}
	if !almostEqual(eph.SqrtA, 2_700_000_000*p2_19, 1e-6) {
		t.Fatalf("SqrtA = %v, want %v", eph.SqrtA, 2_700_000_000*p2_19)
	}
	if eph.Toe != 600*16.0 {
		t.Fatalf("Toe = %v, want %v", eph.Toe, 600*16.0)
	}
	if !almostEqual(eph.Omega0, 888888*p2_31*sc2Rad, 1e-9) {
		t.Fatalf("Omega0 = %v, want %v", eph.Omega0, 888888*p2_31*sc2Rad)
	}
	if !almostEqual(eph.OmegaDot, -12345*p2_43*sc2Rad, 1e-15) {
		t.Fatalf("OmegaDot = %v, want %v", eph.OmegaDot, -12345*p2_43*sc2Rad)
	}
}

func TestBuilderRejectsMismatchedIODE(t *testing.T) {
	sf2 := newSubframeBuffer()
	setFieldU(sf2, 60, 8, 11)

	sf3 := newSubframeBuffer()
	setFieldU(sf3, 270, 8, 12) // different IODE

	b := NewBuilder(7)
	b.Feed(&Subframe{ID: 2, Packed: sf2})
	_, ok, consistent := b.Feed(&Subframe{ID: 3, Packed: sf3})
	if ok {
		t.Fatalf("expected no ephemeris on IODE mismatch")
	}
	if consistent {
		t.Fatalf("expected consistent=false to signal the IODE mismatch")
	}
}

func TestBuilderIgnoresUnrelatedSubframeIDs(t *testing.T) {
	b := NewBuilder(1)
	_, ok, consistent := b.Feed(&Subframe{ID: 4, Packed: newSubframeBuffer()})
	if ok || !consistent {
		t.Fatalf("subframe 4/5 should be ignored, not treated as inconsistent")
	}
}
