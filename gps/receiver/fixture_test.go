package receiver

import (
	"math"

	"github.com/gnssreceiver/l1ca/gps/navmsg"
)

// ICD-200 scale factors for the two's-complement and unsigned ephemeris
// fields, mirroring the ones navmsg's decoder applies (duplicated here since
// they are private to that package; this is the inverse transform).
const (
	fixtureP2_5   = 0.03125
	fixtureP2_19  = 1.9073486328125e-06
	fixtureP2_29  = 1.862645149230957e-09
	fixtureP2_31  = 4.656612873077393e-10
	fixtureP2_33  = 1.164153218269348e-10
	fixtureP2_43  = 1.136868377216160e-13
	fixtureP2_55  = 2.775557561562891e-17
	fixtureSc2Rad = 3.1415926535898
)

var fixturePreamble = [8]int8{1, -1, -1, -1, 1, -1, 1, 1}

// ephemerisFixture holds the physical-unit ephemeris values a fixture
// subframe encodes; fields left at zero (the second-harmonic perturbation
// terms, clock terms) decode back to zero, which is a valid broadcast value.
type ephemerisFixture struct {
	Week          int
	Health        uint32
	URA           uint32
	TGD           float64
	Toc           float64
	Af0, Af1, Af2 float64

	IODE                                       uint32
	Crs, DeltaN, M0, Cuc, Ecc, Cus, SqrtA, Toe float64
	Cic, Omega0, Cis, I0, Crc, Omega, OmegaDot, IDOT float64
}

// setRawField writes an n-bit MSB-first raw bit pattern into words at
// packed bit offset, using the NRZ-L convention (bit 0 -> +1, bit 1 -> -1)
// that navmsg's decoder assumes.
func setRawField(words *[10][24]int8, offset, n int, raw uint32) {
	wordIdx := offset / 30
	local := offset % 30
	for i := 0; i < n; i++ {
		bit := (raw >> uint(n-1-i)) & 1
		v := int8(1)
		if bit == 1 {
			v = -1
		}
		words[wordIdx][local+i] = v
	}
}

// setSplitField writes a value of total width l1+l2 across two non-adjacent
// ranges, high bits at p1 then low bits at p2, the inverse of navmsg's
// getBitU2/getBitS2 reconstruction.
func setSplitField(words *[10][24]int8, p1, l1, p2, l2 int, raw uint32) {
	hi := (raw >> uint(l2)) & (uint32(1)<<uint(l1) - 1)
	lo := raw & (uint32(1)<<uint(l2) - 1)
	setRawField(words, p1, l1, hi)
	setRawField(words, p2, l2, lo)
}

// encodeScaled rounds value/scale to the nearest n-bit two's-complement (or
// unsigned) integer.
func encodeScaled(value, scale float64, n int) uint32 {
	raw := int64(math.Round(value / scale))
	mask := uint32(1)<<uint(n) - 1
	return uint32(raw) & mask
}

// buildSubframeWords lays out one LNAV subframe's logical 24-bit data words
// (pre-transmission, pre-D30* inversion) for id in {1,2,3}, encoding towCount
// as the TOW-of-next-subframe field every subframe carries and f's fields
// at the offsets navmsg's decoder reads them back from.
func buildSubframeWords(id int, towCount uint32, f ephemerisFixture) [10][24]int8 {
	var words [10][24]int8
	for w := range words {
		for i := range words[w] {
			words[w][i] = 1
		}
	}
	copy(words[0][:8], fixturePreamble[:])
	setRawField(&words, 30, 17, towCount)
	setRawField(&words, 49, 3, uint32(id))

	switch id {
	case 1:
		setRawField(&words, 60, 10, uint32(f.Week))
		setRawField(&words, 72, 4, f.URA)
		setRawField(&words, 76, 6, f.Health)
		setRawField(&words, 196, 8, encodeScaled(f.TGD, fixtureP2_31, 8))
		setRawField(&words, 218, 16, encodeScaled(f.Toc, 16.0, 16))
		setRawField(&words, 240, 8, encodeScaled(f.Af2, fixtureP2_55, 8))
		setRawField(&words, 248, 16, encodeScaled(f.Af1, fixtureP2_43, 16))
		setRawField(&words, 270, 22, encodeScaled(f.Af0, fixtureP2_31, 22))
	case 2:
		setRawField(&words, 60, 8, f.IODE)
		setRawField(&words, 68, 16, encodeScaled(f.Crs, fixtureP2_5, 16))
		setRawField(&words, 90, 16, encodeScaled(f.DeltaN, fixtureP2_43*fixtureSc2Rad, 16))
		setSplitField(&words, 106, 8, 120, 24, encodeScaled(f.M0, fixtureP2_31*fixtureSc2Rad, 32))
		setRawField(&words, 150, 16, encodeScaled(f.Cuc, fixtureP2_29, 16))
		setSplitField(&words, 166, 8, 180, 24, encodeScaled(f.Ecc, fixtureP2_33, 32))
		setRawField(&words, 210, 16, encodeScaled(f.Cus, fixtureP2_29, 16))
		setSplitField(&words, 226, 8, 240, 24, encodeScaled(f.SqrtA, fixtureP2_19, 32))
		setRawField(&words, 270, 16, encodeScaled(f.Toe, 16.0, 16))
	case 3:
		setRawField(&words, 60, 16, encodeScaled(f.Cic, fixtureP2_29, 16))
		setSplitField(&words, 76, 8, 90, 24, encodeScaled(f.Omega0, fixtureP2_31*fixtureSc2Rad, 32))
		setRawField(&words, 120, 16, encodeScaled(f.Cis, fixtureP2_29, 16))
		setSplitField(&words, 136, 8, 150, 24, encodeScaled(f.I0, fixtureP2_31*fixtureSc2Rad, 32))
		setRawField(&words, 180, 16, encodeScaled(f.Crc, fixtureP2_5, 16))
		setSplitField(&words, 196, 8, 210, 24, encodeScaled(f.Omega, fixtureP2_31*fixtureSc2Rad, 32))
		setRawField(&words, 240, 24, encodeScaled(f.OmegaDot, fixtureP2_43*fixtureSc2Rad, 24))
		setRawField(&words, 270, 8, f.IODE)
		setRawField(&words, 278, 14, encodeScaled(f.IDOT, fixtureP2_43*fixtureSc2Rad, 14))
	}
	return words
}

// buildNavBits synthesizes a continuous ±1 NRZ-L 50 bps LNAV bitstream
// broadcasting f, cycling subframes 1, 2, 3 for cycles repetitions with
// D29*/D30* context threaded continuously across the whole stream, mirroring
// a real continuous navigation message.
func buildNavBits(f ephemerisFixture, towStart uint32, cycles int) []int8 {
	bits := make([]int8, 0, cycles*3*300)
	var d29, d30 int8 = 1, 1
	tow := towStart
	for c := 0; c < cycles; c++ {
		for _, id := range [3]int{1, 2, 3} {
			words := buildSubframeWords(id, tow, f)
			sub, nd29, nd30 := navmsg.EncodeSubframe(words, d29, d30)
			bits = append(bits, sub[:]...)
			d29, d30 = nd29, nd30
			tow++
		}
	}
	return bits
}
