package navmsg

// wordWithContext is one 30-bit GPS navigation word together with the
// previous word's last two bits (D29*, D30*), which the ICD-200 parity
// equations fold in to correct this word's data polarity. All values are
// ±1 (NRZ-L polarity), not 0/1.
//
// Layout, 32 entries: [0]=D29*, [1]=D30*, [2..25]=D1..D24 (data),
// [26..31]=D25..D30 (parity).
type wordWithContext [32]int8

// checkWordParity implements the ICD-200 Hamming(32,26)-derived word parity
// check. It returns the data bits with D29* polarity correction applied and
// whether all six parity equations were satisfied.
func checkWordParity(w wordWithContext) (data [24]int8, ok bool) {
	bits := w
	if bits[1] == -1 {
		for j := 2; j < 26; j++ {
			bits[j] *= -1
		}
	}

	var p [6]int8
	p[0] = bits[0] * bits[2] * bits[3] * bits[4] * bits[6] * bits[7] * bits[11] * bits[12] * bits[13] * bits[14] * bits[15] * bits[18] * bits[19] * bits[21] * bits[24]
	p[1] = bits[1] * bits[3] * bits[4] * bits[5] * bits[7] * bits[8] * bits[12] * bits[13] * bits[14] * bits[15] * bits[16] * bits[19] * bits[20] * bits[22] * bits[25]
	p[2] = bits[0] * bits[2] * bits[4] * bits[5] * bits[6] * bits[8] * bits[9] * bits[13] * bits[14] * bits[15] * bits[16] * bits[17] * bits[20] * bits[21] * bits[23]
	p[3] = bits[1] * bits[3] * bits[5] * bits[6] * bits[7] * bits[9] * bits[10] * bits[14] * bits[15] * bits[16] * bits[17] * bits[18] * bits[21] * bits[22] * bits[24]
	p[4] = bits[1] * bits[2] * bits[4] * bits[6] * bits[7] * bits[8] * bits[10] * bits[11] * bits[15] * bits[16] * bits[17] * bits[18] * bits[19] * bits[22] * bits[23] * bits[25]
	p[5] = bits[0] * bits[4] * bits[6] * bits[7] * bits[9] * bits[10] * bits[11] * bits[12] * bits[14] * bits[16] * bits[20] * bits[23] * bits[24] * bits[25]

	for i := 0; i < 6; i++ {
		if p[i] != bits[26+i] {
			return data, false
		}
	}
	for i := 0; i < 24; i++ {
		data[i] = bits[2+i]
	}
	return data, true
}
