package navmsg

// EncodeWord computes the transmitted 30-bit word (D1..D30, NRZ-L +-1) for
// logicalData (the pre-inversion source data, D1..D24) given the previous
// word's D29*/D30* context. It is the inverse of checkWordParity, exported
// so fixtures and tests can synthesize parity-valid LNAV bitstreams without
// duplicating the ICD-200 parity formulas.
func EncodeWord(logicalData [24]int8, prevD29, prevD30 int8) (word [30]int8, d29, d30 int8) {
	var bits [32]int8
	bits[0], bits[1] = prevD29, prevD30
	copy(bits[2:26], logicalData[:])

	var p [6]int8
	p[0] = bits[0] * bits[2] * bits[3] * bits[4] * bits[6] * bits[7] * bits[11] * bits[12] * bits[13] * bits[14] * bits[15] * bits[18] * bits[19] * bits[21] * bits[24]
	p[1] = bits[1] * bits[3] * bits[4] * bits[5] * bits[7] * bits[8] * bits[12] * bits[13] * bits[14] * bits[15] * bits[16] * bits[19] * bits[20] * bits[22] * bits[25]
	p[2] = bits[0] * bits[2] * bits[4] * bits[5] * bits[6] * bits[8] * bits[9] * bits[13] * bits[14] * bits[15] * bits[16] * bits[17] * bits[20] * bits[21] * bits[23]
	p[3] = bits[1] * bits[3] * bits[5] * bits[6] * bits[7] * bits[9] * bits[10] * bits[14] * bits[15] * bits[16] * bits[17] * bits[18] * bits[21] * bits[22] * bits[24]
	p[4] = bits[1] * bits[2] * bits[4] * bits[6] * bits[7] * bits[8] * bits[10] * bits[11] * bits[15] * bits[16] * bits[17] * bits[18] * bits[19] * bits[22] * bits[23] * bits[25]
	p[5] = bits[0] * bits[4] * bits[6] * bits[7] * bits[9] * bits[10] * bits[11] * bits[12] * bits[14] * bits[16] * bits[20] * bits[23] * bits[24] * bits[25]

	for i := 0; i < 24; i++ {
		word[i] = logicalData[i] * prevD30
	}
	for i := 0; i < 6; i++ {
		word[24+i] = p[i]
	}
	return word, p[4], p[5]
}

// EncodeSubframe builds a full 300-bit transmitted subframe from 10 logical
// 24-bit data words, threading D29*/D30* context starting from initD29,
// initD30. It returns the transmitted bits and the final D29/D30, the
// context a following subframe's first word must be encoded against.
func EncodeSubframe(words [10][24]int8, initD29, initD30 int8) (bits [300]int8, finalD29, finalD30 int8) {
	d29, d30 := initD29, initD30
	for w := 0; w < 10; w++ {
		word, nd29, nd30 := EncodeWord(words[w], d29, d30)
		copy(bits[w*30:], word[:])
		d29, d30 = nd29, nd30
	}
	return bits, d29, d30
}
