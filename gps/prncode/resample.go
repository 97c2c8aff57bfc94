package prncode

// ResampleToRate maps a ±1 chip sequence onto a complex128 replica of
// length len(code)/chipRateHz * sampleRateHz (truncated), using nearest-chip
// selection. This is the same nearest-neighbor resampling the rest of the
// pack's DSP helpers use when turning a fixed-length reference sequence
// into a sample-rate-matched array.
func ResampleToRate(code []int8, chipRateHz, sampleRateHz float64) []complex128 {
	n := len(code)
	if n == 0 || sampleRateHz <= 0 {
		return nil
	}
	outLen := int(float64(n) / chipRateHz * sampleRateHz)
	if outLen <= 0 {
		return nil
	}
	out := make([]complex128, outLen)
	chipsPerSample := chipRateHz / sampleRateHz
	for i := range out {
		chipIdx := int(float64(i) * chipsPerSample)
		if chipIdx >= n {
			chipIdx = n - 1
		}
		out[i] = complex(float64(code[chipIdx]), 0)
	}
	return out
}

// ChipIndexAtSample returns the fractional chip position corresponding to
// sampleIdx at the given code phase (chips) and code rate. The result is not
// wrapped modulo Length.
func ChipIndexAtSample(sampleIdx int, codePhaseChips, chipsPerSample float64) float64 {
	return codePhaseChips + float64(sampleIdx)*chipsPerSample
}
