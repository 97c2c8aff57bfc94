// Package prncode generates the GPS L1 C/A Gold codes used as correlation
// replicas by acquisition and tracking.
package prncode

import "sync"

// Length is the chip length of one L1 C/A code period.
const Length = 1023

// ChipRateHz is the nominal L1 C/A chipping rate.
const ChipRateHz = 1.023e6

// caDelay holds, for each PRN 1..32, the number of chips the G2 register's
// output is delayed before being combined with G1. This is the ICD-200
// Table 3-Ia phase-select assignment expressed as an equivalent output
// delay rather than as a pair of tap indices; producing the full G2
// sequence once and delaying it per SV is algebraically identical to
// selecting two taps per SV and is the form used throughout the GNSS
// receiver literature this package is grounded on.
var caDelay = [32]int{
	5, 6, 7, 8, 17, 18, 139, 140, 141, 251,
	252, 254, 255, 256, 257, 258, 469, 470, 471, 472,
	473, 474, 509, 512, 513, 514, 515, 516, 859, 860,
	861, 862,
}

var (
	cacheMu sync.Mutex
	cache   [33][]int8 // index 0 unused, 1..32 PRNs
)

// CA returns the cached ±1 C/A code for svID (1..32), generating it on first
// use. The returned slice must not be modified by callers.
func CA(svID int) []int8 {
	if svID < 1 || svID > 32 {
		return nil
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cache[svID] != nil {
		return cache[svID]
	}
	cache[svID] = generate(svID)
	return cache[svID]
}

func generate(svID int) []int8 {
	g1 := lfsrSequence(g1Feedback, [10]int8{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1})
	g2 := lfsrSequence(g2Feedback, [10]int8{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1})

	delay := caDelay[svID-1]
	code := make([]int8, Length)
	j := Length - delay
	for i := 0; i < Length; i++ {
		code[i] = -g1[i] * g2[j%Length]
		j++
	}
	return code
}

// g1Feedback implements G1's polynomial 1 + x^3 + x^10: the feedback tap is
// the product of register positions 3 and 10 (1-indexed from the input).
func g1Feedback(r [10]int8) int8 {
	return r[2] * r[9]
}

// g2Feedback implements G2's polynomial
// 1 + x^2 + x^3 + x^6 + x^8 + x^9 + x^10.
func g2Feedback(r [10]int8) int8 {
	return r[1] * r[2] * r[5] * r[7] * r[8] * r[9]
}

// lfsrSequence runs a 10-stage Fibonacci LFSR for Length cycles, sampling
// the last stage before each shift, matching the G1/G2 generator structure
// in ICD-200 Figure 3-10.
func lfsrSequence(feedback func([10]int8) int8, reg [10]int8) []int8 {
	out := make([]int8, Length)
	for i := 0; i < Length; i++ {
		out[i] = reg[9]
		fb := feedback(reg)
		for j := 9; j > 0; j-- {
			reg[j] = reg[j-1]
		}
		reg[0] = fb
	}
	return out
}
