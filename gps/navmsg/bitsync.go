package navmsg

// BitsPerSecond is the number of 1 ms prompt samples the bit synchronizer
// analyzes per histogram pass.
const BitsPerSecond = 1000

// BitPeriodMs is the navigation bit period in milliseconds.
const BitPeriodMs = 20

// minSyncMargin is the minimum gap between the best and second-best
// transition-count bins required to declare a confident bit boundary.
const minSyncMargin = 4

// BitSynchronizer recovers the 20 ms navigation-bit boundary from a stream
// of 1 ms prompt I samples using the transition-histogram method: the
// 50 bps data changes sign only at bit boundaries, so across a window of
// samples the correct boundary is the phase bin that collects the most sign
// transitions (equivalently, the alignment whose 20 ms bits contain the
// fewest transitions).
type BitSynchronizer struct {
	transitions [BitPeriodMs]int
	lastSign    int
	samplesSeen int
	phase       int
}

// NewBitSynchronizer returns an empty synchronizer.
func NewBitSynchronizer() *BitSynchronizer {
	return &BitSynchronizer{lastSign: 0}
}

// Feed records one 1 ms prompt I sample. Call Try after BitsPerSecond
// samples have been fed to test for a confident sync.
func (b *BitSynchronizer) Feed(iPrompt float64) {
	sign := 1
	if iPrompt < 0 {
		sign = -1
	}
	if b.samplesSeen > 0 && sign != b.lastSign && sign != 0 {
		b.transitions[b.phase]++
	}
	if sign != 0 {
		b.lastSign = sign
	}
	b.phase = (b.phase + 1) % BitPeriodMs
	b.samplesSeen++
}

// Try reports whether a confident bit boundary has been found. offset is
// the phase bin (0..19) at which a new 20 ms bit begins.
func (b *BitSynchronizer) Try() (offset int, confidence float64, ok bool) {
	if b.samplesSeen < BitsPerSecond {
		return 0, 0, false
	}

	best, second := -1, -1
	bestCount, secondCount := -1, -1
	for i, count := range b.transitions {
		if count > bestCount {
			second, secondCount = best, bestCount
			best, bestCount = i, count
		} else if count > secondCount {
			second, secondCount = i, count
		}
	}
	if best < 0 || second < 0 {
		return 0, 0, false
	}

	margin := bestCount - secondCount
	if margin < minSyncMargin {
		return 0, 0, false
	}

	confidence = float64(margin) / float64(BitsPerSecond/BitPeriodMs)
	return best, confidence, true
}

// Reset clears accumulated transition counts and returns the synchronizer
// to its initial state.
func (b *BitSynchronizer) Reset() {
	for i := range b.transitions {
		b.transitions[i] = 0
	}
	b.samplesSeen = 0
	b.phase = 0
	b.lastSign = 0
}
