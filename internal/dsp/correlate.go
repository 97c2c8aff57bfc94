package dsp

import "math/cmplx"

// ReplicaCorrelator precomputes the FFT of a fixed-length replica signal
// (a Doppler-mixed, sample-rate-resampled PRN code) so that circular
// correlation against many incoming sample windows reuses the same FFT
// plan and replica spectrum. This mirrors the teacher codebase's habit of
// caching expensive DSP resources (window functions, FFT plans) across
// repeated calls instead of rebuilding them per invocation.
type ReplicaCorrelator struct {
	n           int
	replicaConj []complex128
}

// NewReplicaCorrelator builds a correlator against replica. The replica's
// FFT, conjugated, is computed once and reused for every Correlate call.
func NewReplicaCorrelator(replica []complex128) *ReplicaCorrelator {
	n := len(replica)
	spectrum := ForwardFFT(replica)
	conj := make([]complex128, n)
	for i, v := range spectrum {
		conj[i] = cmplx.Conj(v)
	}
	return &ReplicaCorrelator{n: n, replicaConj: conj}
}

// Len returns the correlator's fixed window length.
func (c *ReplicaCorrelator) Len() int { return c.n }

// Correlate returns the circular cross-correlation of signal against the
// cached replica: IFFT(FFT(signal) * conj(FFT(replica))). The index of the
// magnitude peak in the result is the code-phase (in samples) that aligns
// the replica with the signal.
func (c *ReplicaCorrelator) Correlate(signal []complex128) []complex128 {
	if len(signal) != c.n {
		return nil
	}
	spectrum := ForwardFFT(signal)
	product := make([]complex128, c.n)
	for i := range spectrum {
		product[i] = spectrum[i] * c.replicaConj[i]
	}
	return InverseFFT(product)
}

// PeakMagnitudeSquared returns the index and squared magnitude of the
// largest-magnitude element of profile.
func PeakMagnitudeSquared(profile []complex128) (index int, peak float64) {
	for i, v := range profile {
		mag2 := real(v)*real(v) + imag(v)*imag(v)
		if mag2 > peak {
			peak = mag2
			index = i
		}
	}
	return index, peak
}

// AccumulateMagnitudeSquared adds the squared magnitude of each element in
// profile into acc (non-coherent integration across successive blocks).
func AccumulateMagnitudeSquared(acc []float64, profile []complex128) {
	for i, v := range profile {
		acc[i] += real(v)*real(v) + imag(v)*imag(v)
	}
}
