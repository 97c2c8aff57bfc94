package dsp

import "math"

// MixDown multiplies each sample in src by exp(-j*2*pi*freqHz*t) starting at
// startPhase radians, writing the result to dst. It returns the carrier
// phase (radians, wrapped to [0, 2*pi)) at the sample immediately following
// the window, so callers can chain windows without phase discontinuities.
func MixDown(dst, src []complex128, freqHz, sampleRateHz, startPhase float64) float64 {
	phaseStep := 2 * math.Pi * freqHz / sampleRateHz
	phase := startPhase
	for i, s := range src {
		c := complex(math.Cos(-phase), math.Sin(-phase))
		dst[i] = s * c
		phase += phaseStep
	}
	return math.Mod(phase, 2*math.Pi)
}

// Magnitude2 returns the squared magnitude (power) of a complex sample.
func Magnitude2(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}
