// Package dsp holds the small FFT and complex-correlation primitives shared
// by acquisition and tracking. It leans entirely on gonum's FFT rather than
// hand-rolling a transform.
package dsp

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// ForwardFFT computes the discrete Fourier transform of x.
func ForwardFFT(x []complex128) []complex128 {
	if len(x) == 0 {
		return nil
	}
	fft := fourier.NewCmplxFFT(len(x))
	return fft.Coefficients(nil, x)
}

// InverseFFT computes the inverse discrete Fourier transform of X, scaled by
// 1/N. gonum's fourier package only exposes a forward complex transform, so
// the inverse is obtained by the standard conjugate-forward-conjugate
// identity: ifft(X) = conj(fft(conj(X))) / N.
func InverseFFT(x []complex128) []complex128 {
	n := len(x)
	if n == 0 {
		return nil
	}
	conjugated := make([]complex128, n)
	for i, v := range x {
		conjugated[i] = complex(real(v), -imag(v))
	}
	fft := fourier.NewCmplxFFT(n)
	out := fft.Coefficients(nil, conjugated)
	scale := 1.0 / float64(n)
	for i, v := range out {
		out[i] = complex(real(v)*scale, -imag(v)*scale)
	}
	return out
}
