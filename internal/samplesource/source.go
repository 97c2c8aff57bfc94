// Package samplesource provides the raw complex baseband sample stream
// that drives the receiver: a file-backed reader of recorded IQ captures
// and a synthetic GPS signal generator for tests and fixtures.
package samplesource

import "errors"

// ErrExhausted is returned by Next when the source has no more samples.
var ErrExhausted = errors.New("samplesource: exhausted")

// Source is the receiver's sample stream abstraction: a monotonically
// advancing, error-terminated sequence of complex baseband samples.
type Source interface {
	// Next returns up to n samples starting at the source's current index.
	// It may return fewer than n samples along with a nil error only at
	// the very end of a finite source; once exhausted it returns
	// ErrExhausted.
	Next(n int) ([]complex128, error)
	SampleRate() float64
	Index() uint64
}
