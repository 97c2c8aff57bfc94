package navmsg

import "testing"

func TestBitSynchronizerFindsBoundary(t *testing.T) {
	b := NewBitSynchronizer()

	trueOffset := 7
	bitValue := 1.0
	for sample := 0; sample < BitsPerSecond; sample++ {
		phase := sample % BitPeriodMs
		if phase == trueOffset {
			bitValue = -bitValue
		}
		b.Feed(bitValue)
	}

	offset, confidence, ok := b.Try()
	if !ok {
		t.Fatalf("expected a confident bit sync")
	}
	if offset != trueOffset {
		t.Fatalf("offset = %d, want %d", offset, trueOffset)
	}
	if confidence <= 0 {
		t.Fatalf("confidence = %f, want > 0", confidence)
	}
}

func TestBitSynchronizerInsufficientSamples(t *testing.T) {
	b := NewBitSynchronizer()
	for i := 0; i < BitsPerSecond/2; i++ {
		b.Feed(1)
	}
	if _, _, ok := b.Try(); ok {
		t.Fatalf("expected Try to fail before a full second of samples")
	}
}

func TestBitSynchronizerRejectsAmbiguousBoundary(t *testing.T) {
	b := NewBitSynchronizer()
	// Random-looking sign pattern with transitions spread evenly across
	// every phase bin should not yield a confident margin.
	sign := 1.0
	for i := 0; i < BitsPerSecond; i++ {
		if i%2 == 0 {
			sign = -sign
		}
		b.Feed(sign)
	}
	if _, _, ok := b.Try(); ok {
		t.Fatalf("expected no confident sync on an evenly distributed transition pattern")
	}
}

func TestBitSynchronizerResetClearsState(t *testing.T) {
	b := NewBitSynchronizer()
	for i := 0; i < BitsPerSecond; i++ {
		b.Feed(1)
	}
	b.Reset()
	if b.samplesSeen != 0 {
		t.Fatalf("samplesSeen = %d after Reset, want 0", b.samplesSeen)
	}
	for _, c := range b.transitions {
		if c != 0 {
			t.Fatalf("transitions not cleared by Reset")
		}
	}
}
