package navmsg

import "testing"

func setBitsU(data *[24]int8, offset, n int, value uint32) {
	for i := 0; i < n; i++ {
		bit := (value >> uint(n-1-i)) & 1
		if bit == 0 {
			data[offset+i] = 1
		} else {
			data[offset+i] = -1
		}
	}
}

func buildTestSubframe(id int, tow uint32) ([300]int8, int8, int8) {
	var words [10][24]int8
	for w := range words {
		for i := range words[w] {
			words[w][i] = 1
		}
	}
	copy(words[0][:8], preamble[:])
	setBitsU(&words[1], 0, 17, tow)
	setBitsU(&words[1], 19, 3, uint32(id))
	return EncodeSubframe(words, 1, 1)
}

func TestFrameDecoderDecodesKnownSubframe(t *testing.T) {
	bits, d29, d30 := buildTestSubframe(3, 12345)

	d := NewFrameDecoder()
	var got *Subframe
	d.buf = append(d.buf, 1, 1)
	_ = d29
	_ = d30

	for _, b := range bits {
		sub, parityFailed := d.Feed(b)
		if parityFailed {
			t.Fatalf("unexpected parity failure")
		}
		if sub != nil {
			got = sub
		}
	}
	// Feed 8 more bits matching the preamble so the decoder's confirmation
	// window (candidate + subframeBits + 8) has data to compare against;
	// reuse the subframe's own preamble as a harmless continuation.
	for _, b := range preamble {
		sub, parityFailed := d.Feed(b)
		if parityFailed {
			t.Fatalf("unexpected parity failure on confirmation tail")
		}
		if sub != nil {
			got = sub
		}
	}

	if got == nil {
		t.Fatalf("expected a decoded subframe")
	}
	if got.ID != 3 {
		t.Fatalf("ID = %d, want 3", got.ID)
	}
	if got.TowGpst != 12345*6.0 {
		t.Fatalf("TowGpst = %f, want %f", got.TowGpst, 12345*6.0)
	}
}

func TestFrameDecoderRejectsUnconfirmedPreamble(t *testing.T) {
	bits, _, _ := buildTestSubframe(1, 100)

	d := NewFrameDecoder()
	d.buf = append(d.buf, 1, 1)
	var got *Subframe
	for _, b := range bits {
		sub, _ := d.Feed(b)
		if sub != nil {
			got = sub
		}
	}
	// Follow with noise that does not match the preamble: confirmation
	// should fail and no subframe should be emitted for this candidate.
	noise := []int8{1, 1, 1, 1, 1, 1, 1, 1}
	for _, b := range noise {
		sub, _ := d.Feed(b)
		if sub != nil {
			got = sub
		}
	}
	if got != nil {
		t.Fatalf("expected no subframe without a confirmed preamble recurrence")
	}
}

func TestDotProduct(t *testing.T) {
	a := []int8{1, -1, 1}
	b := []int8{1, 1, 1}
	if got := dotProduct(a, b); got != 1 {
		t.Fatalf("dotProduct = %d, want 1", got)
	}
}
