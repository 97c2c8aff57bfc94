package navmsg

// preamble is the telemetry word preamble 10001011, in the ±1 NRZ-L
// polarity convention (data bit 0 -> +1, data bit 1 -> -1) used throughout
// this package.
var preamble = [8]int8{1, -1, -1, -1, 1, -1, 1, 1}

const subframeBits = 300
const wordBits = 30

// Subframe is a parity-checked, polarity-corrected 300-bit LNAV subframe.
// Packed holds the full subframe (data and parity bits, 30-bit word
// stride preserved) as an MSB-first byte buffer, so downstream ephemeris
// field extraction can use the same bit offsets as the ICD-200 word
// layout.
type Subframe struct {
	ID      int
	TowGpst float64 // seconds of week at the start of the *next* subframe
	Packed  []byte
}

type preambleCandidate struct {
	bufIndex int // index into the decoder's bit buffer
	inverted bool
}

// FrameDecoder recovers LNAV subframes from a stream of 50 Hz navigation
// data bits. It searches for the preamble, confirms it recurs 300 bits
// later, parity-checks all ten words, and resolves the whole-frame
// polarity ambiguity left over from the Costas carrier loop.
type FrameDecoder struct {
	buf       []int8
	candidate *preambleCandidate
	inverted  bool
	synced    bool
}

// NewFrameDecoder returns an empty decoder.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Feed appends one 50 Hz navigation data bit (±1 polarity). It returns a
// decoded Subframe when a full, parity-valid subframe completes, and
// reports parityFailed when a preamble candidate's subframe failed parity
// (the caller should emit a ParityFailure event and keep feeding bits so
// the decoder can resynchronize).
func (d *FrameDecoder) Feed(bit int8) (sub *Subframe, parityFailed bool) {
	if d.inverted {
		bit = -bit
	}
	d.buf = append(d.buf, bit)

	if len(d.buf) >= 8 {
		window := d.buf[len(d.buf)-8:]
		corr := dotProduct(window, preamble[:])
		if corr == 8 || corr == -8 {
			idx := len(d.buf) - 8
			if idx >= 2 && d.candidate == nil {
				d.candidate = &preambleCandidate{bufIndex: idx, inverted: corr < 0}
			}
		}
	}

	if d.candidate != nil && len(d.buf) >= d.candidate.bufIndex+subframeBits+8 {
		cand := *d.candidate
		d.candidate = nil

		frame := d.buf[cand.bufIndex : cand.bufIndex+subframeBits]
		confirmWindow := d.buf[cand.bufIndex+subframeBits : cand.bufIndex+subframeBits+8]
		confirmCorr := dotProduct(confirmWindow, preamble[:])
		expectedCorr := int8(8)
		if cand.inverted {
			expectedCorr = -8
		}
		if confirmCorr != int(expectedCorr) {
			d.trim()
			return nil, false
		}

		frameBits := make([]int8, len(frame))
		copy(frameBits, frame)
		prior := []int8{d.buf[cand.bufIndex-2], d.buf[cand.bufIndex-1]}
		if cand.inverted {
			for i := range frameBits {
				frameBits[i] = -frameBits[i]
			}
			prior[0], prior[1] = -prior[0], -prior[1]
			d.inverted = !d.inverted
		}

		sub, ok := decodeSubframe(frameBits, prior)
		d.trim()
		if !ok {
			return nil, true
		}
		d.synced = true
		return sub, false
	}

	return nil, false
}

// decodeSubframe parity-checks all ten words of a 300-bit subframe and, on
// success, decodes the subframe ID and TOW.
func decodeSubframe(frame []int8, priorContext []int8) (*Subframe, bool) {
	corrected := make([]int8, subframeBits)
	prev := [2]int8{priorContext[0], priorContext[1]}

	for w := 0; w < 10; w++ {
		var ctx wordWithContext
		ctx[0], ctx[1] = prev[0], prev[1]
		copy(ctx[2:], frame[w*wordBits:w*wordBits+wordBits])

		data, ok := checkWordParity(ctx)
		if !ok {
			return nil, false
		}
		copy(corrected[w*wordBits:], data[:])
		for i := 0; i < 6; i++ {
			corrected[w*wordBits+24+i] = ctx[26+i]
		}
		prev[0], prev[1] = ctx[30], ctx[31]
	}

	packed := packBits(corrected)
	id := int(getBitU(packed, 49, 3))
	tow := float64(getBitU(packed, 30, 17)) * 6.0

	return &Subframe{ID: id, TowGpst: tow, Packed: packed}, true
}

func (d *FrameDecoder) trim() {
	if len(d.buf) > 2*subframeBits {
		d.buf = d.buf[len(d.buf)-2*subframeBits:]
	}
}

func dotProduct(a, b []int8) int {
	sum := 0
	for i := range a {
		sum += int(a[i]) * int(b[i])
	}
	return sum
}
