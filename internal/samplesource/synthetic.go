package samplesource

import (
	"math"
	"math/rand"

	"github.com/gnssreceiver/l1ca/gps/prncode"
)

// SignalSpec describes one synthesized GPS L1 C/A signal: its SV, Doppler,
// initial code phase, navigation bit stream, and relative amplitude.
type SignalSpec struct {
	SV             int
	DopplerHz      float64
	CodePhaseChips float64
	AmplitudeDB    float64 // relative to unit amplitude, 0 = full scale
	NavBits        []int8  // repeating ±1 bit pattern driving 50 bps modulation; nil = all +1
}

// SyntheticSource generates a composite GPS L1 C/A baseband signal (one or
// more SignalSpecs plus Gaussian noise) sample by sample, following the
// teacher's MockSDR pattern of parametrized synthetic IQ generation,
// generalized from a two-channel monopulse tone to a multi-satellite GPS
// composite.
type SyntheticSource struct {
	sampleRateHz float64
	noiseSigma   float64
	signals      []syntheticSignal
	rng          *rand.Rand
	index        uint64
}

type syntheticSignal struct {
	spec           SignalSpec
	code           []int8
	amplitude      float64
	carrierPhase   float64
	codePhaseChips float64
	bitIndex       int
	samplesInBit   int
	samplesSinceBit int
}

// NewSyntheticSource builds a generator seeded by seed for reproducible
// test fixtures.
func NewSyntheticSource(sampleRateHz float64, noiseSigma float64, specs []SignalSpec, seed int64) *SyntheticSource {
	s := &SyntheticSource{
		sampleRateHz: sampleRateHz,
		noiseSigma:   noiseSigma,
		rng:          rand.New(rand.NewSource(seed)),
	}
	samplesPerBit := int(sampleRateHz / 50)
	for _, spec := range specs {
		bits := spec.NavBits
		if len(bits) == 0 {
			bits = []int8{1}
		}
		s.signals = append(s.signals, syntheticSignal{
			spec:           spec,
			code:           prncode.CA(spec.SV),
			amplitude:      math.Pow(10, spec.AmplitudeDB/20),
			codePhaseChips: spec.CodePhaseChips,
			samplesInBit:   samplesPerBit,
		})
	}
	return s
}

func (s *SyntheticSource) SampleRate() float64 { return s.sampleRateHz }
func (s *SyntheticSource) Index() uint64       { return s.index }

// Next synthesizes n samples. SyntheticSource never exhausts.
func (s *SyntheticSource) Next(n int) ([]complex128, error) {
	out := make([]complex128, n)
	chipsPerSample := prncode.ChipRateHz / s.sampleRateHz

	for i := 0; i < n; i++ {
		var acc complex128
		for si := range s.signals {
			sig := &s.signals[si]
			bits := sig.spec.NavBits
			if len(bits) == 0 {
				bits = []int8{1}
			}
			bit := bits[sig.bitIndex%len(bits)]

			codeIdx := int(sig.codePhaseChips) % len(sig.code)
			if codeIdx < 0 {
				codeIdx += len(sig.code)
			}
			chip := float64(sig.code[codeIdx]) * float64(bit)

			phaseStep := 2 * math.Pi * sig.spec.DopplerHz / s.sampleRateHz
			carrier := complex(math.Cos(sig.carrierPhase), math.Sin(sig.carrierPhase))
			acc += complex(chip, 0) * carrier * complex(sig.amplitude, 0)

			sig.carrierPhase = math.Mod(sig.carrierPhase+phaseStep, 2*math.Pi)
			sig.codePhaseChips = math.Mod(sig.codePhaseChips+chipsPerSample, float64(len(sig.code)))
			sig.samplesSinceBit++
			if sig.samplesSinceBit >= sig.samplesInBit {
				sig.samplesSinceBit = 0
				sig.bitIndex++
			}
		}

		noise := complex(s.rng.NormFloat64(), s.rng.NormFloat64()) * complex(s.noiseSigma, 0)
		out[i] = acc + noise
	}

	s.index += uint64(n)
	return out, nil
}
