// Package tracking implements the per-satellite carrier (Costas PLL) and
// code (DLL) tracking loops that turn an acquisition result into a stream
// of prompt correlator samples.
package tracking

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/gnssreceiver/l1ca/gps/prncode"
)

// L1CarrierHz is the GPS L1 nominal carrier frequency, used for carrier
// aiding of the code rate.
const L1CarrierHz = 1575.42e6

// State is the tracker's lifecycle state.
type State int

const (
	Acquired State = iota
	PullIn
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case Acquired:
		return "ACQUIRED"
	case PullIn:
		return "PULL_IN"
	case Locked:
		return "LOCKED"
	default:
		return "UNLOCKED"
	}
}

// Config parameterizes the loop filters and lock detector.
type Config struct {
	SampleRateHz   float64
	PLLBandwidthHz float64 // natural frequency, default 10 Hz
	PLLDamping     float64 // default 0.707
	DLLBandwidthHz float64 // default 1 Hz
	PullInEpochs   int     // epochs (ms) spent in PULL_IN before eligible for LOCKED, default 500
	LockWindowMs   int     // lock-detector averaging window, default 200
	UnlockEpochs   int     // consecutive below-threshold windows before UNLOCKED, default 2000ms/LockWindowMs
}

// DefaultConfig returns the tracking defaults named in the receiver
// configuration surface.
func DefaultConfig(sampleRateHz float64) Config {
	return Config{
		SampleRateHz:   sampleRateHz,
		PLLBandwidthHz: 10,
		PLLDamping:     0.707,
		DLLBandwidthHz: 1,
		PullInEpochs:   500,
		LockWindowMs:   200,
		UnlockEpochs:   10,
	}
}

// PromptSample is emitted once per completed 1 ms code period.
type PromptSample struct {
	SVID           int
	SampleIndex    uint64
	IPrompt        float64
	QPrompt        float64
}

// Tracker owns one SV's carrier and code NCOs and loop filters. It consumes
// samples strictly in order via Process and must only be driven by one
// goroutine at a time.
type Tracker struct {
	cfg Config
	sv  int

	replica []complex128 // one code period of +-1 chips as complex128, oversampled is not used: index by chip

	carrierFreqHz float64
	carrierPhase  float64 // radians
	pllIntegrator float64

	codePhaseChips float64 // current code NCO phase, chips, wraps at prncode.Length
	chipsPerSample float64
	dllIntegrator  float64

	state        State
	epochCount   int
	iWindow      []float64
	qWindow      []float64
	lockWindowMs int
	belowCount   int

	sampleIndex uint64

	// pll loop filter gains, derived once from bandwidth/damping (Config is
	// immutable after NewTracker).
	pllGain1, pllGain2 float64
	dllGain            float64
}

// NewTracker seeds a tracker from an acquisition result: sv, the estimated
// Doppler in Hz, and the estimated code phase in samples (converted to
// chips internally).
func NewTracker(sv int, dopplerHz float64, codePhaseSamples int, cfg Config) *Tracker {
	code := prncode.CA(sv)
	chipsPerSample := prncode.ChipRateHz / cfg.SampleRateHz

	t := &Tracker{
		cfg:            cfg,
		sv:             sv,
		carrierFreqHz:  dopplerHz,
		codePhaseChips: math.Mod(float64(codePhaseSamples)*chipsPerSample, float64(prncode.Length)),
		chipsPerSample: chipsPerSample,
		state:          Acquired,
		lockWindowMs:   cfg.LockWindowMs,
		iWindow:        make([]float64, 0, cfg.LockWindowMs),
		qWindow:        make([]float64, 0, cfg.LockWindowMs),
	}
	t.replica = make([]complex128, len(code))
	for i, c := range code {
		t.replica[i] = complex(float64(c), 0)
	}

	// Standard 2nd-order PLL loop filter gains for natural frequency wn and
	// damping zeta, discretized at one update per 1 ms code epoch.
	wn := 2 * math.Pi * cfg.PLLBandwidthHz
	t.pllGain1 = 2 * cfg.PLLDamping * wn * 1e-3
	t.pllGain2 = wn * wn * 1e-3

	// 1st-order DLL loop filter gain for the configured bandwidth.
	t.dllGain = 4 * cfg.DLLBandwidthHz * 1e-3

	return t
}

// SV returns the tracked SV id.
func (t *Tracker) SV() int { return t.sv }

// StateNow returns the current lifecycle state.
func (t *Tracker) StateNow() State { return t.state }

// chipAt returns the replica chip value at fractional chip position phase,
// using nearest-chip selection.
func (t *Tracker) chipAt(phase float64) complex128 {
	n := len(t.replica)
	idx := int(phase)
	if idx < 0 {
		idx = ((idx % n) + n) % n
	} else if idx >= n {
		idx %= n
	}
	return t.replica[idx]
}

// Process consumes exactly one 1 ms code epoch's worth of samples (the
// caller determines epoch length from the nominal sample rate; the code
// NCO's fractional accumulation corrects for the true, Doppler-scaled code
// period internally) and returns the resulting PromptSample. startIndex is
// the absolute sample index of samples[0], used to stamp the output; gaps
// between consecutive calls' indices are not checked.
func (t *Tracker) Process(samples []complex128, startIndex uint64) (PromptSample, bool) {
	if len(samples) == 0 {
		return PromptSample{}, false
	}

	var iE, qE, iP, qP, iL, qL float64
	phase := t.carrierPhase
	codePhase := t.codePhaseChips
	phaseStep := 2 * math.Pi * t.carrierFreqHz / t.cfg.SampleRateHz

	for _, s := range samples {
		wiped := s * complex(math.Cos(-phase), math.Sin(-phase))

		early := t.chipAt(math.Mod(codePhase-0.5+float64(prncode.Length), float64(prncode.Length)))
		prompt := t.chipAt(math.Mod(codePhase, float64(prncode.Length)))
		late := t.chipAt(math.Mod(codePhase+0.5, float64(prncode.Length)))

		iE += real(wiped) * real(early)
		qE += imag(wiped) * real(early)
		iP += real(wiped) * real(prompt)
		qP += imag(wiped) * real(prompt)
		iL += real(wiped) * real(late)
		qL += imag(wiped) * real(late)

		phase += phaseStep
		codePhase += t.chipsPerSample
	}

	t.carrierPhase = math.Mod(phase, 2*math.Pi)
	t.codePhaseChips = math.Mod(codePhase, float64(prncode.Length))
	t.sampleIndex = startIndex + uint64(len(samples))

	t.updateCarrierLoop(iP, qP)
	t.updateCodeLoop(iE, qE, iL, qL)
	t.updateLockDetector(iP, qP)

	return PromptSample{
		SVID:        t.sv,
		SampleIndex: startIndex,
		IPrompt:     iP,
		QPrompt:     qP,
	}, true
}

// updateCarrierLoop applies the Costas phase discriminator and 2nd-order
// loop filter to the prompt I/Q accumulation.
func (t *Tracker) updateCarrierLoop(i, q float64) {
	if i == 0 && q == 0 {
		return
	}
	discriminator := math.Atan2(q, i) / (2 * math.Pi)
	t.pllIntegrator += t.pllGain2 * discriminator
	freqCorrection := t.pllGain1*discriminator + t.pllIntegrator
	t.carrierFreqHz += freqCorrection

	// carrier aiding: code rate tracks the carrier Doppler.
	chipRate := prncode.ChipRateHz * (1 + t.carrierFreqHz/L1CarrierHz)
	t.chipsPerSample = chipRate / t.cfg.SampleRateHz
}

// updateCodeLoop applies the normalized early-minus-late discriminator and
// 1st-order loop filter.
func (t *Tracker) updateCodeLoop(iE, qE, iL, qL float64) {
	e := math.Hypot(iE, qE)
	l := math.Hypot(iL, qL)
	denom := e + l
	if denom == 0 {
		return
	}
	discriminator := (e - l) / denom
	t.codePhaseChips = math.Mod(t.codePhaseChips+t.dllGain*discriminator+float64(prncode.Length), float64(prncode.Length))
}

// updateLockDetector tracks <I>^2 / <Q^2> over the configured window and
// drives the ACQUIRED -> PULL_IN -> LOCKED -> UNLOCKED state machine.
// <Q^2> is recovered from the window's mean and variance via
// E[Q^2] = Var(Q) + E[Q]^2, so a locked carrier (Q centered on zero, most
// of its energy in variance) is distinguished from a still-rotating one
// (Q's mean itself carries energy).
func (t *Tracker) updateLockDetector(i, q float64) {
	t.iWindow = append(t.iWindow, i)
	t.qWindow = append(t.qWindow, q)
	t.epochCount++

	switch t.state {
	case Acquired:
		t.state = PullIn
		t.epochCount = 0
	case PullIn:
		if t.epochCount >= t.cfg.PullInEpochs {
			t.state = Locked
			t.epochCount = 0
			t.belowCount = 0
		}
	}

	if len(t.iWindow) >= t.lockWindowMs {
		meanI := stat.Mean(t.iWindow, nil)
		meanQ, varQ := stat.MeanVariance(t.qWindow, nil)
		meanQ2 := varQ + meanQ*meanQ

		ratio := math.MaxFloat64
		if meanQ2 > 0 {
			ratio = (meanI * meanI) / meanQ2
		}
		t.iWindow = t.iWindow[:0]
		t.qWindow = t.qWindow[:0]

		const lockThreshold = 4.0
		if t.state == Locked {
			if ratio < lockThreshold {
				t.belowCount++
				if t.belowCount >= t.cfg.UnlockEpochs {
					t.state = Unlocked
				}
			} else {
				t.belowCount = 0
			}
		}
	}
}
