// Package acquisition performs coarse Doppler and code-phase search for GPS
// L1 C/A satellites over a window of raw baseband samples.
package acquisition

import (
	"math"
	"runtime"

	"github.com/gnssreceiver/l1ca/gps/prncode"
	"github.com/gnssreceiver/l1ca/internal/dsp"
)

// Config controls the Doppler search grid and detection threshold.
type Config struct {
	SampleRateHz         float64
	DopplerRangeHz       float64 // search extends +/- this value around 0
	DopplerStepHz        float64
	IntegrationBlocks    int     // K: non-coherent accumulation length in 1ms blocks
	ThresholdRatio       float64 // peak / second-peak required to declare success
}

// DefaultConfig returns the acquisition defaults named in the receiver
// configuration surface: +-5 kHz search, 200 Hz steps, K=10, ratio 2.5.
func DefaultConfig(sampleRateHz float64) Config {
	return Config{
		SampleRateHz:      sampleRateHz,
		DopplerRangeHz:     5000,
		DopplerStepHz:      200,
		IntegrationBlocks:  10,
		ThresholdRatio:     2.5,
	}
}

// Result reports a successful acquisition.
type Result struct {
	SV                int
	DopplerHz         float64
	CodePhaseSamples  int
	PeakRatio         float64
}

// Acquirer runs the two-dimensional Doppler/code-phase search for one SV at
// a time against a caller-supplied sample window. It holds no mutable
// state between calls: TryAcquire is a pure function of its inputs, so
// concurrent callers may share one Acquirer across SVs.
type Acquirer struct {
	cfg Config
}

// New builds an Acquirer with cfg.
func New(cfg Config) *Acquirer {
	return &Acquirer{cfg: cfg}
}

type binResult struct {
	dopplerHz float64
	profile   []float64
	ok        bool
}

// TryAcquire searches window for sv, using its first cfg.IntegrationBlocks
// 1 ms blocks (or as many whole blocks as window holds, if fewer; at least
// one is required). Each Doppler bin's block is coherently correlated against
// the resampled PRN replica and the magnitude-squared results are summed
// non-coherently across blocks. Doppler bins are searched concurrently with
// a bounded worker pool, following the same jobs/results channel shape the
// wider DSP pack uses for its coarse parallel scans.
func (a *Acquirer) TryAcquire(sv int, window []complex128) (Result, bool) {
	blockLen := int(a.cfg.SampleRateHz * 1e-3)
	if blockLen <= 0 || len(window) < blockLen {
		return Result{}, false
	}
	k := a.cfg.IntegrationBlocks
	if k <= 0 {
		k = 1
	}
	if len(window) < blockLen*k {
		k = len(window) / blockLen
	}
	if k == 0 {
		return Result{}, false
	}

	code := prncode.CA(sv)
	if code == nil {
		return Result{}, false
	}
	replica := prncode.ResampleToRate(code, prncode.ChipRateHz, a.cfg.SampleRateHz)
	if len(replica) != blockLen {
		replica = fitLength(replica, blockLen)
	}
	correlator := dsp.NewReplicaCorrelator(replica)

	var dopplers []float64
	for f := -a.cfg.DopplerRangeHz; f <= a.cfg.DopplerRangeHz; f += a.cfg.DopplerStepHz {
		dopplers = append(dopplers, f)
	}
	if len(dopplers) == 0 {
		return Result{}, false
	}

	numWorkers := runtime.NumCPU()
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(dopplers) {
		numWorkers = len(dopplers)
	}

	jobs := make(chan float64)
	results := make(chan binResult, len(dopplers))

	for w := 0; w < numWorkers; w++ {
		go func() {
			mixed := make([]complex128, blockLen)
			for fd := range jobs {
				acc := make([]float64, blockLen)
				phase := 0.0
				ok := true
				for b := 0; b < k; b++ {
					block := window[b*blockLen : (b+1)*blockLen]
					phase = dsp.MixDown(mixed, block, fd, a.cfg.SampleRateHz, phase)
					profile := correlator.Correlate(mixed)
					if profile == nil {
						ok = false
						break
					}
					dsp.AccumulateMagnitudeSquared(acc, profile)
				}
				results <- binResult{dopplerHz: fd, profile: acc, ok: ok}
			}
		}()
	}

	go func() {
		for _, fd := range dopplers {
			jobs <- fd
		}
		close(jobs)
	}()

	bestPeak := -1.0
	var bestDoppler float64
	var bestPhase int
	var bestProfile []float64

	for i := 0; i < len(dopplers); i++ {
		res := <-results
		if !res.ok {
			continue
		}
		idx, peak := peakIndex(res.profile)
		if peak > bestPeak {
			bestPeak = peak
			bestDoppler = res.dopplerHz
			bestPhase = idx
			bestProfile = res.profile
		}
	}

	// The second peak is the largest value left in the winning Doppler bin
	// once the main peak and one chip either side of it are masked out.
	guard := int(math.Ceil(a.cfg.SampleRateHz / prncode.ChipRateHz))
	for d := -guard; d <= guard && bestProfile != nil; d++ {
		bestProfile[((bestPhase+d)%blockLen+blockLen)%blockLen] = 0
	}
	_, secondPeak := peakIndex(bestProfile)

	if bestPeak <= 0 || secondPeak <= 0 {
		return Result{}, false
	}

	ratio := bestPeak / secondPeak
	if ratio < a.cfg.ThresholdRatio {
		return Result{}, false
	}

	return Result{
		SV:               sv,
		DopplerHz:        bestDoppler,
		// The profile peaks at the lag that delays the replica onto the
		// window; the code phase at the window's first sample is its
		// complement.
		CodePhaseSamples: (blockLen - bestPhase) % blockLen,
		PeakRatio:        ratio,
	}, true
}

func fitLength(in []complex128, n int) []complex128 {
	out := make([]complex128, n)
	copy(out, in)
	return out
}

// peakIndex returns the index and value of the largest element of acc, the
// already-squared, non-coherently accumulated correlation profile.
func peakIndex(acc []float64) (index int, peak float64) {
	for i, v := range acc {
		if v > peak {
			peak = v
			index = i
		}
	}
	return index, peak
}
