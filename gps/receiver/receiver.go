// Package receiver orchestrates acquisition, tracking, navigation-message
// decoding, and position solving across all visible satellites, driven by a
// single-threaded ingestion loop over a sample source.
package receiver

import (
	"context"
	"errors"
	"time"

	"github.com/gnssreceiver/l1ca/gps/acquisition"
	"github.com/gnssreceiver/l1ca/gps/navmsg"
	"github.com/gnssreceiver/l1ca/gps/solver"
	"github.com/gnssreceiver/l1ca/gps/tracking"
	"github.com/gnssreceiver/l1ca/internal/samplesource"
	"github.com/gnssreceiver/l1ca/internal/telemetry"
)

// Config bundles the component configs the receiver wires together with
// the orchestrator-level scheduling parameters it alone owns.
type Config struct {
	SampleRateHz            float64
	Acquisition             acquisition.Config
	Tracking                tracking.Config
	MaxConcurrentTrackedSVs int
	SolveInterval           time.Duration // minimum gap between solver runs, default 1s

	// SeedEphemeris carries persisted assistance data keyed by SV: when a
	// slot is newly acquired for an SV present here, its ephemeris starts
	// pre-populated instead of waiting for a fresh subframe 1-2-3 decode.
	SeedEphemeris map[int]navmsg.Ephemeris
}

const maxPRN = 32

// Receiver is the top-level orchestrator: it owns the sample ingestion
// loop, the fixed satellite slot table, opportunistic acquisition
// scheduling, and solver triggering.
type Receiver struct {
	cfg      Config
	source   samplesource.Source
	acquirer *acquisition.Acquirer
	report   telemetry.Reporter

	slots           [maxPRN + 1]*svSlot // index 0 unused, 1..32 PRNs
	activeCount     int
	nextCandidateSV int

	sampleIndex uint64
	hadFix      bool
	lastSolveAt time.Time
}

// New builds a Receiver. source, report must be non-nil.
func New(cfg Config, source samplesource.Source, report telemetry.Reporter) *Receiver {
	if cfg.MaxConcurrentTrackedSVs <= 0 || cfg.MaxConcurrentTrackedSVs > maxPRN {
		cfg.MaxConcurrentTrackedSVs = 10
	}
	if cfg.SolveInterval <= 0 {
		cfg.SolveInterval = time.Second
	}
	return &Receiver{
		cfg:             cfg,
		source:          source,
		acquirer:        acquisition.New(cfg.Acquisition),
		report:          report,
		nextCandidateSV: 1,
	}
}

// Run ingests samples from the source until it is exhausted or ctx is
// canceled, dispatching to tracked SVs, scheduling acquisition attempts for
// idle slots, and triggering the solver once enough SVs carry a fresh
// ephemeris and transmit-time estimate. It returns nil on a clean
// cancellation or an exhaustion that followed at least one fix, and a
// *Error otherwise.
func (r *Receiver) Run(ctx context.Context) error {
	blockLen := int(r.cfg.SampleRateHz * 1e-3)
	if blockLen <= 0 {
		return newError(ConfigInvalid, errors.New("sample_rate_hz too low to form a 1ms epoch"))
	}

	acqBlocks := r.cfg.Acquisition.IntegrationBlocks
	if acqBlocks <= 0 {
		acqBlocks = 10
	}
	windowLen := blockLen * acqBlocks
	ring := make([]complex128, 0, windowLen)

	epoch := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		samples, err := r.source.Next(blockLen)
		if err != nil || len(samples) < blockLen {
			if r.hadFix {
				return nil
			}
			return newError(SampleSourceExhausted, err)
		}

		startIdx := r.sampleIndex
		r.sampleIndex += uint64(len(samples))
		epoch++

		r.dispatch(sampleBlock{samples: samples, startIndex: startIdx})
		r.evictUnlocked()

		ring = append(ring, samples...)
		if len(ring) > windowLen {
			ring = ring[len(ring)-windowLen:]
		}
		if len(ring) == windowLen && epoch%acqBlocks == 0 {
			r.tryAcquireNext(ring)
		}

		r.maybeSolve()
	}
}

// dispatch offers the block to every active slot, publishing Overrun for any
// slot whose channel is still full.
func (r *Receiver) dispatch(block sampleBlock) {
	for sv := 1; sv <= maxPRN; sv++ {
		slot := r.slots[sv]
		if slot == nil {
			continue
		}
		if !slot.offer(block) {
			r.report.Publish(telemetry.Overrun{Time: time.Now(), SV: sv})
		}
	}
}

// evictUnlocked removes slots whose tracker has dropped to Unlocked,
// closing their dispatch channel so the slot goroutine exits.
func (r *Receiver) evictUnlocked() {
	for sv := 1; sv <= maxPRN; sv++ {
		slot := r.slots[sv]
		if slot == nil {
			continue
		}
		if slot.stateNow() == tracking.Unlocked {
			slot.close()
			r.slots[sv] = nil
			r.activeCount--
		}
	}
}

// tryAcquireNext searches at most one not-yet-tracked SV per call, cycling
// round-robin across PRNs 1..32 so every visible satellite eventually gets
// a chance against a fresh acquisition window.
func (r *Receiver) tryAcquireNext(window []complex128) {
	if r.activeCount >= r.cfg.MaxConcurrentTrackedSVs {
		return
	}

	for attempts := 0; attempts < maxPRN; attempts++ {
		sv := r.nextCandidateSV
		r.nextCandidateSV++
		if r.nextCandidateSV > maxPRN {
			r.nextCandidateSV = 1
		}
		if r.slots[sv] != nil {
			continue
		}

		result, ok := r.acquirer.TryAcquire(sv, window)
		if !ok {
			return
		}

		tracker := tracking.NewTracker(sv, result.DopplerHz, result.CodePhaseSamples, r.cfg.Tracking)
		slot := newSVSlot(sv, tracker)
		if seed, ok := r.cfg.SeedEphemeris[sv]; ok {
			slot.seedEphemeris(seed)
		}
		r.slots[sv] = slot
		r.activeCount++
		go slot.run(r.report)

		chipsPerSample := 1.023e6 / r.cfg.SampleRateHz
		r.report.Publish(telemetry.Acquired{
			Time:          time.Now(),
			SV:            sv,
			DopplerHz:     result.DopplerHz,
			CodePhaseChip: float64(result.CodePhaseSamples) * chipsPerSample,
			PeakRatio:     result.PeakRatio,
		})
		return
	}
}

// Ephemerides returns a snapshot of every currently tracked SV's completed
// ephemeris, suitable for persisting as assistance data for a future
// cold start.
func (r *Receiver) Ephemerides() []navmsg.Ephemeris {
	var out []navmsg.Ephemeris
	for sv := 1; sv <= maxPRN; sv++ {
		slot := r.slots[sv]
		if slot == nil {
			continue
		}
		if eph, ok := slot.currentEphemeris(); ok {
			out = append(out, eph)
		}
	}
	return out
}

// maybeSolve gathers a fresh observation from every slot that has both a
// completed ephemeris and a transmit-time base, and runs the solver when at
// least four are available and the minimum solve interval has elapsed.
func (r *Receiver) maybeSolve() {
	now := time.Now()
	if now.Sub(r.lastSolveAt) < r.cfg.SolveInterval {
		return
	}

	receiveTime := float64(r.sampleIndex) / r.cfg.SampleRateHz
	var obs []solver.Observation
	var used []int
	for sv := 1; sv <= maxPRN; sv++ {
		slot := r.slots[sv]
		if slot == nil {
			continue
		}
		o, ok := slot.observation(r.sampleIndex, r.cfg.SampleRateHz, receiveTime)
		if !ok {
			continue
		}
		obs = append(obs, o)
		used = append(used, sv)
	}
	if len(obs) < 4 {
		return
	}

	r.lastSolveAt = now

	satObs, err := solver.BuildSolution(obs)
	if err != nil {
		return
	}
	solution, err := solver.Solve(satObs)
	if err != nil {
		r.report.Publish(telemetry.Error{Time: now, Kind: string(GeometrySingular), Message: err.Error()})
		return
	}

	r.hadFix = true
	r.report.Publish(telemetry.Fix{
		Time:            now,
		ECEF:            solution.ECEF,
		ClockBiasMeters: solution.ClockBiasMeters,
		HDOP:            solution.HDOP,
		VDOP:            solution.VDOP,
		PDOP:            solution.PDOP,
		SatellitesUsed:  used,
		Iterations:      solution.Iterations,
	})
}
