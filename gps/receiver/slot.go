package receiver

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gnssreceiver/l1ca/gps/navmsg"
	"github.com/gnssreceiver/l1ca/gps/solver"
	"github.com/gnssreceiver/l1ca/gps/tracking"
	"github.com/gnssreceiver/l1ca/internal/telemetry"
)

// sampleBlock is one dispatch unit handed to a tracked SV's goroutine: a
// contiguous run of raw samples and the absolute index of its first sample.
type sampleBlock struct {
	samples    []complex128
	startIndex uint64
}

const dispatchBuffer = 4

// svSlot owns one satellite's tracking and navigation-message pipeline.
// tracker, bitSync, frameDecoder, and ephBuilder are touched only by the
// goroutine started in run, per Tracker's single-writer contract.
// state is published via an atomic so the orchestrator can poll it from the
// ingestion loop without synchronizing with the slot goroutine; eph and the
// transmit-time base are guarded by mu since the orchestrator reads them
// when assembling a solver observation.
type svSlot struct {
	sv int

	tracker      *tracking.Tracker
	bitSync      *navmsg.BitSynchronizer
	frameDecoder *navmsg.FrameDecoder
	ephBuilder   *navmsg.Builder

	bitAccum   float64
	bitOffset  int
	bitSynced  bool
	phaseInBit int

	state atomic.Int32

	mu              sync.Mutex
	eph             navmsg.Ephemeris
	haveEph         bool
	towBase         float64
	sampleIndexBase uint64
	haveTimeBase    bool

	dispatch chan sampleBlock
}

func newSVSlot(sv int, tracker *tracking.Tracker) *svSlot {
	s := &svSlot{
		sv:           sv,
		tracker:      tracker,
		bitSync:      navmsg.NewBitSynchronizer(),
		frameDecoder: navmsg.NewFrameDecoder(),
		ephBuilder:   navmsg.NewBuilder(sv),
		dispatch:     make(chan sampleBlock, dispatchBuffer),
	}
	s.state.Store(int32(tracking.Acquired))
	return s
}

func (s *svSlot) stateNow() tracking.State {
	return tracking.State(s.state.Load())
}

// offer attempts a non-blocking dispatch of block to the slot. It reports
// false if the slot's channel is full, the caller's cue to publish Overrun.
func (s *svSlot) offer(block sampleBlock) bool {
	select {
	case s.dispatch <- block:
		return true
	default:
		return false
	}
}

func (s *svSlot) close() {
	close(s.dispatch)
}

// seedEphemeris pre-populates the slot's ephemeris from persisted
// assistance data, without a transmit-time base: maybeSolve still waits for
// a live subframe decode to establish towBase before this slot can
// contribute an observation.
func (s *svSlot) seedEphemeris(eph navmsg.Ephemeris) {
	s.mu.Lock()
	s.eph = eph
	s.haveEph = true
	s.mu.Unlock()
}

// currentEphemeris returns the slot's completed ephemeris, if any.
func (s *svSlot) currentEphemeris() (navmsg.Ephemeris, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eph, s.haveEph
}

// observation returns a solver Observation for this slot at sampleRateHz,
// evaluated at the orchestrator's current sample index, if the slot has both
// a completed ephemeris and a transmit-time base.
func (s *svSlot) observation(currentIndex uint64, sampleRateHz float64, receiveTime float64) (solver.Observation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.haveEph || !s.haveTimeBase {
		return solver.Observation{}, false
	}
	elapsed := float64(int64(currentIndex)-int64(s.sampleIndexBase)) / sampleRateHz
	return solver.Observation{
		SV:              s.sv,
		ReceiveTime:     receiveTime,
		TransmitTimeSec: s.towBase + elapsed,
		Ephemeris:       s.eph,
	}, true
}

// run drives the slot's tracking and navigation-message pipeline until its
// dispatch channel is closed by the orchestrator or the tracker loses lock.
func (s *svSlot) run(report telemetry.Reporter) {
	lastState := tracking.Acquired
	for block := range s.dispatch {
		ps, ok := s.tracker.Process(block.samples, block.startIndex)
		if !ok {
			continue
		}

		st := s.tracker.StateNow()
		s.state.Store(int32(st))
		if st != lastState {
			switch st {
			case tracking.Locked:
				report.Publish(telemetry.Locked{Time: time.Now(), SV: s.sv})
			case tracking.Unlocked:
				report.Publish(telemetry.Unlocked{Time: time.Now(), SV: s.sv, Reason: "LOSS_OF_LOCK"})
			}
			lastState = st
		}
		if st == tracking.Unlocked {
			return
		}
		if st != tracking.Locked {
			continue
		}

		s.demodulate(ps, report)
	}
}

// demodulate accumulates 1 ms prompt samples into 50 bps navigation bits
// once bit synchronization has converged, and feeds each recovered bit into
// the frame decoder.
func (s *svSlot) demodulate(ps tracking.PromptSample, report telemetry.Reporter) {
	if !s.bitSynced {
		s.bitSync.Feed(ps.IPrompt)
		if offset, confidence, ok := s.bitSync.Try(); ok {
			s.bitSynced = true
			s.bitOffset = offset
			s.phaseInBit = 0
			report.Publish(telemetry.BitSync{Time: time.Now(), SV: s.sv, OffsetMs: offset, Confidence: confidence})
		}
		return
	}

	s.bitAccum += ps.IPrompt
	s.phaseInBit = (s.phaseInBit + 1) % navmsg.BitPeriodMs

	if s.phaseInBit == s.bitOffset {
		bit := int8(1)
		if s.bitAccum < 0 {
			bit = -1
		}
		s.bitAccum = 0

		sub, parityFailed := s.frameDecoder.Feed(bit)
		if parityFailed {
			report.Publish(telemetry.Error{Time: time.Now(), SV: s.sv, Kind: string(ParityFailure), Message: "subframe failed parity check"})
			return
		}
		if sub == nil {
			return
		}

		report.Publish(telemetry.Subframe{Time: time.Now(), SV: s.sv, ID: sub.ID, TOW: int(sub.TowGpst)})

		s.mu.Lock()
		s.towBase = sub.TowGpst
		s.sampleIndexBase = ps.SampleIndex
		s.haveTimeBase = true
		s.mu.Unlock()

		eph, ok, consistent := s.ephBuilder.Feed(sub)
		if !consistent {
			report.Publish(telemetry.Error{Time: time.Now(), SV: s.sv, Kind: string(EphemerisInconsistent), Message: "IODE mismatch across subframes 2 and 3"})
			return
		}
		if !ok {
			return
		}

		s.mu.Lock()
		s.eph = eph
		s.haveEph = true
		s.mu.Unlock()
		report.Publish(telemetry.Ephemeris{Time: time.Now(), SV: s.sv, IODE: int(eph.IODE)})
	}
}
