package telemetry

import "time"

// Kind tags the concrete type of an Event for dispatch without a type
// switch at every call site.
type Kind string

const (
	KindAcquired  Kind = "ACQUIRED"
	KindLocked    Kind = "LOCKED"
	KindUnlocked  Kind = "UNLOCKED"
	KindBitSync   Kind = "BIT_SYNC"
	KindFrameSync Kind = "FRAME_SYNC"
	KindSubframe  Kind = "SUBFRAME"
	KindEphemeris Kind = "EPHEMERIS"
	KindFix       Kind = "FIX"
	KindOverrun   Kind = "OVERRUN"
	KindError     Kind = "ERROR"
)

// Event is implemented by every concrete telemetry occurrence the receiver
// publishes. It is a closed sum type: the EventKind method is the discriminant
// and every satellite implementation lives in this file.
type Event interface {
	EventKind() Kind
	Occurred() time.Time
}

// Acquired reports a successful acquisition attempt for an SV.
type Acquired struct {
	Time          time.Time `json:"time"`
	SV            int       `json:"sv"`
	DopplerHz     float64   `json:"dopplerHz"`
	CodePhaseChip float64   `json:"codePhaseChip"`
	PeakRatio     float64   `json:"peakRatio"`
}

func (e Acquired) EventKind() Kind      { return KindAcquired }
func (e Acquired) Occurred() time.Time  { return e.Time }

// Locked reports a tracker transitioning into the LOCKED state.
type Locked struct {
	Time time.Time `json:"time"`
	SV   int       `json:"sv"`
}

func (e Locked) EventKind() Kind     { return KindLocked }
func (e Locked) Occurred() time.Time { return e.Time }

// Unlocked reports a tracker dropping lock, with the reason it fell over.
type Unlocked struct {
	Time   time.Time `json:"time"`
	SV     int       `json:"sv"`
	Reason string    `json:"reason"`
}

func (e Unlocked) EventKind() Kind     { return KindUnlocked }
func (e Unlocked) Occurred() time.Time { return e.Time }

// BitSync reports that the bit synchronizer found a stable 20ms bit boundary.
type BitSync struct {
	Time       time.Time `json:"time"`
	SV         int       `json:"sv"`
	OffsetMs   int       `json:"offsetMs"`
	Confidence float64   `json:"confidence"`
}

func (e BitSync) EventKind() Kind     { return KindBitSync }
func (e BitSync) Occurred() time.Time { return e.Time }

// FrameSync reports a preamble lock and resolved navigation-bit polarity.
type FrameSync struct {
	Time     time.Time `json:"time"`
	SV       int       `json:"sv"`
	Inverted bool      `json:"inverted"`
}

func (e FrameSync) EventKind() Kind     { return KindFrameSync }
func (e FrameSync) Occurred() time.Time { return e.Time }

// Subframe reports a parity-checked 300-bit subframe decode.
type Subframe struct {
	Time    time.Time `json:"time"`
	SV      int       `json:"sv"`
	ID      int       `json:"id"`
	TOW     int       `json:"tow"`
}

func (e Subframe) EventKind() Kind     { return KindSubframe }
func (e Subframe) Occurred() time.Time { return e.Time }

// Ephemeris reports a completed, IODE-consistent ephemeris for an SV.
type Ephemeris struct {
	Time time.Time `json:"time"`
	SV   int       `json:"sv"`
	IODE int       `json:"iode"`
}

func (e Ephemeris) EventKind() Kind     { return KindEphemeris }
func (e Ephemeris) Occurred() time.Time { return e.Time }

// Fix reports a completed position/clock-bias solution.
type Fix struct {
	Time            time.Time `json:"time"`
	ECEF            [3]float64 `json:"ecef"`
	ClockBiasMeters float64    `json:"clockBiasMeters"`
	HDOP            float64    `json:"hdop"`
	VDOP            float64    `json:"vdop"`
	PDOP            float64    `json:"pdop"`
	SatellitesUsed  []int      `json:"satellitesUsed"`
	Iterations      int        `json:"iterations"`
}

func (e Fix) EventKind() Kind     { return KindFix }
func (e Fix) Occurred() time.Time { return e.Time }

// Overrun reports a per-SV dispatch channel backpressure drop.
type Overrun struct {
	Time time.Time `json:"time"`
	SV   int       `json:"sv"`
}

func (e Overrun) EventKind() Kind     { return KindOverrun }
func (e Overrun) Occurred() time.Time { return e.Time }

// Error reports a non-fatal, SV-local or solver error surfaced as telemetry
// rather than propagated to the orchestrator.
type Error struct {
	Time    time.Time `json:"time"`
	SV      int       `json:"sv"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
}

func (e Error) EventKind() Kind     { return KindError }
func (e Error) Occurred() time.Time { return e.Time }
