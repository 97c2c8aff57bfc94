package telemetry

import (
	"github.com/gnssreceiver/l1ca/internal/logging"
)

// Reporter receives telemetry events as they occur. Hub and StdoutReporter
// both implement it, and MultiReporter fans a single Publish out to several.
type Reporter interface {
	Publish(evt Event)
}

// StdoutReporter logs every telemetry event through a structured logger.
type StdoutReporter struct {
	logger logging.Logger
}

// NewStdoutReporter builds a stdout reporter with the provided logger.
func NewStdoutReporter(logger logging.Logger) StdoutReporter {
	if logger == nil {
		logger = logging.Default()
	}
	return StdoutReporter{logger: logger}
}

// Publish logs evt at a level and with fields appropriate to its kind.
func (r StdoutReporter) Publish(evt Event) {
	base := []logging.Field{{Key: "kind", Value: string(evt.EventKind())}}

	switch e := evt.(type) {
	case Acquired:
		r.logger.Info("sv acquired", append(base,
			logging.Stage("acquisition"),
			logging.SV(e.SV),
			logging.Field{Key: "doppler_hz", Value: e.DopplerHz},
			logging.Field{Key: "code_phase_chip", Value: e.CodePhaseChip},
			logging.Field{Key: "peak_ratio", Value: e.PeakRatio},
		)...)
	case Locked:
		r.logger.Info("sv locked", append(base, logging.Stage("tracking"), logging.SV(e.SV))...)
	case Unlocked:
		r.logger.Warn("sv unlocked", append(base,
			logging.Stage("tracking"),
			logging.SV(e.SV),
			logging.Field{Key: "reason", Value: e.Reason},
		)...)
	case BitSync:
		r.logger.Info("bit sync acquired", append(base,
			logging.Stage("navmsg"),
			logging.SV(e.SV),
			logging.Field{Key: "offset_ms", Value: e.OffsetMs},
			logging.Field{Key: "confidence", Value: e.Confidence},
		)...)
	case FrameSync:
		r.logger.Info("frame sync acquired", append(base,
			logging.Stage("navmsg"),
			logging.SV(e.SV),
			logging.Field{Key: "inverted", Value: e.Inverted},
		)...)
	case Subframe:
		r.logger.Debug("subframe decoded", append(base,
			logging.Stage("navmsg"),
			logging.SV(e.SV),
			logging.Field{Key: "subframe_id", Value: e.ID},
			logging.Field{Key: "tow", Value: e.TOW},
		)...)
	case Ephemeris:
		r.logger.Info("ephemeris complete", append(base,
			logging.Stage("navmsg"),
			logging.SV(e.SV),
			logging.Field{Key: "iode", Value: e.IODE},
		)...)
	case Fix:
		r.logger.Info("position fix", append(base,
			logging.Stage("solver"),
			logging.Field{Key: "ecef_x", Value: e.ECEF[0]},
			logging.Field{Key: "ecef_y", Value: e.ECEF[1]},
			logging.Field{Key: "ecef_z", Value: e.ECEF[2]},
			logging.Field{Key: "clock_bias_m", Value: e.ClockBiasMeters},
			logging.Field{Key: "hdop", Value: e.HDOP},
			logging.Field{Key: "pdop", Value: e.PDOP},
			logging.Field{Key: "satellites_used", Value: len(e.SatellitesUsed)},
		)...)
	case Overrun:
		r.logger.Warn("sample dispatch overrun", append(base, logging.Stage("receiver"), logging.SV(e.SV))...)
	case Error:
		r.logger.Error(e.Message, append(base,
			logging.SV(e.SV),
			logging.Field{Key: "error_kind", Value: e.Kind},
		)...)
	default:
		r.logger.Info("telemetry event", base...)
	}
}
