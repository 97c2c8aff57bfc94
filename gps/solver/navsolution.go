package solver

// BuildSolution turns a set of per-SV observations (receiver time of
// reception plus the SV's reconstructed broadcast transmit time and
// ephemeris) into satellite observations ready for Solve: it computes each
// SV's ECEF position and clock correction, applies the SV clock correction
// to the transmit time, and forms the corrected pseudorange
// rho = c * (t_rx - t_tx_corrected).
func BuildSolution(obs []Observation) ([]SatelliteObservation, error) {
	if len(obs) < 4 {
		return nil, ErrInsufficientObservations
	}

	out := make([]SatelliteObservation, len(obs))
	for i, o := range obs {
		sv := ComputeSatellitePosition(o.Ephemeris, o.TransmitTimeSec)
		correctedTransmitTime := o.TransmitTimeSec - sv.ClockBiasS

		out[i] = SatelliteObservation{
			SV:          o.SV,
			Pos:         sv.ECEF,
			Pseudorange: pseudorangeMeters(o.ReceiveTime, correctedTransmitTime),
		}
	}
	return out, nil
}
