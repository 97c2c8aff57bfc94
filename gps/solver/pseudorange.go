package solver

import "github.com/gnssreceiver/l1ca/gps/navmsg"

// speedOfLight is the value used throughout GPS pseudorange computations
// (ICD-200 20.3.4.3).
const speedOfLight = 2.99792458e8

// Observation is one SV's raw pseudorange measurement for a single solver
// epoch: the receiver's common time of reception and the SV's broadcast
// time of week at the moment the navigation bit carrying that measurement
// was transmitted.
type Observation struct {
	SV              int
	ReceiveTime     float64 // receiver clock, seconds; its offset from GPS time is absorbed by the solved clock bias
	TransmitTimeSec float64 // SV broadcast time of week, reconstructed upstream from TOW + bit/epoch count
	Ephemeris       navmsg.Ephemeris
}

// pseudorangeMeters forms rho = c * (t_rx - t_tx).
func pseudorangeMeters(receiveTime, transmitTime float64) float64 {
	return speedOfLight * correctWeekCrossover(receiveTime-transmitTime)
}
