// Package solver reconstructs transmit times from tracked pseudoranges,
// computes satellite ECEF positions from broadcast ephemerides, and solves
// the weighted least-squares position/clock fix.
package solver

import (
	"math"

	"github.com/gnssreceiver/l1ca/gps/navmsg"
)

// WGS-84 / ICD-200 constants used by the satellite position algorithm.
const (
	gm        = 3.986005e14   // earth gravitational constant, m^3/s^2
	omegaE    = 7.2921151467e-5 // earth rotation rate, rad/s
	relCorrF  = -4.442807633e-10 // relativistic correction coefficient, s/sqrt(m)
	keplerTol = 1e-12
	maxKeplerIterations = 30
)

// SatellitePosition is the ECEF position and clock correction of one SV at
// transmitTimeSec (GPS seconds of week), derived from its ephemeris via the
// ICD-200 Kepler iteration and ECEF rotation chain. It does not include the
// Sagnac/Earth-rotation correction for signal transit time; Solve applies
// that.
type SatellitePosition struct {
	ECEF        [3]float64
	ClockBiasS  float64 // SV clock correction, seconds (includes relativistic term)
}

// ComputeSatellitePosition implements ICD-200 20.3.3.4.3.
func ComputeSatellitePosition(eph navmsg.Ephemeris, transmitTimeSec float64) SatellitePosition {
	a := eph.SqrtA * eph.SqrtA
	n0 := math.Sqrt(gm / (a * a * a))
	tk := correctWeekCrossover(transmitTimeSec - eph.Toe)
	n := n0 + eph.DeltaN
	m := eph.M0 + n*tk

	e := keplerEccentricAnomaly(m, eph.Ecc)

	sinE, cosE := math.Sin(e), math.Cos(e)
	v := math.Atan2(math.Sqrt(1-eph.Ecc*eph.Ecc)*sinE, cosE-eph.Ecc)
	phi := v + eph.Omega

	sin2phi, cos2phi := math.Sin(2*phi), math.Cos(2*phi)
	du := eph.Cus*sin2phi + eph.Cuc*cos2phi
	dr := eph.Crs*sin2phi + eph.Crc*cos2phi
	di := eph.Cis*sin2phi + eph.Cic*cos2phi

	u := phi + du
	r := a*(1-eph.Ecc*cosE) + dr
	i := eph.I0 + di + eph.IDOT*tk

	xOrbit := r * math.Cos(u)
	yOrbit := r * math.Sin(u)

	tkOc := correctWeekCrossover(transmitTimeSec - eph.Toc)
	clockCorr := eph.Af0 + eph.Af1*tkOc + eph.Af2*tkOc*tkOc
	clockCorr += relCorrF * eph.Ecc * eph.SqrtA * sinE
	clockCorr -= eph.TGD

	omega := eph.Omega0 + (eph.OmegaDot-omegaE)*tk - omegaE*eph.Toe

	sinOmega, cosOmega := math.Sin(omega), math.Cos(omega)
	sinI, cosI := math.Sin(i), math.Cos(i)

	x := xOrbit*cosOmega - yOrbit*cosI*sinOmega
	y := xOrbit*sinOmega + yOrbit*cosI*cosOmega
	z := yOrbit * sinI

	return SatellitePosition{
		ECEF:       [3]float64{x, y, z},
		ClockBiasS: clockCorr,
	}
}

// keplerEccentricAnomaly solves Kepler's equation M = E - e*sin(E) by
// Newton iteration to the ICD-mandated convergence tolerance.
func keplerEccentricAnomaly(m, ecc float64) float64 {
	e := m
	for i := 0; i < maxKeplerIterations; i++ {
		delta := (m - e + ecc*math.Sin(e)) / (1 - ecc*math.Cos(e))
		e += delta
		if math.Abs(delta) < keplerTol {
			break
		}
	}
	return e
}

// correctWeekCrossover wraps a time-of-week difference into [-302400, 302400]
// seconds, per ICD-200 20.3.3.3.3.1.
func correctWeekCrossover(dt float64) float64 {
	const halfWeek = 302400.0
	switch {
	case dt > halfWeek:
		return dt - 2*halfWeek
	case dt < -halfWeek:
		return dt + 2*halfWeek
	default:
		return dt
	}
}
