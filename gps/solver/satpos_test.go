package solver

import (
	"math"
	"testing"

	"github.com/gnssreceiver/l1ca/gps/navmsg"
)

// circularEphemeris returns an ephemeris describing a circular orbit at
// GPS-like altitude, zero inclination-rate and perturbation terms, useful
// for sanity-checking the position chain against a closed-form circle.
func circularEphemeris() navmsg.Ephemeris {
	return navmsg.Ephemeris{
		SqrtA: math.Sqrt(26560000.0),
		Ecc:   0,
		I0:    55 * math.Pi / 180,
		Omega0: 0,
		Omega:  0,
		M0:     0,
		Toe:    0,
		Toc:    0,
	}
}

func TestComputeSatellitePositionLiesOnOrbitalRadius(t *testing.T) {
	eph := circularEphemeris()
	pos := ComputeSatellitePosition(eph, 0)

	a := eph.SqrtA * eph.SqrtA
	gotR := math.Sqrt(pos.ECEF[0]*pos.ECEF[0] + pos.ECEF[1]*pos.ECEF[1] + pos.ECEF[2]*pos.ECEF[2])
	if math.Abs(gotR-a) > 1.0 {
		t.Fatalf("radius = %f, want close to semi-major axis %f", gotR, a)
	}
}

func TestComputeSatellitePositionAdvancesWithTime(t *testing.T) {
	eph := circularEphemeris()
	p0 := ComputeSatellitePosition(eph, 0)
	p1 := ComputeSatellitePosition(eph, 1000)

	moved := math.Hypot(p1.ECEF[0]-p0.ECEF[0], p1.ECEF[1]-p0.ECEF[1])
	if moved < 1000 {
		t.Fatalf("satellite barely moved over 1000s: %f m", moved)
	}
}

func TestKeplerEccentricAnomalyConvergesForModerateEccentricity(t *testing.T) {
	m := 1.2
	ecc := 0.02
	e := keplerEccentricAnomaly(m, ecc)

	residual := e - ecc*math.Sin(e) - m
	if math.Abs(residual) > 1e-10 {
		t.Fatalf("kepler residual = %e, want < 1e-10", residual)
	}
}

func TestCorrectWeekCrossover(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{302400, 302400},
		{302401, 302401 - 604800},
		{-302401, -302401 + 604800},
	}
	for _, c := range cases {
		if got := correctWeekCrossover(c.in); got != c.want {
			t.Fatalf("correctWeekCrossover(%f) = %f, want %f", c.in, got, c.want)
		}
	}
}
