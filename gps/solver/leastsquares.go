package solver

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrGeometrySingular is returned by Solve when the satellite geometry's
// condition number exceeds the configured threshold.
var ErrGeometrySingular = errors.New("solver: geometry singular")

// ErrInsufficientObservations is returned by Solve when fewer than four
// observations are supplied.
var ErrInsufficientObservations = errors.New("solver: fewer than 4 observations")

const (
	convergenceMeters  = 1e-4
	maxSolveIterations = 20
	conditionThreshold = 1e6
)

// Solution is the solver's converged state estimate and quality metrics.
type Solution struct {
	ECEF            [3]float64
	ClockBiasMeters float64
	HDOP, VDOP, PDOP float64
	Iterations      int
}

// SatelliteObservation pairs a satellite's ECEF position (evaluated at its true
// transmit time) with its pseudorange, into which the SV clock correction
// has already been folded.
type SatelliteObservation struct {
	SV          int
	Pos         [3]float64
	Pseudorange float64
}

// Solve runs iterative Gauss-Newton least squares (every observation carries
// unit weight) over the state (x, y, z, b), b = c*receiver clock bias, starting
// from an initial guess at the center of the Earth. It applies the Sagnac/
// Earth-rotation correction to every satellite position on each iteration,
// evaluated against the current position estimate, and fails with
// ErrGeometrySingular when the unweighted geometry matrix's condition
// number exceeds 1e6.
func Solve(obs []SatelliteObservation) (Solution, error) {
	if len(obs) < 4 {
		return Solution{}, ErrInsufficientObservations
	}

	x := mat.NewVecDense(4, nil) // x, y, z, b, all start at 0 (center of earth)

	var geometry *mat.Dense
	iterations := 0
	for ; iterations < maxSolveIterations; iterations++ {
		n := len(obs)
		design := mat.NewDense(n, 4, nil)
		residual := mat.NewVecDense(n, nil)

		for i, o := range obs {
			user := [3]float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)}
			svCorrected := applySagnac(o.Pos, user)

			dx := user[0] - svCorrected[0]
			dy := user[1] - svCorrected[1]
			dz := user[2] - svCorrected[2]
			rangeEst := math.Sqrt(dx*dx + dy*dy + dz*dz)

			design.Set(i, 0, dx/rangeEst)
			design.Set(i, 1, dy/rangeEst)
			design.Set(i, 2, dz/rangeEst)
			design.Set(i, 3, 1)

			predicted := rangeEst + x.AtVec(3)
			residual.SetVec(i, o.Pseudorange-predicted)
		}
		geometry = design

		var dt mat.Dense
		dt.Mul(design.T(), design)

		var rhs mat.VecDense
		rhs.MulVec(design.T(), residual)

		var delta mat.VecDense
		if err := delta.SolveVec(&dt, &rhs); err != nil {
			return Solution{}, ErrGeometrySingular
		}

		x.AddVec(x, &delta)

		deltaNorm := math.Sqrt(delta.AtVec(0)*delta.AtVec(0) + delta.AtVec(1)*delta.AtVec(1) + delta.AtVec(2)*delta.AtVec(2))
		if deltaNorm < convergenceMeters {
			iterations++
			break
		}
	}

	cond := mat.Cond(geometry, 2)
	if math.IsInf(cond, 1) || cond > conditionThreshold {
		return Solution{}, ErrGeometrySingular
	}

	hdop, vdop, pdop, err := dopFromGeometry(geometry)
	if err != nil {
		return Solution{}, ErrGeometrySingular
	}

	return Solution{
		ECEF:            [3]float64{x.AtVec(0), x.AtVec(1), x.AtVec(2)},
		ClockBiasMeters: x.AtVec(3),
		HDOP:            hdop,
		VDOP:            vdop,
		PDOP:            pdop,
		Iterations:      iterations,
	}, nil
}

// applySagnac rotates a satellite's ECEF position to account for Earth's
// rotation during the signal's transit time, using the Sagnac
// approximation appropriate at GPS ranges.
func applySagnac(sv [3]float64, user [3]float64) [3]float64 {
	tau := rangeMeters(sv, user) / speedOfLight
	theta := omegaE * tau
	sinT, cosT := math.Sin(theta), math.Cos(theta)
	return [3]float64{
		cosT*sv[0] + sinT*sv[1],
		-sinT*sv[0] + cosT*sv[1],
		sv[2],
	}
}

func rangeMeters(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// dopFromGeometry derives HDOP/VDOP/PDOP from the unweighted geometry
// matrix's covariance (G^T G)^-1, following the standard GPS DOP
// definition referenced against the receiver's local ENU frame; here we
// report the ECEF-frame diagonal terms directly since the receiver does
// not yet know its own geodetic orientation before the first fix.
func dopFromGeometry(geometry *mat.Dense) (hdop, vdop, pdop float64, err error) {
	var gtg mat.Dense
	gtg.Mul(geometry.T(), geometry)

	var inv mat.Dense
	if err := inv.Inverse(&gtg); err != nil {
		return 0, 0, 0, err
	}

	hdop = math.Sqrt(inv.At(0, 0) + inv.At(1, 1))
	vdop = math.Sqrt(inv.At(2, 2))
	pdop = math.Sqrt(inv.At(0, 0) + inv.At(1, 1) + inv.At(2, 2))
	return hdop, vdop, pdop, nil
}
